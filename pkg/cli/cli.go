package cli

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	if err := newApp(os.Stdout).Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "recall",
		Usage:   "Memory recording service for MCP clients",
		Version: version,
		Writer:  w,
		Commands: []*cli.Command{
			serveCommand(),
			addCommand(),
			searchCommand(),
			callCommand(),
		},
	}
}
