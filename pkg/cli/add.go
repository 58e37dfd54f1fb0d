package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	memorytool "github.com/m-mizutani/recall/pkg/tool/memory"
	"github.com/urfave/cli/v3"
)

func addCommand() *cli.Command {
	var (
		cfg    config
		userID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "User ID owning the memory",
			Sources:     cli.EnvVars("RECALL_USER"),
			Destination: &userID,
		},
	}
	flags = append(flags, storageFlags(&cfg)...)
	flags = append(flags, loggingFlags(&cfg)...)

	return &cli.Command{
		Name:      "add",
		Usage:     "Record a memory directly into the store",
		ArgsUsage: "<content>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("exactly one content argument is required")
			}

			ctx, err := cfg.newLogger(ctx)
			if err != nil {
				return err
			}

			uc, err := cfg.newUseCase()
			if err != nil {
				return err
			}
			defer uc.Close()

			args := map[string]string{"content": c.Args().First()}
			if userID != "" {
				args["userId"] = userID
			}
			raw, err := json.Marshal(args)
			if err != nil {
				return goerr.Wrap(err, "failed to marshal arguments")
			}

			out, err := newRegistry(uc).Execute(ctx, memorytool.AddMemoryName, raw)
			if err != nil {
				return goerr.Wrap(err, "failed to add memory")
			}

			fmt.Fprintln(c.Root().Writer, out)
			return nil
		},
	}
}
