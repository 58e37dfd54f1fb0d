package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
	memorytool "github.com/m-mizutani/recall/pkg/tool/memory"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func searchCommand() *cli.Command {
	var (
		cfg    config
		userID string
		output string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "User ID whose memories are searched",
			Sources:     cli.EnvVars("RECALL_USER"),
			Destination: &userID,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output format (text, yaml)",
			Value:       "text",
			Destination: &output,
		},
	}
	flags = append(flags, storageFlags(&cfg)...)
	flags = append(flags, loggingFlags(&cfg)...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Search memories containing the query (case-insensitive)",
		ArgsUsage: "[query]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() > 1 {
				return goerr.New("at most one query argument is allowed")
			}
			query := c.Args().First()

			ctx, err := cfg.newLogger(ctx)
			if err != nil {
				return err
			}

			uc, err := cfg.newUseCase()
			if err != nil {
				return err
			}
			defer uc.Close()

			switch output {
			case "text":
				raw, err := json.Marshal(map[string]string{"query": query, "userId": userID})
				if err != nil {
					return goerr.Wrap(err, "failed to marshal arguments")
				}

				out, err := newRegistry(uc).Execute(ctx, memorytool.SearchMemoriesName, raw)
				if err != nil {
					return goerr.Wrap(err, "failed to search memories")
				}
				fmt.Fprintln(c.Root().Writer, out)
				return nil

			case "yaml":
				memories, err := uc.Search(ctx, query, model.UserID(userID))
				if err != nil {
					return goerr.Wrap(err, "failed to search memories")
				}

				enc := yaml.NewEncoder(c.Root().Writer)
				if err := enc.Encode(memories); err != nil {
					return goerr.Wrap(err, "failed to encode memories")
				}
				if err := enc.Close(); err != nil {
					return goerr.Wrap(err, "failed to flush yaml output")
				}
				return nil

			default:
				return goerr.New("unsupported output format",
					goerr.V("output", output),
					goerr.V("supported", []string{"text", "yaml"}))
			}
		},
	}
}
