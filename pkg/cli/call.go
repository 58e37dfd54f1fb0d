package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/service/mcp"
	"github.com/urfave/cli/v3"
)

func callCommand() *cli.Command {
	var (
		url       string
		authToken string
		list      bool
	)

	return &cli.Command{
		Name:      "call",
		Usage:     "Call a tool on a running recall server",
		ArgsUsage: "<tool> [json-arguments]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "url",
				Usage:       "MCP endpoint of the server",
				Value:       "http://localhost:3000/mcp",
				Sources:     cli.EnvVars("RECALL_URL"),
				Destination: &url,
			},
			&cli.StringFlag{
				Name:        "auth-token",
				Usage:       "Bearer token of the server",
				Sources:     cli.EnvVars("RECALL_AUTH_TOKEN"),
				Destination: &authToken,
			},
			&cli.BoolFlag{
				Name:        "list",
				Aliases:     []string{"l"},
				Usage:       "List available tools instead of calling one",
				Destination: &list,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if !list && c.Args().Len() == 0 {
				return goerr.New("tool name is required")
			}

			client, err := mcp.Connect(ctx, mcp.ClientConfig{
				Transport: "http",
				URL:       url,
				Token:     authToken,
			})
			if err != nil {
				return err
			}
			defer client.Close()

			w := c.Root().Writer
			if list {
				tools, err := client.ListTools(ctx)
				if err != nil {
					return err
				}
				for _, t := range tools {
					fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Description)
				}
				return nil
			}

			arguments := map[string]any{}
			if raw := c.Args().Get(1); raw != "" {
				if err := json.Unmarshal([]byte(raw), &arguments); err != nil {
					return goerr.Wrap(err, "failed to parse tool arguments", goerr.V("arguments", raw))
				}
			}

			out, err := client.CallTool(ctx, c.Args().First(), arguments)
			if err != nil {
				return err
			}

			fmt.Fprintln(w, out)
			return nil
		},
	}
}
