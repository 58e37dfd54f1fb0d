package mcp

import (
	"context"
	"net/http"
	"os/exec"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Client calls tools on a running recall server
type Client struct {
	session *mcp.ClientSession
}

// ClientConfig represents how to reach the server
type ClientConfig struct {
	Transport string // "http" or "stdio"
	URL       string
	Token     string
	Command   []string
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(req)
}

// Connect connects to a server with the given configuration
func Connect(ctx context.Context, cfg ClientConfig) (*Client, error) {
	mcpClient := mcp.NewClient(&mcp.Implementation{
		Name:    serverName + "-client",
		Version: "0.1.0",
	}, nil)

	var transport mcp.Transport
	switch cfg.Transport {
	case "http", "":
		if cfg.URL == "" {
			return nil, goerr.New("url is required for http transport")
		}
		transport = &mcp.StreamableClientTransport{
			Endpoint: cfg.URL,
			HTTPClient: &http.Client{
				Transport: &bearerTransport{token: cfg.Token, base: http.DefaultTransport},
			},
		}

	case "stdio":
		if len(cfg.Command) == 0 {
			return nil, goerr.New("command is required for stdio transport")
		}
		transport = &mcp.CommandTransport{Command: exec.Command(cfg.Command[0], cfg.Command[1:]...)}

	default:
		return nil, goerr.New("unsupported transport",
			goerr.V("transport", cfg.Transport),
			goerr.V("supported", []string{"stdio", "http"}))
	}

	session, err := mcpClient.Connect(ctx, transport, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to MCP server",
			goerr.V("url", cfg.URL))
	}

	return &Client{session: session}, nil
}

// ListTools returns the tools offered by the server
func (c *Client) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	result, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tools")
	}
	return result.Tools, nil
}

// CallTool calls a tool and returns its text output. A tool level failure is
// returned as an error carrying the server's message.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (string, error) {
	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: arguments,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to call tool", goerr.V("tool", name))
	}

	var texts []string
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			texts = append(texts, text.Text)
		}
	}
	output := strings.Join(texts, "\n")

	if result.IsError {
		return "", goerr.New(output, goerr.V("tool", name))
	}
	return output, nil
}

// Close closes the session
func (c *Client) Close() error {
	if err := c.session.Close(); err != nil {
		return goerr.Wrap(err, "failed to close session")
	}
	return nil
}
