package mcp

import (
	"context"

	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/tool"
	"github.com/m-mizutani/recall/pkg/utils/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "recall"

// NewServer creates an MCP server exposing every tool of the registry
func NewServer(registry *tool.Registry, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: version,
	}, nil)

	for _, t := range registry.Tools() {
		spec := t.Spec()
		server.AddTool(spec, toolHandler(registry, spec.Name))
	}
	server.AddReceivingMiddleware(unknownToolMiddleware(registry))

	return server
}

// unknownToolMiddleware answers calls to unregistered tools with a
// MethodNotFound result instead of the SDK's invalid-params error.
func unknownToolMiddleware(registry *tool.Registry) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}

			call, ok := req.(*mcp.CallToolRequest)
			if !ok || call.Params == nil {
				return next(ctx, method, req)
			}
			if _, found := registry.Lookup(call.Params.Name); found {
				return next(ctx, method, req)
			}

			_, err := registry.Execute(ctx, call.Params.Name, call.Params.Arguments)
			return errorResult(ctx, call.Params.Name, err), nil
		}
	}
}

func toolHandler(registry *tool.Registry, name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := registry.Execute(ctx, name, req.Params.Arguments)
		if err != nil {
			return errorResult(ctx, name, err), nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: text},
			},
		}, nil
	}
}

// errorResult reports err to the caller with its category. Internal causes
// are logged but never sent.
func errorResult(ctx context.Context, name string, err error) *mcp.CallToolResult {
	kind := model.KindOf(err)

	msg := err.Error()
	if kind == model.ErrorKindInternal {
		logging.From(ctx).Error("tool call failed", "tool", name, "error", err)
		msg = "internal error"
	}

	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(kind) + ": " + msg},
		},
	}
}
