package tool

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool is an operation exposed to tool-calling clients
type Tool interface {
	// Spec returns the tool name, description and input schema
	Spec() *mcp.Tool

	// Execute runs the tool with raw JSON arguments and returns a plain text
	// result. Malformed arguments must be reported with model.ErrTagValidation.
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}
