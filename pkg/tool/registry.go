package tool

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
)

// Registry dispatches tool calls by name
type Registry struct {
	tools    map[string]Tool
	allTools []Tool
}

// New creates a new tool registry with the given tools
func New(tools ...Tool) *Registry {
	r := &Registry{
		tools:    make(map[string]Tool),
		allTools: tools,
	}

	for _, t := range tools {
		r.tools[t.Spec().Name] = t
	}

	return r
}

// Tools returns all registered tools in registration order
func (r *Registry) Tools() []Tool {
	return r.allTools
}

// Lookup returns the tool registered under name
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Execute runs the named tool. Unknown names are reported with
// model.ErrTagMethodNotFound.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", goerr.New("tool not found",
			goerr.V("name", name),
			goerr.T(model.ErrTagMethodNotFound))
	}

	return t.Execute(ctx, args)
}
