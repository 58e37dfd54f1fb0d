package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/recall/pkg/tool"
	usecase "github.com/m-mizutani/recall/pkg/usecase/memory"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddMemoryName is the tool name of AddMemory
const AddMemoryName = "add-memory"

type addMemoryInput struct {
	Content *string `json:"content"`
	UserID  *string `json:"userId"`
}

// AddMemory records a new memory
type AddMemory struct {
	uc *usecase.UseCase
}

// NewAddMemory creates a new add-memory tool
func NewAddMemory(uc *usecase.UseCase) *AddMemory {
	return &AddMemory{uc: uc}
}

// Spec returns the add-memory tool definition
func (a *AddMemory) Spec() *mcp.Tool {
	return &mcp.Tool{
		Name:        AddMemoryName,
		Description: "Add a new memory",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"content": {
					Type:        "string",
					Description: "The content of the memory to store",
				},
				"userId": {
					Type:        "string",
					Description: "User ID owning the memory (optional)",
				},
			},
			Required: []string{"content"},
		},
	}
}

// Execute validates the arguments and records the memory
func (a *AddMemory) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var input addMemoryInput
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}

	content, err := requireString("content", input.Content)
	if err != nil {
		return "", err
	}

	m, err := a.uc.Record(ctx, content, userIDOf(input.UserID))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Memory added successfully with ID: %s (user: %s)", m.ID, m.UserID), nil
}

// Tools returns every memory tool backed by uc
func Tools(uc *usecase.UseCase) []tool.Tool {
	return []tool.Tool{
		NewAddMemory(uc),
		NewSearchMemories(uc),
	}
}
