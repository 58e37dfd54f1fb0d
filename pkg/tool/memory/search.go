package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/recall/pkg/model"
	usecase "github.com/m-mizutani/recall/pkg/usecase/memory"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchMemoriesName is the tool name of SearchMemories
const SearchMemoriesName = "search-memories"

type searchMemoriesInput struct {
	Query  *string `json:"query"`
	UserID *string `json:"userId"`
}

// SearchMemories finds memories by case-insensitive substring match
type SearchMemories struct {
	uc *usecase.UseCase
}

// NewSearchMemories creates a new search-memories tool
func NewSearchMemories(uc *usecase.UseCase) *SearchMemories {
	return &SearchMemories{uc: uc}
}

// Spec returns the search-memories tool definition
func (s *SearchMemories) Spec() *mcp.Tool {
	return &mcp.Tool{
		Name:        SearchMemoriesName,
		Description: "Search memories containing the query text. Returns up to 10 most recent matches.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "Text to search for (case-insensitive). Empty string lists recent memories.",
				},
				"userId": {
					Type:        "string",
					Description: "User ID whose memories are searched (optional)",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Execute validates the arguments and lists matching memories
func (s *SearchMemories) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var input searchMemoriesInput
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}

	query, err := requireString("query", input.Query)
	if err != nil {
		return "", err
	}

	memories, err := s.uc.Search(ctx, query, userIDOf(input.UserID))
	if err != nil {
		return "", err
	}

	return formatResult(query, memories), nil
}

// formatResult formats the search result as a numbered listing
func formatResult(query string, memories []*model.Memory) string {
	if len(memories) == 0 {
		return fmt.Sprintf("No memories found for query: %q", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d memories:\n", len(memories))
	for i, m := range memories {
		fmt.Fprintf(&b, "\n%d. [%s] %s", i+1, m.Timestamp.UTC().Format(time.RFC3339), m.Content)
	}
	return b.String()
}
