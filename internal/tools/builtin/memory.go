package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	ctxpkg "github.com/phynics/monad-project-sub004/internal/context"
	"github.com/phynics/monad-project-sub004/pkg/models"
)

// MemorySearchTool lets the model explicitly request a memory search
// mid-turn, independent of the context gathered at turn start.
type MemorySearchTool struct {
	embedder ctxpkg.Embedder
	store    ctxpkg.MemoryStore
	limit    int
}

func NewMemorySearchTool(embedder ctxpkg.Embedder, store ctxpkg.MemoryStore, limit int) *MemorySearchTool {
	if limit <= 0 {
		limit = ctxpkg.DefaultLimit
	}
	return &MemorySearchTool{embedder: embedder, store: store, limit: limit}
}

func (t *MemorySearchTool) Name() string { return "memory_search" }

func (t *MemorySearchTool) Schema() models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name(),
		Description: "Search retained memories by semantic similarity to a query.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string", "description": "What to search for."},
			},
			"required": []string{"query"},
		},
	}
}

func (t *MemorySearchTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}
	if strings.TrimSpace(input.Query) == "" {
		return "", fmt.Errorf("query is required")
	}

	gatherer := ctxpkg.New(t.embedder, t.store, nil, nil, ctxpkg.Config{Limit: t.limit}, nil)
	data := gatherer.Gather(ctx, "", input.Query, nil, nil)

	if len(data.Memories) == 0 {
		return "no matching memories found", nil
	}
	var b strings.Builder
	for i, m := range data.Memories {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, m.Title, m.Content)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
