package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

// ReadFileTool reads a workspace-relative file's content.
type ReadFileTool struct {
	resolver Resolver
}

func NewReadFileTool(root string) *ReadFileTool { return &ReadFileTool{resolver: Resolver{Root: root}} }

func (t *ReadFileTool) Name() string { return "read_file" }

func (t *ReadFileTool) Schema() models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name(),
		Description: "Read the content of a file in the workspace.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string", "description": "Path relative to the workspace root."},
			},
			"required": []string{"path"},
		},
	}
}

func (t *ReadFileTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}
	abs, err := t.resolver.resolve(input.Path)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", input.Path, err)
	}
	return string(content), nil
}

// WriteFileTool writes content to a workspace-relative file, creating
// parent directories as needed.
type WriteFileTool struct {
	resolver Resolver
}

func NewWriteFileTool(root string) *WriteFileTool {
	return &WriteFileTool{resolver: Resolver{Root: root}}
}

func (t *WriteFileTool) Name() string { return "write_file" }

func (t *WriteFileTool) Schema() models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name(),
		Description: "Write content to a file in the workspace, creating it if needed.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":    map[string]any{"type": "string", "description": "Path relative to the workspace root."},
				"content": map[string]any{"type": "string", "description": "Full file content to write."},
			},
			"required": []string{"path", "content"},
		},
	}
}

func (t *WriteFileTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}
	abs, err := t.resolver.resolve(input.Path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}
	if err := os.WriteFile(abs, []byte(input.Content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", input.Path, err)
	}
	return fmt.Sprintf("wrote %d bytes to %s", len(input.Content), input.Path), nil
}

// ListFilesTool lists the entries of a workspace-relative directory.
type ListFilesTool struct {
	resolver Resolver
}

func NewListFilesTool(root string) *ListFilesTool {
	return &ListFilesTool{resolver: Resolver{Root: root}}
}

func (t *ListFilesTool) Name() string { return "list_files" }

func (t *ListFilesTool) Schema() models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name(),
		Description: "List the entries of a directory in the workspace.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string", "description": "Directory path relative to the workspace root. Defaults to \".\"."},
			},
		},
	}
}

func (t *ListFilesTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Path string `json:"path"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &input); err != nil {
			return "", fmt.Errorf("decode arguments: %w", err)
		}
	}
	if input.Path == "" {
		input.Path = "."
	}
	abs, err := t.resolver.resolve(input.Path)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", input.Path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var out string
	for _, n := range names {
		out += n + "\n"
	}
	return out, nil
}

