package models

// ToolSchema is the model-facing description of one tool: name,
// description, and a JSON-Schema-compatible parameter map. Recognized
// parameter types: string, integer, boolean, array<string>, object;
// "required" lists parameter names.
type ToolSchema struct {
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	Parameters         map[string]any `json:"parameters"`
	RequiresPermission bool           `json:"-"`
}

// CompletionMessage is one message in the ordered list handed to an
// LLMProvider: either plain text, an assistant tool-call request, or a
// tool result.
type CompletionMessage struct {
	Role        string     `json:"role"`
	Content     string     `json:"content,omitempty"`
	ToolCalls   []ToolCall `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}
