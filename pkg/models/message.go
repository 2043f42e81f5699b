// Package models defines the core data types shared across Monad's
// components: sessions, messages, tool calls, workspaces, memories, jobs,
// and the prompt types the assembler produces.
package models

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a ConversationMessage.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
	RoleSummary   Role = "summary"
)

// ToolCall is a single tool invocation requested by the model, either
// accumulated from a native streaming tool-call channel or synthesized
// from an inline XML fallback block.
type ToolCall struct {
	// ID is assigned by the model, or synthesized when the provider gives
	// none (XML fallback). Stable for the duration of the turn.
	ID string `json:"id"`

	// Name is the tool name as requested by the model.
	Name string `json:"name"`

	// Arguments is the JSON-encoded argument object.
	Arguments json.RawMessage `json:"arguments"`

	// Index groups streaming fragments belonging to the same logical call.
	// Only meaningful while a call is still being accumulated.
	Index int `json:"index,omitempty"`
}

// ConversationMessage is one entry in a session's history.
type ConversationMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// Reasoning holds the model's extended-thinking text for this turn, if any.
	Reasoning string `json:"reasoning,omitempty"`

	// ToolCalls is the list of tool calls the assistant requested in this
	// message. Only set on role=assistant messages.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID is required when Role == RoleTool: it cites the ToolCall.ID
	// from an earlier assistant message in the same session.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// ParentID supports forest/branching: the message this one replies to.
	ParentID string `json:"parent_id,omitempty"`

	// RecalledMemoryIDs lists memories surfaced by context gathering and
	// attributed to this turn, for debugging and citation.
	RecalledMemoryIDs []string `json:"recalled_memory_ids,omitempty"`
}

// IsTool reports whether this message carries a tool result.
func (m *ConversationMessage) IsTool() bool {
	return m.Role == RoleTool
}
