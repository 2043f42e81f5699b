// Package engine implements the ChatEngine turn loop (C6) and the typed
// event stream (C10) it emits to consumers: interactive CLIs, the
// autonomous reasoning engine, or an HTTP/SSE server.
package engine

import "github.com/phynics/monad-project-sub004/pkg/models"

// EventType identifies one of the recognized ChatDelta variants (spec.md §6).
type EventType string

const (
	EventGenerationContext   EventType = "generationContext"
	EventThought             EventType = "thought"
	EventThoughtCompleted    EventType = "thoughtCompleted"
	EventDelta               EventType = "delta"
	EventToolCall            EventType = "toolCall"
	EventToolCallError       EventType = "toolCallError"
	EventToolExecution       EventType = "toolExecution"
	EventGenerationCompleted EventType = "generationCompleted"
	EventGenerationCancelled EventType = "generationCancelled"
	EventError               EventType = "error"
	EventStreamCompleted     EventType = "streamCompleted"
)

// ToolExecutionStatus is toolExecution's status field.
type ToolExecutionStatus string

const (
	ToolAttempting ToolExecutionStatus = "attempting"
	ToolSuccess    ToolExecutionStatus = "success"
	ToolFailure    ToolExecutionStatus = "failure"
)

// ContextMetadata is generationContext's payload: what C4 surfaced for this turn.
type ContextMetadata struct {
	Memories []string
	Files    []string
}

// ToolCallFragment is one entry of a toolCall event's toolCalls slice. Any
// field may be empty — fragments accumulate across events by Index.
type ToolCallFragment struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// ToolExecutionPayload is toolExecution's payload.
type ToolExecutionPayload struct {
	ID     string
	Name   string
	Target string
	Status ToolExecutionStatus
	Result string
	Error  string
}

// ResponseMetadata is generationCompleted's payload.
type ResponseMetadata struct {
	Model                   string
	PromptTokens            int
	CompletionTokens        int
	TotalTokens             int
	DurationSeconds         float64
	TokensPerSecond         float64
	DebugSnapshotData       *models.DebugSnapshot
	RequiresClientExecution bool
}

// Event is one record in the ChatDelta stream. Exactly the fields relevant
// to Type are populated.
type Event struct {
	Type EventType

	Context       *ContextMetadata
	Thought       string
	Content       string
	ToolCalls     []ToolCallFragment
	ToolExecution *ToolExecutionPayload
	Message       *models.ConversationMessage
	Response      *ResponseMetadata
	Err           string
}
