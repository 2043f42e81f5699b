package engine

import "errors"

// Sentinel errors for chatStream's fatal-for-a-turn conditions (spec.md §7).
// ClientExecutionRequired is not among these: it is a control signal
// surfaced as a generationCompleted event, not an error event.
var (
	// ErrNotConfigured means no LLMProvider is wired for this engine.
	ErrNotConfigured = errors.New("engine: not configured")
	// ErrSessionNotFound means the session id does not exist.
	ErrSessionNotFound = errors.New("engine: session not found")
	// ErrInvalidArgument means message and priorToolOutputs were both empty.
	ErrInvalidArgument = errors.New("engine: message or priorToolOutputs required")
)
