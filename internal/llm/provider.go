// Package llm defines the provider-agnostic streaming completion contract
// the ChatEngine (C6) drives: an LLMProvider turns a CompletionRequest into
// a channel of CompletionChunks, which C1 further splits into
// thinking/content and which C6 turns into typed events (C10).
package llm

import (
	"context"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

// LLMProvider is implemented by each concrete model backend (anthropic,
// openai, ...). Implementations must be safe for concurrent use: the
// engine may have several sessions in flight at once, each calling
// Complete independently.
type LLMProvider interface {
	// Complete starts a streaming completion. The returned channel is
	// closed by the provider once a terminal chunk (Done or Error) has
	// been sent.
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)

	// Name is the provider identifier. generationCompleted's
	// responseMetadata.model carries the requested model, not this value.
	Name() string

	// Models lists the backend's available models and their capabilities.
	Models() []Model

	// SupportsTools reports whether this provider can accept native tool
	// definitions. When false, the engine still makes tools available to
	// the model via the prompt's tools section and relies on the XML
	// fallback extraction (C1) instead of native tool-call accumulation.
	SupportsTools() bool
}

// CompletionRequest is everything an LLMProvider needs to start one
// streaming generation.
type CompletionRequest struct {
	Model                string
	System               string
	Messages             []models.CompletionMessage
	Tools                []models.ToolSchema
	MaxTokens            int
	EnableThinking       bool
	ThinkingBudgetTokens int
}

// CompletionChunk is one unit of a streaming completion. Exactly one of
// Text, Thinking, ToolCall, Done, or Error is meaningful per chunk; a
// provider may set ThinkingStart/ThinkingEnd alongside Thinking to mark
// native reasoning-block boundaries (providers without native thinking
// blocks, e.g. OpenAI-compatible backends, instead emit the block inline
// in Text using <think>/</think> tags for C1 to split).
type CompletionChunk struct {
	Text     string
	Thinking string

	ThinkingStart bool
	ThinkingEnd   bool

	ToolCall *models.ToolCall

	Done         bool
	InputTokens  int
	OutputTokens int

	Error error
}

// Model describes one model a provider can serve.
type Model struct {
	ID             string
	Name           string
	ContextSize    int
	SupportsVision bool
}
