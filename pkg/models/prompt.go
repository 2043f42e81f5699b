package models

import "context"

// CompressionStrategy says how a ContextSection degrades when it can't fit
// its estimated size inside the remaining budget.
type CompressionStrategy string

const (
	CompressKeep         CompressionStrategy = "keep"
	CompressTruncateTail CompressionStrategy = "truncate_tail"
	CompressTruncateHead CompressionStrategy = "truncate_head"
	CompressSummarize    CompressionStrategy = "summarize"
	CompressDrop         CompressionStrategy = "drop"
)

// SectionType is the structural shape of a section's content.
type SectionType string

const (
	SectionText SectionType = "text"
	SectionList SectionType = "list"
)

// Well-known section ids and their default priorities (spec.md §4.3).
const (
	SectionSystem          = "system"
	SectionDatabaseDir     = "database_directory"
	SectionDocuments       = "documents"
	SectionContextNotes    = "context_notes"
	SectionMemories        = "memories"
	SectionTools           = "tools"
	SectionChatHistory     = "chat_history"
	SectionUserQuery       = "user_query"
)

// DefaultPriorities maps the well-known section ids to their default
// priority (higher sorts earlier).
var DefaultPriorities = map[string]int{
	SectionSystem:       100,
	SectionDatabaseDir:  98,
	SectionDocuments:    95,
	SectionContextNotes: 90,
	SectionMemories:     85,
	SectionTools:        80,
	SectionChatHistory:  70,
	SectionUserQuery:    10,
}

// RenderFunc produces a section's rendered text, constrained to budget
// tokens when budget > 0. Implementations that cannot shrink to budget
// should return their best-effort truncation rather than erroring.
type RenderFunc func(ctx context.Context, budget int) (string, error)

// ContextSection is one typed, budget-aware piece of a Prompt.
type ContextSection struct {
	ID            string
	Priority      int
	EstimatedTokens int
	Strategy      CompressionStrategy
	Type          SectionType
	Render        RenderFunc

	// rendered is filled in by the assembler after Render runs.
	rendered string
}

// Rendered returns the section's rendered text after the assembler's Render has run.
func (s *ContextSection) Rendered() string { return s.rendered }

// SetRendered stores the rendered text; used by the assembler.
func (s *ContextSection) SetRendered(text string) { s.rendered = text }

// Prompt is an ordered list of typed ContextSections, sorted by descending
// priority before rendering (spec.md §3 Prompt invariants).
type Prompt struct {
	Sections []*ContextSection
}
