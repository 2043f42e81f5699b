// Package context implements the Context Gatherer (C4): given a query and a
// session's history, it produces a ContextData of ranked memories and
// applicable notes, streaming progress as it goes. A missing or failing
// collaborator degrades the result (possibly to an empty ContextData)
// instead of failing the call.
package context

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

// DefaultLimit is the default cap on ranked memories returned by Gather.
const DefaultLimit = 5

// Embedder turns text into a vector comparable against stored memory
// embeddings. A production embedder calls out to a remote service; Gather
// treats its failure as a degraded-context condition, not a fatal one.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// MemoryStore supplies the candidate memory pool a session may draw from.
// Ranking and filtering is performed by Gather, not the store.
type MemoryStore interface {
	ListMemories(ctx context.Context) ([]models.Memory, error)
}

// NoteStore supplies a session's always-append notes.
type NoteStore interface {
	ListNotes(ctx context.Context, sessionID string) ([]models.Note, error)
}

// TagExtractor delegates auto-tag extraction from a query to the LLM, for
// matching against note tags.
type TagExtractor interface {
	ExtractTags(ctx context.Context, query string) ([]string, error)
}

// ContextData is the final product of one gather: the notes and memories
// relevant to a query and history.
type ContextData struct {
	Notes    []models.Note
	Memories []models.Memory
}

// FileNames returns the distinct source files behind Notes, in first-seen
// order, for consumers (C6's generationContext event) that report them
// alongside memory identities.
func (c ContextData) FileNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, n := range c.Notes {
		if n.SourceFile == "" || seen[n.SourceFile] {
			continue
		}
		seen[n.SourceFile] = true
		names = append(names, n.SourceFile)
	}
	return names
}

// ProgressFunc receives a human-readable stage name as Gather advances.
type ProgressFunc func(stage string)

// Config tunes ranking behavior.
type Config struct {
	MinSimilarity float32
	Limit         int
}

// DefaultConfig returns the spec's defaults: no similarity floor, top 5.
func DefaultConfig() Config {
	return Config{MinSimilarity: 0, Limit: DefaultLimit}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	return cfg
}

// Gatherer implements C4.
type Gatherer struct {
	embedder Embedder
	memories MemoryStore
	notes    NoteStore
	tags     TagExtractor
	cfg      Config
	logger   *slog.Logger
}

// New builds a Gatherer. embedder, memories, notes, and tags may each be nil
// — Gather degrades gracefully, producing whatever partial ContextData it
// can from the collaborators it has.
func New(embedder Embedder, memories MemoryStore, notes NoteStore, tags TagExtractor, cfg Config, logger *slog.Logger) *Gatherer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gatherer{
		embedder: embedder,
		memories: memories,
		notes:    notes,
		tags:     tags,
		cfg:      sanitizeConfig(cfg),
		logger:   logger,
	}
}

// Gather produces a ContextData for query against sessionID's notes and
// memories. history is accepted for future query-expansion use but the
// current ranking only consults query. Partial collaborator failure (e.g.
// an unreachable embedding service) is logged and yields a degraded, but
// never nil, ContextData — Gather never returns an error that would abort
// the calling turn.
func (g *Gatherer) Gather(ctx context.Context, sessionID, query string, history []models.ConversationMessage, progress ProgressFunc) ContextData {
	report := func(stage string) {
		if progress != nil {
			progress(stage)
		}
	}

	var data ContextData

	report("ranking memories")
	data.Memories = g.rankMemories(ctx, query)

	report("gathering notes")
	data.Notes = g.gatherNotes(ctx, sessionID, query)

	report("done")
	return data
}

func (g *Gatherer) rankMemories(ctx context.Context, query string) []models.Memory {
	if g.embedder == nil || g.memories == nil || strings.TrimSpace(query) == "" {
		return nil
	}

	queryEmbedding, err := g.embedder.Embed(ctx, query)
	if err != nil {
		g.logger.Warn("context: query embedding failed, skipping memory ranking", "error", err)
		return nil
	}

	candidates, err := g.memories.ListMemories(ctx)
	if err != nil {
		g.logger.Warn("context: listing memories failed, skipping memory ranking", "error", err)
		return nil
	}

	type scored struct {
		memory models.Memory
		score  float32
	}
	var ranked []scored
	for _, m := range candidates {
		if len(m.Embedding) == 0 {
			continue
		}
		score := cosineSimilarity(queryEmbedding, m.Embedding)
		if score < g.cfg.MinSimilarity {
			continue
		}
		ranked = append(ranked, scored{memory: m, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > g.cfg.Limit {
		ranked = ranked[:g.cfg.Limit]
	}
	out := make([]models.Memory, len(ranked))
	for i, s := range ranked {
		out[i] = s.memory
	}
	return out
}

func (g *Gatherer) gatherNotes(ctx context.Context, sessionID, query string) []models.Note {
	if g.notes == nil {
		return nil
	}
	all, err := g.notes.ListNotes(ctx, sessionID)
	if err != nil {
		g.logger.Warn("context: listing notes failed, skipping notes", "error", err)
		return nil
	}

	var matchTags []string
	if g.tags != nil && strings.TrimSpace(query) != "" {
		extracted, err := g.tags.ExtractTags(ctx, query)
		if err != nil {
			g.logger.Warn("context: tag extraction failed, falling back to always-append notes only", "error", err)
		} else {
			matchTags = extracted
		}
	}

	wanted := make(map[string]bool, len(matchTags))
	for _, t := range matchTags {
		wanted[strings.ToLower(strings.TrimSpace(t))] = true
	}

	var out []models.Note
	for _, n := range all {
		if n.AlwaysAppend || tagMatches(n.Tags, wanted) {
			out = append(out, n)
		}
	}
	return out
}

func tagMatches(tags []string, wanted map[string]bool) bool {
	for _, t := range tags {
		if wanted[strings.ToLower(strings.TrimSpace(t))] {
			return true
		}
	}
	return false
}
