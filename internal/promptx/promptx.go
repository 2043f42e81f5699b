// Package promptx implements the Prompt Assembler (C3): building an
// ordered, budget-aware Prompt from typed context sections, and rendering
// it into the message list an LLM client consumes.
package promptx

import (
	"fmt"
	"strings"

	"github.com/phynics/monad-project-sub004/internal/tokenest"
	"github.com/phynics/monad-project-sub004/pkg/models"
)

// Config tunes section-level budgets. Only chat_history has a spec-defined
// budget formula (ModelContextLimit minus Reservation); the others are
// proxy character caps in the spirit of the teacher's packer.PackOptions.
type Config struct {
	// ModelContextLimit is the target model's total context window in tokens.
	ModelContextLimit int

	// Reservation is tokens held back from history for every other section.
	// Must be at least 4000 per spec.md §4.3.
	Reservation int

	DocumentsCharBudget int
	NotesCharBudget     int
	MemoriesCharBudget  int
}

const minReservation = 4000

// DefaultConfig matches the teacher's scale: a 128k-token model, a 4k
// reservation floor, and proxy char budgets sized like packer.go's
// MaxChars/MaxToolResultChars.
func DefaultConfig() Config {
	return Config{
		ModelContextLimit:   128_000,
		Reservation:         minReservation,
		DocumentsCharBudget: 8000,
		NotesCharBudget:     4000,
		MemoriesCharBudget:  4000,
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.ModelContextLimit <= 0 {
		cfg.ModelContextLimit = DefaultConfig().ModelContextLimit
	}
	if cfg.Reservation < minReservation {
		cfg.Reservation = minReservation
	}
	if cfg.DocumentsCharBudget <= 0 {
		cfg.DocumentsCharBudget = DefaultConfig().DocumentsCharBudget
	}
	if cfg.NotesCharBudget <= 0 {
		cfg.NotesCharBudget = DefaultConfig().NotesCharBudget
	}
	if cfg.MemoriesCharBudget <= 0 {
		cfg.MemoriesCharBudget = DefaultConfig().MemoriesCharBudget
	}
	return cfg
}

// Assembler implements C3's build and render operations.
type Assembler struct {
	cfg Config
}

// New builds an Assembler. A zero Config is sanitized to DefaultConfig.
func New(cfg Config) *Assembler {
	return &Assembler{cfg: sanitizeConfig(cfg)}
}

// Input collects build's parameters. SystemInstructions and WorkingDir are
// optional; everything else defaults to its zero value when absent.
type Input struct {
	SystemInstructions string
	WorkingDir         string
	Notes              []models.Note
	Memories           []models.Memory
	Tools              []models.ToolSchema
	History            []models.ConversationMessage
	UserQuery          string
}

// Build assembles a Prompt from the recognized sections (spec.md §4.3).
// "documents" is populated from notes carrying a SourceFile; the remainder
// land in "context_notes".
func (a *Assembler) Build(in Input) *models.Prompt {
	documents, notes := splitDocuments(in.Notes)

	sections := []*models.ContextSection{
		a.systemSection(in.SystemInstructions),
		a.databaseDirectorySection(in.WorkingDir),
		a.documentsSection(documents),
		a.contextNotesSection(notes),
		a.memoriesSection(in.Memories),
		a.toolsSection(in.Tools),
		a.chatHistorySection(in.History),
		a.userQuerySection(in.UserQuery),
	}

	return &models.Prompt{Sections: sortByPriority(sections)}
}

func splitDocuments(notes []models.Note) (documents, rest []models.Note) {
	for _, n := range notes {
		if n.SourceFile != "" {
			documents = append(documents, n)
		} else {
			rest = append(rest, n)
		}
	}
	return documents, rest
}

func sortByPriority(sections []*models.ContextSection) []*models.ContextSection {
	out := make([]*models.ContextSection, len(sections))
	copy(out, sections)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Priority > out[j-1].Priority; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func truncateTail(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	return text[:limit] + "\n...[truncated]"
}

func joinNonEmpty(parts []string, sep string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func estimateSection(text string) int {
	return tokenest.Estimate(text)
}

func formatList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	return strings.TrimRight(b.String(), "\n")
}
