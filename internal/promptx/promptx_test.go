package promptx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

func TestBuildOrdersSectionsByPriority(t *testing.T) {
	a := New(DefaultConfig())
	prompt := a.Build(Input{SystemInstructions: "be helpful", UserQuery: "hi"})

	if len(prompt.Sections) != 8 {
		t.Fatalf("got %d sections, want 8", len(prompt.Sections))
	}
	for i := 1; i < len(prompt.Sections); i++ {
		if prompt.Sections[i].Priority > prompt.Sections[i-1].Priority {
			t.Fatalf("sections not sorted by descending priority: %+v", prompt.Sections)
		}
	}
	if prompt.Sections[0].ID != models.SectionSystem {
		t.Fatalf("expected system first, got %s", prompt.Sections[0].ID)
	}
	if prompt.Sections[len(prompt.Sections)-1].ID != models.SectionUserQuery {
		t.Fatalf("expected user_query last, got %s", prompt.Sections[len(prompt.Sections)-1].ID)
	}
}

func TestBuildSplitsDocumentsFromNotes(t *testing.T) {
	a := New(DefaultConfig())
	notes := []models.Note{
		{Content: "plain note", AlwaysAppend: true},
		{Content: "file contents", SourceFile: "readme.md"},
	}
	prompt := a.Build(Input{Notes: notes})

	var documents, contextNotes *models.ContextSection
	for _, s := range prompt.Sections {
		switch s.ID {
		case models.SectionDocuments:
			documents = s
		case models.SectionContextNotes:
			contextNotes = s
		}
	}

	docText, _ := documents.Render(context.Background(), documents.EstimatedTokens)
	if !strings.Contains(docText, "readme.md") || !strings.Contains(docText, "file contents") {
		t.Fatalf("documents section missing file note: %q", docText)
	}
	notesText, _ := contextNotes.Render(context.Background(), contextNotes.EstimatedTokens)
	if !strings.Contains(notesText, "plain note") {
		t.Fatalf("context_notes section missing plain note: %q", notesText)
	}
	if strings.Contains(notesText, "readme.md") {
		t.Fatalf("context_notes should not include file-sourced note: %q", notesText)
	}
}

func TestRenderProducesPreambleHistoryAndQuery(t *testing.T) {
	a := New(DefaultConfig())
	history := []models.ConversationMessage{
		{Role: models.RoleUser, Content: "earlier question"},
		{Role: models.RoleAssistant, Content: "earlier answer"},
	}
	prompt := a.Build(Input{SystemInstructions: "be helpful", UserQuery: "final question"})

	messages, raw, structured := a.Render(context.Background(), prompt, history)

	if len(messages) != 4 {
		t.Fatalf("got %d messages, want 4 (system, 2 history, query): %+v", len(messages), messages)
	}
	if messages[0].Role != string(models.RoleSystem) || !strings.Contains(messages[0].Content, "be helpful") {
		t.Fatalf("unexpected preamble message: %+v", messages[0])
	}
	if messages[1].Content != "earlier question" || messages[2].Content != "earlier answer" {
		t.Fatalf("history messages out of order: %+v", messages[1:3])
	}
	if messages[3].Role != string(models.RoleUser) || messages[3].Content != "final question" {
		t.Fatalf("unexpected final message: %+v", messages[3])
	}
	if !strings.Contains(raw, "\n\n---\n\n") {
		t.Fatalf("rawPromptText missing section separator: %q", raw)
	}
	if structured[models.SectionSystem] != "be helpful" {
		t.Fatalf("structuredContextMap missing system section: %+v", structured)
	}
}

func TestOptimizeHistoryKeepsMostRecentWithinBudget(t *testing.T) {
	a := New(Config{ModelContextLimit: 100, Reservation: minReservation})
	now := time.Unix(0, 0)
	history := make([]models.ConversationMessage, 0, 50)
	for i := 0; i < 50; i++ {
		history = append(history, models.ConversationMessage{
			Role:      models.RoleUser,
			Content:   strings.Repeat("word ", 50),
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		})
	}

	kept := a.OptimizeHistory(history, 20)

	if len(kept) == 0 {
		t.Fatalf("expected at least the truncation notice")
	}
	if kept[0].Role != models.RoleSystem || !strings.Contains(kept[0].Content, "truncated") {
		t.Fatalf("expected synthetic truncation notice at head, got %+v", kept[0])
	}
	// Remaining messages should be the tail of history, in original order.
	for i := 1; i < len(kept); i++ {
		if i > 1 && kept[i].CreatedAt.Before(kept[i-1].CreatedAt) {
			t.Fatalf("history not preserved in original order: %+v", kept)
		}
	}
	last := history[len(history)-1]
	if kept[len(kept)-1].Content != last.Content {
		t.Fatalf("expected most recent message retained")
	}
}

func TestOptimizeHistoryNoTruncationWhenEverythingFits(t *testing.T) {
	a := New(DefaultConfig())
	history := []models.ConversationMessage{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello"},
	}
	kept := a.OptimizeHistory(history, 10000)
	if len(kept) != 2 {
		t.Fatalf("expected no truncation notice, got %+v", kept)
	}
}
