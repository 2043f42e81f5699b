package promptx

import (
	"context"
	"fmt"
	"strings"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

func (a *Assembler) systemSection(instructions string) *models.ContextSection {
	instructions = strings.TrimSpace(instructions)
	return &models.ContextSection{
		ID:              models.SectionSystem,
		Priority:        models.DefaultPriorities[models.SectionSystem],
		EstimatedTokens: estimateSection(instructions),
		Strategy:        models.CompressKeep,
		Type:            models.SectionText,
		Render: func(ctx context.Context, budget int) (string, error) {
			return instructions, nil
		},
	}
}

func (a *Assembler) databaseDirectorySection(workingDir string) *models.ContextSection {
	workingDir = strings.TrimSpace(workingDir)
	var text string
	if workingDir != "" {
		text = fmt.Sprintf("Working directory: %s", workingDir)
	}
	return &models.ContextSection{
		ID:              models.SectionDatabaseDir,
		Priority:        models.DefaultPriorities[models.SectionDatabaseDir],
		EstimatedTokens: estimateSection(text),
		Strategy:        models.CompressKeep,
		Type:            models.SectionText,
		Render: func(ctx context.Context, budget int) (string, error) {
			return text, nil
		},
	}
}

func (a *Assembler) documentsSection(documents []models.Note) *models.ContextSection {
	budget := a.cfg.DocumentsCharBudget
	render := func(ctx context.Context, _ int) (string, error) {
		parts := make([]string, len(documents))
		for i, d := range documents {
			parts[i] = fmt.Sprintf("--- %s ---\n%s", d.SourceFile, d.Content)
		}
		return truncateTail(joinNonEmpty(parts, "\n\n"), budget), nil
	}
	rendered, _ := render(context.Background(), budget)
	return &models.ContextSection{
		ID:              models.SectionDocuments,
		Priority:        models.DefaultPriorities[models.SectionDocuments],
		EstimatedTokens: estimateSection(rendered),
		Strategy:        models.CompressTruncateTail,
		Type:            models.SectionText,
		Render:          render,
	}
}

func (a *Assembler) contextNotesSection(notes []models.Note) *models.ContextSection {
	budget := a.cfg.NotesCharBudget
	render := func(ctx context.Context, _ int) (string, error) {
		parts := make([]string, len(notes))
		for i, n := range notes {
			parts[i] = n.Content
		}
		return truncateTail(formatList(parts), budget), nil
	}
	rendered, _ := render(context.Background(), budget)
	return &models.ContextSection{
		ID:              models.SectionContextNotes,
		Priority:        models.DefaultPriorities[models.SectionContextNotes],
		EstimatedTokens: estimateSection(rendered),
		Strategy:        models.CompressSummarize,
		Type:            models.SectionList,
		Render:          render,
	}
}

func (a *Assembler) memoriesSection(memories []models.Memory) *models.ContextSection {
	budget := a.cfg.MemoriesCharBudget
	render := func(ctx context.Context, _ int) (string, error) {
		parts := make([]string, len(memories))
		for i, m := range memories {
			if m.Title != "" {
				parts[i] = fmt.Sprintf("%s: %s", m.Title, m.Content)
			} else {
				parts[i] = m.Content
			}
		}
		return truncateTail(formatList(parts), budget), nil
	}
	rendered, _ := render(context.Background(), budget)
	return &models.ContextSection{
		ID:              models.SectionMemories,
		Priority:        models.DefaultPriorities[models.SectionMemories],
		EstimatedTokens: estimateSection(rendered),
		Strategy:        models.CompressSummarize,
		Type:            models.SectionList,
		Render:          render,
	}
}

func (a *Assembler) toolsSection(tools []models.ToolSchema) *models.ContextSection {
	render := func(ctx context.Context, _ int) (string, error) {
		parts := make([]string, len(tools))
		for i, t := range tools {
			parts[i] = fmt.Sprintf("%s: %s", t.Name, t.Description)
		}
		return formatList(parts), nil
	}
	rendered, _ := render(context.Background(), 0)
	return &models.ContextSection{
		ID:              models.SectionTools,
		Priority:        models.DefaultPriorities[models.SectionTools],
		EstimatedTokens: estimateSection(rendered),
		Strategy:        models.CompressKeep,
		Type:            models.SectionList,
		Render:          render,
	}
}

func (a *Assembler) chatHistorySection(history []models.ConversationMessage) *models.ContextSection {
	render := func(ctx context.Context, _ int) (string, error) {
		optimized := a.OptimizeHistory(history, 0)
		return transcript(optimized), nil
	}
	rendered, _ := render(context.Background(), 0)
	return &models.ContextSection{
		ID:              models.SectionChatHistory,
		Priority:        models.DefaultPriorities[models.SectionChatHistory],
		EstimatedTokens: estimateSection(rendered),
		Strategy:        models.CompressTruncateHead,
		Type:            models.SectionList,
		Render:          render,
	}
}

func (a *Assembler) userQuerySection(query string) *models.ContextSection {
	query = strings.TrimSpace(query)
	return &models.ContextSection{
		ID:              models.SectionUserQuery,
		Priority:        models.DefaultPriorities[models.SectionUserQuery],
		EstimatedTokens: estimateSection(query),
		Strategy:        models.CompressKeep,
		Type:            models.SectionText,
		Render: func(ctx context.Context, budget int) (string, error) {
			return query, nil
		},
	}
}
