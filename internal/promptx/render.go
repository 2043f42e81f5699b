package promptx

import (
	"context"
	"strings"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

// preambleOrder lists, by id, the sections folded into the leading system
// message — every recognized section except chat_history and user_query,
// which become their own message(s).
var preambleOrder = []string{
	models.SectionSystem,
	models.SectionDatabaseDir,
	models.SectionDocuments,
	models.SectionContextNotes,
	models.SectionMemories,
	models.SectionTools,
}

// Render executes render(prompt) → (messages, rawPromptText, structuredContextMap):
//   - messages is the ordered chat-completion list the LLM client consumes:
//     one system message folding every non-history, non-query section,
//     followed by the optimized chat history, followed by the user query.
//   - rawPromptText is every section's rendered text, in descending-priority
//     order, joined by "\n\n---\n\n".
//   - structuredContextMap maps section id → rendered text, for debugging.
//
// history is supplied separately from the Prompt's sections because its
// render produces a list of messages, not a single string; its section
// entry still carries a text rendering (a transcript) for rawPromptText and
// structuredContextMap.
func (a *Assembler) Render(ctx context.Context, prompt *models.Prompt, history []models.ConversationMessage) ([]models.CompletionMessage, string, map[string]string) {
	structuredContextMap := make(map[string]string, len(prompt.Sections))
	var rawParts []string

	for _, s := range prompt.Sections {
		text, _ := s.Render(ctx, s.EstimatedTokens)
		s.SetRendered(text)
		structuredContextMap[s.ID] = text
		rawParts = append(rawParts, text)
	}

	optimized := a.OptimizeHistory(history, 0)

	var messages []models.CompletionMessage

	preamble := preambleText(structuredContextMap)
	if preamble != "" {
		messages = append(messages, models.CompletionMessage{Role: string(models.RoleSystem), Content: preamble})
	}

	for _, m := range optimized {
		messages = append(messages, toCompletionMessage(m))
	}

	if query := structuredContextMap[models.SectionUserQuery]; strings.TrimSpace(query) != "" {
		messages = append(messages, models.CompletionMessage{Role: string(models.RoleUser), Content: query})
	}

	rawPromptText := joinNonEmpty(rawParts, "\n\n---\n\n")
	return messages, rawPromptText, structuredContextMap
}

func preambleText(structuredContextMap map[string]string) string {
	var parts []string
	for _, id := range preambleOrder {
		parts = append(parts, structuredContextMap[id])
	}
	return joinNonEmpty(parts, "\n\n")
}

func transcript(history []models.ConversationMessage) string {
	parts := make([]string, len(history))
	for i, m := range history {
		parts[i] = string(m.Role) + ": " + m.Content
	}
	return strings.Join(parts, "\n")
}

func toCompletionMessage(m models.ConversationMessage) models.CompletionMessage {
	out := models.CompletionMessage{Role: string(m.Role), Content: m.Content}
	if len(m.ToolCalls) > 0 {
		out.ToolCalls = m.ToolCalls
	}
	if m.Role == models.RoleTool {
		out.ToolResults = []models.ToolResult{{ToolCallID: m.ToolCallID, Success: true, Output: m.Content}}
	}
	return out
}
