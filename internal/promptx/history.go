package promptx

import (
	"fmt"

	"github.com/phynics/monad-project-sub004/internal/tokenest"
	"github.com/phynics/monad-project-sub004/pkg/models"
)

// truncationNoticeRole is the role the synthetic head-of-history notice is
// attached to: a plain system message, per spec.md §4.3.
const truncationNoticeRole = models.RoleSystem

// AvailableHistoryTokens returns the token budget the history compressor
// should aim for: the model's context limit minus the reservation held for
// every other section (spec.md §4.3).
func (a *Assembler) AvailableHistoryTokens() int {
	budget := a.cfg.ModelContextLimit - a.cfg.Reservation
	if budget < 0 {
		return 0
	}
	return budget
}

// OptimizeHistory keeps the most recent messages from history that fit
// within availableTokens (pass <= 0 to use AvailableHistoryTokens), walking
// backwards from the newest message. When any messages are dropped, a
// synthetic system notice is inserted at the head of the kept slice.
// Original role ordering among kept messages is preserved (spec.md §4.3
// invariant).
func (a *Assembler) OptimizeHistory(history []models.ConversationMessage, availableTokens int) []models.ConversationMessage {
	if availableTokens <= 0 {
		availableTokens = a.AvailableHistoryTokens()
	}

	if len(history) == 0 {
		return nil
	}

	keptReverse := make([]models.ConversationMessage, 0, len(history))
	used := 0
	droppedCount := 0
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		cost := messageTokens(m)
		if used+cost > availableTokens && len(keptReverse) > 0 {
			droppedCount = i + 1
			break
		}
		keptReverse = append(keptReverse, m)
		used += cost
	}

	kept := make([]models.ConversationMessage, len(keptReverse))
	for i, m := range keptReverse {
		kept[len(keptReverse)-1-i] = m
	}

	if droppedCount <= 0 {
		return kept
	}

	notice := models.ConversationMessage{
		Role:    truncationNoticeRole,
		Content: fmt.Sprintf("[System: History truncated. %d earlier messages hidden.]", droppedCount),
	}
	return append([]models.ConversationMessage{notice}, kept...)
}

func messageTokens(m models.ConversationMessage) int {
	total := tokenest.Estimate(m.Content) + tokenest.Estimate(m.Reasoning)
	for _, tc := range m.ToolCalls {
		total += tokenest.Estimate(tc.Name) + tokenest.Estimate(string(tc.Arguments))
	}
	return total
}
