package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phynics/monad-project-sub004/internal/jobs"
	"github.com/phynics/monad-project-sub004/internal/llm"
	"github.com/phynics/monad-project-sub004/internal/promptx"
	"github.com/phynics/monad-project-sub004/internal/stream"
	"github.com/phynics/monad-project-sub004/internal/telemetry"
	"github.com/phynics/monad-project-sub004/internal/tools"
	"github.com/phynics/monad-project-sub004/pkg/models"
)

const (
	completeMarker    = "job complete"
	needsInfoMarker   = "i need more information"
	cancelledReason   = "Cancelled"
	maxTurnsReachedMsg = "Max turns reached"
)

// Run implements jobs.Runner (spec.md §4.7). A non-nil error return means
// Run itself failed in a way C7 couldn't classify (session or agent
// resolution); everything else is reported as a jobs.Outcome.
func (e *Engine) Run(ctx context.Context, job models.Job) (outcome jobs.Outcome, runErr error) {
	started := time.Now()
	ctx, span := e.tracer.StartTurn(ctx, "reasoning-engine", job.SessionID)
	defer func() {
		telemetry.RecordError(span, runErr)
		span.End()
		label := string(outcome.Kind)
		if runErr != nil {
			label = "runner-error"
		}
		e.metrics.RecordTurn("reasoning-engine", label, time.Since(started))
	}()

	sess, err := e.sessions.Hydrate(ctx, job.SessionID)
	if err != nil {
		return jobs.Outcome{}, fmt.Errorf("reasoning: hydrate session %s: %w", job.SessionID, err)
	}

	history, err := e.sessions.History(ctx, job.SessionID)
	if err != nil {
		return jobs.Outcome{}, fmt.Errorf("reasoning: fetch history: %w", err)
	}

	if ctx.Err() != nil {
		return jobs.Outcome{Kind: jobs.OutcomeError, Reason: cancelledReason}, nil
	}

	var agent Agent
	if e.agents != nil {
		agent, err = e.agents.Resolve(ctx, job.AgentRef)
		if err != nil {
			return jobs.Outcome{}, fmt.Errorf("reasoning: resolve agent %s: %w", job.AgentRef, err)
		}
	}

	refsByName := make(map[string]models.ToolReference, len(agent.Tools))
	for _, r := range agent.Tools {
		refsByName[r.Name()] = r
	}
	schemas := e.toolSchemas(agent.Tools)

	query := lastUserMessage(history)
	if query == "" {
		query = job.Description
	}

	var notes []models.Note
	var memories []models.Memory
	if e.gatherer != nil {
		data := e.gatherer.Gather(ctx, job.SessionID, query, history, nil)
		notes, memories = data.Notes, data.Memories
	}

	prompt := e.assembler.Build(promptx.Input{
		SystemInstructions: agent.Instructions,
		WorkingDir:         sess.WorkingDir,
		Notes:              notes,
		Memories:           memories,
		Tools:              schemas,
		History:            history,
		UserQuery:          query,
	})
	messages, _, _ := e.assembler.Render(ctx, prompt, history)
	system, messages := extractSystem(messages)

	candidateWorkspaceIDs := sess.CandidateWorkspaceIDs()

	for turn := 0; turn < e.cfg.MaxTurns; turn++ {
		chunks, err := e.provider.Complete(ctx, &llm.CompletionRequest{
			System:   system,
			Messages: messages,
			Tools:    schemas,
		})
		if err != nil {
			return jobs.Outcome{Kind: jobs.OutcomeError, Reason: err.Error()}, nil
		}

		parser := stream.New()
		var contentBuilder, reasoningBuilder strings.Builder
		var nativeToolCalls []models.ToolCall
		var streamErr error
		cancelled := false

	consume:
		for {
			select {
			case <-ctx.Done():
				cancelled = true
				break consume
			case chunk, ok := <-chunks:
				if !ok {
					break consume
				}
				if chunk.Error != nil {
					streamErr = chunk.Error
					break consume
				}
				if chunk.Thinking != "" {
					reasoningBuilder.WriteString(chunk.Thinking)
				}
				if chunk.Text != "" {
					delta := parser.Feed(chunk.Text)
					if delta.Reclassified {
						moved := delta.ReclassifiedText
						tail := contentBuilder.String()
						if strings.HasSuffix(tail, moved) {
							contentBuilder.Reset()
							contentBuilder.WriteString(strings.TrimSuffix(tail, moved))
						}
						reasoningBuilder.WriteString(moved)
					}
					if delta.Thinking != "" {
						reasoningBuilder.WriteString(delta.Thinking)
					}
					if delta.Content != "" {
						contentBuilder.WriteString(delta.Content)
					}
				}
				if chunk.ToolCall != nil {
					nativeToolCalls = append(nativeToolCalls, *chunk.ToolCall)
				}
				if chunk.Done {
					break consume
				}
			}
		}

		if cancelled {
			return jobs.Outcome{Kind: jobs.OutcomeError, Reason: cancelledReason}, nil
		}
		if streamErr != nil {
			return jobs.Outcome{Kind: jobs.OutcomeError, Reason: streamErr.Error()}, nil
		}

		final := parser.Flush()
		if final.Content != "" {
			contentBuilder.WriteString(final.Content)
		}
		if final.Thinking != "" {
			reasoningBuilder.WriteString(final.Thinking)
		}

		toolCalls := nativeToolCalls
		if len(toolCalls) == 0 {
			for _, fb := range stream.ExtractToolCalls(contentBuilder.String()) {
				toolCalls = append(toolCalls, models.ToolCall{ID: newToolCallID(), Name: fb.Name, Arguments: fb.Arguments})
			}
		}

		content := contentBuilder.String()
		assistantMsg := models.ConversationMessage{
			ID:        uuid.NewString(),
			SessionID: job.SessionID,
			Role:      models.RoleAssistant,
			Content:   content,
			Reasoning: reasoningBuilder.String(),
			ToolCalls: toolCalls,
			CreatedAt: time.Now(),
		}
		if err := e.sessions.AppendMessage(ctx, assistantMsg); err != nil {
			return jobs.Outcome{}, fmt.Errorf("reasoning: persist assistant message: %w", err)
		}
		messages = append(messages, models.CompletionMessage{
			Role:      string(models.RoleAssistant),
			Content:   content,
			ToolCalls: toolCalls,
		})

		if len(toolCalls) == 0 {
			lower := strings.ToLower(content)
			switch {
			case strings.Contains(lower, completeMarker):
				return jobs.Outcome{Kind: jobs.OutcomeComplete, Reason: content}, nil
			case strings.Contains(lower, needsInfoMarker):
				return jobs.Outcome{Kind: jobs.OutcomeNeedInformation, Reason: content}, nil
			default:
				continue
			}
		}

		for _, call := range toolCalls {
			if ctx.Err() != nil {
				return jobs.Outcome{Kind: jobs.OutcomeError, Reason: cancelledReason}, nil
			}

			ref, ok := refsByName[call.Name]
			if !ok {
				errText := fmt.Sprintf("tool not found: %s", call.Name)
				e.appendToolError(ctx, job.SessionID, call.ID, errText)
				messages = append(messages, toolResultMessage(call.ID, "Error: "+errText, false))
				continue
			}

			toolCtx, toolSpan := e.tracer.StartToolDispatch(ctx, call.Name)
			toolStarted := time.Now()
			result, err := e.router.Execute(toolCtx, ref, json.RawMessage(call.Arguments), job.SessionID, candidateWorkspaceIDs)
			toolStatus := "success"
			if err != nil || (result != nil && !result.Success) {
				toolStatus = "failure"
			}
			e.metrics.RecordToolExecution(call.Name, toolStatus, time.Since(toolStarted))
			telemetry.RecordError(toolSpan, err)
			toolSpan.End()
			if _, ok := tools.AsClientExecutionRequired(err); ok {
				errText := fmt.Sprintf("tool %s requires client execution, unavailable to an autonomous job", call.Name)
				e.appendToolError(ctx, job.SessionID, call.ID, errText)
				messages = append(messages, toolResultMessage(call.ID, "Error: "+errText, false))
				continue
			}
			if err != nil {
				e.appendToolError(ctx, job.SessionID, call.ID, err.Error())
				messages = append(messages, toolResultMessage(call.ID, "Error: "+err.Error(), false))
				continue
			}
			if !result.Success {
				e.appendToolError(ctx, job.SessionID, call.ID, result.Error)
				messages = append(messages, toolResultMessage(call.ID, "Error: "+result.Error, false))
				continue
			}

			toolMsg := models.ConversationMessage{
				ID:         uuid.NewString(),
				SessionID:  job.SessionID,
				Role:       models.RoleTool,
				Content:    result.Output,
				ToolCallID: call.ID,
				CreatedAt:  time.Now(),
			}
			if err := e.sessions.AppendMessage(ctx, toolMsg); err != nil {
				return jobs.Outcome{}, fmt.Errorf("reasoning: persist tool message: %w", err)
			}
			messages = append(messages, toolResultMessage(call.ID, result.Output, true))
		}
	}

	return jobs.Outcome{Kind: jobs.OutcomeError, Reason: maxTurnsReachedMsg}, nil
}

func lastUserMessage(history []models.ConversationMessage) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleUser {
			return history[i].Content
		}
	}
	return ""
}

func (e *Engine) appendToolError(ctx context.Context, sessionID, toolCallID, errText string) {
	msg := models.ConversationMessage{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Role:       models.RoleTool,
		Content:    "Error: " + errText,
		ToolCallID: toolCallID,
		CreatedAt:  time.Now(),
	}
	_ = e.sessions.AppendMessage(ctx, msg)
}

func toolResultMessage(toolCallID, content string, success bool) models.CompletionMessage {
	return models.CompletionMessage{
		Role: string(models.RoleTool),
		ToolResults: []models.ToolResult{
			{ToolCallID: toolCallID, Success: success, Output: content},
		},
	}
}

// extractSystem pulls the leading system-role message (produced by
// promptx.Render's preamble) out of messages, mirroring internal/engine's
// helper of the same name: providers that model system instructions
// out-of-band shouldn't also see it duplicated in Messages.
func extractSystem(messages []models.CompletionMessage) (string, []models.CompletionMessage) {
	if len(messages) == 0 || messages[0].Role != string(models.RoleSystem) {
		return "", messages
	}
	return messages[0].Content, messages[1:]
}
