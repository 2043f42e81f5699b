package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/phynics/monad-project-sub004/internal/llm"
	"github.com/phynics/monad-project-sub004/internal/promptx"
	"github.com/phynics/monad-project-sub004/internal/stream"
	"github.com/phynics/monad-project-sub004/internal/telemetry"
	"github.com/phynics/monad-project-sub004/internal/tokenest"
	"github.com/phynics/monad-project-sub004/internal/tools"
	"github.com/phynics/monad-project-sub004/pkg/models"

	"github.com/google/uuid"
)

// ToolOutput is one element of chatStream's priorToolOutputs: a result the
// consumer executed on its own behalf after an earlier turn suspended with
// requiresClientExecution.
type ToolOutput struct {
	ToolCallID string
	Output     string
}

// Request collects chatStream's parameters (spec.md §4.6).
type Request struct {
	SessionID          string
	Message            string
	PriorToolOutputs   []ToolOutput
	SystemInstructions string
	Model              string
	MaxTokensPerTurn   int
}

// ChatStream drives one user-initiated generation to completion (or
// suspension, or cancellation), returning a channel of Events. The channel
// is always closed by the engine; consumers range over it until closed.
func (e *ChatEngine) ChatStream(ctx context.Context, req Request) (<-chan Event, error) {
	if req.Message == "" && len(req.PriorToolOutputs) == 0 {
		return nil, ErrInvalidArgument
	}
	if e.provider == nil {
		return nil, ErrNotConfigured
	}

	sess, err := e.sessions.Hydrate(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, req.SessionID)
	}

	release, err := e.sessions.BeginTurn(req.SessionID)
	if err != nil {
		return nil, err
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer release()
		e.runTurn(ctx, sess, req, events)
	}()

	return events, nil
}

func (e *ChatEngine) runTurn(ctx context.Context, sess *models.Session, req Request, events chan<- Event) {
	started := time.Now()
	ctx, span := e.tracer.StartTurn(ctx, "chat-engine", sess.ID)
	outcome := "error"
	defer func() {
		span.End()
		e.metrics.RecordTurn("chat-engine", outcome, time.Since(started))
	}()

	emit := func(ev Event) {
		if ev.Type == EventGenerationCompleted {
			outcome = "completed"
		} else if ev.Type == EventGenerationCancelled {
			outcome = "cancelled"
		}
		events <- ev
	}

	for _, out := range req.PriorToolOutputs {
		msg := models.ConversationMessage{
			ID:         uuid.NewString(),
			SessionID:  sess.ID,
			Role:       models.RoleTool,
			Content:    out.Output,
			ToolCallID: out.ToolCallID,
			CreatedAt:  time.Now(),
		}
		if err := e.sessions.AppendMessage(ctx, msg); err != nil {
			emit(Event{Type: EventError, Err: err.Error()})
			return
		}
	}
	if req.Message != "" {
		msg := models.ConversationMessage{
			ID:        uuid.NewString(),
			SessionID: sess.ID,
			Role:      models.RoleUser,
			Content:   req.Message,
			CreatedAt: time.Now(),
		}
		if err := e.sessions.AppendMessage(ctx, msg); err != nil {
			emit(Event{Type: EventError, Err: err.Error()})
			return
		}
	}

	history, err := e.sessions.History(ctx, sess.ID)
	if err != nil {
		emit(Event{Type: EventError, Err: err.Error()})
		return
	}

	query := req.Message
	if query == "" && len(history) > 0 {
		query = history[len(history)-1].Content
	}

	var ctxData ctxDataShape
	if e.gatherer != nil {
		data := e.gatherer.Gather(ctx, sess.ID, query, history, nil)
		ctxData = ctxDataShape{memoryIDs: memoryIDs(data.Memories), fileNames: data.FileNames(), notes: data.Notes, memories: data.Memories}
	}
	emit(Event{Type: EventGenerationContext, Context: &ContextMetadata{Memories: ctxData.memoryIDs, Files: ctxData.fileNames}})

	if ctx.Err() != nil {
		emit(Event{Type: EventGenerationCancelled})
		return
	}

	refs, err := e.sessions.AggregatedTools(ctx, sess.ID)
	if err != nil {
		emit(Event{Type: EventError, Err: err.Error()})
		return
	}
	refsByName := make(map[string]models.ToolReference, len(refs))
	for _, r := range refs {
		refsByName[r.Name()] = r
	}
	schemas := e.toolSchemas(refs)

	prompt := e.assembler.Build(promptx.Input{
		SystemInstructions: req.SystemInstructions,
		WorkingDir:         sess.WorkingDir,
		Notes:              ctxData.notes,
		Memories:           ctxData.memories,
		Tools:              schemas,
		History:            history,
		UserQuery:          req.Message,
	})
	messages, _, structuredContextMap := e.assembler.Render(ctx, prompt, history)
	system, messages := extractSystem(messages)

	candidateWorkspaceIDs := sess.CandidateWorkspaceIDs()
	start := time.Now()
	maxTokens := req.MaxTokensPerTurn

	var lastAssistantContent, lastReasoning string
	var lastRecalledMemoryIDs []string
	var lastInputTokens, lastOutputTokens int

	for turn := 0; turn < e.cfg.MaxTurns; turn++ {
		if ctx.Err() != nil {
			emit(Event{Type: EventGenerationCancelled})
			return
		}

		chunks, err := e.provider.Complete(ctx, &llm.CompletionRequest{
			Model:     req.Model,
			System:    system,
			Messages:  messages,
			Tools:     schemas,
			MaxTokens: maxTokens,
		})
		if err != nil {
			emit(Event{Type: EventError, Err: err.Error()})
			return
		}

		parser := stream.New()
		var contentBuilder, reasoningBuilder strings.Builder
		inThoughtRun := false
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
				if chunk.ThinkingStart {
					continue
				}
				if chunk.Thinking != "" {
					reasoningBuilder.WriteString(chunk.Thinking)
					emit(Event{Type: EventThought, Thought: chunk.Thinking})
					inThoughtRun = true
				}
				if chunk.ThinkingEnd {
					if inThoughtRun {
						emit(Event{Type: EventThoughtCompleted})
						inThoughtRun = false
					}
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
						emit(Event{Type: EventThought, Thought: delta.Thinking})
						inThoughtRun = true
					}
					if delta.Content != "" {
						if inThoughtRun {
							emit(Event{Type: EventThoughtCompleted})
							inThoughtRun = false
						}
						contentBuilder.WriteString(delta.Content)
						emit(Event{Type: EventDelta, Content: delta.Content})
					}
				}
				if chunk.ToolCall != nil {
					if inThoughtRun {
						emit(Event{Type: EventThoughtCompleted})
						inThoughtRun = false
					}
					tc := *chunk.ToolCall
					nativeToolCalls = append(nativeToolCalls, tc)
					emit(Event{Type: EventToolCall, ToolCalls: []ToolCallFragment{{
						Index: len(nativeToolCalls) - 1,
						ID:    tc.ID,
						Name:  tc.Name,
						Arguments: string(tc.Arguments),
					}}})
				}
				if chunk.InputTokens > 0 {
					lastInputTokens = chunk.InputTokens
				}
				if chunk.OutputTokens > 0 {
					lastOutputTokens = chunk.OutputTokens
				}
				if chunk.Done {
					break consume
				}
			}
		}

		if cancelled {
			emit(Event{Type: EventGenerationCancelled})
			return
		}
		if streamErr != nil {
			emit(Event{Type: EventError, Err: streamErr.Error()})
			return
		}

		final := parser.Flush()
		if final.Content != "" {
			contentBuilder.WriteString(final.Content)
			emit(Event{Type: EventDelta, Content: final.Content})
		}
		if final.Thinking != "" {
			reasoningBuilder.WriteString(final.Thinking)
			emit(Event{Type: EventThought, Thought: final.Thinking})
			inThoughtRun = true
		}
		if inThoughtRun {
			emit(Event{Type: EventThoughtCompleted})
		}

		toolCalls := nativeToolCalls
		if len(toolCalls) == 0 {
			for _, fb := range stream.ExtractToolCalls(contentBuilder.String()) {
				call := models.ToolCall{ID: newToolCallID(), Name: fb.Name, Arguments: fb.Arguments}
				toolCalls = append(toolCalls, call)
				emit(Event{Type: EventToolCall, ToolCalls: []ToolCallFragment{{
					Index: len(toolCalls) - 1, ID: call.ID, Name: call.Name, Arguments: string(call.Arguments),
				}}})
			}
		}

		lastAssistantContent = contentBuilder.String()
		lastReasoning = reasoningBuilder.String()
		lastRecalledMemoryIDs = ctxData.memoryIDs

		assistantMsg := models.ConversationMessage{
			ID:                uuid.NewString(),
			SessionID:         sess.ID,
			Role:              models.RoleAssistant,
			Content:           lastAssistantContent,
			Reasoning:         lastReasoning,
			ToolCalls:         toolCalls,
			RecalledMemoryIDs: lastRecalledMemoryIDs,
			CreatedAt:         time.Now(),
		}

		if len(toolCalls) == 0 {
			if err := e.sessions.AppendMessage(ctx, assistantMsg); err != nil {
				emit(Event{Type: EventError, Err: err.Error()})
				return
			}
			snapshot := models.DebugSnapshot{
				StructuredContext: structuredContextMap,
				Model:             req.Model,
				TurnCount:         turn + 1,
			}
			if err := e.sessions.SetDebugSnapshot(ctx, sess.ID, snapshot); err != nil {
				e.logger.Warn("engine: failed to persist debug snapshot", "error", err)
			}

			duration := time.Since(start).Seconds()
			resp := &ResponseMetadata{
				Model:            req.Model,
				PromptTokens:     lastInputTokens,
				CompletionTokens: lastOutputTokens,
				TotalTokens:      lastInputTokens + lastOutputTokens,
				DurationSeconds:  duration,
				DebugSnapshotData: &snapshot,
			}
			if resp.CompletionTokens == 0 {
				resp.CompletionTokens = tokenest.Sum(lastAssistantContent, lastReasoning)
				resp.TotalTokens = resp.PromptTokens + resp.CompletionTokens
			}
			if duration > 0 {
				resp.TokensPerSecond = float64(resp.CompletionTokens) / duration
			}
			emit(Event{Type: EventGenerationCompleted, Message: &assistantMsg, Response: resp})
			return
		}

		if err := e.sessions.AppendMessage(ctx, assistantMsg); err != nil {
			emit(Event{Type: EventError, Err: err.Error()})
			return
		}
		messages = append(messages, models.CompletionMessage{
			Role:      string(models.RoleAssistant),
			Content:   lastAssistantContent,
			ToolCalls: toolCalls,
		})

		for _, call := range toolCalls {
			if ctx.Err() != nil {
				emit(Event{Type: EventGenerationCancelled})
				return
			}

			ref, ok := refsByName[call.Name]
			if !ok {
				emit(Event{Type: EventToolExecution, ToolExecution: &ToolExecutionPayload{ID: call.ID, Name: call.Name, Status: ToolAttempting}})
				errText := fmt.Sprintf("tool not found: %s", call.Name)
				emit(Event{Type: EventToolExecution, ToolExecution: &ToolExecutionPayload{ID: call.ID, Name: call.Name, Status: ToolFailure, Error: errText}})
				e.appendToolError(ctx, sess.ID, call.ID, errText)
				messages = append(messages, toolResultMessage(call.ID, "Error: "+errText, false))
				continue
			}

			emit(Event{Type: EventToolExecution, ToolExecution: &ToolExecutionPayload{ID: call.ID, Name: call.Name, Status: ToolAttempting}})

			toolCtx, toolSpan := e.tracer.StartToolDispatch(ctx, call.Name)
			toolStarted := time.Now()
			result, err := e.router.Execute(toolCtx, ref, json.RawMessage(call.Arguments), sess.ID, candidateWorkspaceIDs)
			toolStatus := "success"
			if err != nil || (result != nil && !result.Success) {
				toolStatus = "failure"
			}
			e.metrics.RecordToolExecution(call.Name, toolStatus, time.Since(toolStarted))
			telemetry.RecordError(toolSpan, err)
			toolSpan.End()
			if _, ok := tools.AsClientExecutionRequired(err); ok {
				snapshot := models.DebugSnapshot{StructuredContext: structuredContextMap, ToolCalls: toolCalls, Model: req.Model, TurnCount: turn + 1}
				if err := e.sessions.SetDebugSnapshot(ctx, sess.ID, snapshot); err != nil {
					e.logger.Warn("engine: failed to persist debug snapshot", "error", err)
				}
				emit(Event{Type: EventGenerationCompleted, Message: &assistantMsg, Response: &ResponseMetadata{
					Model:                   req.Model,
					DebugSnapshotData:       &snapshot,
					RequiresClientExecution: true,
				}})
				return
			}
			if err != nil {
				errText := err.Error()
				emit(Event{Type: EventToolExecution, ToolExecution: &ToolExecutionPayload{ID: call.ID, Name: call.Name, Status: ToolFailure, Error: errText}})
				e.appendToolError(ctx, sess.ID, call.ID, errText)
				messages = append(messages, toolResultMessage(call.ID, "Error: "+errText, false))
				continue
			}

			if !result.Success {
				emit(Event{Type: EventToolExecution, ToolExecution: &ToolExecutionPayload{ID: call.ID, Name: call.Name, Status: ToolFailure, Error: result.Error}})
				e.appendToolError(ctx, sess.ID, call.ID, result.Error)
				messages = append(messages, toolResultMessage(call.ID, "Error: "+result.Error, false))
				continue
			}

			emit(Event{Type: EventToolExecution, ToolExecution: &ToolExecutionPayload{ID: call.ID, Name: call.Name, Status: ToolSuccess, Result: result.Output}})
			toolMsg := models.ConversationMessage{
				ID:         uuid.NewString(),
				SessionID:  sess.ID,
				Role:       models.RoleTool,
				Content:    result.Output,
				ToolCallID: call.ID,
				CreatedAt:  time.Now(),
			}
			if err := e.sessions.AppendMessage(ctx, toolMsg); err != nil {
				emit(Event{Type: EventError, Err: err.Error()})
				return
			}
			messages = append(messages, toolResultMessage(call.ID, result.Output, true))
		}
	}
}

type ctxDataShape struct {
	memoryIDs []string
	fileNames []string
	notes     []models.Note
	memories  []models.Memory
}

func memoryIDs(memories []models.Memory) []string {
	ids := make([]string, len(memories))
	for i, m := range memories {
		ids[i] = m.ID
	}
	return ids
}

func (e *ChatEngine) appendToolError(ctx context.Context, sessionID, toolCallID, errText string) {
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
// promptx.Render's preamble) out of messages, returning it separately so
// providers that model system instructions out-of-band (Anthropic's
// top-level System field) don't see a duplicated system message.
func extractSystem(messages []models.CompletionMessage) (string, []models.CompletionMessage) {
	if len(messages) == 0 || messages[0].Role != string(models.RoleSystem) {
		return "", messages
	}
	return messages[0].Content, messages[1:]
}
