package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

// JobSubmitter enqueues a Job for the scheduler (C8) to run autonomously via
// the Reasoning Engine (C7).
type JobSubmitter interface {
	Submit(ctx context.Context, job models.Job) (models.Job, error)
}

// DelegateToAgentTool lets the current turn hand off a subtask to an
// autonomous agent job instead of completing it inline.
type DelegateToAgentTool struct {
	sessionID string
	submitter JobSubmitter
}

func NewDelegateToAgentTool(sessionID string, submitter JobSubmitter) *DelegateToAgentTool {
	return &DelegateToAgentTool{sessionID: sessionID, submitter: submitter}
}

func (t *DelegateToAgentTool) Name() string { return "delegate_to_agent" }

func (t *DelegateToAgentTool) Schema() models.ToolSchema {
	return models.ToolSchema{
		Name:        t.Name(),
		Description: "Delegate a subtask to an autonomous agent job and return its job id.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"agent_ref":   map[string]any{"type": "string", "description": "Which agent capability set should run the job."},
				"title":       map[string]any{"type": "string", "description": "Short job title."},
				"description": map[string]any{"type": "string", "description": "What the agent should accomplish."},
				"priority":    map[string]any{"type": "integer", "description": "Dequeue priority, higher runs first. Defaults to 0."},
			},
			"required": []string{"agent_ref", "description"},
		},
	}
}

func (t *DelegateToAgentTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		AgentRef    string `json:"agent_ref"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    int    `json:"priority"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}
	if strings.TrimSpace(input.Description) == "" {
		return "", fmt.Errorf("description is required")
	}
	if t.submitter == nil {
		return "", fmt.Errorf("no job submitter configured")
	}

	job := models.Job{
		ID:        uuid.NewString(),
		SessionID: t.sessionID,
		AgentRef:  input.AgentRef,
		Title:     input.Title,
		Description: input.Description,
		Status:    models.JobPending,
		Priority:  input.Priority,
	}
	submitted, err := t.submitter.Submit(ctx, job)
	if err != nil {
		return "", fmt.Errorf("submit job: %w", err)
	}
	return fmt.Sprintf("delegated to job %s", submitted.ID), nil
}
