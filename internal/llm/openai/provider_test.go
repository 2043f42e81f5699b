package openai

import (
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for empty API key")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	p, err := New(Config{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if p.cfg.DefaultModel != "gpt-4o" {
		t.Fatalf("expected default model gpt-4o, got %q", p.cfg.DefaultModel)
	}
	if p.cfg.MaxRetries != 3 {
		t.Fatalf("expected default max retries 3, got %d", p.cfg.MaxRetries)
	}
}

func TestNameAndCapabilities(t *testing.T) {
	p, _ := New(Config{APIKey: "sk-test"})
	if p.Name() != "openai" {
		t.Fatalf("unexpected name %q", p.Name())
	}
	if !p.SupportsTools() {
		t.Fatalf("expected openai to support tools")
	}
	if len(p.Models()) == 0 {
		t.Fatalf("expected at least one model")
	}
}

func TestConvertMessagesPrependsSystemPrompt(t *testing.T) {
	out := convertMessages(nil, "be helpful")
	if len(out) != 1 || out[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("expected a single system message, got %+v", out)
	}
}

func TestConvertMessagesEmitsToolCallsThenResults(t *testing.T) {
	out := convertMessages([]models.CompletionMessage{
		{
			Role: "assistant",
			ToolCalls: []models.ToolCall{
				{ID: "t1", Name: "read_file", Arguments: []byte(`{"path":"a.go"}`)},
			},
		},
		{
			Role: "tool",
			ToolResults: []models.ToolResult{
				{ToolCallID: "t1", Success: true, Output: "contents"},
			},
		},
	}, "")

	if len(out) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(out))
	}
	if len(out[0].ToolCalls) != 1 || out[0].ToolCalls[0].Function.Name != "read_file" {
		t.Fatalf("expected assistant tool call preserved, got %+v", out[0])
	}
	if out[1].Role != openai.ChatMessageRoleTool || out[1].ToolCallID != "t1" {
		t.Fatalf("expected tool result message, got %+v", out[1])
	}
}

func TestConvertToolsProducesFunctionDefinitions(t *testing.T) {
	out := convertTools([]models.ToolSchema{
		{Name: "list_files", Description: "lists files", Parameters: map[string]any{
			"dir": map[string]any{"type": "string"},
		}},
	})
	if len(out) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(out))
	}
	if out[0].Function.Name != "list_files" {
		t.Fatalf("unexpected function name %q", out[0].Function.Name)
	}
}

func TestIsRetryableDefaultsTrueForNonAPIErrors(t *testing.T) {
	if !isRetryable(errors.New("connection refused")) {
		t.Fatalf("expected non-API errors to be treated as retryable")
	}
}

func TestIsRetryableClassifiesAPIErrorsByStatus(t *testing.T) {
	cases := map[int]bool{429: true, 500: true, 503: true, 400: false, 401: false}
	for status, want := range cases {
		err := &openai.APIError{HTTPStatusCode: status}
		if got := isRetryable(err); got != want {
			t.Errorf("isRetryable(status=%d) = %v, want %v", status, got, want)
		}
	}
}
