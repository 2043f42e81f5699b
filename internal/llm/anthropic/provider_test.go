package anthropic

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for empty API key")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	p, err := New(Config{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if p.cfg.DefaultModel == "" {
		t.Fatalf("expected default model to be set")
	}
	if p.cfg.MaxRetries != 3 {
		t.Fatalf("expected default max retries 3, got %d", p.cfg.MaxRetries)
	}
	if p.cfg.ThinkingBudgetTokens != 10000 {
		t.Fatalf("expected default thinking budget 10000, got %d", p.cfg.ThinkingBudgetTokens)
	}
}

func TestNameAndCapabilities(t *testing.T) {
	p, _ := New(Config{APIKey: "sk-ant-test"})
	if p.Name() != "anthropic" {
		t.Fatalf("unexpected name %q", p.Name())
	}
	if !p.SupportsTools() {
		t.Fatalf("expected anthropic to support tools")
	}
	if len(p.Models()) == 0 {
		t.Fatalf("expected at least one model")
	}
}

func TestConvertMessagesSkipsSystemRole(t *testing.T) {
	out, err := convertMessages([]models.CompletionMessage{
		{Role: "system", Content: "ignored"},
		{Role: "user", Content: "hello"},
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected system message dropped, got %d messages", len(out))
	}
}

func TestConvertMessagesRejectsInvalidToolCallArguments(t *testing.T) {
	_, err := convertMessages([]models.CompletionMessage{
		{
			Role: "assistant",
			ToolCalls: []models.ToolCall{
				{ID: "t1", Name: "read_file", Arguments: json.RawMessage(`not json`)},
			},
		},
	})
	if err == nil {
		t.Fatalf("expected error for malformed tool call arguments")
	}
}

func TestConvertMessagesIncludesToolResults(t *testing.T) {
	out, err := convertMessages([]models.CompletionMessage{
		{
			Role: "tool",
			ToolResults: []models.ToolResult{
				{ToolCallID: "t1", Success: false, Error: "boom"},
			},
		},
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one message for tool result, got %d", len(out))
	}
}

func TestConvertToolsRejectsBadSchema(t *testing.T) {
	_, err := convertTools([]models.ToolSchema{
		{Name: "bad", Parameters: map[string]any{"type": func() {}}},
	})
	if err == nil {
		t.Fatalf("expected marshal error for unmarshalable parameter")
	}
}

func TestConvertToolsProducesOneParamPerTool(t *testing.T) {
	out, err := convertTools([]models.ToolSchema{
		{Name: "read_file", Description: "reads a file", Parameters: map[string]any{
			"path": map[string]any{"type": "string"},
		}},
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 tool param, got %d", len(out))
	}
}

func TestIsRetryableClassifiesTransientErrors(t *testing.T) {
	cases := map[string]bool{
		"rate_limit exceeded":           true,
		"503 service unavailable":       true,
		"connection reset by peer":      true,
		"invalid api key":               false,
		"400 bad request: bad schema":   false,
	}
	for msg, want := range cases {
		if got := isRetryable(errors.New(msg)); got != want {
			t.Errorf("isRetryable(%q) = %v, want %v", msg, got, want)
		}
	}
}
