package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "monad.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected Default(), got %+v", cfg)
	}
}

func TestLoadAppliesDefaultsForUnsetFields(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: openai
  api_key: secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.APIKey != "secret" {
		t.Fatalf("expected overridden llm fields, got %+v", cfg.LLM)
	}
	if cfg.LLM.DefaultModel != Default().LLM.DefaultModel {
		t.Fatalf("expected default model to be filled in, got %q", cfg.LLM.DefaultModel)
	}
	if cfg.Engine.MaxTurns != 5 {
		t.Fatalf("expected default engine max turns 5, got %d", cfg.Engine.MaxTurns)
	}
	if cfg.Reasoning.MaxTurns != 10 {
		t.Fatalf("expected default reasoning max turns 10, got %d", cfg.Reasoning.MaxTurns)
	}
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("MONAD_TEST_API_KEY", "env-secret")
	path := writeConfig(t, `
llm:
  provider: anthropic
  api_key: ${MONAD_TEST_API_KEY}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "env-secret" {
		t.Fatalf("expected expanded env var, got %q", cfg.LLM.APIKey)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: anthropic
  nonexistent_field: true
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsMultipleDocuments(t *testing.T) {
	path := writeConfig(t, "llm:\n  provider: anthropic\n---\nllm:\n  provider: openai\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for multiple YAML documents")
	}
}

func TestSanitizeFloorsReservationAtMinimum(t *testing.T) {
	cfg := sanitize(Config{Prompt: PromptConfig{Reservation: 100}})
	if cfg.Prompt.Reservation != 4000 {
		t.Fatalf("expected reservation floor of 4000, got %d", cfg.Prompt.Reservation)
	}
}

func TestDefaultSchedulerPollInterval(t *testing.T) {
	if Default().Scheduler.PollInterval != 2*time.Second {
		t.Fatalf("expected 2s default poll interval, got %v", Default().Scheduler.PollInterval)
	}
}
