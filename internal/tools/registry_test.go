package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

type schemaExecutor struct {
	name   string
	params map[string]any
}

func (s *schemaExecutor) Name() string { return s.name }
func (s *schemaExecutor) Schema() models.ToolSchema {
	return models.ToolSchema{Name: s.name, Parameters: s.params}
}
func (s *schemaExecutor) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	return "ok", nil
}

func TestRegistryValidateRejectsMissingRequiredField(t *testing.T) {
	reg := NewRegistry()
	exec := &schemaExecutor{name: "greet", params: map[string]any{
		"type":       "object",
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
		"required":   []string{"name"},
	}}
	if err := reg.Register(exec); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := reg.Validate("greet", json.RawMessage(`{}`))
	if !errors.Is(err, ErrSchemaInvalid) {
		t.Fatalf("expected ErrSchemaInvalid, got %v", err)
	}

	if err := reg.Validate("greet", json.RawMessage(`{"name":"ada"}`)); err != nil {
		t.Fatalf("expected valid args to pass, got %v", err)
	}
}

func TestRegistryValidateNoopWithoutSchema(t *testing.T) {
	reg := NewRegistry()
	exec := &schemaExecutor{name: "noop"}
	if err := reg.Register(exec); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Validate("noop", json.RawMessage(`{"anything":true}`)); err != nil {
		t.Fatalf("expected no validation without schema, got %v", err)
	}
}

func TestRegistrySchemasListsAll(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&schemaExecutor{name: "a"})
	reg.Register(&schemaExecutor{name: "b"})
	schemas := reg.Schemas()
	if len(schemas) != 2 {
		t.Fatalf("got %d schemas, want 2", len(schemas))
	}
}
