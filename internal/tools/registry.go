// Package tools implements the Tool Registry & Router (C5): resolving a
// ToolReference to a concrete executor (built-in or workspace-delegated)
// and dispatching it, either locally or by signaling that a client must
// run it.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

// Executor is a concrete, locally runnable tool implementation.
type Executor interface {
	Name() string
	Schema() models.ToolSchema
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}

// Registry is the built-in tool catalog: whatever executors are registered,
// such as package builtin's filesystem ops, memory search and
// delegate-to-agent.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]Executor
	schemas   map[string]*jsonschema.Schema
}

// NewRegistry returns an empty built-in catalog.
func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[string]Executor),
		schemas:   make(map[string]*jsonschema.Schema),
	}
}

// Register adds a built-in executor, compiling its declared parameter
// schema so future Execute calls can validate arguments against it. A
// schema compile failure is returned immediately — a mistyped built-in
// schema is a programming error, not a runtime condition.
func (r *Registry) Register(e Executor) error {
	schema, err := compileSchema(e.Name(), e.Schema().Parameters)
	if err != nil {
		return fmt.Errorf("register tool %q: %w", e.Name(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[e.Name()] = e
	r.schemas[e.Name()] = schema
	return nil
}

// Get returns the registered executor for a built-in tool name.
func (r *Registry) Get(name string) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[name]
	return e, ok
}

// Schemas returns the model-facing ToolSchema for every registered built-in,
// for inclusion in a prompt's "tools" section.
func (r *Registry) Schemas() []models.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ToolSchema, 0, len(r.executors))
	for _, e := range r.executors {
		out = append(out, e.Schema())
	}
	return out
}

// Validate checks args against name's compiled schema, if one was
// registered. An unrecognized name is not a validation failure here — that
// is ErrToolNotFound's job, raised by the Router.
func (r *Registry) Validate(name string, args json.RawMessage) error {
	r.mu.RLock()
	schema, ok := r.schemas[name]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return validateAgainst(schema, args)
}

// compileSchema compiles a JSON-Schema-compatible parameter map (or nil,
// meaning "accept anything") via santhosh-tekuri/jsonschema/v5.
func compileSchema(name string, params map[string]any) (*jsonschema.Schema, error) {
	if len(params) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	resourceName := "tool://" + name
	if err := compiler.AddResource(resourceName, bytesReader(encoded)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func validateAgainst(schema *jsonschema.Schema, args json.RawMessage) error {
	if schema == nil {
		return nil
	}
	var doc any
	if len(args) == 0 {
		doc = map[string]any{}
	} else if err := json.Unmarshal(args, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return nil
}
