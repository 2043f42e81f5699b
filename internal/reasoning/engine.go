// Package reasoning implements the Reasoning Engine (C7): the non-streaming,
// no-user-present loop that drives one autonomous Job to completion,
// need-information, or error, on behalf of the Job Scheduler (C8).
package reasoning

import (
	"log/slog"

	"github.com/google/uuid"

	ctxgather "github.com/phynics/monad-project-sub004/internal/context"
	"github.com/phynics/monad-project-sub004/internal/llm"
	"github.com/phynics/monad-project-sub004/internal/promptx"
	"github.com/phynics/monad-project-sub004/internal/sessions"
	"github.com/phynics/monad-project-sub004/internal/telemetry"
	"github.com/phynics/monad-project-sub004/internal/tools"
	"github.com/phynics/monad-project-sub004/pkg/models"
)

// Config tunes the Reasoning Engine's turn budget.
type Config struct {
	// MaxTurns bounds how many model-call/tool-dispatch iterations a single
	// Run drives before giving up with Outcome{Kind: OutcomeError, Reason:
	// "Max turns reached"} (spec.md §4.7 step 9).
	MaxTurns int
}

// DefaultConfig matches spec.md's Reasoning Engine default of 10 turns.
func DefaultConfig() Config {
	return Config{MaxTurns: 10}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultConfig().MaxTurns
	}
	return cfg
}

// Engine implements jobs.Runner: Run drives one Job through the
// fetch-history/gather-context/prompt/stream/dispatch-tools loop described
// in spec.md §4.7, never emitting an event stream — it consumes the
// provider's streaming channel internally and returns only a terminal
// jobs.Outcome.
type Engine struct {
	sessions  *sessions.Manager
	gatherer  *ctxgather.Gatherer
	registry  *tools.Registry
	router    *tools.Router
	assembler *promptx.Assembler
	provider  llm.LLMProvider
	agents    AgentResolver

	cfg    Config
	logger *slog.Logger

	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
}

// SetTelemetry attaches turn/tool metrics and tracing to an already
// constructed Engine. Either argument may be nil; all telemetry calls are
// nil-safe, so an unconfigured Engine behaves exactly as before.
func (e *Engine) SetTelemetry(metrics *telemetry.Metrics, tracer *telemetry.Tracer) {
	e.metrics = metrics
	e.tracer = tracer
}

// New constructs an Engine. gatherer and agents may be nil; Run then skips
// context gathering / skips agent resolution and runs with an empty Agent
// (no instructions, no tools).
func New(
	sessionMgr *sessions.Manager,
	gatherer *ctxgather.Gatherer,
	registry *tools.Registry,
	router *tools.Router,
	assembler *promptx.Assembler,
	provider llm.LLMProvider,
	agents AgentResolver,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		sessions:  sessionMgr,
		gatherer:  gatherer,
		registry:  registry,
		router:    router,
		assembler: assembler,
		provider:  provider,
		agents:    agents,
		cfg:       sanitizeConfig(cfg),
		logger:    logger.With("component", "reasoning-engine"),
	}
}

// toolSchemas mirrors internal/engine's resolution of ToolReferences into
// model-facing schemas: Known refs resolve against the built-in registry,
// Custom refs carry their own workspace-declared schema.
func (e *Engine) toolSchemas(refs []models.ToolReference) []models.ToolSchema {
	out := make([]models.ToolSchema, 0, len(refs))
	for _, ref := range refs {
		if ref.IsKnown() {
			if exec, ok := e.registry.Get(ref.Known); ok {
				out = append(out, exec.Schema())
			}
			continue
		}
		if ref.Custom != nil {
			out = append(out, models.ToolSchema{
				Name:               ref.Custom.Name,
				Description:        ref.Custom.Description,
				Parameters:         ref.Custom.Parameters,
				RequiresPermission: ref.Custom.RequiresPermission,
			})
		}
	}
	return out
}

func newToolCallID() string { return uuid.NewString() }
