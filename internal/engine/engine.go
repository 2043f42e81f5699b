package engine

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

// Config tunes a ChatEngine's turn budget.
type Config struct {
	// MaxTurns bounds how many model-call/tool-dispatch iterations a single
	// chatStream invocation runs before finishing without an explicit
	// completion event (spec.md §4.6 "Turn budget").
	MaxTurns int
}

// DefaultConfig matches spec.md's chatStream default.
func DefaultConfig() Config {
	return Config{MaxTurns: 5}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultConfig().MaxTurns
	}
	return cfg
}

// ChatEngine implements chatStream (C6): the streaming, tool-augmented turn
// loop that drives one user-initiated generation to completion.
type ChatEngine struct {
	sessions *sessions.Manager
	gatherer *ctxgather.Gatherer
	registry *tools.Registry
	router   *tools.Router
	assembler *promptx.Assembler
	provider llm.LLMProvider

	cfg    Config
	logger *slog.Logger

	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
}

// SetTelemetry attaches turn/tool metrics and tracing to an already
// constructed ChatEngine. Either argument may be nil; all telemetry calls
// are nil-safe, so an unconfigured ChatEngine behaves exactly as before.
func (e *ChatEngine) SetTelemetry(metrics *telemetry.Metrics, tracer *telemetry.Tracer) {
	e.metrics = metrics
	e.tracer = tracer
}

// New constructs a ChatEngine. provider may be nil — Complete calls against
// a nil provider fail with ErrNotConfigured rather than panicking.
func New(
	sessionMgr *sessions.Manager,
	gatherer *ctxgather.Gatherer,
	registry *tools.Registry,
	router *tools.Router,
	assembler *promptx.Assembler,
	provider llm.LLMProvider,
	cfg Config,
	logger *slog.Logger,
) *ChatEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatEngine{
		sessions:  sessionMgr,
		gatherer:  gatherer,
		registry:  registry,
		router:    router,
		assembler: assembler,
		provider:  provider,
		cfg:       sanitizeConfig(cfg),
		logger:    logger.With("component", "chat-engine"),
	}
}

// toolSchemas resolves a session's candidate tool set into the model-facing
// ToolSchema list C3's prompt assembler and the LLMProvider both need.
// Known references resolve against the built-in registry; Custom
// references carry their own workspace-declared schema.
func (e *ChatEngine) toolSchemas(refs []models.ToolReference) []models.ToolSchema {
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
