package main

import (
	"fmt"
	"log/slog"

	"github.com/phynics/monad-project-sub004/internal/config"
	"github.com/phynics/monad-project-sub004/internal/engine"
	"github.com/phynics/monad-project-sub004/internal/jobs"
	"github.com/phynics/monad-project-sub004/internal/llm"
	"github.com/phynics/monad-project-sub004/internal/llm/anthropic"
	"github.com/phynics/monad-project-sub004/internal/llm/openai"
	"github.com/phynics/monad-project-sub004/internal/promptx"
	"github.com/phynics/monad-project-sub004/internal/reasoning"
	"github.com/phynics/monad-project-sub004/internal/sessions"
	"github.com/phynics/monad-project-sub004/internal/store"
	"github.com/phynics/monad-project-sub004/internal/store/memory"
	"github.com/phynics/monad-project-sub004/internal/store/sqlite"
	"github.com/phynics/monad-project-sub004/internal/telemetry"
	"github.com/phynics/monad-project-sub004/internal/tools"
)

// runtime collects the shared collaborators every monadctl subcommand
// wires into a ChatEngine/Engine/Scheduler: persistence, the active
// LLMProvider, the session manager, and the prompt assembler. Each
// subcommand builds its own tool registry/router, since tools like
// delegate_to_agent are bound to one session at construction time.
type runtime struct {
	cfg       config.Config
	st        store.Store
	provider  llm.LLMProvider
	sessions  *sessions.Manager
	assembler *promptx.Assembler
	agents    *reasoning.AgentRegistry
	metrics   *telemetry.Metrics
	tracer    *telemetry.Tracer
	logger    *slog.Logger
}

func newRuntime(path string) (*runtime, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	st, err := openStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	provider, err := openProvider(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("configure llm provider: %w", err)
	}

	logger := slog.Default()
	mgr := sessions.New(st, logger)
	assembler := promptx.New(promptx.Config(cfg.Prompt))

	agents := reasoning.NewAgentRegistry()
	agents.Register(reasoning.Agent{ID: "default", Instructions: "You are Monad, a helpful local-first assistant."})

	var metrics *telemetry.Metrics
	var tracer *telemetry.Tracer
	if cfg.Telemetry.MetricsEnabled {
		metrics = telemetry.NewMetrics(nil)
	}
	tracer, shutdownTracer := telemetry.NewTracer(telemetry.TraceConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
	})
	_ = shutdownTracer // best-effort process; monadctl is short-lived and exits without a clean OTLP flush

	return &runtime{
		cfg:       cfg,
		st:        st,
		provider:  provider,
		sessions:  mgr,
		assembler: assembler,
		agents:    agents,
		metrics:   metrics,
		tracer:    tracer,
		logger:    logger,
	}, nil
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return memory.New(), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func openProvider(cfg config.LLMConfig) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "", "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey:               cfg.APIKey,
			BaseURL:              cfg.BaseURL,
			DefaultModel:         cfg.DefaultModel,
			MaxRetries:           cfg.MaxRetries,
			RetryDelay:           cfg.RetryDelay,
			ThinkingBudgetTokens: int64(cfg.ThinkingBudgetTokens),
		})
	case "openai":
		return openai.New(openai.Config{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.DefaultModel,
			MaxRetries:   cfg.MaxRetries,
			RetryDelay:   cfg.RetryDelay,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// newScheduler builds a Job Scheduler (C8) wired to a Reasoning Engine (C7)
// that shares this runtime's collaborators, plus a tool registry bound to
// the same session the job belongs to.
func (r *runtime) newScheduler(registry *tools.Registry, router *tools.Router) *jobs.Scheduler {
	reasoner := reasoning.New(r.sessions, nil, registry, router, r.assembler, r.provider, r.agents, reasoning.Config(r.cfg.Reasoning), r.logger)
	reasoner.SetTelemetry(r.metrics, r.tracer)

	sched := jobs.New(r.st, r.st, reasoner, jobs.SchedulerConfig{
		PollInterval:   r.cfg.Scheduler.PollInterval,
		MaxConcurrency: r.cfg.Scheduler.MaxConcurrency,
		Logger:         r.logger,
	})
	sched.SetTelemetry(r.metrics, r.tracer)
	return sched
}

// newChatEngine builds a ChatEngine (C6) over the given registry/router.
func (r *runtime) newChatEngine(registry *tools.Registry, router *tools.Router) *engine.ChatEngine {
	eng := engine.New(r.sessions, nil, registry, router, r.assembler, r.provider, engine.Config(r.cfg.Engine), r.logger)
	eng.SetTelemetry(r.metrics, r.tracer)
	return eng
}
