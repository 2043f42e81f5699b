// Package config loads Monad's YAML configuration into a typed struct
// tree, applying field-by-field defaults the way
// internal/{engine,reasoning,promptx,context}.DefaultConfig/sanitizeConfig
// do for their in-process counterparts.
package config

import (
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Engine    EngineConfig    `yaml:"engine"`
	Reasoning ReasoningConfig `yaml:"reasoning"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Prompt    PromptConfig    `yaml:"prompt"`
	Context   ContextConfig   `yaml:"context"`
	Store     StoreConfig     `yaml:"store"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the CLI/server-facing listener ports.
type ServerConfig struct {
	MetricsPort int `yaml:"metrics_port"`
}

// LLMConfig selects and configures the active LLMProvider.
type LLMConfig struct {
	// Provider selects which backend to construct: "anthropic" or "openai".
	Provider     string        `yaml:"provider"`
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	DefaultModel string        `yaml:"default_model"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	// ThinkingBudgetTokens only applies to the anthropic provider.
	ThinkingBudgetTokens int `yaml:"thinking_budget_tokens"`
}

// EngineConfig configures the ChatEngine turn budget.
type EngineConfig struct {
	MaxTurns int `yaml:"max_turns"`
}

// ReasoningConfig configures the Reasoning Engine's turn budget.
type ReasoningConfig struct {
	MaxTurns int `yaml:"max_turns"`
}

// SchedulerConfig configures the Job Scheduler's poll cadence.
type SchedulerConfig struct {
	PollInterval  time.Duration `yaml:"poll_interval"`
	MaxConcurrency int          `yaml:"max_concurrency"`
}

// PromptConfig configures the Prompt Assembler's section budgets.
type PromptConfig struct {
	ModelContextLimit   int `yaml:"model_context_limit"`
	Reservation         int `yaml:"reservation"`
	DocumentsCharBudget int `yaml:"documents_char_budget"`
	NotesCharBudget     int `yaml:"notes_char_budget"`
	MemoriesCharBudget  int `yaml:"memories_char_budget"`
}

// ContextConfig configures the Context Gatherer's ranking behavior.
type ContextConfig struct {
	MinSimilarity float32 `yaml:"min_similarity"`
	Limit         int     `yaml:"limit"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Driver selects the backing store: "memory" or "sqlite".
	Driver string `yaml:"driver"`
	// DSN is the sqlite data source name, ignored for the memory driver.
	DSN string `yaml:"dsn"`
}

// LoggingConfig configures the root slog.Logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TelemetryConfig configures Prometheus metrics export and OpenTelemetry
// tracing.
type TelemetryConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	TracingEnabled bool   `yaml:"tracing_enabled"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	ServiceName    string `yaml:"service_name"`
}

// Default returns Monad's baseline configuration: an in-memory store, the
// anthropic provider's defaults, and every core component's own
// DefaultConfig values mirrored into the YAML-facing shape.
func Default() Config {
	return Config{
		Server: ServerConfig{MetricsPort: 9090},
		LLM: LLMConfig{
			Provider:             "anthropic",
			DefaultModel:         "claude-sonnet-4-20250514",
			MaxRetries:           3,
			RetryDelay:           time.Second,
			ThinkingBudgetTokens: 10000,
		},
		Engine:    EngineConfig{MaxTurns: 5},
		Reasoning: ReasoningConfig{MaxTurns: 10},
		Scheduler: SchedulerConfig{PollInterval: 2 * time.Second, MaxConcurrency: 5},
		Prompt: PromptConfig{
			ModelContextLimit:   128_000,
			Reservation:         4000,
			DocumentsCharBudget: 8000,
			NotesCharBudget:     4000,
			MemoriesCharBudget:  4000,
		},
		Context:   ContextConfig{MinSimilarity: 0, Limit: 5},
		Store:     StoreConfig{Driver: "memory"},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Telemetry: TelemetryConfig{MetricsEnabled: true, ServiceName: "monad"},
	}
}

// sanitize fills every zero-valued field with Default()'s value, the same
// field-by-field defaulting pattern every in-process Config in this module
// uses (e.g. internal/engine.sanitizeConfig, internal/promptx.sanitizeConfig).
func sanitize(cfg Config) Config {
	def := Default()

	if cfg.Server.MetricsPort <= 0 {
		cfg.Server.MetricsPort = def.Server.MetricsPort
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = def.LLM.Provider
	}
	if cfg.LLM.DefaultModel == "" {
		cfg.LLM.DefaultModel = def.LLM.DefaultModel
	}
	if cfg.LLM.MaxRetries <= 0 {
		cfg.LLM.MaxRetries = def.LLM.MaxRetries
	}
	if cfg.LLM.RetryDelay <= 0 {
		cfg.LLM.RetryDelay = def.LLM.RetryDelay
	}
	if cfg.LLM.ThinkingBudgetTokens <= 0 {
		cfg.LLM.ThinkingBudgetTokens = def.LLM.ThinkingBudgetTokens
	}

	if cfg.Engine.MaxTurns <= 0 {
		cfg.Engine.MaxTurns = def.Engine.MaxTurns
	}
	if cfg.Reasoning.MaxTurns <= 0 {
		cfg.Reasoning.MaxTurns = def.Reasoning.MaxTurns
	}

	if cfg.Scheduler.PollInterval <= 0 {
		cfg.Scheduler.PollInterval = def.Scheduler.PollInterval
	}
	if cfg.Scheduler.MaxConcurrency <= 0 {
		cfg.Scheduler.MaxConcurrency = def.Scheduler.MaxConcurrency
	}

	if cfg.Prompt.ModelContextLimit <= 0 {
		cfg.Prompt.ModelContextLimit = def.Prompt.ModelContextLimit
	}
	if cfg.Prompt.Reservation < 4000 {
		cfg.Prompt.Reservation = def.Prompt.Reservation
	}
	if cfg.Prompt.DocumentsCharBudget <= 0 {
		cfg.Prompt.DocumentsCharBudget = def.Prompt.DocumentsCharBudget
	}
	if cfg.Prompt.NotesCharBudget <= 0 {
		cfg.Prompt.NotesCharBudget = def.Prompt.NotesCharBudget
	}
	if cfg.Prompt.MemoriesCharBudget <= 0 {
		cfg.Prompt.MemoriesCharBudget = def.Prompt.MemoriesCharBudget
	}

	if cfg.Context.Limit <= 0 {
		cfg.Context.Limit = def.Context.Limit
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = def.Store.Driver
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = def.Telemetry.ServiceName
	}

	return cfg
}
