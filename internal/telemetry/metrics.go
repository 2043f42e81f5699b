// Package telemetry wires Monad's instrumentation surface: Prometheus
// counters/histograms for turns, tool dispatches, and jobs, and
// OpenTelemetry spans around the same three operations.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the engine, tool router, and
// job scheduler. Unlike the teacher's observability.Metrics (which
// registers its collectors against Prometheus's global DefaultRegisterer
// via promauto, making a second construction panic), Metrics here takes an
// explicit prometheus.Registerer so callers — and this package's own
// tests — can register against an isolated prometheus.NewRegistry()
// instead, the same isolation the teacher's own metrics_test.go resorts to
// rather than ever calling its own constructor.
type Metrics struct {
	TurnCounter    *prometheus.CounterVec
	TurnDuration   *prometheus.HistogramVec
	ToolCounter    *prometheus.CounterVec
	ToolDuration   *prometheus.HistogramVec
	JobCounter     *prometheus.CounterVec
	JobDuration    *prometheus.HistogramVec
	JobRetryTotal  prometheus.Counter
	ActiveSessions prometheus.Gauge
}

// NewMetrics constructs and registers Monad's collectors against reg. If
// reg is nil, prometheus.DefaultRegisterer is used, matching the teacher's
// own top-level wiring; pass an isolated prometheus.NewRegistry() from
// tests to avoid double-registering against the global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		TurnCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monad_engine_turns_total",
			Help: "Turns driven by the chat engine and reasoning engine, by component and outcome.",
		}, []string{"component", "outcome"}),
		TurnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "monad_engine_turn_duration_seconds",
			Help:    "Wall-clock duration of a single model-call/tool-dispatch turn.",
			Buckets: prometheus.DefBuckets,
		}, []string{"component"}),
		ToolCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monad_tool_executions_total",
			Help: "Tool dispatches via the tool router, by tool name and status.",
		}, []string{"tool", "status"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "monad_tool_execution_duration_seconds",
			Help:    "Duration of a single tool dispatch.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
		JobCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monad_jobs_total",
			Help: "Jobs driven through the reasoning engine by the scheduler, by outcome.",
		}, []string{"outcome"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "monad_job_duration_seconds",
			Help:    "Duration of a single job run, from dequeue to terminal outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		JobRetryTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monad_job_retries_total",
			Help: "Job retries scheduled after a recoverable failure.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "monad_active_sessions",
			Help: "Sessions currently holding the per-session turn lock.",
		}),
	}

	reg.MustRegister(
		m.TurnCounter, m.TurnDuration,
		m.ToolCounter, m.ToolDuration,
		m.JobCounter, m.JobDuration,
		m.JobRetryTotal, m.ActiveSessions,
	)
	return m
}

// RecordTurn records one completed turn for component ("chat-engine" or
// "reasoning-engine") with the given outcome label and elapsed duration.
func (m *Metrics) RecordTurn(component, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TurnCounter.WithLabelValues(component, outcome).Inc()
	m.TurnDuration.WithLabelValues(component).Observe(elapsed.Seconds())
}

// RecordToolExecution records one tool dispatch outcome ("success" or
// "failure") and its duration.
func (m *Metrics) RecordToolExecution(tool, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ToolCounter.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// RecordJob records one terminal job outcome and the run's total duration.
func (m *Metrics) RecordJob(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.JobCounter.WithLabelValues(outcome).Inc()
	m.JobDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// RecordJobRetry increments the retry counter.
func (m *Metrics) RecordJobRetry() {
	if m == nil {
		return
	}
	m.JobRetryTotal.Inc()
}

// SessionLockAcquired/SessionLockReleased track the active-sessions gauge.
func (m *Metrics) SessionLockAcquired() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

func (m *Metrics) SessionLockReleased() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}
