package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewMetrics(reg), reg
}

func TestRecordTurn(t *testing.T) {
	m, _ := newTestMetrics(t)
	m.RecordTurn("chat-engine", "completed", 50*time.Millisecond)
	m.RecordTurn("chat-engine", "completed", 20*time.Millisecond)

	if count := testutil.CollectAndCount(m.TurnCounter); count != 1 {
		t.Fatalf("expected 1 label combination, got %d", count)
	}
	if got := testutil.ToFloat64(m.TurnCounter.WithLabelValues("chat-engine", "completed")); got != 2 {
		t.Fatalf("expected counter 2, got %v", got)
	}
}

func TestRecordToolExecution(t *testing.T) {
	m, _ := newTestMetrics(t)
	m.RecordToolExecution("echo", "success", 5*time.Millisecond)
	m.RecordToolExecution("echo", "failure", 5*time.Millisecond)

	if got := testutil.ToFloat64(m.ToolCounter.WithLabelValues("echo", "success")); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(m.ToolCounter.WithLabelValues("echo", "failure")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
}

func TestRecordJobAndRetry(t *testing.T) {
	m, _ := newTestMetrics(t)
	m.RecordJob("complete", 100*time.Millisecond)
	m.RecordJobRetry()
	m.RecordJobRetry()

	if got := testutil.ToFloat64(m.JobCounter.WithLabelValues("complete")); got != 1 {
		t.Fatalf("expected 1 job completion, got %v", got)
	}
	if got := testutil.ToFloat64(m.JobRetryTotal); got != 2 {
		t.Fatalf("expected 2 retries, got %v", got)
	}
}

func TestSessionLockGauge(t *testing.T) {
	m, _ := newTestMetrics(t)
	m.SessionLockAcquired()
	m.SessionLockAcquired()
	m.SessionLockReleased()

	if got := testutil.ToFloat64(m.ActiveSessions); got != 1 {
		t.Fatalf("expected gauge at 1, got %v", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.RecordTurn("chat-engine", "completed", time.Millisecond)
	m.RecordToolExecution("echo", "success", time.Millisecond)
	m.RecordJob("complete", time.Millisecond)
	m.RecordJobRetry()
	m.SessionLockAcquired()
	m.SessionLockReleased()
}

func TestNewMetricsRegistersIndependently(t *testing.T) {
	// Constructing twice against separate registries must not panic, unlike
	// the teacher's promauto-against-DefaultRegisterer pattern.
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	NewMetrics(reg1)
	NewMetrics(reg2)
}
