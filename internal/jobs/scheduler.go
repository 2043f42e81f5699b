// Package jobs implements the Job Scheduler (C8): a long-lived service that
// dequeues pending jobs, drives each through the Reasoning Engine, and
// applies retry/back-off on failure.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phynics/monad-project-sub004/internal/store"
	"github.com/phynics/monad-project-sub004/internal/telemetry"
	"github.com/phynics/monad-project-sub004/pkg/models"
)

// maxRetries bounds the number of automatic retries before a job is marked
// failed for good (spec.md §4.8).
const maxRetries = 3

// SchedulerConfig configures the scheduler's poll cadence and concurrency.
type SchedulerConfig struct {
	// PollInterval is how often the scheduler looks for due jobs.
	PollInterval time.Duration
	// MaxConcurrency bounds how many jobs run at once.
	MaxConcurrency int
	Logger         *slog.Logger
}

// DefaultSchedulerConfig returns the scheduler's baseline configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		PollInterval:   2 * time.Second,
		MaxConcurrency: 5,
	}
}

func sanitizeSchedulerConfig(cfg SchedulerConfig) SchedulerConfig {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

// Scheduler dequeues pending jobs and drives them through a Runner (the
// Reasoning Engine), persisting state after every transition.
type Scheduler struct {
	jobs     store.JobStore
	messages store.MessageStore
	runner   Runner
	config   SchedulerConfig
	logger   *slog.Logger

	sem chan struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
}

// SetTelemetry attaches job metrics and tracing to an already constructed
// Scheduler. Either argument may be nil; all telemetry calls are nil-safe,
// so an unconfigured Scheduler behaves exactly as before.
func (s *Scheduler) SetTelemetry(metrics *telemetry.Metrics, tracer *telemetry.Tracer) {
	s.metrics = metrics
	s.tracer = tracer
}

// New constructs a Scheduler. messages may be nil if the caller doesn't
// need the failure system-message side effect (e.g. in tests).
func New(jobStore store.JobStore, messages store.MessageStore, runner Runner, cfg SchedulerConfig) *Scheduler {
	cfg = sanitizeSchedulerConfig(cfg)
	return &Scheduler{
		jobs:     jobStore,
		messages: messages,
		runner:   runner,
		config:   cfg,
		logger:   cfg.Logger.With("component", "job-scheduler"),
		sem:      make(chan struct{}, cfg.MaxConcurrency),
	}
}

// Submit enqueues a new job, implementing builtin.JobSubmitter so the
// delegate_to_agent tool can hand work to the scheduler directly.
func (s *Scheduler) Submit(ctx context.Context, job models.Job) (models.Job, error) {
	return s.jobs.EnqueueJob(ctx, job)
}

// Start begins the poll loop. It is safe to call Start more than once; a
// second call on an already-running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Info("starting job scheduler", "poll_interval", s.config.PollInterval, "max_concurrency", s.config.MaxConcurrency)

	s.wg.Add(1)
	go s.pollLoop(ctx)
}

// Stop cancels the poll loop and waits for in-flight jobs to finish or ctx
// to expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) pollLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick claims at most one due job per call and dispatches it onto its own
// goroutine, bounded by the concurrency semaphore.
func (s *Scheduler) tick(ctx context.Context) {
	ctx, span := s.tracer.StartSchedulerTick(ctx)
	defer span.End()

	select {
	case s.sem <- struct{}{}:
	default:
		return
	}

	job, ok, err := s.jobs.DequeueJob(ctx, time.Now())
	if err != nil {
		<-s.sem
		s.logger.Error("dequeue job", "error", err)
		return
	}
	if !ok {
		<-s.sem
		return
	}

	claimed := *job
	claimed.Status = models.JobInProgress
	if err := s.jobs.UpdateJob(ctx, claimed); err != nil {
		<-s.sem
		s.logger.Error("claim job", "job_id", claimed.ID, "error", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.sem }()
		s.runJob(ctx, claimed)
	}()
}

// runJob invokes the Reasoning Engine via Runner and applies the resulting
// transition, persisting after every state change (spec.md §4.8).
func (s *Scheduler) runJob(ctx context.Context, job models.Job) {
	s.logger.Info("running job", "job_id", job.ID, "agent_ref", job.AgentRef, "retry_count", job.RetryCount)
	started := time.Now()

	outcome, err := s.runner.Run(ctx, job)
	if err != nil {
		outcome = Outcome{Kind: OutcomeError, Reason: err.Error()}
	}
	s.metrics.RecordJob(string(outcome.Kind), time.Since(started))

	switch outcome.Kind {
	case OutcomeComplete:
		job.Status = models.JobCompleted
		if err := s.jobs.UpdateJob(ctx, job); err != nil {
			s.logger.Error("persist job completion", "job_id", job.ID, "error", err)
		}
	case OutcomeNeedInformation:
		job.Status = models.JobCompleted
		job.AppendLog("needs information from the user to proceed")
		if err := s.jobs.UpdateJob(ctx, job); err != nil {
			s.logger.Error("persist job completion", "job_id", job.ID, "error", err)
		}
	case OutcomeError:
		s.retryOrFail(ctx, job, outcome.Reason)
	default:
		s.retryOrFail(ctx, job, fmt.Sprintf("unrecognized outcome %q", outcome.Kind))
	}
}

// retryOrFail implements spec.md §4.8's back-off: under the retry cap, the
// job re-enters pending with nextRunAt = now + 5*2^retryCount seconds;
// otherwise it is marked failed and a system message is appended to the
// session.
func (s *Scheduler) retryOrFail(ctx context.Context, job models.Job, reason string) {
	if job.RetryCount < maxRetries {
		job.RetryCount++
		job.Status = models.JobPending
		backoff := time.Duration(5*pow2(job.RetryCount)) * time.Second
		job.NextRunAt = time.Now().Add(backoff)
		job.AppendLog(fmt.Sprintf("retry %d/%d scheduled after %s: %s", job.RetryCount, maxRetries, backoff, reason))
		if err := s.jobs.UpdateJob(ctx, job); err != nil {
			s.logger.Error("persist job retry", "job_id", job.ID, "error", err)
		}
		s.metrics.RecordJobRetry()
		return
	}

	job.Status = models.JobFailed
	job.AppendLog(fmt.Sprintf("failed permanently after %d retries: %s", maxRetries, reason))
	if err := s.jobs.UpdateJob(ctx, job); err != nil {
		s.logger.Error("persist job failure", "job_id", job.ID, "error", err)
	}
	s.notifyFailure(ctx, job, reason)
}

func (s *Scheduler) notifyFailure(ctx context.Context, job models.Job, reason string) {
	if s.messages == nil || job.SessionID == "" {
		return
	}
	prefix := job.ID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	msg := models.ConversationMessage{
		ID:        job.ID + "-failed",
		SessionID: job.SessionID,
		Role:      models.RoleSystem,
		Content:   fmt.Sprintf("Job [%s] Failed: %s", prefix, reason),
		CreatedAt: time.Now(),
	}
	if err := s.messages.AppendMessage(ctx, msg); err != nil {
		s.logger.Error("append job failure message", "job_id", job.ID, "error", err)
	}
}

func pow2(n int) int64 {
	if n < 0 {
		return 0
	}
	result := int64(1)
	for i := 0; i < n; i++ {
		result *= 2
	}
	return result
}
