package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	storemem "github.com/phynics/monad-project-sub004/internal/store/memory"
	"github.com/phynics/monad-project-sub004/pkg/models"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	cfg := sanitizeSchedulerConfig(SchedulerConfig{})
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
	if cfg.MaxConcurrency != 5 {
		t.Errorf("MaxConcurrency = %d, want 5", cfg.MaxConcurrency)
	}
	if cfg.Logger == nil {
		t.Errorf("expected a default logger")
	}
}

type fakeRunner struct {
	mu      sync.Mutex
	calls   int32
	outcome Outcome
	err     error
}

func (f *fakeRunner) Run(ctx context.Context, job models.Job) (Outcome, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome, f.err
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestSchedulerCompletesJobOnOutcomeComplete(t *testing.T) {
	st := storemem.New()
	ctx := context.Background()
	job, err := st.EnqueueJob(ctx, models.Job{ID: "j1", NextRunAt: time.Now().Add(-time.Second)})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	runner := &fakeRunner{outcome: Outcome{Kind: OutcomeComplete}}
	sched := New(st, st, runner, SchedulerConfig{PollInterval: 10 * time.Millisecond})
	sched.Start(ctx)
	defer sched.Stop(context.Background())

	waitFor(t, time.Second, func() bool {
		got, err := st.GetJob(ctx, job.ID)
		return err == nil && got.Status == models.JobCompleted
	})
}

func TestSchedulerRetriesWithBackoffThenFails(t *testing.T) {
	st := storemem.New()
	ctx := context.Background()
	st.EnqueueJob(ctx, models.Job{ID: "j2", SessionID: "s1", NextRunAt: time.Now().Add(-time.Second)})

	runner := &fakeRunner{outcome: Outcome{Kind: OutcomeError, Reason: "boom"}}
	sched := New(st, st, runner, SchedulerConfig{PollInterval: 5 * time.Millisecond})
	sched.Start(ctx)
	defer sched.Stop(context.Background())

	waitFor(t, 2*time.Second, func() bool {
		got, err := st.GetJob(ctx, "j2")
		if err == nil && got.Status == models.JobPending && got.NextRunAt.After(time.Now()) {
			// Stand in for the 10s/20s/40s back-off elapsing so the retry
			// becomes due on the next poll.
			got.NextRunAt = time.Now().Add(-time.Second)
			st.UpdateJob(ctx, *got)
			return false
		}
		return err == nil && got.Status == models.JobFailed
	})

	got, err := st.GetJob(ctx, "j2")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.RetryCount != maxRetries {
		t.Fatalf("expected retry count %d, got %d", maxRetries, got.RetryCount)
	}

	msgs, err := st.ListMessages(ctx, "s1")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Role != models.RoleSystem {
		t.Fatalf("expected one system failure message, got %+v", msgs)
	}
}

func TestSchedulerTreatsRunnerErrorAsOutcomeError(t *testing.T) {
	st := storemem.New()
	ctx := context.Background()
	st.EnqueueJob(ctx, models.Job{ID: "j3", NextRunAt: time.Now().Add(-time.Second)})

	runner := &fakeRunner{err: errors.New("agent registry lookup failed")}
	sched := New(st, st, runner, SchedulerConfig{PollInterval: 5 * time.Millisecond})
	sched.Start(ctx)
	defer sched.Stop(context.Background())

	waitFor(t, time.Second, func() bool {
		got, err := st.GetJob(ctx, "j3")
		return err == nil && got.RetryCount == 1 && got.Status == models.JobPending
	})
}

func TestSchedulerMarksNeedInformationAsCompletedWithLog(t *testing.T) {
	st := storemem.New()
	ctx := context.Background()
	st.EnqueueJob(ctx, models.Job{ID: "j4", NextRunAt: time.Now().Add(-time.Second)})

	runner := &fakeRunner{outcome: Outcome{Kind: OutcomeNeedInformation}}
	sched := New(st, st, runner, SchedulerConfig{PollInterval: 5 * time.Millisecond})
	sched.Start(ctx)
	defer sched.Stop(context.Background())

	waitFor(t, time.Second, func() bool {
		got, err := st.GetJob(ctx, "j4")
		return err == nil && got.Status == models.JobCompleted && len(got.Log) == 1
	})
}

func TestPow2(t *testing.T) {
	cases := map[int]int64{0: 1, 1: 2, 2: 4, 3: 8}
	for n, want := range cases {
		if got := pow2(n); got != want {
			t.Errorf("pow2(%d) = %d, want %d", n, got, want)
		}
	}
}
