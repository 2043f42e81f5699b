package models

import "time"

// JobStatus is the lifecycle state of an autonomous Job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobInProgress JobStatus = "inProgress"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Job is a unit of autonomous work the Reasoning Engine drives to
// completion on behalf of an agent, with no user present.
//
// Invariant: transitions obey pending -> inProgress -> {completed|failed|pending};
// re-entry to pending only happens via retry, with a monotonically
// increasing RetryCount.
type Job struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	AgentRef    string    `json:"agent_ref"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      JobStatus `json:"status"`
	RetryCount  int       `json:"retry_count"`
	NextRunAt   time.Time `json:"next_run_at"`
	Priority    int       `json:"priority"`
	Log         []string  `json:"log,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AppendLog adds a log line, keeping the job's log append-only.
func (j *Job) AppendLog(line string) {
	j.Log = append(j.Log, line)
}
