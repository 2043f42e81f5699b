package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

func (s *Store) EnqueueJob(ctx context.Context, j models.Job) (models.Job, error) {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	j.UpdatedAt = j.CreatedAt
	if j.Status == "" {
		j.Status = models.JobPending
	}
	log, err := marshalStrings(j.Log)
	if err != nil {
		return models.Job{}, fmt.Errorf("encode log: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, session_id, agent_ref, title, description, status, retry_count,
		                  next_run_at, priority, log, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.SessionID, j.AgentRef, j.Title, j.Description, string(j.Status), j.RetryCount,
		nullTime(j.NextRunAt), j.Priority, nullString(log), j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return models.Job{}, fmt.Errorf("enqueue job: %w", err)
	}
	return j, nil
}

// DequeueJob selects, among pending jobs due to run, the highest-priority
// one, breaking ties by earliest CreatedAt. It does not transition status;
// the scheduler persists pending->inProgress via UpdateJob.
func (s *Store) DequeueJob(ctx context.Context, now time.Time) (*models.Job, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, agent_ref, title, description, status, retry_count,
		       next_run_at, priority, log, created_at, updated_at
		FROM jobs
		WHERE status = ? AND next_run_at <= ?
		ORDER BY priority DESC, created_at ASC
		LIMIT 1`, string(models.JobPending), now)

	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("dequeue job: %w", err)
	}
	return j, true, nil
}

func (s *Store) UpdateJob(ctx context.Context, j models.Job) error {
	j.UpdatedAt = time.Now()
	log, err := marshalStrings(j.Log)
	if err != nil {
		return fmt.Errorf("encode log: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status=?, retry_count=?, next_run_at=?, priority=?, log=?, updated_at=?
		WHERE id=?`,
		string(j.Status), j.RetryCount, nullTime(j.NextRunAt), j.Priority, nullString(log), j.UpdatedAt, j.ID)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job %s not found", j.ID)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, agent_ref, title, description, status, retry_count,
		       next_run_at, priority, log, created_at, updated_at
		FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func scanJob(row *sql.Row) (*models.Job, error) {
	var j models.Job
	var status string
	var nextRunAt sql.NullTime
	var logJSON sql.NullString
	if err := row.Scan(&j.ID, &j.SessionID, &j.AgentRef, &j.Title, &j.Description, &status,
		&j.RetryCount, &nextRunAt, &j.Priority, &logJSON, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.Status = models.JobStatus(status)
	if nextRunAt.Valid {
		j.NextRunAt = nextRunAt.Time
	}
	if logJSON.Valid {
		log, err := unmarshalStrings(logJSON.String)
		if err != nil {
			return nil, fmt.Errorf("decode log: %w", err)
		}
		j.Log = log
	}
	return &j, nil
}
