// Package memory provides an in-process Store implementation (mutex-guarded
// maps) for tests and local runs without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

// Store is an in-memory, concurrency-safe implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	sessions map[string]models.Session
	messages map[string][]models.ConversationMessage
	memories map[string]models.Memory
	notes    map[string][]models.Note
	spaces   map[string]models.Workspace
	jobs     map[string]models.Job
}

// New returns an empty in-memory Store.
func New() *Store {
	return &Store{
		sessions: map[string]models.Session{},
		messages: map[string][]models.ConversationMessage{},
		memories: map[string]models.Memory{},
		notes:    map[string][]models.Note{},
		spaces:   map[string]models.Workspace{},
		jobs:     map[string]models.Job{},
	}
}

// --- SessionStore ---

func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	clone := sess
	return &clone, nil
}

func (s *Store) SaveSession(ctx context.Context, sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *Store) ListSessions(ctx context.Context, includeArchived bool) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.Archived && !includeArchived {
			continue
		}
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.messages, id)
	delete(s.notes, id)
	return nil
}

// --- MessageStore ---

func (s *Store) AppendMessage(ctx context.Context, m models.ConversationMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	s.messages[m.SessionID] = append(s.messages[m.SessionID], m)
	return nil
}

func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]models.ConversationMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	existing := s.messages[sessionID]
	out := make([]models.ConversationMessage, len(existing))
	copy(out, existing)
	return out, nil
}

// --- MemoryStore ---

func (s *Store) ListMemories(ctx context.Context) ([]models.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Memory, 0, len(s.memories))
	for _, m := range s.memories {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SaveMemory(ctx context.Context, m models.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memories[m.ID] = m
	return nil
}

// --- NoteStore ---

func (s *Store) ListNotes(ctx context.Context, sessionID string) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	existing := s.notes[sessionID]
	out := make([]models.Note, len(existing))
	copy(out, existing)
	return out, nil
}

func (s *Store) SaveNote(ctx context.Context, n models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.notes[n.SessionID]
	for i, cur := range existing {
		if cur.ID == n.ID {
			existing[i] = n
			return nil
		}
	}
	s.notes[n.SessionID] = append(existing, n)
	return nil
}

// --- WorkspaceStore ---

func (s *Store) GetWorkspace(ctx context.Context, id string) (*models.Workspace, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, ok := s.spaces[id]
	if !ok {
		return nil, false, nil
	}
	clone := ws
	return &clone, true, nil
}

func (s *Store) SaveWorkspace(ctx context.Context, w models.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spaces[w.ID] = w
	return nil
}

// --- JobStore ---

func (s *Store) EnqueueJob(ctx context.Context, j models.Job) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	j.UpdatedAt = j.CreatedAt
	if j.Status == "" {
		j.Status = models.JobPending
	}
	s.jobs[j.ID] = j
	return j, nil
}

// DequeueJob picks, among pending jobs with NextRunAt <= now, the one with
// the highest priority, breaking ties by the earliest CreatedAt. It does not
// mutate the job's status; the caller (the scheduler) is responsible for
// persisting the pending->inProgress transition via UpdateJob, which keeps
// the dequeue-then-claim sequence visible and testable as two steps.
func (s *Store) DequeueJob(ctx context.Context, now time.Time) (*models.Job, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *models.Job
	for id := range s.jobs {
		j := s.jobs[id]
		if j.Status != models.JobPending {
			continue
		}
		if j.NextRunAt.After(now) {
			continue
		}
		switch {
		case best == nil:
			best = &j
		case j.Priority > best.Priority:
			best = &j
		case j.Priority == best.Priority && j.CreatedAt.Before(best.CreatedAt):
			best = &j
		}
	}
	if best == nil {
		return nil, false, nil
	}
	clone := *best
	return &clone, true, nil
}

func (s *Store) UpdateJob(ctx context.Context, j models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.ID]; !ok {
		return fmt.Errorf("job %s not found", j.ID)
	}
	j.UpdatedAt = time.Now()
	s.jobs[j.ID] = j
	return nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s not found", id)
	}
	clone := j
	return &clone, nil
}
