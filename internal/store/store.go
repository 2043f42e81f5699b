// Package store declares the Persistence Facade (C11): the narrow
// interface the rest of the core depends on, independent of the concrete
// storage collaborator. Concrete implementations live in the memory and
// sqlite subpackages.
package store

import (
	"context"
	"time"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

// Store is the persistence surface C6 (turn loop), C7 (reasoning), C8
// (scheduler), C9 (session manager), and C4 (context gatherer, via the
// narrower context.MemoryStore/NoteStore adapters) depend on. No caller
// outside this package reaches into a concrete driver.
type Store interface {
	SessionStore
	MessageStore
	MemoryStore
	NoteStore
	WorkspaceStore
	JobStore
}

// SessionStore owns Session CRUD.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	SaveSession(ctx context.Context, s models.Session) error
	ListSessions(ctx context.Context, includeArchived bool) ([]models.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// MessageStore owns append-only session history.
type MessageStore interface {
	AppendMessage(ctx context.Context, m models.ConversationMessage) error
	ListMessages(ctx context.Context, sessionID string) ([]models.ConversationMessage, error)
}

// MemoryStore owns the read-mostly memory pool context gathering ranks.
type MemoryStore interface {
	ListMemories(ctx context.Context) ([]models.Memory, error)
	SaveMemory(ctx context.Context, m models.Memory) error
}

// NoteStore owns session-scoped notes.
type NoteStore interface {
	ListNotes(ctx context.Context, sessionID string) ([]models.Note, error)
	SaveNote(ctx context.Context, n models.Note) error
}

// WorkspaceStore owns workspace records the Router resolves tool
// references against.
type WorkspaceStore interface {
	GetWorkspace(ctx context.Context, id string) (*models.Workspace, bool, error)
	SaveWorkspace(ctx context.Context, w models.Workspace) error
}

// JobStore owns the job queue the Scheduler (C8) dequeues from.
type JobStore interface {
	EnqueueJob(ctx context.Context, j models.Job) (models.Job, error)
	DequeueJob(ctx context.Context, now time.Time) (*models.Job, bool, error)
	UpdateJob(ctx context.Context, j models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
}
