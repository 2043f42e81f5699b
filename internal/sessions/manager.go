// Package sessions implements the Session Manager (C9): session state,
// history access, workspace binding, and debug snapshots, with an
// in-memory cache fronting the Persistence Facade and per-session turn
// serialization.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phynics/monad-project-sub004/internal/store"
	"github.com/phynics/monad-project-sub004/pkg/models"
)

// ErrNotFound is returned when a session or workspace id is unknown.
var ErrNotFound = errors.New("sessions: not found")

// Manager owns Session lifecycle: hydration with caching, CRUD, history
// access, persona/title/workingDirectory updates, workspace attach/detach,
// debug snapshots, and aggregated tool lists across a session's workspaces.
type Manager struct {
	store  store.Store
	logger *slog.Logger

	cacheMu sync.RWMutex
	cache   map[string]models.Session

	turns *turnLocker
}

// New constructs a Manager. logger defaults to slog.Default() when nil.
func New(s store.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  s,
		logger: logger.With("component", "session-manager"),
		cache:  map[string]models.Session{},
		turns:  newTurnLocker(),
	}
}

// Hydrate lazily loads a session, caching it for subsequent calls. The
// cache is read-many, write-serialized per spec.md §5.
func (m *Manager) Hydrate(ctx context.Context, id string) (*models.Session, error) {
	m.cacheMu.RLock()
	if sess, ok := m.cache[id]; ok {
		m.cacheMu.RUnlock()
		clone := sess
		return &clone, nil
	}
	m.cacheMu.RUnlock()

	sess, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	m.cacheMu.Lock()
	m.cache[id] = *sess
	m.cacheMu.Unlock()

	clone := *sess
	return &clone, nil
}

func (m *Manager) put(sess models.Session) {
	m.cacheMu.Lock()
	m.cache[sess.ID] = sess
	m.cacheMu.Unlock()
}

func (m *Manager) evict(id string) {
	m.cacheMu.Lock()
	delete(m.cache, id)
	m.cacheMu.Unlock()
}

// List returns sessions, excluding archived ones unless includeArchived is
// set (spec.md §4.9).
func (m *Manager) List(ctx context.Context, includeArchived bool) ([]models.Session, error) {
	sessions, err := m.store.ListSessions(ctx, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.Before(sessions[j].CreatedAt) })
	return sessions, nil
}

// Create persists a new session and seeds the cache.
func (m *Manager) Create(ctx context.Context, sess models.Session) (*models.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	now := time.Now()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	if sess.PrimaryWorkspaceID != "" && !containsID(sess.AttachedWorkspaceIDs, sess.PrimaryWorkspaceID) {
		sess.AttachedWorkspaceIDs = append(sess.AttachedWorkspaceIDs, sess.PrimaryWorkspaceID)
	}
	if err := m.store.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	m.put(sess)
	clone := sess
	return &clone, nil
}

// Update persists mutations to an already-hydrated session and refreshes
// the cache.
func (m *Manager) Update(ctx context.Context, sess models.Session) error {
	sess.UpdatedAt = time.Now()
	if err := m.store.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	m.put(sess)
	return nil
}

// Delete removes a session and evicts it from the cache.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.evict(id)
	return nil
}

// History returns a session's messages, oldest first.
func (m *Manager) History(ctx context.Context, sessionID string) ([]models.ConversationMessage, error) {
	msgs, err := m.store.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// AppendMessage records one message in a session's history.
func (m *Manager) AppendMessage(ctx context.Context, msg models.ConversationMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if err := m.store.AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// UpdatePersona sets a session's persona reference.
func (m *Manager) UpdatePersona(ctx context.Context, sessionID, personaID string) error {
	return m.mutate(ctx, sessionID, func(s *models.Session) { s.PersonaID = personaID })
}

// UpdateTitle sets a session's title.
func (m *Manager) UpdateTitle(ctx context.Context, sessionID, title string) error {
	return m.mutate(ctx, sessionID, func(s *models.Session) { s.Title = title })
}

// UpdateWorkingDirectory sets a session's working directory.
func (m *Manager) UpdateWorkingDirectory(ctx context.Context, sessionID, dir string) error {
	return m.mutate(ctx, sessionID, func(s *models.Session) { s.WorkingDir = dir })
}

// SetArchived sets a session's archive flag.
func (m *Manager) SetArchived(ctx context.Context, sessionID string, archived bool) error {
	return m.mutate(ctx, sessionID, func(s *models.Session) { s.Archived = archived })
}

func (m *Manager) mutate(ctx context.Context, sessionID string, fn func(*models.Session)) error {
	sess, err := m.Hydrate(ctx, sessionID)
	if err != nil {
		return err
	}
	fn(sess)
	return m.Update(ctx, *sess)
}

// AttachWorkspace adds a workspace id to a session's attached set.
// Invariant: PrimaryWorkspaceID, if set, is always also present in
// AttachedWorkspaceIDs — enforced here and in SetPrimaryWorkspace.
func (m *Manager) AttachWorkspace(ctx context.Context, sessionID, workspaceID string) error {
	return m.mutate(ctx, sessionID, func(s *models.Session) {
		if !containsID(s.AttachedWorkspaceIDs, workspaceID) {
			s.AttachedWorkspaceIDs = append(s.AttachedWorkspaceIDs, workspaceID)
		}
	})
}

// DetachWorkspace removes a workspace id from a session's attached set. It
// refuses to detach the current primary workspace; callers must change the
// primary first.
func (m *Manager) DetachWorkspace(ctx context.Context, sessionID, workspaceID string) error {
	sess, err := m.Hydrate(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.PrimaryWorkspaceID == workspaceID {
		return fmt.Errorf("sessions: cannot detach the primary workspace %s", workspaceID)
	}
	sess.AttachedWorkspaceIDs = removeID(sess.AttachedWorkspaceIDs, workspaceID)
	return m.Update(ctx, *sess)
}

// SetPrimaryWorkspace sets a session's primary workspace, adding it to the
// attached set if it isn't already present.
func (m *Manager) SetPrimaryWorkspace(ctx context.Context, sessionID, workspaceID string) error {
	return m.mutate(ctx, sessionID, func(s *models.Session) {
		s.PrimaryWorkspaceID = workspaceID
		if !containsID(s.AttachedWorkspaceIDs, workspaceID) {
			s.AttachedWorkspaceIDs = append(s.AttachedWorkspaceIDs, workspaceID)
		}
	})
}

// DebugSnapshot returns a session's most recent debug snapshot, if any.
func (m *Manager) DebugSnapshot(ctx context.Context, sessionID string) (*models.DebugSnapshot, error) {
	sess, err := m.Hydrate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.DebugSnapshot, nil
}

// SetDebugSnapshot overwrites a session's debug snapshot.
func (m *Manager) SetDebugSnapshot(ctx context.Context, sessionID string, snap models.DebugSnapshot) error {
	snap.CapturedAt = time.Now()
	return m.mutate(ctx, sessionID, func(s *models.Session) { s.DebugSnapshot = &snap })
}

// AggregatedTools returns the de-duplicated union of tool references
// declared by a session's workspaces (primary first, then attached, in
// insertion order), de-duplicated by resolved tool name.
func (m *Manager) AggregatedTools(ctx context.Context, sessionID string) ([]models.ToolReference, error) {
	sess, err := m.Hydrate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out []models.ToolReference
	for _, wsID := range sess.CandidateWorkspaceIDs() {
		ws, ok, err := m.store.GetWorkspace(ctx, wsID)
		if err != nil {
			return nil, fmt.Errorf("get workspace %s: %w", wsID, err)
		}
		if !ok {
			continue
		}
		for _, ref := range ws.Tools {
			name := ref.Name()
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, ref)
		}
	}
	return out, nil
}

// BeginTurn acquires the per-session turn lock, rejecting a second
// overlapping chatStream invocation per spec.md §5. The caller must call
// the returned release func when the turn ends.
func (m *Manager) BeginTurn(sessionID string) (release func(), err error) {
	release, ok := m.turns.TryAcquire(sessionID)
	if !ok {
		return nil, ErrSessionBusy
	}
	return release, nil
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
