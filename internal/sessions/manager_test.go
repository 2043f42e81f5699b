package sessions

import (
	"context"
	"testing"
	"time"

	storemem "github.com/phynics/monad-project-sub004/internal/store/memory"
	"github.com/phynics/monad-project-sub004/pkg/models"
)

func newTestManager() (*Manager, *storemem.Store) {
	st := storemem.New()
	return New(st, nil), st
}

func TestCreateThenHydrateUsesCache(t *testing.T) {
	m, st := newTestManager()
	ctx := context.Background()

	sess, err := m.Create(ctx, models.Session{Title: "hello"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.ID == "" {
		t.Fatalf("expected generated id")
	}

	// Mutate the store directly; Hydrate should still see the cached copy.
	st.SaveSession(ctx, models.Session{ID: sess.ID, Title: "changed-behind-cache"})

	got, err := m.Hydrate(ctx, sess.ID)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if got.Title != "hello" {
		t.Fatalf("expected cached title, got %q", got.Title)
	}
}

func TestCreateEnforcesPrimaryInAttachedInvariant(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	sess, err := m.Create(ctx, models.Session{PrimaryWorkspaceID: "ws1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !containsID(sess.AttachedWorkspaceIDs, "ws1") {
		t.Fatalf("expected primary workspace in attached set, got %+v", sess.AttachedWorkspaceIDs)
	}
}

func TestListExcludesArchivedByDefault(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	m.Create(ctx, models.Session{Title: "active"})
	archived, _ := m.Create(ctx, models.Session{Title: "old"})
	m.SetArchived(ctx, archived.ID, true)

	visible, err := m.List(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(visible) != 1 {
		t.Fatalf("expected 1 visible session, got %d", len(visible))
	}

	all, err := m.List(ctx, true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(all))
	}
}

func TestDetachWorkspaceRefusesPrimary(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	sess, _ := m.Create(ctx, models.Session{PrimaryWorkspaceID: "ws1"})

	if err := m.DetachWorkspace(ctx, sess.ID, "ws1"); err == nil {
		t.Fatalf("expected error detaching primary workspace")
	}
}

func TestDetachWorkspaceRemovesNonPrimary(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	sess, _ := m.Create(ctx, models.Session{PrimaryWorkspaceID: "ws1"})
	m.AttachWorkspace(ctx, sess.ID, "ws2")

	if err := m.DetachWorkspace(ctx, sess.ID, "ws2"); err != nil {
		t.Fatalf("detach: %v", err)
	}
	got, err := m.Hydrate(ctx, sess.ID)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if containsID(got.AttachedWorkspaceIDs, "ws2") {
		t.Fatalf("expected ws2 removed, got %+v", got.AttachedWorkspaceIDs)
	}
	if !containsID(got.AttachedWorkspaceIDs, "ws1") {
		t.Fatalf("expected primary to remain, got %+v", got.AttachedWorkspaceIDs)
	}
}

func TestAggregatedToolsDedupesAcrossWorkspaces(t *testing.T) {
	m, st := newTestManager()
	ctx := context.Background()

	st.SaveWorkspace(ctx, models.Workspace{ID: "primary", Tools: []models.ToolReference{
		{Known: "shared"}, {Known: "only-primary"},
	}})
	st.SaveWorkspace(ctx, models.Workspace{ID: "attached", Tools: []models.ToolReference{
		{Known: "shared"}, {Known: "only-attached"},
	}})

	sess, err := m.Create(ctx, models.Session{PrimaryWorkspaceID: "primary"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.AttachWorkspace(ctx, sess.ID, "attached"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	tools, err := m.AggregatedTools(ctx, sess.ID)
	if err != nil {
		t.Fatalf("aggregated tools: %v", err)
	}
	if len(tools) != 3 {
		t.Fatalf("expected 3 deduped tools, got %+v", tools)
	}
}

func TestBeginTurnRejectsOverlap(t *testing.T) {
	m, _ := newTestManager()

	release, err := m.BeginTurn("s1")
	if err != nil {
		t.Fatalf("begin turn: %v", err)
	}
	if _, err := m.BeginTurn("s1"); err != ErrSessionBusy {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}

	release()
	if _, err := m.BeginTurn("s1"); err != nil {
		t.Fatalf("expected turn to be acquirable after release, got %v", err)
	}
}

func TestSetDebugSnapshotStampsCapturedAt(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	sess, _ := m.Create(ctx, models.Session{})

	before := time.Now()
	if err := m.SetDebugSnapshot(ctx, sess.ID, models.DebugSnapshot{Model: "test-model", TurnCount: 1}); err != nil {
		t.Fatalf("set snapshot: %v", err)
	}

	snap, err := m.DebugSnapshot(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if snap == nil || snap.Model != "test-model" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.CapturedAt.Before(before) {
		t.Fatalf("expected CapturedAt to be stamped after %v, got %v", before, snap.CapturedAt)
	}
}
