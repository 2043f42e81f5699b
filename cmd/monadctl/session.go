package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/phynics/monad-project-sub004/internal/jobs"
	"github.com/phynics/monad-project-sub004/internal/tools"
	"github.com/phynics/monad-project-sub004/internal/tools/builtin"
	"github.com/phynics/monad-project-sub004/pkg/models"
)

// storeWorkspaceResolver adapts store.Store's (*Workspace, bool, error)
// lookup to tools.WorkspaceResolver's (*Workspace, bool) shape, logging the
// error case rather than surfacing it — a workspace lookup failure during
// tool dispatch should behave like "not found", not abort the turn.
type storeWorkspaceResolver struct {
	rt *runtime
}

func (r storeWorkspaceResolver) Resolve(ctx context.Context, id string) (*models.Workspace, bool) {
	ws, ok, err := r.rt.st.GetWorkspace(ctx, id)
	if err != nil {
		r.rt.logger.Error("resolve workspace", "workspace_id", id, "error", err)
		return nil, false
	}
	return ws, ok
}

// bootstrapSession resolves the one working session monadctl's interactive
// commands operate on: it creates a fresh session and a single
// server-hosted workspace rooted at the current working directory on first
// run, or reuses an existing session when sessionID is non-empty.
func (r *runtime) bootstrapSession(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID != "" {
		return r.sessions.Hydrate(ctx, sessionID)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	ws := models.Workspace{
		ID:        uuid.NewString(),
		URI:       "file://" + cwd,
		Host:      models.HostServer,
		RootPath:  cwd,
		Trust:     models.TrustStandard,
		CreatedAt: time.Now(),
		Tools: []models.ToolReference{
			{Known: "read_file"},
			{Known: "write_file"},
			{Known: "list_files"},
		},
	}
	if err := r.st.SaveWorkspace(ctx, ws); err != nil {
		return nil, fmt.Errorf("save workspace: %w", err)
	}

	sess := models.Session{
		ID:                   uuid.NewString(),
		Title:                "monadctl session",
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
		WorkingDir:           cwd,
		PrimaryWorkspaceID:   ws.ID,
		AttachedWorkspaceIDs: []string{ws.ID},
	}
	return r.sessions.Create(ctx, sess)
}

// buildToolchain constructs the registry/router pair for one session:
// filesystem tools rooted at the session's working directory, plus
// delegate_to_agent bound to this session so autonomous hand-offs land
// jobs against the conversation that spawned them (builtin.DelegateToAgentTool
// binds its sessionID at construction time, so the registry can't be built
// once and shared across sessions the way the built-in filesystem tools
// could be).
func (r *runtime) buildToolchain(sess *models.Session, scheduler *jobs.Scheduler) (*tools.Registry, *tools.Router, error) {
	registry := tools.NewRegistry()

	root := sess.WorkingDir
	if root == "" {
		root = "."
	}

	regErrs := []error{
		registry.Register(builtin.NewReadFileTool(root)),
		registry.Register(builtin.NewWriteFileTool(root)),
		registry.Register(builtin.NewListFilesTool(root)),
	}
	if scheduler != nil {
		regErrs = append(regErrs, registry.Register(builtin.NewDelegateToAgentTool(sess.ID, scheduler)))
	}
	for _, err := range regErrs {
		if err != nil {
			return nil, nil, err
		}
	}

	router := tools.NewRouter(registry, storeWorkspaceResolver{rt: r}, nil)
	return registry, router, nil
}
