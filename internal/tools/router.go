package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

// WorkspaceResolver looks up a workspace by id, scoped to whatever store
// backs the session manager.
type WorkspaceResolver interface {
	Resolve(ctx context.Context, id string) (*models.Workspace, bool)
}

// WorkspaceToolInvoker runs a Custom (workspace-declared) tool definition
// whose hosting workspace is server-local (host ∈ {server, serverSession}).
// It models spec.md §4.5's "delegating executor that forwards to the
// workspace hosting the definition" for the local-dispatch case; a
// client-hosted workspace never reaches this — it signals
// ClientExecutionRequired instead.
type WorkspaceToolInvoker interface {
	Invoke(ctx context.Context, workspaceID string, def *models.WorkspaceToolDefinition, args json.RawMessage) (string, error)
}

// Router implements C5's execute(ref, args, sessionId) algorithm.
type Router struct {
	registry *Registry
	resolver WorkspaceResolver
	invoker  WorkspaceToolInvoker

	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewRouter builds a Router. invoker may be nil if no workspace ever
// declares a Custom tool hosted locally.
func NewRouter(registry *Registry, resolver WorkspaceResolver, invoker WorkspaceToolInvoker) *Router {
	return &Router{
		registry: registry,
		resolver: resolver,
		invoker:  invoker,
		locks:    make(map[string]*sessionLock),
	}
}

// Execute resolves ref against the session's candidate workspaces (primary
// first, then attached in insertion order — callers pass that order via
// candidateWorkspaceIDs, e.g. models.Session.CandidateWorkspaceIDs), then
// dispatches locally or signals ClientExecutionRequired.
func (r *Router) Execute(ctx context.Context, ref models.ToolReference, args json.RawMessage, sessionID string, candidateWorkspaceIDs []string) (*models.ToolResult, error) {
	ws, resolvedRef, ok := r.selectWorkspace(ctx, ref, candidateWorkspaceIDs)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, ref.Name())
	}

	if r.requiresPermission(resolvedRef) {
		unlock := r.lockSession(sessionID)
		defer unlock()
	}

	switch ws.Host {
	case models.HostClient:
		return nil, &ClientExecutionRequired{WorkspaceID: ws.ID, OwnerID: ws.OwnerID}
	case models.HostServer, models.HostServerSession:
		return r.dispatchLocal(ctx, ws, resolvedRef, args)
	default:
		return nil, fmt.Errorf("tool %s: unrecognized workspace host %q", ref.Name(), ws.Host)
	}
}

// selectWorkspace enumerates candidates in order and returns the first
// whose declared tools include ref, along with the concrete ToolReference
// the workspace declared (which may carry a Custom definition ref itself
// lacked).
func (r *Router) selectWorkspace(ctx context.Context, ref models.ToolReference, candidateWorkspaceIDs []string) (*models.Workspace, models.ToolReference, bool) {
	for _, wsID := range candidateWorkspaceIDs {
		ws, ok := r.resolver.Resolve(ctx, wsID)
		if !ok {
			continue
		}
		if declared, found := ws.Declares(ref.Name()); found {
			return ws, declared, true
		}
	}
	return nil, models.ToolReference{}, false
}

func (r *Router) dispatchLocal(ctx context.Context, ws *models.Workspace, ref models.ToolReference, args json.RawMessage) (*models.ToolResult, error) {
	if ref.IsKnown() {
		exec, ok := r.registry.Get(ref.Known)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrToolNotFound, ref.Known)
		}
		if err := r.registry.Validate(ref.Known, args); err != nil {
			return &models.ToolResult{Success: false, Error: err.Error()}, nil
		}
		output, err := exec.Execute(ctx, args)
		if err != nil {
			return &models.ToolResult{Success: false, Error: err.Error()}, nil
		}
		return &models.ToolResult{Success: true, Output: output}, nil
	}

	if ref.Custom == nil {
		return nil, fmt.Errorf("%w: custom tool reference missing definition", ErrToolNotFound)
	}
	if r.invoker == nil {
		return nil, fmt.Errorf("no local invoker configured for custom tool %q on workspace %s", ref.Custom.Name, ws.ID)
	}
	output, err := r.invoker.Invoke(ctx, ws.ID, ref.Custom, args)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}
	return &models.ToolResult{Success: true, Output: output}, nil
}

func (r *Router) requiresPermission(ref models.ToolReference) bool {
	if ref.Custom != nil {
		return ref.Custom.RequiresPermission
	}
	if exec, ok := r.registry.Get(ref.Known); ok {
		return exec.Schema().RequiresPermission
	}
	return false
}

// lockSession serializes calls for sessionID when a tool declares
// requiresPermission (spec.md §4.5 concurrency note). Reference-counted so
// the lock map doesn't grow unbounded across a long-lived process.
func (r *Router) lockSession(sessionID string) func() {
	if sessionID == "" {
		return func() {}
	}

	r.locksMu.Lock()
	lock := r.locks[sessionID]
	if lock == nil {
		lock = &sessionLock{}
		r.locks[sessionID] = lock
	}
	lock.refs++
	r.locksMu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		r.locksMu.Lock()
		lock.refs--
		if lock.refs <= 0 {
			delete(r.locks, sessionID)
		}
		r.locksMu.Unlock()
	}
}
