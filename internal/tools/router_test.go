package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

type fakeExecutor struct {
	name   string
	schema models.ToolSchema
	output string
	err    error
	calls  int
	mu     sync.Mutex
}

func (f *fakeExecutor) Name() string            { return f.name }
func (f *fakeExecutor) Schema() models.ToolSchema { return f.schema }
func (f *fakeExecutor) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

type fakeResolver struct {
	workspaces map[string]*models.Workspace
}

func (f *fakeResolver) Resolve(ctx context.Context, id string) (*models.Workspace, bool) {
	ws, ok := f.workspaces[id]
	return ws, ok
}

func TestRouterDispatchesLocalServerWorkspace(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&fakeExecutor{name: "ls", schema: models.ToolSchema{Name: "ls"}, output: "file1\nfile2"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	resolver := &fakeResolver{workspaces: map[string]*models.Workspace{
		"ws1": {ID: "ws1", Host: models.HostServer, Tools: []models.ToolReference{{Known: "ls"}}},
	}}
	router := NewRouter(reg, resolver, nil)

	result, err := router.Execute(context.Background(), models.ToolReference{Known: "ls"}, nil, "sess1", []string{"ws1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Output != "file1\nfile2" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRouterSignalsClientExecutionRequired(t *testing.T) {
	reg := NewRegistry()
	resolver := &fakeResolver{workspaces: map[string]*models.Workspace{
		"ws1": {ID: "ws1", Host: models.HostClient, OwnerID: "owner-1", Tools: []models.ToolReference{{Known: "ls"}}},
	}}
	router := NewRouter(reg, resolver, nil)

	_, err := router.Execute(context.Background(), models.ToolReference{Known: "ls"}, nil, "sess1", []string{"ws1"})
	cer, ok := AsClientExecutionRequired(err)
	if !ok {
		t.Fatalf("expected ClientExecutionRequired, got %v", err)
	}
	if cer.OwnerID != "owner-1" || cer.WorkspaceID != "ws1" {
		t.Fatalf("unexpected condition: %+v", cer)
	}
}

func TestRouterPicksPrimaryThenAttached(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&fakeExecutor{name: "shared", schema: models.ToolSchema{Name: "shared"}, output: "from-primary"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	resolver := &fakeResolver{workspaces: map[string]*models.Workspace{
		"primary":  {ID: "primary", Host: models.HostServer, Tools: []models.ToolReference{{Known: "shared"}}},
		"attached": {ID: "attached", Host: models.HostServer, Tools: []models.ToolReference{{Known: "shared"}}},
	}}
	router := NewRouter(reg, resolver, nil)

	result, err := router.Execute(context.Background(), models.ToolReference{Known: "shared"}, nil, "sess1", []string{"primary", "attached"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != "from-primary" {
		t.Fatalf("expected primary workspace to win the tie, got %+v", result)
	}
}

func TestRouterToolNotFound(t *testing.T) {
	reg := NewRegistry()
	resolver := &fakeResolver{workspaces: map[string]*models.Workspace{
		"ws1": {ID: "ws1", Host: models.HostServer},
	}}
	router := NewRouter(reg, resolver, nil)

	_, err := router.Execute(context.Background(), models.ToolReference{Known: "missing"}, nil, "sess1", []string{"ws1"})
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestRouterSerializesRequiresPermissionPerSession(t *testing.T) {
	reg := NewRegistry()
	resolver := &fakeResolver{workspaces: map[string]*models.Workspace{
		"ws1": {ID: "ws1", Host: models.HostServer, Tools: []models.ToolReference{
			{Custom: &models.WorkspaceToolDefinition{Name: "sensitive", RequiresPermission: true}},
		}},
	}}
	invoker := &slowInvoker{delay: 30 * time.Millisecond}
	router := NewRouter(reg, resolver, invoker)

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			router.Execute(context.Background(), models.ToolReference{Custom: &models.WorkspaceToolDefinition{Name: "sensitive", RequiresPermission: true}}, nil, "sess1", []string{"ws1"})
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)
	if elapsed < 2*invoker.delay {
		t.Fatalf("expected serialized execution to take at least %v, took %v", 2*invoker.delay, elapsed)
	}
}

type slowInvoker struct {
	delay time.Duration
}

func (s *slowInvoker) Invoke(ctx context.Context, workspaceID string, def *models.WorkspaceToolDefinition, args json.RawMessage) (string, error) {
	time.Sleep(s.delay)
	return "ok", nil
}
