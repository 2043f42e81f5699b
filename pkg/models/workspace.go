package models

import "time"

// WorkspaceHost classifies where a workspace's tools actually execute.
type WorkspaceHost string

const (
	// HostServer executes locally in this process.
	HostServer WorkspaceHost = "server"
	// HostServerSession executes locally, scoped to a server-managed session.
	HostServerSession WorkspaceHost = "serverSession"
	// HostClient requires a remote client to execute the tool and report back.
	HostClient WorkspaceHost = "client"
)

// TrustLevel orders workspaces by how much latitude their tools are given.
type TrustLevel string

const (
	TrustUntrusted TrustLevel = "untrusted"
	TrustStandard  TrustLevel = "standard"
	TrustElevated  TrustLevel = "elevated"
)

// WorkspaceToolDefinition is a workspace-declared, model-facing tool
// description for a Custom ToolReference.
type WorkspaceToolDefinition struct {
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	Parameters         map[string]any `json:"parameters"`
	RequiresPermission bool           `json:"requires_permission,omitempty"`
}

// ToolReference is a tagged variant: either a pointer into the built-in
// catalog (Known) or a workspace-declared definition (Custom). Exactly one
// of Known/Custom is set.
type ToolReference struct {
	Known  string                   `json:"known,omitempty"`
	Custom *WorkspaceToolDefinition `json:"custom,omitempty"`
}

// IsKnown reports whether this reference targets the built-in catalog.
func (r ToolReference) IsKnown() bool { return r.Known != "" }

// Name returns the tool name regardless of which variant is set.
func (r ToolReference) Name() string {
	if r.Known != "" {
		return r.Known
	}
	if r.Custom != nil {
		return r.Custom.Name
	}
	return ""
}

// Workspace is a named environment — server-local or client-hosted — that
// owns a set of tool references and a root path.
type Workspace struct {
	ID        string        `json:"id"`
	URI       string        `json:"uri"`
	Host      WorkspaceHost `json:"host"`
	OwnerID   string        `json:"owner_id,omitempty"`
	RootPath  string        `json:"root_path,omitempty"`
	Trust     TrustLevel    `json:"trust"`
	CreatedAt time.Time     `json:"created_at"`

	// Tools lists the references this workspace permits, in declaration order.
	Tools []ToolReference `json:"tools"`
}

// Declares reports whether this workspace permits the given tool reference,
// matching by resolved name.
func (w *Workspace) Declares(name string) (ToolReference, bool) {
	for _, ref := range w.Tools {
		if ref.Name() == name {
			return ref, true
		}
	}
	return ToolReference{}, false
}

// Session is a conversation thread: identity, title, lifecycle timestamps,
// an optional persona and working directory, and its bound workspaces.
//
// Invariant: PrimaryWorkspaceID, if non-empty, must also appear in
// AttachedWorkspaceIDs — enforced by the Session Manager, never by callers
// mutating a Session value directly.
type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Archived    bool      `json:"archived"`
	PersonaID   string    `json:"persona_id,omitempty"`
	WorkingDir  string    `json:"working_dir,omitempty"`

	PrimaryWorkspaceID  string   `json:"primary_workspace_id,omitempty"`
	AttachedWorkspaceIDs []string `json:"attached_workspace_ids,omitempty"`

	// DebugSnapshot holds the structured context captured at the end of the
	// last turn. Overwritten each turn.
	DebugSnapshot *DebugSnapshot `json:"debug_snapshot,omitempty"`
}

// CandidateWorkspaceIDs returns the workspace ids a tool reference may
// resolve against, in router precedence order: primary first, then
// attached workspaces in insertion order.
func (s *Session) CandidateWorkspaceIDs() []string {
	ids := make([]string, 0, len(s.AttachedWorkspaceIDs)+1)
	if s.PrimaryWorkspaceID != "" {
		ids = append(ids, s.PrimaryWorkspaceID)
	}
	for _, id := range s.AttachedWorkspaceIDs {
		if id == s.PrimaryWorkspaceID {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// DebugSnapshot captures the prompt context, tool calls/results, model name
// and turn count for the last turn of a session. Overwritten each turn.
type DebugSnapshot struct {
	StructuredContext map[string]string `json:"structured_context"`
	ToolCalls         []ToolCall        `json:"tool_calls,omitempty"`
	ToolResults       []ToolResult      `json:"tool_results,omitempty"`
	Model             string            `json:"model"`
	TurnCount         int               `json:"turn_count"`
	CapturedAt        time.Time         `json:"captured_at"`
}

// ToolResult is the outcome of one dispatched tool call.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Success    bool   `json:"success"`
	Output     string `json:"output,omitempty"`
	Error      string `json:"error,omitempty"`
}
