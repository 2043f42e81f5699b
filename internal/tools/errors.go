package tools

import (
	"errors"
	"fmt"
)

// ErrToolNotFound is returned when a ToolReference resolves against none of
// a session's candidate workspaces (spec.md §4.5 step 2).
var ErrToolNotFound = errors.New("tool not found")

// ErrSchemaInvalid is returned when a tool's declared parameter schema, or a
// decoded call's arguments, fail JSON-Schema validation.
var ErrSchemaInvalid = errors.New("tool arguments failed schema validation")

// ClientExecutionRequired is a distinguished condition, not a failure: the
// resolved tool lives on a client-hosted workspace and must be executed
// remotely. The turn loop (C6) tests for it with errors.As and halts
// further dispatch in the current turn (spec.md §4.5, §4.6 step 5).
type ClientExecutionRequired struct {
	WorkspaceID string
	OwnerID     string
}

func (e *ClientExecutionRequired) Error() string {
	return fmt.Sprintf("client execution required: workspace=%s owner=%s", e.WorkspaceID, e.OwnerID)
}

// AsClientExecutionRequired reports whether err is (or wraps) a
// ClientExecutionRequired condition.
func AsClientExecutionRequired(err error) (*ClientExecutionRequired, bool) {
	var c *ClientExecutionRequired
	if errors.As(err, &c) {
		return c, true
	}
	return nil, false
}
