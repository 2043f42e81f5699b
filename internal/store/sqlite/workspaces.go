package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

func (s *Store) GetWorkspace(ctx context.Context, id string) (*models.Workspace, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, uri, host, owner_id, root_path, trust, created_at, tools
		FROM workspaces WHERE id = ?`, id)

	var w models.Workspace
	var host, trust string
	var ownerID, rootPath, toolsJSON sql.NullString
	if err := row.Scan(&w.ID, &w.URI, &host, &ownerID, &rootPath, &trust, &w.CreatedAt, &toolsJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get workspace: %w", err)
	}
	w.Host = models.WorkspaceHost(host)
	w.Trust = models.TrustLevel(trust)
	w.OwnerID = ownerID.String
	w.RootPath = rootPath.String
	if toolsJSON.Valid && toolsJSON.String != "" {
		if err := json.Unmarshal([]byte(toolsJSON.String), &w.Tools); err != nil {
			return nil, false, fmt.Errorf("decode tools: %w", err)
		}
	}
	return &w, true, nil
}

func (s *Store) SaveWorkspace(ctx context.Context, w models.Workspace) error {
	toolsJSON, err := json.Marshal(w.Tools)
	if err != nil {
		return fmt.Errorf("encode tools: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workspaces (id, uri, host, owner_id, root_path, trust, created_at, tools)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			uri=excluded.uri, host=excluded.host, owner_id=excluded.owner_id,
			root_path=excluded.root_path, trust=excluded.trust, tools=excluded.tools`,
		w.ID, w.URI, string(w.Host), nullString(w.OwnerID), nullString(w.RootPath),
		string(w.Trust), w.CreatedAt, string(toolsJSON))
	if err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}
	return nil
}
