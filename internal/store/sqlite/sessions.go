package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, created_at, updated_at, archived, persona_id, working_dir,
		       primary_workspace_id, attached_workspace_ids, debug_snapshot
		FROM sessions WHERE id = ?`, id)

	var sess models.Session
	var personaID, workingDir, primaryWs, attachedJSON, snapshotJSON sql.NullString
	var archived int
	if err := row.Scan(&sess.ID, &sess.Title, &sess.CreatedAt, &sess.UpdatedAt, &archived,
		&personaID, &workingDir, &primaryWs, &attachedJSON, &snapshotJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s not found", id)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess.Archived = archived != 0
	sess.PersonaID = personaID.String
	sess.WorkingDir = workingDir.String
	sess.PrimaryWorkspaceID = primaryWs.String
	if attachedJSON.Valid {
		ids, err := unmarshalStrings(attachedJSON.String)
		if err != nil {
			return nil, fmt.Errorf("decode attached workspace ids: %w", err)
		}
		sess.AttachedWorkspaceIDs = ids
	}
	if snapshotJSON.Valid && snapshotJSON.String != "" {
		var snap models.DebugSnapshot
		if err := json.Unmarshal([]byte(snapshotJSON.String), &snap); err != nil {
			return nil, fmt.Errorf("decode debug snapshot: %w", err)
		}
		sess.DebugSnapshot = &snap
	}
	return &sess, nil
}

func (s *Store) SaveSession(ctx context.Context, sess models.Session) error {
	attached, err := marshalStrings(sess.AttachedWorkspaceIDs)
	if err != nil {
		return fmt.Errorf("encode attached workspace ids: %w", err)
	}
	var snapshotJSON string
	if sess.DebugSnapshot != nil {
		b, err := json.Marshal(sess.DebugSnapshot)
		if err != nil {
			return fmt.Errorf("encode debug snapshot: %w", err)
		}
		snapshotJSON = string(b)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, title, created_at, updated_at, archived, persona_id, working_dir,
		                       primary_workspace_id, attached_workspace_ids, debug_snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, updated_at=excluded.updated_at, archived=excluded.archived,
			persona_id=excluded.persona_id, working_dir=excluded.working_dir,
			primary_workspace_id=excluded.primary_workspace_id,
			attached_workspace_ids=excluded.attached_workspace_ids,
			debug_snapshot=excluded.debug_snapshot`,
		sess.ID, sess.Title, sess.CreatedAt, sess.UpdatedAt, boolToInt(sess.Archived),
		nullString(sess.PersonaID), nullString(sess.WorkingDir), nullString(sess.PrimaryWorkspaceID),
		nullString(attached), nullString(snapshotJSON))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Store) ListSessions(ctx context.Context, includeArchived bool) ([]models.Session, error) {
	query := `SELECT id, title, created_at, updated_at, archived, persona_id, working_dir,
	                 primary_workspace_id, attached_workspace_ids, debug_snapshot
	          FROM sessions`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []models.Session
	for rows.Next() {
		var sess models.Session
		var personaID, workingDir, primaryWs, attachedJSON, snapshotJSON sql.NullString
		var archived int
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.CreatedAt, &sess.UpdatedAt, &archived,
			&personaID, &workingDir, &primaryWs, &attachedJSON, &snapshotJSON); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.Archived = archived != 0
		sess.PersonaID = personaID.String
		sess.WorkingDir = workingDir.String
		sess.PrimaryWorkspaceID = primaryWs.String
		if attachedJSON.Valid {
			ids, err := unmarshalStrings(attachedJSON.String)
			if err != nil {
				return nil, fmt.Errorf("decode attached workspace ids: %w", err)
			}
			sess.AttachedWorkspaceIDs = ids
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete notes: %w", err)
	}
	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
