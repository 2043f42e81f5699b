package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

func (s *Store) ListNotes(ctx context.Context, sessionID string) ([]models.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, content, tags, always_append, source_file, created_at
		FROM notes WHERE session_id = ? ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		var n models.Note
		var tagsJSON, sourceFile sql.NullString
		var alwaysAppend int
		if err := rows.Scan(&n.ID, &n.SessionID, &n.Content, &tagsJSON, &alwaysAppend, &sourceFile, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		if tagsJSON.Valid {
			tags, err := unmarshalStrings(tagsJSON.String)
			if err != nil {
				return nil, fmt.Errorf("decode tags: %w", err)
			}
			n.Tags = tags
		}
		n.AlwaysAppend = alwaysAppend != 0
		n.SourceFile = sourceFile.String
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) SaveNote(ctx context.Context, n models.Note) error {
	tags, err := marshalStrings(n.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notes (id, session_id, content, tags, always_append, source_file, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content=excluded.content, tags=excluded.tags, always_append=excluded.always_append,
			source_file=excluded.source_file`,
		n.ID, n.SessionID, n.Content, nullString(tags), boolToInt(n.AlwaysAppend), nullString(n.SourceFile), n.CreatedAt)
	if err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	return nil
}
