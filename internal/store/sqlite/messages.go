package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

func (s *Store) AppendMessage(ctx context.Context, m models.ConversationMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	var toolCallsJSON string
	if len(m.ToolCalls) > 0 {
		b, err := json.Marshal(m.ToolCalls)
		if err != nil {
			return fmt.Errorf("encode tool calls: %w", err)
		}
		toolCallsJSON = string(b)
	}
	recalled, err := marshalStrings(m.RecalledMemoryIDs)
	if err != nil {
		return fmt.Errorf("encode recalled memory ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, role, content, created_at, reasoning, tool_calls,
		                       tool_call_id, parent_id, recalled_memory_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SessionID, string(m.Role), m.Content, m.CreatedAt, nullString(m.Reasoning),
		nullString(toolCallsJSON), nullString(m.ToolCallID), nullString(m.ParentID), nullString(recalled))
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]models.ConversationMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, created_at, reasoning, tool_calls,
		       tool_call_id, parent_id, recalled_memory_ids
		FROM messages WHERE session_id = ? ORDER BY created_at ASC, rowid ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []models.ConversationMessage
	for rows.Next() {
		var m models.ConversationMessage
		var role string
		var reasoning, toolCallsJSON, toolCallID, parentID, recalledJSON sql.NullString
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &m.CreatedAt, &reasoning,
			&toolCallsJSON, &toolCallID, &parentID, &recalledJSON); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = models.Role(role)
		m.Reasoning = reasoning.String
		m.ToolCallID = toolCallID.String
		m.ParentID = parentID.String
		if toolCallsJSON.Valid && toolCallsJSON.String != "" {
			if err := json.Unmarshal([]byte(toolCallsJSON.String), &m.ToolCalls); err != nil {
				return nil, fmt.Errorf("decode tool calls: %w", err)
			}
		}
		if recalledJSON.Valid {
			ids, err := unmarshalStrings(recalledJSON.String)
			if err != nil {
				return nil, fmt.Errorf("decode recalled memory ids: %w", err)
			}
			m.RecalledMemoryIDs = ids
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
