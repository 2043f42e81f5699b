package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

// encodeEmbedding packs a []float32 into a little-endian byte blob, one
// IEEE-754 float32 per 4 bytes.
func encodeEmbedding(embedding []float32) []byte {
	if len(embedding) == 0 {
		return nil
	}
	data := make([]byte, len(embedding)*4)
	for i, f := range embedding {
		bits := math.Float32bits(f)
		data[i*4] = byte(bits)
		data[i*4+1] = byte(bits >> 8)
		data[i*4+2] = byte(bits >> 16)
		data[i*4+3] = byte(bits >> 24)
	}
	return data
}

// decodeEmbedding reverses encodeEmbedding.
func decodeEmbedding(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		bits := uint32(data[i*4]) |
			uint32(data[i*4+1])<<8 |
			uint32(data[i*4+2])<<16 |
			uint32(data[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}

func (s *Store) ListMemories(ctx context.Context) ([]models.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, tags, embedding, created_at FROM memories ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var out []models.Memory
	for rows.Next() {
		var m models.Memory
		var tagsJSON sql.NullString
		var embeddingBlob []byte
		if err := rows.Scan(&m.ID, &m.Title, &m.Content, &tagsJSON, &embeddingBlob, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		if tagsJSON.Valid {
			tags, err := unmarshalStrings(tagsJSON.String)
			if err != nil {
				return nil, fmt.Errorf("decode tags: %w", err)
			}
			m.Tags = tags
		}
		m.Embedding = decodeEmbedding(embeddingBlob)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) SaveMemory(ctx context.Context, m models.Memory) error {
	tags, err := marshalStrings(m.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO memories (id, title, content, tags, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, content=excluded.content, tags=excluded.tags,
			embedding=excluded.embedding`,
		m.ID, m.Title, m.Content, nullString(tags), encodeEmbedding(m.Embedding), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("save memory: %w", err)
	}
	return nil
}
