package models

import "time"

// Memory is a retained, embeddable fact or note. Lifecycle (create, update,
// delete) is owned by the storage collaborator; the core only reads memories
// during context gathering.
type Memory struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Note is a session-scoped piece of context text. AlwaysAppend notes are
// included in every gather regardless of query; the rest surface only when
// the query's auto-generated tags match Tags. A note sourced from an
// attached file carries SourceFile so the gatherer can surface a fileNames
// list distinct from the note content itself.
type Note struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags,omitempty"`
	AlwaysAppend bool      `json:"always_append"`
	SourceFile   string    `json:"source_file,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
