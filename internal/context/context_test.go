package context

import (
	"context"
	"errors"
	"testing"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}

type fakeMemoryStore struct {
	memories []models.Memory
	err      error
}

func (f *fakeMemoryStore) ListMemories(ctx context.Context) ([]models.Memory, error) {
	return f.memories, f.err
}

type fakeNoteStore struct {
	notes []models.Note
	err   error
}

func (f *fakeNoteStore) ListNotes(ctx context.Context, sessionID string) ([]models.Note, error) {
	return f.notes, f.err
}

type fakeTagExtractor struct {
	tags []string
	err  error
}

func (f *fakeTagExtractor) ExtractTags(ctx context.Context, query string) ([]string, error) {
	return f.tags, f.err
}

func TestGatherRanksMemoriesBySimilarity(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{1, 0, 0}}
	store := &fakeMemoryStore{memories: []models.Memory{
		{ID: "low", Embedding: []float32{0, 1, 0}},
		{ID: "high", Embedding: []float32{0.9, 0.1, 0}},
		{ID: "mid", Embedding: []float32{0.5, 0.5, 0}},
	}}
	g := New(embedder, store, nil, nil, DefaultConfig(), nil)

	data := g.Gather(context.Background(), "sess", "query", nil, nil)

	if len(data.Memories) != 3 {
		t.Fatalf("got %d memories, want 3", len(data.Memories))
	}
	if data.Memories[0].ID != "high" || data.Memories[1].ID != "mid" || data.Memories[2].ID != "low" {
		t.Fatalf("unexpected rank order: %+v", data.Memories)
	}
}

func TestGatherRespectsLimitAndMinSimilarity(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{1, 0}}
	store := &fakeMemoryStore{memories: []models.Memory{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{0.99, 0.01}},
		{ID: "c", Embedding: []float32{0, 1}},
	}}
	g := New(embedder, store, nil, nil, Config{MinSimilarity: 0.5, Limit: 1}, nil)

	data := g.Gather(context.Background(), "sess", "query", nil, nil)

	if len(data.Memories) != 1 || data.Memories[0].ID != "a" {
		t.Fatalf("unexpected memories: %+v", data.Memories)
	}
}

func TestGatherDegradesOnEmbedderFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("embedding service unavailable")}
	store := &fakeMemoryStore{memories: []models.Memory{{ID: "a", Embedding: []float32{1, 0}}}}
	g := New(embedder, store, nil, nil, DefaultConfig(), nil)

	data := g.Gather(context.Background(), "sess", "query", nil, nil)

	if data.Memories != nil {
		t.Fatalf("expected nil memories on degraded path, got %+v", data.Memories)
	}
}

func TestGatherNotesAlwaysAppendPlusTagMatch(t *testing.T) {
	notes := &fakeNoteStore{notes: []models.Note{
		{ID: "always", AlwaysAppend: true},
		{ID: "tagged", Tags: []string{"billing"}},
		{ID: "unrelated", Tags: []string{"weather"}},
	}}
	tags := &fakeTagExtractor{tags: []string{"Billing"}}
	g := New(nil, nil, notes, tags, DefaultConfig(), nil)

	data := g.Gather(context.Background(), "sess", "what's my invoice status", nil, nil)

	if len(data.Notes) != 2 {
		t.Fatalf("got %d notes, want 2: %+v", len(data.Notes), data.Notes)
	}
	ids := map[string]bool{data.Notes[0].ID: true, data.Notes[1].ID: true}
	if !ids["always"] || !ids["tagged"] {
		t.Fatalf("unexpected notes selected: %+v", data.Notes)
	}
}

func TestGatherNotesFallsBackWithoutTagExtractor(t *testing.T) {
	notes := &fakeNoteStore{notes: []models.Note{
		{ID: "always", AlwaysAppend: true},
		{ID: "tagged", Tags: []string{"billing"}},
	}}
	g := New(nil, nil, notes, nil, DefaultConfig(), nil)

	data := g.Gather(context.Background(), "sess", "what's my invoice status", nil, nil)

	if len(data.Notes) != 1 || data.Notes[0].ID != "always" {
		t.Fatalf("unexpected notes: %+v", data.Notes)
	}
}

func TestFileNamesDeduped(t *testing.T) {
	data := ContextData{Notes: []models.Note{
		{SourceFile: "a.md"},
		{SourceFile: "b.md"},
		{SourceFile: "a.md"},
		{},
	}}
	names := data.FileNames()
	if len(names) != 2 || names[0] != "a.md" || names[1] != "b.md" {
		t.Fatalf("unexpected file names: %+v", names)
	}
}

func TestGatherProgressStages(t *testing.T) {
	g := New(nil, nil, nil, nil, DefaultConfig(), nil)
	var stages []string
	g.Gather(context.Background(), "sess", "", nil, func(stage string) {
		stages = append(stages, stage)
	})
	if len(stages) != 3 {
		t.Fatalf("got %d stages, want 3: %v", len(stages), stages)
	}
}
