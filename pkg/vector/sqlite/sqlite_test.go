package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	embmock "github.com/MrWong99/lorekeep/pkg/provider/embeddings/mock"
	"github.com/MrWong99/lorekeep/pkg/vector"
	"github.com/MrWong99/lorekeep/pkg/vector/sqlite"
)

func newTestIndex(t *testing.T) *sqlite.Index {
	t.Helper()
	idx, err := sqlite.New(filepath.Join(t.TempDir(), "index.db"), &embmock.Provider{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestUpsertAndListAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx := newTestIndex(t)

	docs := []vector.Document{
		{ID: "a", Text: "NPC: Gareth the Barkeeper.", Record: []byte(`{"id":"a"}`)},
		{ID: "b", Text: "Location: Riverside Tavern.", Record: []byte(`{"id":"b"}`)},
	}
	for _, d := range docs {
		if err := idx.Upsert(ctx, d); err != nil {
			t.Fatalf("Upsert(%s): %v", d.ID, err)
		}
	}

	all, err := idx.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListAll: expected 2 documents, got %d", len(all))
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx := newTestIndex(t)

	if err := idx.Upsert(ctx, vector.Document{ID: "a", Text: "old", Record: []byte("old")}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := idx.Upsert(ctx, vector.Document{ID: "a", Text: "new", Record: []byte("new")}); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}

	all, err := idx.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 document after replace, got %d", len(all))
	}
	if string(all[0].Record) != "new" {
		t.Errorf("record = %q, want %q", all[0].Record, "new")
	}
}

func TestQueryRanksExactTextFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx := newTestIndex(t)

	// The mock embedder hashes text, so an identical query embeds to an
	// identical vector and must rank first with similarity 1.
	for _, d := range []vector.Document{
		{ID: "a", Text: "dusty crypt beneath the chapel", Record: []byte("a")},
		{ID: "b", Text: "riverside tavern full of song", Record: []byte("b")},
		{ID: "c", Text: "windswept mountain pass", Record: []byte("c")},
	} {
		if err := idx.Upsert(ctx, d); err != nil {
			t.Fatalf("Upsert(%s): %v", d.ID, err)
		}
	}

	matches, err := idx.Query(ctx, "riverside tavern full of song", 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Query: expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != "b" {
		t.Errorf("best match = %q, want %q", matches[0].ID, "b")
	}
	if matches[0].Score < 0.999 {
		t.Errorf("best match score = %v, want ≈1", matches[0].Score)
	}
	if matches[0].Score < matches[1].Score {
		t.Error("matches not ordered by descending score")
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx := newTestIndex(t)

	for _, id := range []string{"a", "b", "c"} {
		if err := idx.Upsert(ctx, vector.Document{ID: id, Text: id, Record: []byte(id)}); err != nil {
			t.Fatalf("Upsert(%s): %v", id, err)
		}
	}
	if err := idx.Delete(ctx, "a", "c", "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	all, err := idx.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 1 || all[0].ID != "b" {
		t.Errorf("remaining documents = %v", all)
	}
}

func TestQueryEmptyIndex(t *testing.T) {
	t.Parallel()

	idx := newTestIndex(t)
	matches, err := idx.Query(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if matches == nil {
		t.Fatal("Query: expected non-nil empty slice")
	}
	if len(matches) != 0 {
		t.Errorf("Query: expected no matches, got %d", len(matches))
	}
}
