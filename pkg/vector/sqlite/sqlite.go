// Package sqlite provides a local, persistent [vector.Index] backed by a
// single SQLite database file.
//
// Embeddings are computed through an [embeddings.Provider], packed as
// little-endian float32 BLOBs, and compared with a brute-force cosine
// similarity scan at query time. That is fine at the scale this index is
// meant for: one campaign's worth of NPCs, quests, and locations. For
// larger corpora use the pgvector backend instead.
//
// All methods are safe for concurrent use; database/sql serializes access
// to the underlying connection.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/MrWong99/lorekeep/pkg/provider/embeddings"
	"github.com/MrWong99/lorekeep/pkg/vector"
)

var _ vector.Index = (*Index)(nil)

// Index is the SQLite-backed similarity index.
type Index struct {
	db       *sql.DB
	embedder embeddings.Provider
}

const schema = `
CREATE TABLE IF NOT EXISTS lore_documents (
    id        TEXT PRIMARY KEY,
    text      TEXT NOT NULL,
    record    BLOB NOT NULL,
    embedding BLOB NOT NULL
);
`

// New opens (or creates) the index database at dbPath. The parent
// directory is created when missing.
func New(dbPath string, embedder embeddings.Provider) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("sqlite index: embedder must not be nil")
	}
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite index: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite index: open %q: %w", dbPath, err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite index: enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite index: create schema: %w", err)
	}
	return &Index{db: db, embedder: embedder}, nil
}

// Close closes the underlying database.
func (x *Index) Close() error {
	return x.db.Close()
}

// Upsert implements [vector.Index].
func (x *Index) Upsert(ctx context.Context, doc vector.Document) error {
	embedding, err := x.embedder.Embed(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("sqlite index: embed document %q: %w", doc.ID, err)
	}

	const q = `
		INSERT INTO lore_documents (id, text, record, embedding)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		    text      = excluded.text,
		    record    = excluded.record,
		    embedding = excluded.embedding`

	if _, err := x.db.ExecContext(ctx, q, doc.ID, doc.Text, doc.Record, packEmbedding(embedding)); err != nil {
		return fmt.Errorf("sqlite index: upsert %q: %w", doc.ID, err)
	}
	return nil
}

// Query implements [vector.Index]. Every stored embedding is scored
// against the query embedding and the top limit documents are returned in
// descending cosine similarity order.
func (x *Index) Query(ctx context.Context, query string, limit int) ([]vector.Match, error) {
	queryVec, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite index: embed query: %w", err)
	}

	rows, err := x.db.QueryContext(ctx, `SELECT id, record, embedding FROM lore_documents`)
	if err != nil {
		return nil, fmt.Errorf("sqlite index: query: %w", err)
	}
	defer rows.Close()

	matches := []vector.Match{}
	for rows.Next() {
		var (
			m    vector.Match
			blob []byte
		)
		if err := rows.Scan(&m.ID, &m.Record, &blob); err != nil {
			return nil, fmt.Errorf("sqlite index: scan document: %w", err)
		}
		m.Score = float64(cosineSimilarity(queryVec, unpackEmbedding(blob)))
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite index: iterate documents: %w", err)
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Delete implements [vector.Index].
func (x *Index) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite index: begin delete: %w", err)
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM lore_documents WHERE id = ?`, id); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite index: delete %q: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite index: commit delete: %w", err)
	}
	return nil
}

// ListAll implements [vector.Index].
func (x *Index) ListAll(ctx context.Context) ([]vector.Document, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT id, text, record FROM lore_documents`)
	if err != nil {
		return nil, fmt.Errorf("sqlite index: list all: %w", err)
	}
	defer rows.Close()

	docs := []vector.Document{}
	for rows.Next() {
		var d vector.Document
		if err := rows.Scan(&d.ID, &d.Text, &d.Record); err != nil {
			return nil, fmt.Errorf("sqlite index: scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite index: iterate documents: %w", err)
	}
	return docs, nil
}

func packEmbedding(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func unpackEmbedding(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// cosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths compare only the shared prefix; zero vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float32
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
