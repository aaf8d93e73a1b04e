// Package postgres provides a [vector.Index] backed by a PostgreSQL table
// with a pgvector HNSW index for approximate nearest-neighbour search.
//
// Documents are embedded through an [embeddings.Provider] at upsert and
// query time. The pgvector extension must be available in the target
// database; [New] installs it automatically via CREATE EXTENSION IF NOT
// EXISTS. The vector dimension is baked into the column type at schema
// creation time and must match the configured embeddings provider.
//
// All methods are safe for concurrent use.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/MrWong99/lorekeep/pkg/provider/embeddings"
	"github.com/MrWong99/lorekeep/pkg/vector"
)

var _ vector.Index = (*Index)(nil)

// Index is the pgvector-backed similarity index.
type Index struct {
	pool     *pgxpool.Pool
	embedder embeddings.Provider
}

// ddl returns the schema DDL with the embedding dimension substituted.
func ddl(dimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS lore_documents (
    id         TEXT       PRIMARY KEY,
    text       TEXT       NOT NULL,
    record     JSONB      NOT NULL,
    embedding  vector(%d)
);

CREATE INDEX IF NOT EXISTS idx_lore_documents_embedding
    ON lore_documents USING hnsw (embedding vector_cosine_ops);
`, dimensions)
}

// New connects to the database at dsn, ensures the schema exists, and
// returns a ready [Index]. The schema migration is idempotent and safe to
// run on every start. Changing the embeddings provider's dimensionality
// after the first migration requires a manual schema update.
func New(ctx context.Context, dsn string, embedder embeddings.Provider) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("postgres index: embedder must not be nil")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres index: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, ddl(embedder.Dimensions())); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres index: migrate: %w", err)
	}
	return &Index{pool: pool, embedder: embedder}, nil
}

// Close releases the underlying connection pool.
func (x *Index) Close() {
	x.pool.Close()
}

// Upsert implements [vector.Index]. The document text is embedded and the
// row is replaced wholesale when the ID already exists.
func (x *Index) Upsert(ctx context.Context, doc vector.Document) error {
	embedding, err := x.embedder.Embed(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("postgres index: embed document %q: %w", doc.ID, err)
	}

	const q = `
		INSERT INTO lore_documents (id, text, record, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
		    text      = EXCLUDED.text,
		    record    = EXCLUDED.record,
		    embedding = EXCLUDED.embedding`

	if _, err := x.pool.Exec(ctx, q, doc.ID, doc.Text, doc.Record, pgvector.NewVector(embedding)); err != nil {
		return fmt.Errorf("postgres index: upsert %q: %w", doc.ID, err)
	}
	return nil
}

// Query implements [vector.Index]. Results are ordered by ascending cosine
// distance; the returned Score is 1-distance so that higher means closer.
func (x *Index) Query(ctx context.Context, query string, limit int) ([]vector.Match, error) {
	embedding, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres index: embed query: %w", err)
	}

	const q = `
		SELECT id, record, embedding <=> $1 AS distance
		FROM lore_documents
		ORDER BY distance
		LIMIT $2`

	rows, err := x.pool.Query(ctx, q, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres index: query: %w", err)
	}
	defer rows.Close()

	matches := []vector.Match{}
	for rows.Next() {
		var (
			m        vector.Match
			distance float64
		)
		if err := rows.Scan(&m.ID, &m.Record, &distance); err != nil {
			return nil, fmt.Errorf("postgres index: scan match: %w", err)
		}
		m.Score = 1 - distance
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres index: iterate matches: %w", err)
	}
	return matches, nil
}

// Delete implements [vector.Index].
func (x *Index) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := x.pool.Exec(ctx, `DELETE FROM lore_documents WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("postgres index: delete: %w", err)
	}
	return nil
}

// ListAll implements [vector.Index].
func (x *Index) ListAll(ctx context.Context) ([]vector.Document, error) {
	rows, err := x.pool.Query(ctx, `SELECT id, text, record FROM lore_documents`)
	if err != nil {
		return nil, fmt.Errorf("postgres index: list all: %w", err)
	}
	defer rows.Close()

	docs := []vector.Document{}
	for rows.Next() {
		var d vector.Document
		if err := rows.Scan(&d.ID, &d.Text, &d.Record); err != nil {
			return nil, fmt.Errorf("postgres index: scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres index: iterate documents: %w", err)
	}
	return docs, nil
}
