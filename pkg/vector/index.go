// Package vector defines the similarity-index capability consumed by the
// Lorekeep entity repository and retrieval engine.
//
// An [Index] mirrors entity records as (id, canonical text, serialized
// payload) documents and answers free-text queries with the closest
// matches. The mirror is denormalized and best-effort: it is never the
// source of truth, it may lag behind the in-memory repository, and it may
// be entirely absent. Callers must degrade to keyword search when an Index
// is nil or failing, never crash and never block unbounded.
//
// Implementations must be safe for concurrent use.
package vector

import "context"

// Document is a mirrored entity record as stored in the index.
type Document struct {
	// ID is the entity's repository identifier. IDs share one namespace
	// across all entity kinds.
	ID string

	// Text is the canonical text representation that similarity is
	// computed against.
	Text string

	// Record is the serialized entity payload, opaque to the index.
	Record []byte
}

// Match is a single query result.
type Match struct {
	// ID is the matched document's entity identifier.
	ID string

	// Record is the serialized entity payload stored with the document.
	Record []byte

	// Score is the similarity of the match to the query; higher is more
	// similar. The scale is implementation-defined.
	Score float64
}

// Index is the similarity-index capability.
type Index interface {
	// Upsert stores doc, replacing any existing document with the same ID.
	Upsert(ctx context.Context, doc Document) error

	// Query returns up to limit matches for the free-text query, ordered
	// best match first. Returns an empty (non-nil) slice when nothing
	// matches.
	Query(ctx context.Context, query string, limit int) ([]Match, error)

	// Delete removes the documents with the given IDs. Deleting an
	// unknown ID is not an error.
	Delete(ctx context.Context, ids ...string) error

	// ListAll returns every stored document. Order is unspecified.
	ListAll(ctx context.Context) ([]Document, error)
}
