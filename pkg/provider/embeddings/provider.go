// Package embeddings defines the Provider interface for text-embedding
// backends used by the Lorekeep vector index implementations.
//
// A provider maps text strings to dense float32 vectors. All vectors from a
// single Provider instance share one dimensionality; vectors from different
// providers must never be mixed in the same similarity computation.
//
// Implementations must be safe for concurrent use.
package embeddings

import "context"

// Provider is the abstraction over any text-embedding backend.
type Provider interface {
	// Embed computes the embedding vector for a single text string.
	// The returned slice has length Dimensions().
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch computes embeddings for a slice of texts in one backend
	// call. The i-th result corresponds to texts[i]. On error no partial
	// results are returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed vector length produced by this provider.
	Dimensions() int

	// ModelID returns the backing model identifier, for logging and for
	// guarding against accidental model mixing across restarts.
	ModelID() string
}
