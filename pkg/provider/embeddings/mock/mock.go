// Package mock provides a test double for the embeddings.Provider interface.
//
// The zero value produces deterministic pseudo-embeddings derived from an
// FNV hash of the input text, so two equal strings always embed to the same
// vector and vector-index tests get stable similarity results without a
// live model. Set EmbedErr to force failures.
package mock

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/MrWong99/lorekeep/pkg/provider/embeddings"
)

const defaultDimensions = 8

var _ embeddings.Provider = (*Provider)(nil)

// Provider is a deterministic mock implementation of [embeddings.Provider].
type Provider struct {
	mu sync.Mutex

	// DimensionsValue is the vector length to produce. Defaults to 8.
	DimensionsValue int

	// EmbedErr, if non-nil, is returned by Embed and EmbedBatch.
	EmbedErr error

	// EmbedCalls records every text submitted to Embed or EmbedBatch, in order.
	EmbedCalls []string
}

// Embed returns a deterministic pseudo-embedding of text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EmbedCalls = append(p.EmbedCalls, text)
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	return p.vectorize(text), nil
}

// EmbedBatch returns deterministic pseudo-embeddings for each text.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EmbedCalls = append(p.EmbedCalls, texts...)
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.vectorize(t)
	}
	return out, nil
}

// Dimensions implements [embeddings.Provider].
func (p *Provider) Dimensions() int {
	if p.DimensionsValue > 0 {
		return p.DimensionsValue
	}
	return defaultDimensions
}

// ModelID implements [embeddings.Provider].
func (p *Provider) ModelID() string {
	return "mock-embed-v1"
}

// vectorize hashes text into a unit-independent pseudo-embedding. The same
// text always yields the same vector.
func (p *Provider) vectorize(text string) []float32 {
	dims := p.DimensionsValue
	if dims <= 0 {
		dims = defaultDimensions
	}
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, dims)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed>>32)) / float32(1<<31)
	}
	return vec
}
