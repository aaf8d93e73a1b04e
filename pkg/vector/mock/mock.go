// Package mock provides an in-memory test double for the [vector.Index]
// capability.
//
// Index behaves as a small working index: documents are kept in insertion
// order and queries score documents by case-insensitive term overlap, so
// integration-style tests get deterministic ranked results without a real
// vector backend. Every method can be forced to fail via the exported *Err
// fields, and QueryResult can override the built-in scoring entirely.
//
// Index is safe for concurrent use.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/MrWong99/lorekeep/pkg/vector"
)

// Index is a configurable test double for [vector.Index].
// The zero value is ready to use.
type Index struct {
	mu sync.Mutex

	docs  []vector.Document
	byID  map[string]int
	calls map[string]int

	// UpsertErr is returned by Upsert when non-nil; the document is not stored.
	UpsertErr error

	// QueryErr is returned by Query when non-nil.
	QueryErr error

	// QueryResult, when non-nil, is returned by Query verbatim (after the
	// limit is applied) instead of running the built-in term-overlap scoring.
	QueryResult []vector.Match

	// DeleteErr is returned by Delete when non-nil; no documents are removed.
	DeleteErr error

	// ListAllErr is returned by ListAll when non-nil.
	ListAllErr error
}

// Upsert implements [vector.Index].
func (m *Index) Upsert(ctx context.Context, doc vector.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Upsert")

	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	if m.byID == nil {
		m.byID = make(map[string]int)
	}
	if i, ok := m.byID[doc.ID]; ok {
		m.docs[i] = doc
		return nil
	}
	m.byID[doc.ID] = len(m.docs)
	m.docs = append(m.docs, doc)
	return nil
}

// Query implements [vector.Index]. Without a scripted QueryResult it scores
// each stored document by the number of query terms contained in its text
// (case-insensitive) and returns positive-scoring documents ordered by
// descending score, ties broken by insertion order.
func (m *Index) Query(ctx context.Context, query string, limit int) ([]vector.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Query")

	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	if m.QueryResult != nil {
		return capMatches(m.QueryResult, limit), nil
	}

	terms := strings.Fields(strings.ToLower(query))
	type scored struct {
		match vector.Match
		order int
	}
	var results []scored
	for i, doc := range m.docs {
		text := strings.ToLower(doc.Text)
		score := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				score++
			}
		}
		if score > 0 {
			results = append(results, scored{
				match: vector.Match{ID: doc.ID, Record: doc.Record, Score: float64(score)},
				order: i,
			})
		}
	}
	sort.SliceStable(results, func(a, b int) bool {
		if results[a].match.Score != results[b].match.Score {
			return results[a].match.Score > results[b].match.Score
		}
		return results[a].order < results[b].order
	})

	matches := make([]vector.Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, r.match)
	}
	return capMatches(matches, limit), nil
}

// Delete implements [vector.Index].
func (m *Index) Delete(ctx context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Delete")

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	remove := make(map[string]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}
	kept := m.docs[:0]
	for _, doc := range m.docs {
		if !remove[doc.ID] {
			kept = append(kept, doc)
		}
	}
	m.docs = kept
	m.byID = make(map[string]int, len(m.docs))
	for i, doc := range m.docs {
		m.byID[doc.ID] = i
	}
	return nil
}

// ListAll implements [vector.Index]. Documents are returned in insertion
// order; callers must not rely on this outside of tests.
func (m *Index) ListAll(ctx context.Context) ([]vector.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ListAll")

	if m.ListAllErr != nil {
		return nil, m.ListAllErr
	}
	out := make([]vector.Document, len(m.docs))
	copy(out, m.docs)
	return out, nil
}

// Len returns the number of stored documents.
func (m *Index) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// CallCount returns how many times the named method was invoked.
func (m *Index) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *Index) record(method string) {
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

func capMatches(matches []vector.Match, limit int) []vector.Match {
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]vector.Match, len(matches))
	copy(out, matches)
	return out
}
