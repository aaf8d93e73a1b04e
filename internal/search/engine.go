// Package search implements entity retrieval over the campaign repository.
//
// Retrieval prefers the similarity index when one is configured and healthy,
// and otherwise degrades to a deterministic case-insensitive keyword scan
// over the repository. The fallback never fails: a search without matches
// returns an empty result, not an error.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MrWong99/lorekeep/internal/observe"
	"github.com/MrWong99/lorekeep/pkg/game"
	"github.com/MrWong99/lorekeep/pkg/vector"
)

// DefaultLimit is the number of results returned when the caller does not
// ask for a specific count.
const DefaultLimit = 5

// DefaultIndexTimeout bounds a single similarity-index query. A query that
// exceeds it is answered by the keyword fallback instead.
const DefaultIndexTimeout = 5 * time.Second

// Catalog is the repository surface the engine needs for the keyword
// fallback. *store.Repository satisfies it.
type Catalog interface {
	All(ctx context.Context, kind game.Kind) []game.Record
}

// Engine retrieves entities relevant to a free-text query.
type Engine struct {
	catalog Catalog
	index   vector.Index

	defaultLimit int
	indexTimeout time.Duration

	log     *slog.Logger
	metrics *observe.Metrics

	noIndexOnce sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithIndex sets the similarity index used for the primary retrieval path.
// A nil index routes every search through the keyword fallback.
func WithIndex(idx vector.Index) Option {
	return func(e *Engine) { e.index = idx }
}

// WithDefaultLimit overrides the result count used when a search passes a
// non-positive limit.
func WithDefaultLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.defaultLimit = n
		}
	}
}

// WithIndexTimeout bounds each similarity-index call.
func WithIndexTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.indexTimeout = d
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMetrics sets the metrics instance. Defaults to observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates a retrieval engine over the given catalog.
func New(catalog Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:      catalog,
		defaultLimit: DefaultLimit,
		indexTimeout: DefaultIndexTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// Search returns up to limit records relevant to query. A zero-value kind
// searches all kinds; any other invalid kind is an error. A non-positive
// limit uses the engine default.
//
// When the index path is taken, results are filtered to the requested kind
// after the query, so fewer than limit records may come back even when more
// matching records exist. An index holding no documents is answered by the
// keyword fallback, the same as no index at all.
func (e *Engine) Search(ctx context.Context, query string, kind game.Kind, limit int) ([]game.Record, error) {
	if kind != "" && !kind.IsValid() {
		return nil, fmt.Errorf("search: unknown entity kind %q", kind)
	}
	if limit <= 0 {
		limit = e.defaultLimit
	}

	start := time.Now()
	if e.index == nil {
		e.noIndexOnce.Do(func() {
			e.log.Warn("no similarity index configured, all searches use the keyword fallback")
		})
		recs := e.keywordSearch(ctx, query, kind, limit)
		e.metrics.FallbackSearches.Add(ctx, 1, observe.Attrs(observe.Attr("reason", "no_index")))
		e.metrics.RecordSearch(ctx, "fallback", kindLabel(kind), time.Since(start).Seconds())
		return recs, nil
	}

	recs, raw, err := e.indexSearch(ctx, query, kind, limit)
	if err != nil {
		e.log.Warn("similarity index query failed, using keyword fallback",
			"query", query, "error", err)
		e.metrics.IndexErrors.Add(ctx, 1, observe.Attrs(observe.Attr("op", "query")))
		recs = e.keywordSearch(ctx, query, kind, limit)
		e.metrics.FallbackSearches.Add(ctx, 1, observe.Attrs(observe.Attr("reason", "index_error")))
		e.metrics.RecordSearch(ctx, "fallback", kindLabel(kind), time.Since(start).Seconds())
		return recs, nil
	}
	if raw == 0 {
		// An index with no documents has nothing to say about the query,
		// so an empty index behaves like a disabled one. Post-filter
		// shrink to zero is different: the index did answer, so the
		// filtered result stands.
		recs = e.keywordSearch(ctx, query, kind, limit)
		e.metrics.FallbackSearches.Add(ctx, 1, observe.Attrs(observe.Attr("reason", "empty_index")))
		e.metrics.RecordSearch(ctx, "fallback", kindLabel(kind), time.Since(start).Seconds())
		return recs, nil
	}
	e.metrics.RecordSearch(ctx, "index", kindLabel(kind), time.Since(start).Seconds())
	return recs, nil
}

// indexSearch runs the similarity-index path under the configured timeout.
// The second return value is the raw match count before the kind filter.
func (e *Engine) indexSearch(ctx context.Context, query string, kind game.Kind, limit int) ([]game.Record, int, error) {
	qctx, cancel := context.WithTimeout(ctx, e.indexTimeout)
	defer cancel()

	matches, err := e.index.Query(qctx, query, limit)
	if err != nil {
		return nil, 0, err
	}

	out := make([]game.Record, 0, len(matches))
	for _, m := range matches {
		rec, err := game.Decode(m.Record)
		if err != nil {
			e.log.Warn("skipping undecodable index match", "id", m.ID, "error", err)
			continue
		}
		if kind != "" && rec.RecordKind() != kind {
			continue
		}
		out = append(out, rec)
	}
	return out, len(matches), nil
}

// keywordSearch scans the repository in insertion order and collects records
// whose name, description or location reference contains the query,
// case-insensitively. Results come back in scan order.
//
// A blank or whitespace-only query matches nothing. A pure substring test
// would instead match everything, since the empty string is a substring of
// any field; returning the first limit records for no query at all is never
// what a caller wants.
func (e *Engine) keywordSearch(ctx context.Context, query string, kind game.Kind, limit int) []game.Record {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []game.Record{}
	}

	scanKinds := game.Kinds()
	if kind != "" {
		scanKinds = []game.Kind{kind}
	}

	out := make([]game.Record, 0, limit)
	for _, k := range scanKinds {
		for _, rec := range e.catalog.All(ctx, k) {
			if len(out) >= limit {
				return out
			}
			if matchesKeyword(rec, needle) {
				out = append(out, rec)
			}
		}
	}
	return out
}

// matchesKeyword reports whether any searchable field of rec contains the
// lowercased needle.
func matchesKeyword(rec game.Record, needle string) bool {
	for _, field := range searchableFields(rec) {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func searchableFields(rec game.Record) []string {
	switch v := rec.(type) {
	case *game.NPC:
		return []string{v.Name, v.Description, v.Location}
	case *game.Quest:
		return []string{v.Title, v.Description, v.Location}
	case *game.Location:
		return []string{v.Name, v.Description}
	default:
		return []string{rec.DisplayName()}
	}
}

func kindLabel(kind game.Kind) string {
	if kind == "" {
		return "all"
	}
	return string(kind)
}
