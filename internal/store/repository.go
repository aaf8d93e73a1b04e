// Package store holds the authoritative in-memory entity repository.
//
// The repository owns all NPC, quest and location records for a campaign
// session and mirrors every write into an optional similarity index so that
// semantic retrieval stays in sync with the in-memory state. Memory is the
// source of truth: mirror failures are logged and counted, never surfaced
// to callers.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/lorekeep/internal/observe"
	"github.com/MrWong99/lorekeep/pkg/game"
	"github.com/MrWong99/lorekeep/pkg/vector"
)

// ErrNotFound is returned by Get when no record exists for the given id.
var ErrNotFound = errors.New("record not found")

// Repository is the authoritative in-memory store for campaign entities.
// All methods are safe for concurrent use.
type Repository struct {
	mu    sync.RWMutex
	kinds map[game.Kind]map[string]game.Record
	order map[game.Kind][]string

	index   vector.Index
	log     *slog.Logger
	metrics *observe.Metrics
}

// Option configures a Repository.
type Option func(*Repository)

// WithIndex sets the similarity index the repository mirrors writes into.
// A nil index disables mirroring.
func WithIndex(idx vector.Index) Option {
	return func(r *Repository) { r.index = idx }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(r *Repository) { r.log = log }
}

// WithMetrics sets the metrics instance. Defaults to observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Repository) { r.metrics = m }
}

// New creates an empty Repository.
func New(opts ...Option) *Repository {
	r := &Repository{
		kinds: make(map[game.Kind]map[string]game.Record),
		order: make(map[game.Kind][]string),
	}
	for _, k := range game.Kinds() {
		r.kinds[k] = make(map[string]game.Record)
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.metrics == nil {
		r.metrics = observe.DefaultMetrics()
	}
	return r
}

// Index returns the similarity index the repository mirrors into, or nil
// when mirroring is disabled.
func (r *Repository) Index() vector.Index {
	return r.index
}

// Add inserts or replaces a record and returns its id. An empty id is
// replaced with a fresh UUID and a zero CreatedAt with the current time
// before insertion. The record is mirrored into the similarity index on a
// best-effort basis.
func (r *Repository) Add(ctx context.Context, rec game.Record) (string, error) {
	if rec == nil {
		return "", errors.New("store: nil record")
	}
	kind := rec.RecordKind()
	if !kind.IsValid() {
		return "", fmt.Errorf("store: unknown record kind %q", kind)
	}

	game.NormalizeRecord(rec)
	r.stampRecord(rec)
	id := rec.RecordID()

	// The mirror write shares the critical section with the map insert so
	// concurrent writes to the same id reach the index in map order.
	r.mu.Lock()
	_, existed := r.kinds[kind][id]
	r.kinds[kind][id] = rec
	if !existed {
		r.order[kind] = append(r.order[kind], id)
	}
	r.mirror(ctx, rec)
	r.mu.Unlock()

	if !existed {
		r.metrics.EntityCount.Add(ctx, 1, observe.Attrs(observe.Attr("kind", string(kind))))
	}
	return id, nil
}

// stampRecord fills in a missing id and created-at timestamp.
func (r *Repository) stampRecord(rec game.Record) {
	switch v := rec.(type) {
	case *game.NPC:
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = time.Now()
		}
	case *game.Quest:
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = time.Now()
		}
	case *game.Location:
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = time.Now()
		}
	}
}

// mirror writes the record into the similarity index. Failures are logged
// and counted but never returned: memory remains the source of truth.
// Called with r.mu held so map state and index state commit in one order.
func (r *Repository) mirror(ctx context.Context, rec game.Record) {
	if r.index == nil {
		return
	}
	payload, err := game.Encode(rec)
	if err != nil {
		r.log.Warn("failed to encode record for index mirror",
			"id", rec.RecordID(), "kind", rec.RecordKind(), "error", err)
		r.metrics.MirrorWrites.Add(ctx, 1, observe.Attrs(observe.Attr("status", "error")))
		return
	}
	doc := vector.Document{
		ID:     rec.RecordID(),
		Text:   rec.IndexText(),
		Record: payload,
	}
	if err := r.index.Upsert(ctx, doc); err != nil {
		r.log.Warn("failed to mirror record into similarity index",
			"id", rec.RecordID(), "kind", rec.RecordKind(), "error", err)
		r.metrics.IndexErrors.Add(ctx, 1, observe.Attrs(observe.Attr("op", "upsert")))
		r.metrics.MirrorWrites.Add(ctx, 1, observe.Attrs(observe.Attr("status", "error")))
		return
	}
	r.metrics.MirrorWrites.Add(ctx, 1, observe.Attrs(observe.Attr("status", "ok")))
}

// Get returns the record with the given id or ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (game.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, k := range game.Kinds() {
		if rec, ok := r.kinds[k][id]; ok {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("store: %w: %s", ErrNotFound, id)
}

// All returns every record of the given kind in insertion order. An
// invalid kind returns an empty slice.
func (r *Repository) All(ctx context.Context, kind game.Kind) []game.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.order[kind]
	out := make([]game.Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := r.kinds[kind][id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// NPCs returns all NPCs in insertion order.
func (r *Repository) NPCs(ctx context.Context) []*game.NPC {
	recs := r.All(ctx, game.KindNPC)
	out := make([]*game.NPC, 0, len(recs))
	for _, rec := range recs {
		if n, ok := rec.(*game.NPC); ok {
			out = append(out, n)
		}
	}
	return out
}

// Quests returns all quests in insertion order.
func (r *Repository) Quests(ctx context.Context) []*game.Quest {
	recs := r.All(ctx, game.KindQuest)
	out := make([]*game.Quest, 0, len(recs))
	for _, rec := range recs {
		if q, ok := rec.(*game.Quest); ok {
			out = append(out, q)
		}
	}
	return out
}

// Locations returns all locations in insertion order.
func (r *Repository) Locations(ctx context.Context) []*game.Location {
	recs := r.All(ctx, game.KindLocation)
	out := make([]*game.Location, 0, len(recs))
	for _, rec := range recs {
		if l, ok := rec.(*game.Location); ok {
			out = append(out, l)
		}
	}
	return out
}

// ActiveQuests returns all quests with status active, in insertion order.
func (r *Repository) ActiveQuests(ctx context.Context) []*game.Quest {
	return r.questsByStatus(ctx, game.StatusActive)
}

// AvailableQuests returns all quests with status available, in insertion order.
func (r *Repository) AvailableQuests(ctx context.Context) []*game.Quest {
	return r.questsByStatus(ctx, game.StatusAvailable)
}

func (r *Repository) questsByStatus(ctx context.Context, status game.QuestStatus) []*game.Quest {
	var out []*game.Quest
	for _, q := range r.Quests(ctx) {
		if q.Status == status {
			out = append(out, q)
		}
	}
	return out
}

// UpdateQuestStatus sets the status of the quest with the given id and
// refreshes its index mirror. The status value must be valid; transition
// rules are enforced by the quest tracker, not here.
func (r *Repository) UpdateQuestStatus(ctx context.Context, id string, status game.QuestStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("store: invalid quest status %q", status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.kinds[game.KindQuest][id]
	if !ok {
		return fmt.Errorf("store: %w: quest %s", ErrNotFound, id)
	}
	quest := rec.(*game.Quest)
	quest.Status = status
	r.mirror(ctx, quest)
	return nil
}

// Clear removes all records from memory and, best-effort, from the
// similarity index. Memory is always wiped even when the index cannot be
// reached.
func (r *Repository) Clear(ctx context.Context) error {
	r.mu.Lock()
	removed := make(map[game.Kind]int64)
	for _, k := range game.Kinds() {
		if n := len(r.kinds[k]); n > 0 {
			removed[k] = int64(n)
		}
		r.kinds[k] = make(map[string]game.Record)
		r.order[k] = nil
	}
	r.mu.Unlock()

	// Decrement with the same kind attribute Add increments with so the
	// per-kind series return to zero.
	for _, k := range game.Kinds() {
		if n := removed[k]; n > 0 {
			r.metrics.EntityCount.Add(ctx, -n, observe.Attrs(observe.Attr("kind", string(k))))
		}
	}

	if r.index == nil {
		return nil
	}
	docs, err := r.index.ListAll(ctx)
	if err != nil {
		r.log.Warn("failed to list index documents during clear", "error", err)
		r.metrics.IndexErrors.Add(ctx, 1, observe.Attrs(observe.Attr("op", "list")))
		return nil
	}
	if len(docs) == 0 {
		return nil
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	if err := r.index.Delete(ctx, ids...); err != nil {
		r.log.Warn("failed to delete index documents during clear", "error", err)
		r.metrics.IndexErrors.Add(ctx, 1, observe.Attrs(observe.Attr("op", "delete")))
	}
	return nil
}

// Reload hydrates memory from the similarity index. Records that fail to
// decode are skipped with a warning. Without an index this is a no-op.
// Insertion order after a reload follows the index listing order.
func (r *Repository) Reload(ctx context.Context) error {
	if r.index == nil {
		return nil
	}
	docs, err := r.index.ListAll(ctx)
	if err != nil {
		r.metrics.IndexErrors.Add(ctx, 1, observe.Attrs(observe.Attr("op", "list")))
		return fmt.Errorf("store: reload: %w", err)
	}

	var added int64
	addedByKind := make(map[game.Kind]int64)
	r.mu.Lock()
	for _, doc := range docs {
		rec, err := game.Decode(doc.Record)
		if err != nil {
			r.log.Warn("skipping corrupt index record during reload",
				"id", doc.ID, "error", err)
			continue
		}
		kind := rec.RecordKind()
		id := rec.RecordID()
		if _, existed := r.kinds[kind][id]; !existed {
			r.order[kind] = append(r.order[kind], id)
			addedByKind[kind]++
			added++
		}
		r.kinds[kind][id] = rec
	}
	r.mu.Unlock()

	for _, k := range game.Kinds() {
		if n := addedByKind[k]; n > 0 {
			r.metrics.EntityCount.Add(ctx, n, observe.Attrs(observe.Attr("kind", string(k))))
		}
	}
	r.log.Info("hydrated repository from similarity index",
		"documents", len(docs), "loaded", added)
	return nil
}
