// Package quests applies quest status transitions and keeps the party's
// quest lists in sync with them.
//
// Quests are addressed by id or title: the tracker first tries the exact
// record id, then scans quest titles case-insensitively in repository order.
// A transition that the quest state machine does not permit (for example
// completing a quest that was never accepted) is rejected, not applied.
package quests

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/lorekeep/internal/observe"
	"github.com/MrWong99/lorekeep/pkg/game"
)

// Repository is the store surface the tracker needs.
// *store.Repository satisfies it.
type Repository interface {
	Quests(ctx context.Context) []*game.Quest
	UpdateQuestStatus(ctx context.Context, id string, status game.QuestStatus) error
}

// Tracker applies quest status transitions and synchronises the party's
// active and completed quest lists.
type Tracker struct {
	mu    sync.Mutex
	repo  Repository
	party *game.Party

	log     *slog.Logger
	metrics *observe.Metrics
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithParty attaches the party whose quest lists are kept in sync.
// Without a party, transitions are applied but nothing else changes.
func WithParty(p *game.Party) Option {
	return func(t *Tracker) { t.party = p }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(t *Tracker) { t.log = log }
}

// WithMetrics sets the metrics instance. Defaults to observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

// New creates a Tracker over the given repository.
func New(repo Repository, opts ...Option) *Tracker {
	t := &Tracker{repo: repo}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = slog.Default()
	}
	if t.metrics == nil {
		t.metrics = observe.DefaultMetrics()
	}
	return t
}

// SetStatus transitions the quest identified by titleOrID to the given
// status and synchronises the party's quest lists. It returns false when no
// quest matches or when the state machine rejects the transition, and an
// error only for an invalid status value.
func (t *Tracker) SetStatus(ctx context.Context, titleOrID string, status game.QuestStatus) (bool, error) {
	if !status.IsValid() {
		return false, fmt.Errorf("quests: invalid status %q", status)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	quest := t.find(ctx, titleOrID)
	if quest == nil {
		t.log.Warn("quest not found", "query", titleOrID)
		return false, nil
	}

	if !quest.Status.CanTransitionTo(status) {
		t.log.Warn("rejected quest status transition",
			"quest", quest.Title, "from", quest.Status, "to", status)
		return false, nil
	}
	if quest.Status == status {
		// No state change, but keep the party lists consistent.
		t.syncParty(quest.Title, status)
		return true, nil
	}

	if err := t.repo.UpdateQuestStatus(ctx, quest.ID, status); err != nil {
		t.log.Warn("failed to persist quest status", "quest", quest.Title, "error", err)
		return false, nil
	}
	t.syncParty(quest.Title, status)
	t.metrics.QuestTransitions.Add(ctx, 1, observe.Attrs(observe.Attr("to", string(status))))
	t.log.Info("quest status changed", "quest", quest.Title, "status", status)
	return true, nil
}

// find resolves titleOrID to a quest: exact id first, then the first quest
// whose title matches case-insensitively, in repository order.
func (t *Tracker) find(ctx context.Context, titleOrID string) *game.Quest {
	all := t.repo.Quests(ctx)
	for _, q := range all {
		if q.ID == titleOrID {
			return q
		}
	}
	for _, q := range all {
		if strings.EqualFold(q.Title, titleOrID) {
			return q
		}
	}
	return nil
}

// syncParty keeps the party quest lists consistent with the new status.
// A title never sits in both lists at once.
func (t *Tracker) syncParty(title string, status game.QuestStatus) {
	if t.party == nil {
		return
	}
	switch status {
	case game.StatusActive:
		if !contains(t.party.ActiveQuests, title) {
			t.party.ActiveQuests = append(t.party.ActiveQuests, title)
		}
	case game.StatusCompleted:
		t.party.ActiveQuests = remove(t.party.ActiveQuests, title)
		if !contains(t.party.CompletedQuests, title) {
			t.party.CompletedQuests = append(t.party.CompletedQuests, title)
		}
	case game.StatusFailed:
		t.party.ActiveQuests = remove(t.party.ActiveQuests, title)
	}
}

// SuggestTitle returns the known quest title most similar to titleOrID by
// Jaro-Winkler score, for not-found diagnostics. Returns "" when the
// repository holds no quests.
func (t *Tracker) SuggestTitle(ctx context.Context, titleOrID string) string {
	best := ""
	bestScore := -1.0
	for _, q := range t.repo.Quests(ctx) {
		s := matchr.JaroWinkler(strings.ToLower(titleOrID), strings.ToLower(q.Title), false)
		if s > bestScore {
			best, bestScore = q.Title, s
		}
	}
	return best
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func remove(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
