// Package game defines the narrative entity records managed by Lorekeep:
// NPCs, quests, and locations, plus the player-side party state that the
// quest tracker keeps in sync.
//
// Records cross-reference each other by name or title string, never by
// pointer. Dangling references (a location listing a connected location
// that was never created) are legal and must be tolerated by every lookup.
//
// All record types serialize to a self-describing JSON envelope via
// [Encode] / [Decode] so that a similarity-index mirror can be rehydrated
// into strongly typed records without external schema knowledge.
package game

import (
	"strings"
	"time"
)

// Kind classifies an entity record.
type Kind string

const (
	// KindNPC represents a non-player character.
	KindNPC Kind = "npc"

	// KindQuest represents a quest or story hook.
	KindQuest Kind = "quest"

	// KindLocation represents a place in the game world.
	KindLocation Kind = "location"
)

// IsValid reports whether k is a recognised record kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindNPC, KindQuest, KindLocation:
		return true
	}
	return false
}

// Kinds lists all valid record kinds in canonical order.
func Kinds() []Kind {
	return []Kind{KindNPC, KindQuest, KindLocation}
}

// QuestStatus is the lifecycle state of a [Quest].
type QuestStatus string

const (
	// StatusAvailable means the quest can be accepted but has not been started.
	StatusAvailable QuestStatus = "available"

	// StatusActive means the party is currently pursuing the quest.
	StatusActive QuestStatus = "active"

	// StatusCompleted is a terminal state: the quest succeeded.
	StatusCompleted QuestStatus = "completed"

	// StatusFailed is a terminal state: the quest failed.
	StatusFailed QuestStatus = "failed"
)

// IsValid reports whether s is a recognised quest status.
func (s QuestStatus) IsValid() bool {
	switch s {
	case StatusAvailable, StatusActive, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether s is a terminal state (completed or failed).
func (s QuestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether the transition s → to is permitted.
//
// The permitted transitions are available → active and
// active → {completed, failed}. Re-entering the current status is always
// permitted at the data level; everything else is rejected.
func (s QuestStatus) CanTransitionTo(to QuestStatus) bool {
	if s == to {
		return true
	}
	switch s {
	case StatusAvailable:
		return to == StatusActive
	case StatusActive:
		return to == StatusCompleted || to == StatusFailed
	}
	return false
}

// Record is the common surface of every entity record.
//
// Implementations are *NPC, *Quest, and *Location. The pointer receivers
// matter: the repository hands out the same pointers it stores, and the
// quest tracker mutates quest status through them.
type Record interface {
	// RecordID returns the record's unique identifier. Empty before the
	// first repository insert; stable afterwards.
	RecordID() string

	// RecordKind returns the record's [Kind].
	RecordKind() Kind

	// DisplayName returns the record's human-facing name or title.
	DisplayName() string

	// IndexText returns the canonical text representation used for both
	// similarity indexing and keyword fallback matching. The field order
	// is fixed so that independent stores index identically.
	IndexText() string

	// ContextSummary returns a one-line summary for DM context injection.
	ContextSummary() string
}

// NPC is a non-player character.
type NPC struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	Personality         string    `json:"personality"`
	Location            string    `json:"location"`
	Role                string    `json:"role"`
	RelationshipToParty string    `json:"relationship_to_party"`
	DialogueStyle       string    `json:"dialogue_style"`
	CreatedAt           time.Time `json:"created_at"`
}

// RecordID implements [Record].
func (n *NPC) RecordID() string { return n.ID }

// RecordKind implements [Record].
func (n *NPC) RecordKind() Kind { return KindNPC }

// DisplayName implements [Record].
func (n *NPC) DisplayName() string { return n.Name }

// Quest is a quest, mission, or story hook.
type Quest struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Giver       string      `json:"giver"`
	Status      QuestStatus `json:"status"`
	Objectives  []string    `json:"objectives"`
	Rewards     string      `json:"rewards"`
	Difficulty  string      `json:"difficulty"`
	Location    string      `json:"location"`
	CreatedAt   time.Time   `json:"created_at"`
}

// RecordID implements [Record].
func (q *Quest) RecordID() string { return q.ID }

// RecordKind implements [Record].
func (q *Quest) RecordKind() Kind { return KindQuest }

// DisplayName implements [Record]. For quests this is the title.
func (q *Quest) DisplayName() string { return q.Title }

// IsActive reports whether the quest is currently being pursued.
func (q *Quest) IsActive() bool { return q.Status == StatusActive }

// IsAvailable reports whether the quest can be accepted.
func (q *Quest) IsAvailable() bool { return q.Status == StatusAvailable }

// IsCompleted reports whether the quest succeeded.
func (q *Quest) IsCompleted() bool { return q.Status == StatusCompleted }

// Location is a place in the game world.
type Location struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Type               string    `json:"type"`
	NotableFeatures    []string  `json:"notable_features"`
	ConnectedLocations []string  `json:"connected_locations"`
	NPCsPresent        []string  `json:"npcs_present"`
	QuestsAvailable    []string  `json:"quests_available"`
	Atmosphere         string    `json:"atmosphere"`
	CreatedAt          time.Time `json:"created_at"`
}

// RecordID implements [Record].
func (l *Location) RecordID() string { return l.ID }

// RecordKind implements [Record].
func (l *Location) RecordKind() Kind { return KindLocation }

// DisplayName implements [Record].
func (l *Location) DisplayName() string { return l.Name }

// Normalize replaces nil collection fields with empty slices so that
// "no entries" is always represented explicitly, including through a
// serialization round-trip. It returns its receiver for chaining.
func (q *Quest) Normalize() *Quest {
	if q.Objectives == nil {
		q.Objectives = []string{}
	}
	return q
}

// Normalize replaces nil collection fields with empty slices.
// It returns its receiver for chaining.
func (l *Location) Normalize() *Location {
	if l.NotableFeatures == nil {
		l.NotableFeatures = []string{}
	}
	if l.ConnectedLocations == nil {
		l.ConnectedLocations = []string{}
	}
	if l.NPCsPresent == nil {
		l.NPCsPresent = []string{}
	}
	if l.QuestsAvailable == nil {
		l.QuestsAvailable = []string{}
	}
	return l
}

// NormalizeRecord applies the kind-appropriate normalization to rec.
// NPCs have no collection fields and pass through unchanged.
func NormalizeRecord(rec Record) {
	switch r := rec.(type) {
	case *Quest:
		r.Normalize()
	case *Location:
		r.Normalize()
	}
}

// joinOr joins items with ", ", or returns fallback when items is empty.
func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}
