package relctx

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/MrWong99/lorekeep/pkg/game"
)

// stubSearcher returns canned per-kind results and records the limits it was
// called with.
type stubSearcher struct {
	mu      sync.Mutex
	results map[game.Kind][]game.Record
	errs    map[game.Kind]error
	limits  []int
}

func (s *stubSearcher) Search(ctx context.Context, query string, kind game.Kind, limit int) ([]game.Record, error) {
	s.mu.Lock()
	s.limits = append(s.limits, limit)
	s.mu.Unlock()
	if err := s.errs[kind]; err != nil {
		return nil, err
	}
	return s.results[kind], nil
}

func worldSearcher() *stubSearcher {
	return &stubSearcher{
		results: map[game.Kind][]game.Record{
			game.KindNPC: {
				&game.NPC{Name: "Gareth", Description: "barkeep", Location: "Rusty Dragon"},
				&game.NPC{Name: "Mira", Description: "merchant", Location: "Market Square"},
			},
			game.KindQuest: {
				&game.Quest{Title: "The Missing Merchant", Description: "find the merchant", Status: game.StatusActive},
			},
			game.KindLocation: {
				&game.Location{Name: "Rusty Dragon", Description: "a warm tavern"},
			},
		},
	}
}

func TestRelevantMergesAllKinds(t *testing.T) {
	t.Parallel()
	asm := NewAssembler(worldSearcher())

	pkg, err := asm.Relevant(context.Background(), "the party enters the tavern")
	if err != nil {
		t.Fatalf("Relevant: %v", err)
	}
	if len(pkg.NPCs) != 2 || len(pkg.Quests) != 1 || len(pkg.Locations) != 1 {
		t.Fatalf("unexpected package sizes: %d NPCs, %d quests, %d locations",
			len(pkg.NPCs), len(pkg.Quests), len(pkg.Locations))
	}
	if pkg.NPCs[0].Name != "Gareth" || pkg.NPCs[1].Name != "Mira" {
		t.Errorf("NPC order not preserved: %q, %q", pkg.NPCs[0].Name, pkg.NPCs[1].Name)
	}
}

func TestRelevantUsesConfiguredLimit(t *testing.T) {
	t.Parallel()
	searcher := worldSearcher()
	asm := NewAssembler(searcher, WithLimit(3))

	if _, err := asm.Relevant(context.Background(), "tavern"); err != nil {
		t.Fatalf("Relevant: %v", err)
	}
	searcher.mu.Lock()
	defer searcher.mu.Unlock()
	if len(searcher.limits) != 3 {
		t.Fatalf("searcher called %d times, want 3", len(searcher.limits))
	}
	for _, l := range searcher.limits {
		if l != 3 {
			t.Errorf("search limit = %d, want 3", l)
		}
	}
}

func TestRelevantPropagatesSearchError(t *testing.T) {
	t.Parallel()
	searcher := worldSearcher()
	searcher.errs = map[game.Kind]error{game.KindQuest: errors.New("boom")}
	asm := NewAssembler(searcher)

	if _, err := asm.Relevant(context.Background(), "tavern"); err == nil {
		t.Fatal("search error not propagated")
	}
}

func TestRelevantEmptyWorld(t *testing.T) {
	t.Parallel()
	asm := NewAssembler(&stubSearcher{})

	pkg, err := asm.Relevant(context.Background(), "nothing here")
	if err != nil {
		t.Fatalf("Relevant: %v", err)
	}
	if !pkg.Empty() {
		t.Error("package not empty for empty world")
	}
	if pkg.NPCs == nil || pkg.Quests == nil || pkg.Locations == nil {
		t.Error("package slices should be non-nil")
	}
}

func TestFormatSections(t *testing.T) {
	t.Parallel()
	asm := NewAssembler(worldSearcher())
	pkg, err := asm.Relevant(context.Background(), "tavern")
	if err != nil {
		t.Fatalf("Relevant: %v", err)
	}

	got := Format(pkg)
	for _, want := range []string{"Relevant NPCs:", "Relevant Quests:", "Relevant Locations:", "Gareth", "The Missing Merchant", "Rusty Dragon"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatted context missing %q:\n%s", want, got)
		}
	}
}

func TestFormatOmitsEmptySections(t *testing.T) {
	t.Parallel()
	pkg := &Package{
		NPCs: []*game.NPC{{Name: "Gareth", Description: "barkeep"}},
	}

	got := Format(pkg)
	if strings.Contains(got, "Relevant Quests:") || strings.Contains(got, "Relevant Locations:") {
		t.Errorf("empty sections rendered:\n%s", got)
	}
}

func TestFormatEmptyPackage(t *testing.T) {
	t.Parallel()
	if got := Format(&Package{}); got != "" {
		t.Errorf("Format(empty) = %q, want empty string", got)
	}
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty string", got)
	}
}
