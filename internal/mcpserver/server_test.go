package mcpserver

import (
	"context"
	"testing"

	"github.com/MrWong99/lorekeep/internal/quests"
	"github.com/MrWong99/lorekeep/internal/relctx"
	"github.com/MrWong99/lorekeep/internal/search"
	"github.com/MrWong99/lorekeep/internal/store"
	"github.com/MrWong99/lorekeep/pkg/game"
)

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	repo := store.New()
	ctx := context.Background()

	records := []game.Record{
		&game.NPC{Name: "Gareth the Barkeeper", Description: "Runs the Rusty Dragon inn", Location: "Rusty Dragon"},
		&game.Quest{ID: "q-merchant", Title: "The Missing Merchant", Description: "Find the vanished merchant", Status: game.StatusActive, Objectives: []string{"Search the market"}},
		&game.Quest{ID: "q-rats", Title: "Rats in the Cellar", Description: "Clear the inn cellar", Status: game.StatusAvailable},
		&game.Location{Name: "Rusty Dragon", Description: "A warm tavern"},
	}
	for _, rec := range records {
		if _, err := repo.Add(ctx, rec); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	engine := search.New(repo)
	return Deps{
		Repo:      repo,
		Engine:    engine,
		Assembler: relctx.NewAssembler(engine),
		Tracker:   quests.New(repo),
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	t.Parallel()
	if server := NewServer(newTestDeps(t)); server == nil {
		t.Fatal("NewServer returned nil")
	}
}

func TestSearchLoreHandler(t *testing.T) {
	t.Parallel()
	deps := newTestDeps(t)
	handler := searchLoreHandler(deps)

	_, result, err := handler(context.Background(), nil, SearchLoreInput{Query: "merchant"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(result.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(result.Results))
	}
	entry := result.Results[0]
	if entry.Name != "The Missing Merchant" || entry.Kind != "quest" || entry.ID != "q-merchant" {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestSearchLoreHandlerKindFilter(t *testing.T) {
	t.Parallel()
	deps := newTestDeps(t)
	handler := searchLoreHandler(deps)

	_, result, err := handler(context.Background(), nil, SearchLoreInput{Query: "rusty dragon", Kind: "location"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	for _, e := range result.Results {
		if e.Kind != "location" {
			t.Errorf("kind filter leaked a %s record: %+v", e.Kind, e)
		}
	}
}

func TestSearchLoreHandlerUnknownKind(t *testing.T) {
	t.Parallel()
	handler := searchLoreHandler(newTestDeps(t))

	if _, _, err := handler(context.Background(), nil, SearchLoreInput{Query: "x", Kind: "dragon"}); err == nil {
		t.Error("unknown kind accepted")
	}
}

func TestRelevantContextHandler(t *testing.T) {
	t.Parallel()
	handler := relevantContextHandler(newTestDeps(t))

	_, result, err := handler(context.Background(), nil, RelevantContextInput{Situation: "the party asks about the missing merchant at the rusty dragon"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.Context == "" {
		t.Error("empty context for a matching situation")
	}
	if result.Quests == 0 {
		t.Error("no quests counted for matching situation")
	}
}

func TestSetQuestStatusHandler(t *testing.T) {
	t.Parallel()
	deps := newTestDeps(t)
	handler := setQuestStatusHandler(deps)
	ctx := context.Background()

	_, result, err := handler(ctx, nil, SetQuestStatusInput{Quest: "The Missing Merchant", Status: "completed"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !result.Updated {
		t.Error("valid transition not applied")
	}

	rec, err := deps.Repo.Get(ctx, "q-merchant")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := rec.(*game.Quest).Status; got != game.StatusCompleted {
		t.Errorf("status = %q, want completed", got)
	}
}

func TestSetQuestStatusHandlerSuggestsTitle(t *testing.T) {
	t.Parallel()
	handler := setQuestStatusHandler(newTestDeps(t))

	_, result, err := handler(context.Background(), nil, SetQuestStatusInput{Quest: "Missing Merchantt", Status: "completed"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.Updated {
		t.Error("misspelled quest applied")
	}
	if result.Suggestion != "The Missing Merchant" {
		t.Errorf("suggestion = %q, want The Missing Merchant", result.Suggestion)
	}
}

func TestSetQuestStatusHandlerInvalidStatus(t *testing.T) {
	t.Parallel()
	handler := setQuestStatusHandler(newTestDeps(t))

	if _, _, err := handler(context.Background(), nil, SetQuestStatusInput{Quest: "q-rats", Status: "paused"}); err == nil {
		t.Error("invalid status accepted")
	}
}

func TestQuestLogHandler(t *testing.T) {
	t.Parallel()
	handler := questLogHandler(newTestDeps(t))

	_, result, err := handler(context.Background(), nil, QuestLogInput{})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(result.Active) != 1 || result.Active[0].Title != "The Missing Merchant" {
		t.Errorf("active quests = %+v", result.Active)
	}
	if len(result.Available) != 1 || result.Available[0].Title != "Rats in the Cellar" {
		t.Errorf("available quests = %+v", result.Available)
	}
	if got := result.Active[0].Objectives; len(got) != 1 || got[0] != "Search the market" {
		t.Errorf("objectives = %v", got)
	}
}
