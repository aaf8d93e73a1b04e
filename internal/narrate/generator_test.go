package narrate

import (
	"fmt"
	"strings"
	"testing"
)

func TestHistoryWindow(t *testing.T) {
	t.Parallel()
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Add(RolePlayer, fmt.Sprintf("turn %d", i))
	}

	turns := h.Turns()
	if len(turns) != 3 {
		t.Fatalf("retained %d turns, want 3", len(turns))
	}
	if turns[0].Content != "turn 3" || turns[2].Content != "turn 5" {
		t.Errorf("wrong turns retained: %v", turns)
	}
}

func TestHistoryDefaultMax(t *testing.T) {
	t.Parallel()
	h := NewHistory(0)
	for i := 0; i < 15; i++ {
		h.Add(RoleDM, "x")
	}
	if got := len(h.Turns()); got != 10 {
		t.Errorf("default window retained %d turns, want 10", got)
	}
}

func TestBuildSystemPromptSections(t *testing.T) {
	t.Parallel()
	req := Request{
		PlayerInput:     "I approach the bar",
		Context:         "Relevant NPCs:\n- Gareth: barkeep",
		CurrentLocation: "Rusty Dragon",
		PartySummary:    "Party: The Wayfarers",
		History: []Turn{
			{Role: RolePlayer, Content: "We enter the tavern"},
			{Role: RoleDM, Content: "Warm light greets you"},
		},
	}

	got := BuildSystemPrompt(req)
	for _, want := range []string{
		"expert Dungeon Master",
		"Current Game Context:",
		"Gareth: barkeep",
		"CURRENT LOCATION: Rusty Dragon",
		"PARTY INFORMATION:",
		"Player: We enter the tavern",
		"DM: Warm light greets you",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestBuildSystemPromptOmitsEmptySections(t *testing.T) {
	t.Parallel()
	got := BuildSystemPrompt(Request{PlayerInput: "hello"})

	for _, absent := range []string{"Current Game Context:", "CURRENT LOCATION:", "PARTY INFORMATION:", "Conversation History:"} {
		if strings.Contains(got, absent) {
			t.Errorf("empty section %q rendered", absent)
		}
	}
}

func TestBuildUserPrompt(t *testing.T) {
	t.Parallel()
	got := BuildUserPrompt(Request{PlayerInput: "I roll for initiative"})
	if !strings.Contains(got, "I roll for initiative") {
		t.Errorf("user prompt missing player input: %q", got)
	}
}

func TestNewLLMGeneratorValidation(t *testing.T) {
	t.Parallel()
	if _, err := NewLLMGenerator("", "gpt-4o-mini", nil); err == nil {
		t.Error("empty provider accepted")
	}
	if _, err := NewLLMGenerator("openai", "", nil); err == nil {
		t.Error("empty model accepted")
	}
	if _, err := NewLLMGenerator("netherese-oracle", "gpt-4o-mini", nil); err == nil {
		t.Error("unknown provider accepted")
	}
}
