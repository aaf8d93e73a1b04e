package playerdata

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/MrWong99/lorekeep/pkg/game"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func testCharacter(name string) *game.PlayerCharacter {
	return &game.PlayerCharacter{
		Name:           name,
		CharacterClass: "Fighter",
		Level:          3,
		Race:           "Dwarf",
		Stats:          map[string]int{"STR": 16, "DEX": 12, "CON": 15, "INT": 10, "WIS": 14, "CHA": 8},
		Skills:         []string{"Athletics", "Perception"},
		HitPoints:      29,
		ArmorClass:     18,
	}
}

func TestCharacterFilename(t *testing.T) {
	t.Parallel()
	if got := CharacterFilename("Thorin Ironforge"); got != "thorin_ironforge.json" {
		t.Errorf("CharacterFilename = %q", got)
	}
}

func TestSaveAndLoadCharacter(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	want := testCharacter("Thorin Ironforge")
	filename, err := m.SaveCharacter(want, "")
	if err != nil {
		t.Fatalf("SaveCharacter: %v", err)
	}
	if filename != "thorin_ironforge.json" {
		t.Errorf("derived filename = %q", filename)
	}
	if want.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped on save")
	}

	got, err := m.LoadCharacter(filename)
	if err != nil {
		t.Fatalf("LoadCharacter: %v", err)
	}
	if got.Name != want.Name || got.Level != want.Level || !reflect.DeepEqual(got.Stats, want.Stats) {
		t.Errorf("loaded character differs:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestLoadCharacterMissing(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	if _, err := m.LoadCharacter("nobody.json"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing character error = %v, want os.ErrNotExist", err)
	}
}

func TestLoadCharacterMalformed(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	path := filepath.Join(m.Dir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := m.LoadCharacter("broken.json"); !errors.Is(err, ErrMalformed) {
		t.Errorf("malformed character error = %v, want ErrMalformed", err)
	}
}

func TestSaveAndLoadParty(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	party := &game.Party{
		Name: "The Wayfarers",
		Members: []game.PlayerCharacter{
			*testCharacter("Thorin Ironforge"),
			*testCharacter("Mira Swiftwind"),
		},
		PartyFunds:   120,
		ActiveQuests: []string{"The Missing Merchant"},
	}
	if err := m.SaveParty(party, ""); err != nil {
		t.Fatalf("SaveParty: %v", err)
	}

	got, err := m.LoadParty("")
	if err != nil {
		t.Fatalf("LoadParty: %v", err)
	}
	if got.Name != "The Wayfarers" || got.PartyFunds != 120 {
		t.Errorf("party metadata lost: %+v", got)
	}
	if len(got.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(got.Members))
	}
	if got.Members[0].Name != "Thorin Ironforge" || got.Members[1].Name != "Mira Swiftwind" {
		t.Errorf("member order lost: %q, %q", got.Members[0].Name, got.Members[1].Name)
	}
	if !reflect.DeepEqual(got.ActiveQuests, []string{"The Missing Merchant"}) {
		t.Errorf("active quests lost: %v", got.ActiveQuests)
	}
}

func TestPartyFileReferencesMembersByFilename(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	party := &game.Party{
		Name:    "Solo",
		Members: []game.PlayerCharacter{*testCharacter("Thorin Ironforge")},
	}
	if err := m.SaveParty(party, ""); err != nil {
		t.Fatalf("SaveParty: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(m.Dir(), PartyFilename))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var onDisk map[string]any
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatalf("Unmarshal party file: %v", err)
	}
	if _, embedded := onDisk["members"]; embedded {
		t.Error("party file embeds member sheets")
	}
	refs, ok := onDisk["member_files"].([]any)
	if !ok || len(refs) != 1 || refs[0] != "thorin_ironforge.json" {
		t.Errorf("member_files = %v", onDisk["member_files"])
	}
}

func TestLoadPartyMissingMemberFile(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	raw := []byte(`{"name": "Broken", "member_files": ["ghost.json"]}`)
	if err := os.WriteFile(filepath.Join(m.Dir(), PartyFilename), raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := m.LoadParty(""); err == nil {
		t.Error("party with missing member file loaded without error")
	}
}

func TestListCharactersExcludesPartyFile(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	if _, err := m.SaveCharacter(testCharacter("Thorin Ironforge"), ""); err != nil {
		t.Fatalf("SaveCharacter: %v", err)
	}
	if _, err := m.SaveCharacter(testCharacter("Mira Swiftwind"), ""); err != nil {
		t.Fatalf("SaveCharacter: %v", err)
	}
	if err := m.SaveParty(&game.Party{Name: "X"}, ""); err != nil {
		t.Fatalf("SaveParty: %v", err)
	}

	files, err := m.ListCharacters()
	if err != nil {
		t.Fatalf("ListCharacters: %v", err)
	}
	sort.Strings(files)
	want := []string{"mira_swiftwind.json", "thorin_ironforge.json"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("ListCharacters = %v, want %v", files, want)
	}
}

func TestExistsAndDelete(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	filename, err := m.SaveCharacter(testCharacter("Thorin Ironforge"), "")
	if err != nil {
		t.Fatalf("SaveCharacter: %v", err)
	}
	if !m.CharacterExists(filename) {
		t.Error("CharacterExists = false for saved character")
	}
	if m.PartyExists("") {
		t.Error("PartyExists = true without a party file")
	}

	if err := m.DeleteCharacter(filename); err != nil {
		t.Fatalf("DeleteCharacter: %v", err)
	}
	if m.CharacterExists(filename) {
		t.Error("character still exists after delete")
	}
	if err := m.DeleteCharacter(filename); err != nil {
		t.Errorf("deleting a missing file errored: %v", err)
	}
}
