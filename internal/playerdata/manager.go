// Package playerdata manages player character and party files on disk.
//
// Characters live in individual JSON files inside a data directory. The
// party file references its members by filename instead of embedding their
// sheets, so a character edited on disk is picked up on the next party load.
package playerdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrWong99/lorekeep/pkg/game"
)

// PartyFilename is the default name of the party file inside the data
// directory.
const PartyFilename = "party.json"

// ErrMalformed marks a file that exists but does not hold valid player data.
var ErrMalformed = errors.New("malformed player data")

// Manager loads and saves player data below a single directory.
type Manager struct {
	dir string
}

// NewManager creates a Manager rooted at dir, creating the directory if
// needed.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("playerdata: create data directory %q: %w", dir, err)
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the data directory the manager operates on.
func (m *Manager) Dir() string {
	return m.dir
}

// CharacterFilename derives the canonical file name for a character name:
// lowercased, spaces replaced with underscores, ".json" appended.
func CharacterFilename(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_") + ".json"
}

// LoadCharacter reads one character file. The filename is relative to the
// data directory.
func (m *Manager) LoadCharacter(filename string) (*game.PlayerCharacter, error) {
	path := filepath.Join(m.dir, filename)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("playerdata: read character file %q: %w", path, err)
	}

	var c game.PlayerCharacter
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("playerdata: character file %q: %w: %v", path, ErrMalformed, err)
	}
	return &c, nil
}

// SaveCharacter writes a character to the given file, or to the canonical
// filename derived from the character's name when filename is empty.
// Returns the filename used.
func (m *Manager) SaveCharacter(c *game.PlayerCharacter, filename string) (string, error) {
	if c == nil {
		return "", errors.New("playerdata: nil character")
	}
	if filename == "" {
		filename = CharacterFilename(c.Name)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("playerdata: encode character %q: %w", c.Name, err)
	}
	path := filepath.Join(m.dir, filename)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("playerdata: write character file %q: %w", path, err)
	}
	return filename, nil
}

// partyFile is the on-disk shape of the party: member sheets are stored as
// file references, never inline.
type partyFile struct {
	Name            string            `json:"name"`
	MemberFiles     []string          `json:"member_files"`
	Formation       string            `json:"formation"`
	SharedEquipment []string          `json:"shared_equipment"`
	PartyFunds      int               `json:"party_funds"`
	Reputation      map[string]string `json:"reputation"`
	ActiveQuests    []string          `json:"active_quests"`
	CompletedQuests []string          `json:"completed_quests"`
	Notes           string            `json:"notes"`
	CreatedAt       time.Time         `json:"created_at"`
}

// LoadParty reads the party file and resolves every referenced member file.
func (m *Manager) LoadParty(filename string) (*game.Party, error) {
	if filename == "" {
		filename = PartyFilename
	}
	path := filepath.Join(m.dir, filename)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("playerdata: read party file %q: %w", path, err)
	}

	var pf partyFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("playerdata: party file %q: %w: %v", path, ErrMalformed, err)
	}

	members := make([]game.PlayerCharacter, 0, len(pf.MemberFiles))
	for _, mf := range pf.MemberFiles {
		c, err := m.LoadCharacter(mf)
		if err != nil {
			return nil, fmt.Errorf("playerdata: party member %q: %w", mf, err)
		}
		members = append(members, *c)
	}

	return &game.Party{
		Name:            pf.Name,
		Members:         members,
		Formation:       pf.Formation,
		SharedEquipment: pf.SharedEquipment,
		PartyFunds:      pf.PartyFunds,
		Reputation:      pf.Reputation,
		ActiveQuests:    pf.ActiveQuests,
		CompletedQuests: pf.CompletedQuests,
		Notes:           pf.Notes,
		CreatedAt:       pf.CreatedAt,
	}, nil
}

// SaveParty writes every member to its canonical character file and then
// writes the party file referencing them.
func (m *Manager) SaveParty(p *game.Party, filename string) error {
	if p == nil {
		return errors.New("playerdata: nil party")
	}
	if filename == "" {
		filename = PartyFilename
	}

	memberFiles := make([]string, 0, len(p.Members))
	for i := range p.Members {
		mf, err := m.SaveCharacter(&p.Members[i], "")
		if err != nil {
			return err
		}
		memberFiles = append(memberFiles, mf)
	}

	pf := partyFile{
		Name:            p.Name,
		MemberFiles:     memberFiles,
		Formation:       p.Formation,
		SharedEquipment: p.SharedEquipment,
		PartyFunds:      p.PartyFunds,
		Reputation:      p.Reputation,
		ActiveQuests:    p.ActiveQuests,
		CompletedQuests: p.CompletedQuests,
		Notes:           p.Notes,
		CreatedAt:       p.CreatedAt,
	}
	raw, err := json.MarshalIndent(pf, "", "  ")
	if err != nil {
		return fmt.Errorf("playerdata: encode party %q: %w", p.Name, err)
	}
	path := filepath.Join(m.dir, filename)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("playerdata: write party file %q: %w", path, err)
	}
	return nil
}

// ListCharacters returns all character file names in the data directory,
// excluding the party file.
func (m *Manager) ListCharacters() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("playerdata: list data directory %q: %w", m.dir, err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == PartyFilename || !strings.HasSuffix(name, ".json") {
			continue
		}
		files = append(files, name)
	}
	return files, nil
}

// CharacterExists reports whether a character file exists.
func (m *Manager) CharacterExists(filename string) bool {
	_, err := os.Stat(filepath.Join(m.dir, filename))
	return err == nil
}

// PartyExists reports whether the party file exists.
func (m *Manager) PartyExists(filename string) bool {
	if filename == "" {
		filename = PartyFilename
	}
	return m.CharacterExists(filename)
}

// DeleteCharacter removes a character file. Deleting a missing file is not
// an error.
func (m *Manager) DeleteCharacter(filename string) error {
	err := os.Remove(filepath.Join(m.dir, filename))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("playerdata: delete character file %q: %w", filename, err)
	}
	return nil
}
