// Package campaign loads declarative campaign YAML files and imports their
// entities into the repository.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/lorekeep/pkg/game"
)

// File is the top-level structure of a Lorekeep campaign YAML file.
//
// Example:
//
//	campaign:
//	  name: "The Lost Mine of Phandelver"
//	  setting: "Sword Coast"
//	npcs:
//	  - name: "Gundren Rockseeker"
//	    description: "A dwarf merchant hiring adventurers."
//	quests:
//	  - title: "Rescue Gundren"
//	    description: "Find the kidnapped dwarf."
//	    status: available
type File struct {
	Campaign  Meta       `yaml:"campaign"`
	NPCs      []NPCDef   `yaml:"npcs"`
	Quests    []QuestDef `yaml:"quests"`
	Locations []LocDef   `yaml:"locations"`
}

// Meta holds top-level metadata for a campaign.
type Meta struct {
	// Name is the campaign's display name.
	Name string `yaml:"name"`

	// Description is a free-text summary of the campaign.
	Description string `yaml:"description"`

	// Setting names the world or region the campaign plays in.
	Setting string `yaml:"setting"`
}

// NPCDef is the YAML shape of an NPC entry.
type NPCDef struct {
	Name                string `yaml:"name"`
	Description         string `yaml:"description"`
	Personality         string `yaml:"personality"`
	Location            string `yaml:"location"`
	Role                string `yaml:"role"`
	RelationshipToParty string `yaml:"relationship_to_party"`
	DialogueStyle       string `yaml:"dialogue_style"`
}

// QuestDef is the YAML shape of a quest entry. Status defaults to available.
type QuestDef struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Giver       string   `yaml:"giver"`
	Status      string   `yaml:"status"`
	Objectives  []string `yaml:"objectives"`
	Rewards     string   `yaml:"rewards"`
	Difficulty  string   `yaml:"difficulty"`
	Location    string   `yaml:"location"`
}

// LocDef is the YAML shape of a location entry.
type LocDef struct {
	Name               string   `yaml:"name"`
	Description        string   `yaml:"description"`
	Type               string   `yaml:"type"`
	NotableFeatures    []string `yaml:"notable_features"`
	ConnectedLocations []string `yaml:"connected_locations"`
	Atmosphere         string   `yaml:"atmosphere"`
}

// Load reads and parses a campaign YAML file from disk.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("campaign: open file %q: %w", path, err)
	}
	defer f.Close()

	cf, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("campaign: parse file %q: %w", path, err)
	}
	return cf, nil
}

// LoadFromReader parses campaign YAML from an [io.Reader].
// The reader is consumed entirely; the caller is responsible for closing it.
func LoadFromReader(r io.Reader) (*File, error) {
	var cf File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("campaign: decode yaml: %w", err)
	}
	return &cf, nil
}

// Validate checks every entity definition and returns all problems joined
// into one error, each naming the offending entry.
func (f *File) Validate() error {
	var errs []error
	for i, n := range f.NPCs {
		if strings.TrimSpace(n.Name) == "" {
			errs = append(errs, fmt.Errorf("npcs[%d]: name must not be empty", i))
		}
	}
	for i, q := range f.Quests {
		if strings.TrimSpace(q.Title) == "" {
			errs = append(errs, fmt.Errorf("quests[%d]: title must not be empty", i))
		}
		if q.Status != "" && !game.QuestStatus(q.Status).IsValid() {
			errs = append(errs, fmt.Errorf("quests[%d] %q: unknown status %q", i, q.Title, q.Status))
		}
	}
	for i, l := range f.Locations {
		if strings.TrimSpace(l.Name) == "" {
			errs = append(errs, fmt.Errorf("locations[%d]: name must not be empty", i))
		}
	}
	return errors.Join(errs...)
}

// Adder is the repository surface the importer needs.
// *store.Repository satisfies it.
type Adder interface {
	Add(ctx context.Context, rec game.Record) (string, error)
}

// Import validates the file and bulk-adds every entity to the repository.
// Returns the number of entities added. Validation problems abort the
// import before anything is written.
func Import(ctx context.Context, repo Adder, f *File) (int, error) {
	if f == nil {
		return 0, errors.New("campaign: file must not be nil")
	}
	if err := f.Validate(); err != nil {
		return 0, fmt.Errorf("campaign: invalid campaign %q: %w", f.Campaign.Name, err)
	}

	count := 0
	for _, def := range f.NPCs {
		npc := &game.NPC{
			Name:                def.Name,
			Description:         def.Description,
			Personality:         def.Personality,
			Location:            def.Location,
			Role:                def.Role,
			RelationshipToParty: def.RelationshipToParty,
			DialogueStyle:       def.DialogueStyle,
		}
		if _, err := repo.Add(ctx, npc); err != nil {
			return count, fmt.Errorf("campaign: add npc %q: %w", def.Name, err)
		}
		count++
	}
	for _, def := range f.Quests {
		status := game.QuestStatus(def.Status)
		if def.Status == "" {
			status = game.StatusAvailable
		}
		quest := &game.Quest{
			Title:       def.Title,
			Description: def.Description,
			Giver:       def.Giver,
			Status:      status,
			Objectives:  def.Objectives,
			Rewards:     def.Rewards,
			Difficulty:  def.Difficulty,
			Location:    def.Location,
		}
		if _, err := repo.Add(ctx, quest); err != nil {
			return count, fmt.Errorf("campaign: add quest %q: %w", def.Title, err)
		}
		count++
	}
	for _, def := range f.Locations {
		loc := &game.Location{
			Name:               def.Name,
			Description:        def.Description,
			Type:               def.Type,
			NotableFeatures:    def.NotableFeatures,
			ConnectedLocations: def.ConnectedLocations,
			Atmosphere:         def.Atmosphere,
		}
		if _, err := repo.Add(ctx, loc); err != nil {
			return count, fmt.Errorf("campaign: add location %q: %w", def.Name, err)
		}
		count++
	}
	return count, nil
}
