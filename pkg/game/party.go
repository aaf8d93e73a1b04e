package game

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// PlayerCharacter is a player-controlled character sheet. It is owned by the
// player data files, not by the entity repository.
type PlayerCharacter struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	CharacterClass    string         `json:"character_class"`
	Level             int            `json:"level"`
	Race              string         `json:"race"`
	Background        string         `json:"background"`
	Alignment         string         `json:"alignment"`
	Stats             map[string]int `json:"stats"`
	Skills            []string       `json:"skills"`
	Equipment         []string       `json:"equipment"`
	Backstory         string         `json:"backstory"`
	PersonalityTraits []string       `json:"personality_traits"`
	Ideals            string         `json:"ideals"`
	Bonds             string         `json:"bonds"`
	Flaws             string         `json:"flaws"`
	HitPoints         int            `json:"hit_points"`
	ArmorClass        int            `json:"armor_class"`
	CreatedAt         time.Time      `json:"created_at"`
}

// StatModifier returns the ability modifier for the named stat
// (e.g. "STR"). Missing stats are treated as the baseline score 10.
func (c *PlayerCharacter) StatModifier(stat string) int {
	value, ok := c.Stats[stat]
	if !ok {
		value = 10
	}
	// Integer division truncates toward zero; ability modifiers round down,
	// so shift before dividing to handle scores below 10.
	if value >= 10 {
		return (value - 10) / 2
	}
	return (value - 11) / 2
}

// Summary returns a one-line character summary.
func (c *PlayerCharacter) Summary() string {
	return fmt.Sprintf("%s: Level %d %s %s (AC: %d, HP: %d)",
		c.Name, c.Level, c.Race, c.CharacterClass, c.ArmorClass, c.HitPoints)
}

// RoleplayInfo returns the character's roleplay-relevant fields as a block
// suitable for DM context injection.
func (c *PlayerCharacter) RoleplayInfo() string {
	traits := "None"
	if len(c.PersonalityTraits) > 0 {
		traits = strings.Join(c.PersonalityTraits, ", ")
	}
	return fmt.Sprintf("Background: %s\nPersonality: %s\nIdeals: %s\nBonds: %s\nFlaws: %s",
		c.Background, traits, c.Ideals, c.Bonds, c.Flaws)
}

// Party is the adventuring party. The quest tracker keeps ActiveQuests and
// CompletedQuests synchronized with quest status changes; a quest title
// appears in at most one of the two lists at a time.
type Party struct {
	Name            string            `json:"name"`
	Members         []PlayerCharacter `json:"members"`
	Formation       string            `json:"formation"`
	SharedEquipment []string          `json:"shared_equipment"`
	PartyFunds      int               `json:"party_funds"`
	Reputation      map[string]string `json:"reputation"`
	ActiveQuests    []string          `json:"active_quests"`
	CompletedQuests []string          `json:"completed_quests"`
	Notes           string            `json:"notes"`
	CreatedAt       time.Time         `json:"created_at"`
}

// PartyLevel returns the average member level, or 0 for an empty party.
func (p *Party) PartyLevel() float64 {
	if len(p.Members) == 0 {
		return 0
	}
	total := 0
	for _, m := range p.Members {
		total += m.Level
	}
	return float64(total) / float64(len(p.Members))
}

// ClassComposition returns a count of members per character class.
func (p *Party) ClassComposition() map[string]int {
	composition := make(map[string]int, len(p.Members))
	for _, m := range p.Members {
		composition[m.CharacterClass]++
	}
	return composition
}

// Summary returns a compact multi-line party summary.
func (p *Party) Summary() string {
	if len(p.Members) == 0 {
		return fmt.Sprintf("Party '%s' has no members", p.Name)
	}

	composition := p.ClassComposition()
	classes := make([]string, 0, len(composition))
	for _, m := range p.Members {
		cls := m.CharacterClass
		if count, ok := composition[cls]; ok {
			classes = append(classes, fmt.Sprintf("%d %s", count, cls))
			delete(composition, cls) // emit each class once, in member order
		}
	}

	lines := []string{
		"Party: " + p.Name,
		fmt.Sprintf("Members: %d (Average Level: %.1f)", len(p.Members), p.PartyLevel()),
		"Composition: " + strings.Join(classes, ", "),
		fmt.Sprintf("Funds: %d gold", p.PartyFunds),
	}
	if len(p.ActiveQuests) > 0 {
		lines = append(lines, fmt.Sprintf("Active Quests: %d", len(p.ActiveQuests)))
	}
	return strings.Join(lines, "\n")
}

// DetailedSummary returns the full party summary including members,
// formation, active quests, and reputation.
func (p *Party) DetailedSummary() string {
	lines := []string{p.Summary(), ""}

	if len(p.Members) > 0 {
		lines = append(lines, "Members:")
		for _, m := range p.Members {
			lines = append(lines, "  - "+m.Summary())
		}
	}
	if p.Formation != "" {
		lines = append(lines, "", "Formation: "+p.Formation)
	}
	if len(p.ActiveQuests) > 0 {
		lines = append(lines, "", "Active Quests: "+strings.Join(p.ActiveQuests, ", "))
	}
	if len(p.Reputation) > 0 {
		lines = append(lines, "", "Reputation:")
		locations := make([]string, 0, len(p.Reputation))
		for location := range p.Reputation {
			locations = append(locations, location)
		}
		sort.Strings(locations)
		for _, location := range locations {
			lines = append(lines, fmt.Sprintf("  - %s: %s", location, p.Reputation[location]))
		}
	}
	return strings.Join(lines, "\n")
}
