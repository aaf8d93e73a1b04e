package game

import (
	"fmt"
	"strings"
)

// IndexText implements [Record]. The field order is fixed and must not
// change: the similarity index and the keyword fallback both match against
// this exact concatenation.
func (n *NPC) IndexText() string {
	return fmt.Sprintf(
		"NPC: %s. %s. Personality: %s. Role: %s. Location: %s. Dialogue style: %s",
		n.Name, n.Description, n.Personality, n.Role, n.Location, n.DialogueStyle,
	)
}

// IndexText implements [Record]. Empty objectives render as
// "No specific objectives".
func (q *Quest) IndexText() string {
	return fmt.Sprintf(
		"Quest: %s. %s. Objectives: %s. Location: %s. Difficulty: %s. Given by: %s",
		q.Title, q.Description, joinOr(q.Objectives, "No specific objectives"),
		q.Location, q.Difficulty, q.Giver,
	)
}

// IndexText implements [Record]. Empty features render as
// "No notable features".
func (l *Location) IndexText() string {
	return fmt.Sprintf(
		"Location: %s. %s. Type: %s. Features: %s. Atmosphere: %s",
		l.Name, l.Description, l.Type, joinOr(l.NotableFeatures, "No notable features"),
		l.Atmosphere,
	)
}

// ContextSummary implements [Record].
func (n *NPC) ContextSummary() string {
	return fmt.Sprintf(
		"%s (%s): %s Personality: %s. Located in %s. Relationship to party: %s",
		n.Name, n.Role, n.Description, n.Personality, n.Location, n.RelationshipToParty,
	)
}

// ContextSummary implements [Record].
func (q *Quest) ContextSummary() string {
	objectives := "No specific objectives"
	if len(q.Objectives) > 0 {
		objectives = strings.Join(q.Objectives, "; ")
	}
	return fmt.Sprintf(
		"Quest '%s' (Status: %s): %s Given by %s. Objectives: %s. Difficulty: %s. Rewards: %s",
		q.Title, q.Status, q.Description, q.Giver, objectives, q.Difficulty, q.Rewards,
	)
}

// ContextSummary implements [Record].
func (l *Location) ContextSummary() string {
	return fmt.Sprintf(
		"Location '%s' (%s): %s Notable features: %s. Atmosphere: %s",
		l.Name, l.Type, l.Description, joinOr(l.NotableFeatures, "No notable features"),
		l.Atmosphere,
	)
}

// DetailedDescription returns a multi-line scene-setting description of the
// location, including connections when present.
func (l *Location) DetailedDescription() string {
	lines := []string{
		"Location: " + l.Name,
		"Type: " + l.Type,
		"Description: " + l.Description,
		"Atmosphere: " + l.Atmosphere,
	}
	if len(l.NotableFeatures) > 0 {
		lines = append(lines, "Notable Features:")
		for _, f := range l.NotableFeatures {
			lines = append(lines, "  - "+f)
		}
	}
	if len(l.ConnectedLocations) > 0 {
		lines = append(lines, "Connected to:")
		for _, c := range l.ConnectedLocations {
			lines = append(lines, "  - "+c)
		}
	}
	return strings.Join(lines, "\n")
}
