// Package narrate is the narrative generation boundary: it turns a player
// action plus assembled game context into a Dungeon Master response.
//
// The production implementation wraps github.com/mozilla-ai/any-llm-go and
// therefore supports every provider that library does. The retrieval core
// guarantees the shape of the context it hands over; how a backend renders
// it into prose is not part of the contract.
package narrate

import (
	"context"
	"fmt"
	"strings"
)

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RolePlayer Role = "player"
	RoleDM     Role = "dm"
)

// Turn is one entry of the running player/DM conversation.
type Turn struct {
	Role    Role
	Content string
}

// Request carries everything a generator needs for one DM response.
type Request struct {
	// PlayerInput is the player's action or question.
	PlayerInput string

	// Context is the formatted relevant-context block (NPCs, quests,
	// locations) assembled for the situation.
	Context string

	// CurrentLocation names where the party currently is, if known.
	CurrentLocation string

	// PartySummary is the detailed party description, if a party is loaded.
	PartySummary string

	// History is the recent conversation, oldest first. Callers are
	// expected to bound it, e.g. with [History].
	History []Turn
}

// Generator produces a DM response for one request.
type Generator interface {
	Narrate(ctx context.Context, req Request) (string, error)
}

// History is a bounded conversation window. The zero value is unusable;
// create one with NewHistory.
type History struct {
	turns []Turn
	max   int
}

// NewHistory creates a history keeping at most max turns. A non-positive
// max keeps 10.
func NewHistory(max int) *History {
	if max <= 0 {
		max = 10
	}
	return &History{max: max}
}

// Add appends a turn, evicting the oldest once the window is full.
func (h *History) Add(role Role, content string) {
	h.turns = append(h.turns, Turn{Role: role, Content: content})
	if len(h.turns) > h.max {
		h.turns = h.turns[len(h.turns)-h.max:]
	}
}

// Turns returns the retained turns, oldest first.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// systemPrompt is the DM persona and ruleset injected into every call.
const systemPrompt = `You are an expert Dungeon Master for a Dungeons & Dragons campaign. Your role is to:

1. Generate engaging, immersive narrative descriptions
2. Control NPCs and their dialogue
3. Present quest opportunities and manage story progression
4. Respond to player actions with appropriate consequences
5. Maintain consistency with the established world and characters

IMPORTANT GUIDELINES:
- Always stay in character as the DM
- Be descriptive but concise
- Ask for dice rolls when appropriate
- Make the story engaging and interactive
- Use the provided context about NPCs, quests, and locations to maintain consistency
- Never break the fourth wall or mention game mechanics explicitly to players
- Consider the party's abilities, equipment, and personalities when crafting scenarios
- Reference character backstories and motivations when relevant`

// BuildSystemPrompt renders the full system message for a request: the DM
// persona followed by the game context, current location, party information,
// and conversation history. Empty sections are omitted.
func BuildSystemPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)

	if req.Context != "" {
		sb.WriteString("\n\nCurrent Game Context:\n")
		sb.WriteString(req.Context)
	}
	if req.CurrentLocation != "" {
		sb.WriteString("\n\nCURRENT LOCATION: ")
		sb.WriteString(req.CurrentLocation)
	}
	if req.PartySummary != "" {
		sb.WriteString("\n\nPARTY INFORMATION:\n")
		sb.WriteString(req.PartySummary)
	}
	if len(req.History) > 0 {
		sb.WriteString("\n\nConversation History:\n")
		for _, t := range req.History {
			speaker := "DM"
			if t.Role == RolePlayer {
				speaker = "Player"
			}
			fmt.Fprintf(&sb, "%s: %s\n", speaker, t.Content)
		}
	}
	return sb.String()
}

// BuildUserPrompt renders the player action message for a request.
func BuildUserPrompt(req Request) string {
	return fmt.Sprintf("Player Action/Response: %s\n\nAs the DM, respond to this player action. Consider the current context and maintain narrative consistency.", req.PlayerInput)
}
