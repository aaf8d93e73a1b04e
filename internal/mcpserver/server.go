// Package mcpserver exposes Lorekeep retrieval and quest tracking as MCP
// tools over the official modelcontextprotocol go-sdk.
//
// Retrieval tools never fail on similarity-index trouble: they ride the
// engine's keyword fallback and always answer.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/lorekeep/internal/quests"
	"github.com/MrWong99/lorekeep/internal/relctx"
	"github.com/MrWong99/lorekeep/internal/store"
	"github.com/MrWong99/lorekeep/pkg/game"
)

const (
	serverName    = "lorekeep"
	serverVersion = "0.1.0"
)

// Searcher is the retrieval surface the search_lore tool needs.
type Searcher interface {
	Search(ctx context.Context, query string, kind game.Kind, limit int) ([]game.Record, error)
}

// Deps carries the components the MCP tools operate on.
type Deps struct {
	Repo      *store.Repository
	Engine    Searcher
	Assembler *relctx.Assembler
	Tracker   *quests.Tracker
	Log       *slog.Logger
}

// NewServer creates the MCP server with all Lorekeep tools registered.
func NewServer(deps Deps) *mcp.Server {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerTools(server, deps)
	return server
}

// Run serves the MCP server on stdio until the context is cancelled or the
// client disconnects.
func Run(ctx context.Context, deps Deps) error {
	server := NewServer(deps)
	deps.Log.Info("serving MCP on stdio", "server", serverName, "version", serverVersion)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcpserver: run: %w", err)
	}
	return nil
}

func registerTools(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, searchLoreTool(), searchLoreHandler(deps))
	mcp.AddTool(server, relevantContextTool(), relevantContextHandler(deps))
	mcp.AddTool(server, setQuestStatusTool(), setQuestStatusHandler(deps))
	mcp.AddTool(server, questLogTool(), questLogHandler(deps))
}

// ── search_lore ──────────────────────────────────────────────────────────────

// SearchLoreInput is the MCP tool input for searching campaign lore.
type SearchLoreInput struct {
	Query string `json:"query" jsonschema:"free-text search query"`
	Kind  string `json:"kind,omitempty" jsonschema:"optional entity kind filter: npc, quest or location"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default 5)"`
}

// LoreEntry is one search result.
type LoreEntry struct {
	ID      string `json:"id" jsonschema:"record identifier"`
	Kind    string `json:"kind" jsonschema:"entity kind"`
	Name    string `json:"name" jsonschema:"display name or title"`
	Summary string `json:"summary" jsonschema:"one-line context summary"`
}

// SearchLoreResult is the MCP tool output for searching campaign lore.
type SearchLoreResult struct {
	Results []LoreEntry `json:"results" jsonschema:"matching records, most relevant first"`
}

func searchLoreTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_lore",
		Description: "Searches campaign NPCs, quests and locations for entities relevant to a query",
	}
}

func searchLoreHandler(deps Deps) mcp.ToolHandlerFor[SearchLoreInput, SearchLoreResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SearchLoreInput) (*mcp.CallToolResult, SearchLoreResult, error) {
		recs, err := deps.Engine.Search(ctx, input.Query, game.Kind(input.Kind), input.Limit)
		if err != nil {
			return nil, SearchLoreResult{}, fmt.Errorf("search failed: %w", err)
		}

		result := SearchLoreResult{Results: make([]LoreEntry, 0, len(recs))}
		for _, rec := range recs {
			result.Results = append(result.Results, LoreEntry{
				ID:      rec.RecordID(),
				Kind:    string(rec.RecordKind()),
				Name:    rec.DisplayName(),
				Summary: rec.ContextSummary(),
			})
		}
		return nil, result, nil
	}
}

// ── relevant_context ─────────────────────────────────────────────────────────

// RelevantContextInput is the MCP tool input for assembling game context.
type RelevantContextInput struct {
	Situation string `json:"situation" jsonschema:"description of the current game situation"`
}

// RelevantContextResult is the MCP tool output for assembling game context.
type RelevantContextResult struct {
	Context   string `json:"context" jsonschema:"formatted context block for prompt injection"`
	NPCs      int    `json:"npcs" jsonschema:"number of relevant NPCs found"`
	Quests    int    `json:"quests" jsonschema:"number of relevant quests found"`
	Locations int    `json:"locations" jsonschema:"number of relevant locations found"`
}

func relevantContextTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "relevant_context",
		Description: "Assembles the NPCs, quests and locations most relevant to a game situation",
	}
}

func relevantContextHandler(deps Deps) mcp.ToolHandlerFor[RelevantContextInput, RelevantContextResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RelevantContextInput) (*mcp.CallToolResult, RelevantContextResult, error) {
		pkg, err := deps.Assembler.Relevant(ctx, input.Situation)
		if err != nil {
			return nil, RelevantContextResult{}, fmt.Errorf("context assembly failed: %w", err)
		}
		return nil, RelevantContextResult{
			Context:   relctx.Format(pkg),
			NPCs:      len(pkg.NPCs),
			Quests:    len(pkg.Quests),
			Locations: len(pkg.Locations),
		}, nil
	}
}

// ── set_quest_status ─────────────────────────────────────────────────────────

// SetQuestStatusInput is the MCP tool input for quest transitions.
type SetQuestStatusInput struct {
	Quest  string `json:"quest" jsonschema:"quest title or record id"`
	Status string `json:"status" jsonschema:"target status: available, active, completed or failed"`
}

// SetQuestStatusResult is the MCP tool output for quest transitions.
type SetQuestStatusResult struct {
	Updated    bool   `json:"updated" jsonschema:"whether the transition was applied"`
	Suggestion string `json:"suggestion,omitempty" jsonschema:"closest known quest title when the quest was not found"`
}

func setQuestStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "set_quest_status",
		Description: "Transitions a quest to a new status and updates the party's quest lists",
	}
}

func setQuestStatusHandler(deps Deps) mcp.ToolHandlerFor[SetQuestStatusInput, SetQuestStatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SetQuestStatusInput) (*mcp.CallToolResult, SetQuestStatusResult, error) {
		updated, err := deps.Tracker.SetStatus(ctx, input.Quest, game.QuestStatus(input.Status))
		if err != nil {
			return nil, SetQuestStatusResult{}, fmt.Errorf("quest update failed: %w", err)
		}
		result := SetQuestStatusResult{Updated: updated}
		if !updated {
			result.Suggestion = deps.Tracker.SuggestTitle(ctx, input.Quest)
		}
		return nil, result, nil
	}
}

// ── quest_log ────────────────────────────────────────────────────────────────

// QuestLogInput is the MCP tool input for listing quests.
type QuestLogInput struct{}

// QuestLogEntry is one quest in the log.
type QuestLogEntry struct {
	ID         string   `json:"id" jsonschema:"record identifier"`
	Title      string   `json:"title" jsonschema:"quest title"`
	Status     string   `json:"status" jsonschema:"current quest status"`
	Objectives []string `json:"objectives" jsonschema:"quest objectives"`
}

// QuestLogResult is the MCP tool output for listing quests.
type QuestLogResult struct {
	Active    []QuestLogEntry `json:"active" jsonschema:"quests the party is pursuing"`
	Available []QuestLogEntry `json:"available" jsonschema:"quests that can be accepted"`
}

func questLogTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "quest_log",
		Description: "Lists the party's active quests and the quests currently available",
	}
}

func questLogHandler(deps Deps) mcp.ToolHandlerFor[QuestLogInput, QuestLogResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ QuestLogInput) (*mcp.CallToolResult, QuestLogResult, error) {
		result := QuestLogResult{
			Active:    []QuestLogEntry{},
			Available: []QuestLogEntry{},
		}
		for _, q := range deps.Repo.ActiveQuests(ctx) {
			result.Active = append(result.Active, questEntry(q))
		}
		for _, q := range deps.Repo.AvailableQuests(ctx) {
			result.Available = append(result.Available, questEntry(q))
		}
		return nil, result, nil
	}
}

func questEntry(q *game.Quest) QuestLogEntry {
	return QuestLogEntry{
		ID:         q.ID,
		Title:      q.Title,
		Status:     string(q.Status),
		Objectives: q.Objectives,
	}
}
