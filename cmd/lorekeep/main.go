// Command lorekeep runs the campaign context store: an interactive Dungeon
// Master loop by default, or an MCP server on stdio with the serve-mcp
// subcommand.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/lorekeep/internal/campaign"
	"github.com/MrWong99/lorekeep/internal/config"
	"github.com/MrWong99/lorekeep/internal/mcpserver"
	"github.com/MrWong99/lorekeep/internal/narrate"
	"github.com/MrWong99/lorekeep/internal/observe"
	"github.com/MrWong99/lorekeep/internal/playerdata"
	"github.com/MrWong99/lorekeep/internal/quests"
	"github.com/MrWong99/lorekeep/internal/relctx"
	"github.com/MrWong99/lorekeep/internal/search"
	"github.com/MrWong99/lorekeep/internal/store"
	"github.com/MrWong99/lorekeep/pkg/game"
	"github.com/MrWong99/lorekeep/pkg/provider/embeddings"
	oaembed "github.com/MrWong99/lorekeep/pkg/provider/embeddings/openai"
	"github.com/MrWong99/lorekeep/pkg/vector"
	pgindex "github.com/MrWong99/lorekeep/pkg/vector/postgres"
	sqliteindex "github.com/MrWong99/lorekeep/pkg/vector/sqlite"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "lorekeep.yaml", "path to the YAML configuration file")
	campaignPath := flag.String("campaign", "", "campaign YAML file to import on startup")
	flag.Parse()

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = config.Default()
		} else {
			fmt.Fprintf(os.Stderr, "lorekeep: %v\n", err)
			return 1
		}
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	slog.Info("lorekeep starting", "config", *configPath, "vector_backend", cfg.Vector.Backend)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics ───────────────────────────────────────────────────────────────
	shutdownObserve, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "lorekeep",
		ServiceVersion: "0.1.0",
	})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownObserve(sctx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()

	// ── Similarity index ──────────────────────────────────────────────────────
	index, closeIndex, err := buildIndex(ctx, cfg)
	if err != nil {
		slog.Error("failed to build similarity index", "err", err)
		return 1
	}
	if closeIndex != nil {
		defer closeIndex()
	}

	// ── Repository ────────────────────────────────────────────────────────────
	repo := store.New(store.WithIndex(index))
	if err := repo.Reload(ctx); err != nil {
		slog.Warn("could not hydrate repository from index", "err", err)
	}

	if *campaignPath != "" {
		cf, err := campaign.Load(*campaignPath)
		if err != nil {
			slog.Error("failed to load campaign file", "err", err)
			return 1
		}
		n, err := campaign.Import(ctx, repo, cf)
		if err != nil {
			slog.Error("failed to import campaign", "err", err)
			return 1
		}
		slog.Info("imported campaign", "name", cf.Campaign.Name, "entities", n)
	}

	// ── Retrieval stack ───────────────────────────────────────────────────────
	engine := search.New(repo,
		search.WithIndex(index),
		search.WithDefaultLimit(cfg.Retrieval.SimilaritySearchK),
		search.WithIndexTimeout(time.Duration(cfg.Retrieval.IndexTimeout)),
	)
	assembler := relctx.NewAssembler(engine, relctx.WithLimit(cfg.Retrieval.SimilaritySearchK))

	// ── Player data and quest tracking ────────────────────────────────────────
	players, err := playerdata.NewManager(cfg.PlayerData.Dir)
	if err != nil {
		slog.Error("failed to open player data directory", "err", err)
		return 1
	}
	var party *game.Party
	if players.PartyExists("") {
		party, err = players.LoadParty("")
		if err != nil {
			slog.Error("failed to load party", "err", err)
			return 1
		}
		slog.Info("loaded party", "name", party.Name, "members", len(party.Members))
	}

	trackerOpts := []quests.Option{}
	if party != nil {
		trackerOpts = append(trackerOpts, quests.WithParty(party))
	}
	tracker := quests.New(repo, trackerOpts...)

	// ── Mode selection ────────────────────────────────────────────────────────
	if flag.Arg(0) == "serve-mcp" {
		err := mcpserver.Run(ctx, mcpserver.Deps{
			Repo:      repo,
			Engine:    engine,
			Assembler: assembler,
			Tracker:   tracker,
			Log:       logger,
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("mcp server error", "err", err)
			return 1
		}
		return 0
	}

	narrator, err := buildNarrator(cfg)
	if err != nil {
		slog.Error("failed to build narrator", "err", err)
		return 1
	}
	if err := runInteractive(ctx, interactiveDeps{
		cfg:       cfg,
		repo:      repo,
		assembler: assembler,
		tracker:   tracker,
		players:   players,
		party:     party,
		narrator:  narrator,
	}); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("session error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// newLogger builds a text slog handler at the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var l slog.Level
	switch level {
	case config.LogDebug:
		l = slog.LevelDebug
	case config.LogWarn:
		l = slog.LevelWarn
	case config.LogError:
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// buildIndex creates the configured similarity index, or nil for the
// keyword-only mode.
func buildIndex(ctx context.Context, cfg *config.Config) (vector.Index, func(), error) {
	if cfg.Vector.Backend == config.VectorNone {
		return nil, nil, nil
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Vector.Backend {
	case config.VectorPostgres:
		idx, err := pgindex.New(ctx, cfg.Vector.PostgresDSN, embedder)
		if err != nil {
			return nil, nil, err
		}
		return idx, idx.Close, nil
	case config.VectorSQLite:
		idx, err := sqliteindex.New(cfg.Vector.SQLitePath, embedder)
		if err != nil {
			return nil, nil, err
		}
		return idx, func() { _ = idx.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported vector backend %q", cfg.Vector.Backend)
	}
}

func buildEmbedder(cfg *config.Config) (embeddings.Provider, error) {
	apiKey := os.Getenv(cfg.Embeddings.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("embeddings API key environment variable %q is not set", cfg.Embeddings.APIKeyEnv)
	}
	var opts []oaembed.Option
	if cfg.Embeddings.BaseURL != "" {
		opts = append(opts, oaembed.WithBaseURL(cfg.Embeddings.BaseURL))
	}
	return oaembed.New(apiKey, cfg.Embeddings.Model, opts...)
}

// buildNarrator creates the LLM narrator, or nil when none is configured.
func buildNarrator(cfg *config.Config) (narrate.Generator, error) {
	if cfg.Narrator.Provider == "" {
		slog.Warn("no narrator configured; responses will show raw context only")
		return nil, nil
	}
	var llmOpts []anyllmlib.Option
	if key := os.Getenv(cfg.Narrator.APIKeyEnv); key != "" {
		llmOpts = append(llmOpts, anyllmlib.WithAPIKey(key))
	}
	return narrate.NewLLMGenerator(cfg.Narrator.Provider, cfg.Narrator.Model,
		[]narrate.GeneratorOption{
			narrate.WithTemperature(cfg.Narrator.Temperature),
			narrate.WithMaxTokens(cfg.Narrator.MaxTokens),
		},
		llmOpts...)
}

type interactiveDeps struct {
	cfg       *config.Config
	repo      *store.Repository
	assembler *relctx.Assembler
	tracker   *quests.Tracker
	players   *playerdata.Manager
	party     *game.Party
	narrator  narrate.Generator
}

// runInteractive runs the terminal DM loop: free-text player input, slash
// commands for session management, "quit" to exit.
func runInteractive(ctx context.Context, deps interactiveDeps) error {
	history := narrate.NewHistory(deps.cfg.Narrator.HistoryWindow)
	currentLocation := ""

	fmt.Println("Lorekeep DM session. Type your action, /help for commands, quit to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if strings.HasPrefix(line, "/") {
			currentLocation = handleCommand(ctx, deps, line, currentLocation)
			continue
		}

		situation := line
		if currentLocation != "" {
			situation = fmt.Sprintf("%s Current location: %s", line, currentLocation)
		}
		pkg, err := deps.assembler.Relevant(ctx, situation)
		if err != nil {
			slog.Warn("context assembly failed", "err", err)
			pkg = &relctx.Package{}
		}

		req := narrate.Request{
			PlayerInput:     line,
			Context:         relctx.Format(pkg),
			CurrentLocation: currentLocation,
			History:         history.Turns(),
		}
		if deps.party != nil {
			req.PartySummary = deps.party.DetailedSummary()
		}

		if deps.narrator == nil {
			fmt.Println(req.Context)
			continue
		}
		response, err := deps.narrator.Narrate(ctx, req)
		if err != nil {
			slog.Error("narration failed", "err", err)
			continue
		}
		fmt.Println(response)
		history.Add(narrate.RolePlayer, line)
		history.Add(narrate.RoleDM, response)
	}
}

// handleCommand executes one slash command and returns the (possibly
// updated) current location.
func handleCommand(ctx context.Context, deps interactiveDeps, line, currentLocation string) string {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/help":
		fmt.Println(`Commands:
  /quest <status> <title or id>   set a quest's status (available, active, completed, failed)
  /quests                         show the quest log
  /location <name>                set the party's current location
  /party                          show the party summary
  /save                           save the party to disk
  quit                            end the session`)

	case "/quest":
		if len(fields) < 3 {
			fmt.Println("usage: /quest <status> <title or id>")
			break
		}
		status := game.QuestStatus(fields[1])
		name := strings.Join(fields[2:], " ")
		ok, err := deps.tracker.SetStatus(ctx, name, status)
		switch {
		case err != nil:
			fmt.Println("error:", err)
		case ok:
			fmt.Printf("quest %q is now %s\n", name, status)
		default:
			if suggestion := deps.tracker.SuggestTitle(ctx, name); suggestion != "" {
				fmt.Printf("no update for %q; did you mean %q?\n", name, suggestion)
			} else {
				fmt.Printf("no quest matches %q\n", name)
			}
		}

	case "/quests":
		for _, q := range deps.repo.ActiveQuests(ctx) {
			fmt.Println("  [active]   ", q.Title)
		}
		for _, q := range deps.repo.AvailableQuests(ctx) {
			fmt.Println("  [available]", q.Title)
		}

	case "/location":
		if len(fields) < 2 {
			fmt.Println("usage: /location <name>")
			break
		}
		currentLocation = strings.Join(fields[1:], " ")
		fmt.Println("current location:", currentLocation)

	case "/party":
		if deps.party == nil {
			fmt.Println("no party loaded")
			break
		}
		fmt.Println(deps.party.DetailedSummary())

	case "/save":
		if deps.party == nil {
			fmt.Println("no party loaded")
			break
		}
		if err := deps.players.SaveParty(deps.party, ""); err != nil {
			fmt.Println("error:", err)
			break
		}
		fmt.Println("party saved")

	default:
		fmt.Println("unknown command; /help lists commands")
	}
	return currentLocation
}
