package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/lorekeep/internal/config"
)

const validYAML = `
log_level: debug
vector:
  backend: sqlite
  sqlite_path: "./lore.db"
embeddings:
  provider: openai
  model: text-embedding-3-small
retrieval:
  similarity_search_k: 8
  index_timeout: 2s
player_data:
  dir: "./pcs"
narrator:
  provider: openai
  model: gpt-4o-mini
  temperature: 0.8
  max_tokens: 600
  history_window: 12
`

func TestLoadFromReaderValid(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.LogLevel != config.LogDebug {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
	if cfg.Vector.Backend != config.VectorSQLite || cfg.Vector.SQLitePath != "./lore.db" {
		t.Errorf("vector config = %+v", cfg.Vector)
	}
	if cfg.Retrieval.SimilaritySearchK != 8 {
		t.Errorf("similarity_search_k = %d, want 8", cfg.Retrieval.SimilaritySearchK)
	}
	if time.Duration(cfg.Retrieval.IndexTimeout) != 2*time.Second {
		t.Errorf("index_timeout = %v, want 2s", time.Duration(cfg.Retrieval.IndexTimeout))
	}
	if cfg.Narrator.HistoryWindow != 12 {
		t.Errorf("history_window = %d, want 12", cfg.Narrator.HistoryWindow)
	}
}

func TestDefaultsApplied(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader("log_level: info\n"))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Vector.Backend != config.VectorNone {
		t.Errorf("default backend = %q, want none", cfg.Vector.Backend)
	}
	if cfg.Retrieval.SimilaritySearchK != config.DefaultSimilaritySearchK {
		t.Errorf("default k = %d", cfg.Retrieval.SimilaritySearchK)
	}
	if time.Duration(cfg.Retrieval.IndexTimeout) != config.DefaultIndexTimeout {
		t.Errorf("default timeout = %v", time.Duration(cfg.Retrieval.IndexTimeout))
	}
	if cfg.PlayerData.Dir != config.DefaultPlayerDataDir {
		t.Errorf("default player data dir = %q", cfg.PlayerData.Dir)
	}
	if cfg.Narrator.HistoryWindow != config.DefaultHistoryWindow {
		t.Errorf("default history window = %d", cfg.Narrator.HistoryWindow)
	}
	if cfg.Embeddings.APIKeyEnv != config.DefaultAPIKeyEnv {
		t.Errorf("default api key env = %q", cfg.Embeddings.APIKeyEnv)
	}
}

func TestUnknownKeysRejected(t *testing.T) {
	t.Parallel()
	if _, err := config.LoadFromReader(strings.NewReader("chroma_dir: ./db\n")); err == nil {
		t.Error("unknown top-level key accepted")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		LogLevel: "loud",
		Vector:   config.VectorConfig{Backend: "postgres"},
		Narrator: config.NarratorConfig{Temperature: 3.5, MaxTokens: -1},
	}
	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("Validate accepted invalid config")
	}
	msg := err.Error()
	for _, want := range []string{"log_level", "postgres_dsn", "temperature", "max_tokens"} {
		if !strings.Contains(msg, want) {
			t.Errorf("joined error missing %q: %v", want, msg)
		}
	}
}

func TestInvalidBackend(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{Vector: config.VectorConfig{Backend: "chroma"}}
	if err := config.Validate(cfg); err == nil {
		t.Error("unknown backend accepted")
	}
}

func TestMalformedDuration(t *testing.T) {
	t.Parallel()
	in := "retrieval:\n  index_timeout: fast\n"
	if _, err := config.LoadFromReader(strings.NewReader(in)); err == nil {
		t.Error("malformed duration accepted")
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	if cfg.LogLevel != config.LogInfo {
		t.Errorf("Default log level = %q, want info", cfg.LogLevel)
	}
	if cfg.Retrieval.SimilaritySearchK != config.DefaultSimilaritySearchK {
		t.Errorf("Default k = %d", cfg.Retrieval.SimilaritySearchK)
	}
}
