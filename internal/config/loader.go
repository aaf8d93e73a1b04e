package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by [Validate] when the corresponding field is unset.
const (
	DefaultSimilaritySearchK = 5
	DefaultIndexTimeout      = 5 * time.Second
	DefaultPlayerDataDir     = "./player_data"
	DefaultHistoryWindow     = 10
	DefaultAPIKeyEnv         = "OPENAI_API_KEY"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config with every default applied and no index or
// narrator configured.
func Default() *Config {
	cfg := &Config{}
	_ = Validate(cfg)
	return cfg
}

// Validate checks that cfg contains a coherent set of values and fills in
// defaults for unset fields. It returns a joined error listing all
// validation failures found; suspicious-but-legal combinations are only
// logged.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel == "" {
		cfg.LogLevel = LogInfo
	} else if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	// Vector backend
	if cfg.Vector.Backend == "" {
		cfg.Vector.Backend = VectorNone
	} else if !cfg.Vector.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("vector.backend %q is invalid; valid values: postgres, sqlite, none", cfg.Vector.Backend))
	}
	switch cfg.Vector.Backend {
	case VectorPostgres:
		if cfg.Vector.PostgresDSN == "" {
			errs = append(errs, errors.New("vector.postgres_dsn is required for the postgres backend"))
		}
	case VectorSQLite:
		if cfg.Vector.SQLitePath == "" {
			errs = append(errs, errors.New("vector.sqlite_path is required for the sqlite backend"))
		}
	case VectorNone:
		slog.Warn("no vector backend configured; retrieval will use keyword matching only")
	}

	// Embeddings
	if cfg.Embeddings.APIKeyEnv == "" {
		cfg.Embeddings.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.Vector.Backend != VectorNone && cfg.Embeddings.Provider == "" {
		slog.Warn("vector backend configured without embeddings.provider; defaulting to openai")
		cfg.Embeddings.Provider = "openai"
	}

	// Retrieval
	if cfg.Retrieval.SimilaritySearchK <= 0 {
		cfg.Retrieval.SimilaritySearchK = DefaultSimilaritySearchK
	}
	if cfg.Retrieval.IndexTimeout <= 0 {
		cfg.Retrieval.IndexTimeout = Duration(DefaultIndexTimeout)
	}

	// Player data
	if cfg.PlayerData.Dir == "" {
		cfg.PlayerData.Dir = DefaultPlayerDataDir
	}

	// Narrator
	if cfg.Narrator.APIKeyEnv == "" {
		cfg.Narrator.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.Narrator.HistoryWindow <= 0 {
		cfg.Narrator.HistoryWindow = DefaultHistoryWindow
	}
	if cfg.Narrator.Temperature < 0 || cfg.Narrator.Temperature > 2 {
		errs = append(errs, fmt.Errorf("narrator.temperature %.2f is out of range [0, 2]", cfg.Narrator.Temperature))
	}
	if cfg.Narrator.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("narrator.max_tokens %d must not be negative", cfg.Narrator.MaxTokens))
	}
	if cfg.Narrator.Provider != "" && cfg.Narrator.Model == "" {
		slog.Warn("narrator.provider is set without narrator.model; the provider default model will be used")
	}

	return errors.Join(errs...)
}
