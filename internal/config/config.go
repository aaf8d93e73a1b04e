// Package config provides the configuration schema and loader for Lorekeep.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a wrapper around time.Duration that supports YAML string
// parsing ("5s", "250ms").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// VectorBackend selects the similarity index implementation.
type VectorBackend string

const (
	// VectorPostgres stores documents and embeddings in PostgreSQL with
	// pgvector.
	VectorPostgres VectorBackend = "postgres"

	// VectorSQLite keeps a local SQLite database with brute-force cosine
	// scoring. No external services required.
	VectorSQLite VectorBackend = "sqlite"

	// VectorNone disables the similarity index; retrieval uses the keyword
	// fallback only.
	VectorNone VectorBackend = "none"
)

// IsValid reports whether b is a recognised vector backend.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorPostgres, VectorSQLite, VectorNone:
		return true
	}
	return false
}

// Config is the root configuration structure for Lorekeep.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	LogLevel   LogLevel         `yaml:"log_level"`
	Vector     VectorConfig     `yaml:"vector"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	PlayerData PlayerDataConfig `yaml:"player_data"`
	Narrator   NarratorConfig   `yaml:"narrator"`
}

// VectorConfig selects and configures the similarity index backend.
type VectorConfig struct {
	// Backend selects the index implementation. Defaults to "none".
	Backend VectorBackend `yaml:"backend"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `yaml:"postgres_dsn"`

	// SQLitePath is the database file path for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`
}

// EmbeddingsConfig configures the embeddings provider used by the
// similarity index backends.
type EmbeddingsConfig struct {
	// Provider names the embeddings implementation. Currently "openai".
	Provider string `yaml:"provider"`

	// Model selects the embedding model (e.g. "text-embedding-3-small").
	Model string `yaml:"model"`

	// APIKeyEnv names the environment variable holding the API key.
	// Defaults to "OPENAI_API_KEY".
	APIKeyEnv string `yaml:"api_key_env"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`
}

// RetrievalConfig tunes the retrieval engine.
type RetrievalConfig struct {
	// SimilaritySearchK is the default result count per search. Defaults to 5.
	SimilaritySearchK int `yaml:"similarity_search_k"`

	// IndexTimeout bounds a single similarity-index query. Defaults to 5s.
	IndexTimeout Duration `yaml:"index_timeout"`
}

// PlayerDataConfig locates the player character and party files.
type PlayerDataConfig struct {
	// Dir is the data directory. Defaults to "./player_data".
	Dir string `yaml:"dir"`
}

// NarratorConfig configures the LLM narration backend.
type NarratorConfig struct {
	// Provider names the any-llm provider (e.g. "openai", "anthropic",
	// "ollama").
	Provider string `yaml:"provider"`

	// Model selects the model within the provider.
	Model string `yaml:"model"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`

	// Temperature is the sampling temperature. Zero means provider default.
	Temperature float64 `yaml:"temperature"`

	// MaxTokens caps the response length. Zero means provider default.
	MaxTokens int `yaml:"max_tokens"`

	// HistoryWindow is the number of conversation turns kept in the prompt.
	// Defaults to 10.
	HistoryWindow int `yaml:"history_window"`
}
