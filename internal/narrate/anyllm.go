package narrate

import (
	"context"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"
)

// LLMGenerator implements [Generator] by wrapping
// github.com/mozilla-ai/any-llm-go.
type LLMGenerator struct {
	backend     anyllmlib.Provider
	model       string
	temperature float64
	maxTokens   int
}

var _ Generator = (*LLMGenerator)(nil)

// GeneratorOption configures an LLMGenerator.
type GeneratorOption func(*LLMGenerator)

// WithTemperature sets the sampling temperature. Zero keeps the provider
// default.
func WithTemperature(t float64) GeneratorOption {
	return func(g *LLMGenerator) { g.temperature = t }
}

// WithMaxTokens caps the response length. Zero keeps the provider default.
func WithMaxTokens(n int) GeneratorOption {
	return func(g *LLMGenerator) { g.maxTokens = n }
}

// NewLLMGenerator creates a generator backed by the named provider.
//
// providerName is one of: "openai", "anthropic", "gemini", "ollama",
// "deepseek", "mistral", "groq". model is the specific model to use.
// llmOpts are any-llm-go options (e.g. anyllmlib.WithAPIKey); without an
// API key option the provider falls back to its usual environment variable.
func NewLLMGenerator(providerName, model string, opts []GeneratorOption, llmOpts ...anyllmlib.Option) (*LLMGenerator, error) {
	if providerName == "" {
		return nil, fmt.Errorf("narrate: provider name must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("narrate: model must not be empty")
	}
	backend, err := createBackend(providerName, llmOpts...)
	if err != nil {
		return nil, fmt.Errorf("narrate: create %q backend: %w", providerName, err)
	}

	g := &LLMGenerator{backend: backend, model: model}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: openai, anthropic, gemini, ollama, deepseek, mistral, groq", providerName)
	}
}

// Narrate implements [Generator].
func (g *LLMGenerator) Narrate(ctx context.Context, req Request) (string, error) {
	params := anyllmlib.CompletionParams{
		Model: g.model,
		Messages: []anyllmlib.Message{
			{Role: anyllmlib.RoleSystem, Content: BuildSystemPrompt(req)},
			{Role: anyllmlib.RoleUser, Content: BuildUserPrompt(req)},
		},
	}
	if g.temperature != 0 {
		t := g.temperature
		params.Temperature = &t
	}
	if g.maxTokens > 0 {
		mt := g.maxTokens
		params.MaxTokens = &mt
	}

	resp, err := g.backend.Completion(ctx, params)
	if err != nil {
		return "", fmt.Errorf("narrate: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("narrate: empty choices in response")
	}
	return resp.Choices[0].Message.ContentString(), nil
}
