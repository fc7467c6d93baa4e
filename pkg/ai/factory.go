package ai

import (
	"context"
	"fmt"
	"io"
)

// Config holds AI provider configuration
type Config struct {
	GeminiAPIKey  string
	PrimaryModel  string
	FallbackModel string

	// FallbackProvider picks the secondary: another Gemini model or Ollama.
	FallbackProvider ProviderType
	OllamaBaseURL    string // e.g., "http://localhost:11434"
	OllamaModel      string // e.g., "llama3", "mistral"

	RequestsPerSecond float64
}

// NewExtractorFromConfig builds the extractor and returns a closer for the
// underlying SDK client.
func NewExtractorFromConfig(ctx context.Context, cfg Config) (*Extractor, io.Closer, error) {
	client, err := NewGeminiClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, nil, err
	}

	primaryModel := cfg.PrimaryModel
	if primaryModel == "" {
		primaryModel = DefaultPrimaryModel
	}

	var secondary Generator
	switch cfg.FallbackProvider {
	case ProviderOllama:
		secondary = NewOllamaGenerator(cfg.OllamaBaseURL, cfg.OllamaModel)
	case ProviderGemini, "":
		fallbackModel := cfg.FallbackModel
		if fallbackModel == "" {
			fallbackModel = DefaultFallbackModel
		}
		secondary = NewGeminiGenerator(client, fallbackModel)
	default:
		client.Close()
		return nil, nil, fmt.Errorf("unknown fallback provider %q", cfg.FallbackProvider)
	}

	extractor, err := NewExtractor(
		NewGeminiGenerator(client, primaryModel),
		WithSecondary(secondary),
		WithRateLimit(cfg.RequestsPerSecond),
	)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return extractor, client, nil
}
