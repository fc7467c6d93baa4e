package ai

import (
	"context"
)

// Generator sends one prompt to a model and returns its raw text reply.
// Implement this interface to add new AI providers (Gemini, Ollama, etc.)
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
)
