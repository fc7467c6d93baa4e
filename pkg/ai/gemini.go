package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	DefaultPrimaryModel  = "gemini-2.5-flash-lite-preview-06-17"
	DefaultFallbackModel = "gemini-2.0-flash-lite"
)

// ErrBlocked marks a prompt or reply stopped by the model's safety system.
var ErrBlocked = errors.New("content blocked by safety filters")

// GeminiGenerator calls one Gemini model with deterministic JSON output.
type GeminiGenerator struct {
	model *genai.GenerativeModel
	name  string
}

// NewGeminiClient creates the shared SDK client. Close it on shutdown.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

func NewGeminiGenerator(client *genai.Client, modelName string) *GeminiGenerator {
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"
	return &GeminiGenerator{model: model, name: modelName}
}

func (g *GeminiGenerator) Name() string {
	return g.name
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", fmt.Errorf("%w: %v", ErrBlocked, err)
		}
		return "", fmt.Errorf("gemini %s: %w", g.name, err)
	}

	// A candidate with no content becomes an empty object and fails validation
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "{}", nil
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "{}", nil
	}
	return b.String(), nil
}
