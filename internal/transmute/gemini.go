// internal/transmute/gemini.go
package transmute

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

type GeminiConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// GeminiGenerator calls the Gemini API through the genai SDK and asks for a
// JSON response.
type GeminiGenerator struct {
	client *genai.Client
	cfg    GeminiConfig
}

func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: genai api key is required", ErrGenerationFailed)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiGenerator{client: client, cfg: cfg}, nil
}

func (g *GeminiGenerator) Model() string {
	return g.cfg.Model
}

// ForModel returns a generator sharing the same client but targeting model.
func (g *GeminiGenerator) ForModel(model string) Generator {
	if model == "" || model == g.cfg.Model {
		return g
	}
	cfg := g.cfg
	cfg.Model = model
	return &GeminiGenerator{client: g.client, cfg: cfg}
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(g.cfg.Temperature),
	}
	if g.cfg.MaxOutputTokens > 0 {
		config.MaxOutputTokens = g.cfg.MaxOutputTokens
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response from %s", ErrGenerationFailed, g.cfg.Model)
	}
	return text, nil
}

// ListModels returns the short names of models that can generate content.
func (g *GeminiGenerator) ListModels(ctx context.Context) ([]string, error) {
	var names []string
	for model, err := range g.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
		if !supportsGeneration(model.SupportedActions) {
			continue
		}
		names = append(names, strings.TrimPrefix(model.Name, "models/"))
	}
	return names, nil
}

func supportsGeneration(actions []string) bool {
	if len(actions) == 0 {
		return true
	}
	for _, a := range actions {
		if a == "generateContent" {
			return true
		}
	}
	return false
}
