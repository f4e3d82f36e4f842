// internal/transmute/httpgen.go
package transmute

import (
	"context"
	"fmt"
	"strings"
	"time"

	commonhttp "vibe-transmuter/internal/common/http"
)

type HTTPConfig struct {
	BaseURL         string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	Timeout         time.Duration
}

// HTTPGenerator posts prompts to a self-hosted generation gateway at
// {BaseURL}/api/ai/generate.
type HTTPGenerator struct {
	cfg    HTTPConfig
	client *commonhttp.Client
}

func NewHTTPGenerator(cfg HTTPConfig) *HTTPGenerator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &HTTPGenerator{
		cfg:    cfg,
		client: commonhttp.NewClient(cfg.Timeout),
	}
}

func (g *HTTPGenerator) ForModel(model string) Generator {
	if model == "" || model == g.cfg.Model {
		return g
	}
	cfg := g.cfg
	cfg.Model = model
	return &HTTPGenerator{cfg: cfg, client: g.client}
}

func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	requestBody := map[string]interface{}{
		"prompt":          prompt,
		"max_tokens":      g.cfg.MaxOutputTokens,
		"temperature":     g.cfg.Temperature,
		"response_format": "json",
	}
	if g.cfg.Model != "" {
		requestBody["model"] = g.cfg.Model
	}

	var apiResponse struct {
		Text string `json:"text"`
	}
	url := strings.TrimRight(g.cfg.BaseURL, "/") + "/api/ai/generate"
	if err := g.client.PostJSON(ctx, url, requestBody, &apiResponse); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(apiResponse.Text) == "" {
		return "", fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}
	return apiResponse.Text, nil
}
