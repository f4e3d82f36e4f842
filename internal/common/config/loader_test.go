// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ==========================
// Loading
// ==========================

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
apis:
  genai:
    api_key: test-key
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "vibe-transmuter", cfg.App.Name)
	assert.Equal(t, 10, cfg.Camunda.MaxJobsActive)
	assert.Equal(t, ProviderGemini, cfg.APIs.GenAI.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.APIs.GenAI.Model)
	assert.InDelta(t, 0.4, cfg.APIs.GenAI.Temperature, 0.0001)
	assert.Equal(t, 8192, cfg.APIs.GenAI.MaxOutputTokens)
	assert.Equal(t, 3600, cfg.APIs.GenAI.CatalogTTL)
	assert.Equal(t, "genai:models", cfg.APIs.GenAI.CatalogCacheKey)
	assert.Equal(t, "vibe-specs", cfg.History.IndexName)
	assert.Equal(t, "none", cfg.Observability.TraceExporter)
	assert.Equal(t, 1.0, cfg.Observability.SampleRatio)
	assert.Equal(t, "configs/activity-registry.json", cfg.RegistryPath)
}

func TestLoadFromFile_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_BROKER", "zeebe:26500")
	t.Setenv("TEST_GENAI_KEY", "from-env")

	path := writeConfig(t, `
camunda:
  broker_address: ${TEST_BROKER}
apis:
  genai:
    api_key: ${TEST_GENAI_KEY}
    preferred_models: [gemini-2.5-flash, gemini-2.0-flash]
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, "from-env", cfg.APIs.GenAI.APIKey)
	assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.0-flash"}, cfg.APIs.GenAI.PreferredModels)
}

func TestLoadFromFile_APIKeyFallsBackToEnvironment(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-env-key")

	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-env-key", cfg.APIs.GenAI.APIKey)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

// ==========================
// Validation
// ==========================

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		cfg := &Config{
			Camunda: CamundaConfig{BrokerAddress: "localhost:26500"},
			APIs:    APIsConfig{GenAI: GenAIConfig{APIKey: "k"}},
		}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid gemini",
			mutate: func(*Config) {},
		},
		{
			name:    "missing broker",
			mutate:  func(c *Config) { c.Camunda.BrokerAddress = "" },
			wantErr: "broker_address",
		},
		{
			name:    "gemini without key",
			mutate:  func(c *Config) { c.APIs.GenAI.APIKey = "" },
			wantErr: "api_key",
		},
		{
			name: "http without base url",
			mutate: func(c *Config) {
				c.APIs.GenAI.Provider = ProviderHTTP
				c.APIs.GenAI.APIKey = ""
			},
			wantErr: "base_url",
		},
		{
			name: "http with base url",
			mutate: func(c *Config) {
				c.APIs.GenAI.Provider = ProviderHTTP
				c.APIs.GenAI.BaseURL = "http://ai-gateway"
			},
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.APIs.GenAI.Provider = "openai" },
			wantErr: "provider",
		},
		{
			name:    "history without postgres",
			mutate:  func(c *Config) { c.History.Enabled = true },
			wantErr: "postgres.host",
		},
		{
			name: "index without history",
			mutate: func(c *Config) {
				c.History.IndexEnabled = true
			},
			wantErr: "requires history.enabled",
		},
		{
			name: "index without elasticsearch",
			mutate: func(c *Config) {
				c.History.Enabled = true
				c.History.IndexEnabled = true
				c.Database.Postgres = PostgresConfig{Host: "db", Database: "vibes", User: "u"}
			},
			wantErr: "elasticsearch",
		},
		{
			name:    "bad exporter",
			mutate:  func(c *Config) { c.Observability.TraceExporter = "jaeger" },
			wantErr: "trace_exporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// ==========================
// Helpers
// ==========================

func TestWorkerHelpers(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"normalize-spec": {Enabled: false},
	}}
	applyDefaults(cfg)

	assert.False(t, IsWorkerEnabled(cfg, "normalize-spec"))
	assert.True(t, IsWorkerEnabled(cfg, "transmute-vibe"))

	wc := GetWorkerConfig(cfg, "normalize-spec")
	assert.Equal(t, 5, wc.MaxJobsActive)
	assert.Equal(t, 3, wc.MaxRetries)

	assert.Equal(t, int64(1500), GetDuration(1500).Milliseconds())
}

func TestElasticsearchAddresses(t *testing.T) {
	assert.Equal(t, []string{"http://a:9200"}, ElasticsearchConfig{URL: "http://a:9200"}.GetAddresses())
	assert.Equal(t, []string{"http://b:9200"}, ElasticsearchConfig{Addresses: []string{"http://b:9200"}, URL: "http://a:9200"}.GetAddresses())
	assert.Nil(t, ElasticsearchConfig{}.GetAddresses())
}
