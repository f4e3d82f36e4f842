// internal/common/config/config.go
package config

import "fmt"

type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	APIs          APIsConfig              `mapstructure:"apis"`
	History       HistoryConfig           `mapstructure:"history"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	RegistryPath  string                  `mapstructure:"registry_path"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HTTPPort    int    `mapstructure:"http_port"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // single address, kept for older config files
}

func (e ElasticsearchConfig) GetAddresses() []string {
	if len(e.Addresses) > 0 {
		return e.Addresses
	}
	if e.URL != "" {
		return []string{e.URL}
	}
	return nil
}

// RedisConfig is optional; an empty address disables the shared model cache.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

type APIsConfig struct {
	GenAI GenAIConfig `mapstructure:"genai"`
}

const (
	ProviderGemini = "gemini"
	ProviderHTTP   = "http"
)

type GenAIConfig struct {
	Provider        string   `mapstructure:"provider"`
	APIKey          string   `mapstructure:"api_key"`
	BaseURL         string   `mapstructure:"base_url"`
	Model           string   `mapstructure:"model"`
	PreferredModels []string `mapstructure:"preferred_models"`
	Temperature     float32  `mapstructure:"temperature"`
	MaxOutputTokens int      `mapstructure:"max_output_tokens"`
	Timeout         int      `mapstructure:"timeout"`           // milliseconds
	CatalogTTL      int      `mapstructure:"catalog_ttl"`       // seconds
	CatalogCacheKey string   `mapstructure:"catalog_cache_key"` // redis key
}

type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
	IndexEnabled bool   `mapstructure:"index_enabled"`
	IndexName    string `mapstructure:"index_name"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	TraceExporter string  `mapstructure:"trace_exporter"` // none | stdout
	SampleRatio   float64 `mapstructure:"sample_ratio"`
}
