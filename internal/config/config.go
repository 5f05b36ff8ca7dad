// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override, RAGBOT_* plus DATABASE_URL)
//  2. Config file (~/.ragbot/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, generation model, embedder model
//   - Retrieval: embedding dimension, similarity metric, top-k, context budget
//   - Ingestion: chunk size and overlap, knowledge-base path
//   - Storage: PostgreSQL connection (see storage.go)
//   - Observability: OTLP trace export (see observability.go)
//
// Sensitive values (the PostgreSQL password) are masked in MarshalJSON and
// String. Validation lives in validation.go and fails fast at Load time.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/nagachetan/ai-rag-chatbot/internal/rag"
)

var (
	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the generation model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model name is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidDimension indicates the embedding dimension is out of range.
	ErrInvalidDimension = errors.New("invalid embedding dimension")

	// ErrInvalidMetric indicates an unsupported similarity metric.
	ErrInvalidMetric = errors.New("invalid similarity metric")

	// ErrInvalidTopK indicates top-k or max-top-k is out of range.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidContextBudget indicates the context budget is out of range.
	ErrInvalidContextBudget = errors.New("invalid context budget")

	// ErrInvalidChunking indicates chunk size/overlap are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunk size or overlap")

	// ErrInvalidTimeout indicates the per-call timeout is out of range.
	ErrInvalidTimeout = errors.New("invalid call timeout")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// Similarity metric identifiers used in Config.SimilarityMetric.
// The metric must match the one the vector index was built with; the
// store refuses to mix them at query time.
const (
	MetricCosine = rag.MetricCosine
	MetricDot    = rag.MetricDot
)

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON; when adding a new
// secret field, update MarshalJSON as well.
type Config struct {
	// AI provider and model configuration
	Provider      string `mapstructure:"provider" json:"provider"`             // "ollama" (default) or "gemini"
	ModelName     string `mapstructure:"model_name" json:"model_name"`         // generation model, e.g. "llama3.2"
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"` // e.g. "nomic-embed-text"
	OllamaHost    string `mapstructure:"ollama_host" json:"ollama_host"`

	// Retrieval configuration
	EmbeddingDimension int    `mapstructure:"embedding_dimension" json:"embedding_dimension"`
	SimilarityMetric   string `mapstructure:"similarity_metric" json:"similarity_metric"`
	TopK               int    `mapstructure:"top_k" json:"top_k"`
	MaxTopK            int    `mapstructure:"max_top_k" json:"max_top_k"`
	ContextBudget      int    `mapstructure:"context_budget" json:"context_budget"` // characters

	// Ingestion configuration
	ChunkSize    int    `mapstructure:"chunk_size" json:"chunk_size"`       // characters per chunk
	ChunkOverlap int    `mapstructure:"chunk_overlap" json:"chunk_overlap"` // characters shared between neighbours
	KBPath       string `mapstructure:"kb_path" json:"kb_path"`

	// Per-call timeout for embedding, search, and generation.
	CallTimeoutSeconds int `mapstructure:"call_timeout_seconds" json:"call_timeout_seconds"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Serve configuration
	RateBurst int `mapstructure:"rate_burst" json:"rate_burst"`

	// Observability configuration (see observability.go)
	Otel OtelConfig `mapstructure:"otel" json:"otel"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".ragbot")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL, if set, overrides the individual postgres_* values.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// AI defaults (Ollama, matching the stock deployment)
	v.SetDefault("provider", ProviderOllama)
	v.SetDefault("model_name", "llama3.2")
	v.SetDefault("embedder_model", "nomic-embed-text")
	v.SetDefault("ollama_host", "http://localhost:11434")

	// Retrieval defaults
	v.SetDefault("embedding_dimension", 768)
	v.SetDefault("similarity_metric", MetricCosine)
	v.SetDefault("top_k", 5)
	v.SetDefault("max_top_k", 20)
	v.SetDefault("context_budget", 6000)

	// Ingestion defaults
	v.SetDefault("chunk_size", 800)
	v.SetDefault("chunk_overlap", 100)
	v.SetDefault("kb_path", "./kb")

	v.SetDefault("call_timeout_seconds", 30)

	// PostgreSQL defaults (matching the local development database)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "rag_user")
	v.SetDefault("postgres_password", "rag_pass")
	v.SetDefault("postgres_db_name", "rag")
	v.SetDefault("postgres_ssl_mode", "disable")

	// Serve defaults
	v.SetDefault("rate_burst", 60)

	// Observability defaults
	v.SetDefault("otel.agent_host", "localhost:4318")
	v.SetDefault("otel.environment", "dev")
	v.SetDefault("otel.service_name", "ai-rag-chatbot")
}

// bindEnvVariables binds environment overrides explicitly.
// GEMINI_API_KEY is read directly by the Genkit plugin, not via viper.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "RAGBOT_PROVIDER")
	mustBind("model_name", "RAGBOT_MODEL_NAME")
	mustBind("embedder_model", "RAGBOT_EMBEDDER_MODEL")
	mustBind("ollama_host", "RAGBOT_OLLAMA_HOST")
	mustBind("kb_path", "RAGBOT_KB_PATH")
	mustBind("rate_burst", "RAGBOT_RATE_BURST")
	mustBind("otel.agent_host", "RAGBOT_OTEL_AGENT_HOST")
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Short secrets are
// fully masked to prevent substring matching; longer ones keep the first
// and last two characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}

// CallTimeout returns the bounded wait applied to every external call
// (embedding, search, generation).
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}
