package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Hard limits on retrieval parameters. pgvector supports up to 16000
// dimensions, but nothing in the deployed models exceeds 4096.
const (
	maxEmbeddingDimension = 4096
	maxContextBudget      = 1 << 20 // 1 MiB of context characters is already absurd
	maxCallTimeoutSeconds = 600
)

// validSSLModes are the sslmode values accepted by libpq/pgx.
var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate checks the whole configuration and fails fast with a sentinel
// error describing the first violation found.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOllama, ProviderGemini:
	default:
		return fmt.Errorf("%w: %q (must be %q or %q)", ErrInvalidProvider, c.Provider, ProviderOllama, ProviderGemini)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidEmbedderModel)
	}

	if c.Provider == ProviderOllama {
		u, err := url.Parse(c.OllamaHost)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q (must be an http(s) URL)", ErrInvalidOllamaHost, c.OllamaHost)
		}
	}

	if c.EmbeddingDimension < 1 || c.EmbeddingDimension > maxEmbeddingDimension {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidDimension, c.EmbeddingDimension, maxEmbeddingDimension)
	}

	switch c.SimilarityMetric {
	case MetricCosine, MetricDot:
	default:
		return fmt.Errorf("%w: %q (must be %q or %q)", ErrInvalidMetric, c.SimilarityMetric, MetricCosine, MetricDot)
	}

	if c.TopK < 1 {
		return fmt.Errorf("%w: top_k %d (must be >= 1)", ErrInvalidTopK, c.TopK)
	}
	if c.MaxTopK < c.TopK {
		return fmt.Errorf("%w: max_top_k %d is below top_k %d", ErrInvalidTopK, c.MaxTopK, c.TopK)
	}

	if c.ContextBudget < 1 || c.ContextBudget > maxContextBudget {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidContextBudget, c.ContextBudget, maxContextBudget)
	}

	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size %d (must be >= 1)", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap %d (must be 0..chunk_size-1)", ErrInvalidChunking, c.ChunkOverlap)
	}

	if c.CallTimeoutSeconds < 1 || c.CallTimeoutSeconds > maxCallTimeoutSeconds {
		return fmt.Errorf("%w: %ds (must be 1..%d)", ErrInvalidTimeout, c.CallTimeoutSeconds, maxCallTimeoutSeconds)
	}

	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host must not be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d (must be 1..65535)", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name must not be empty", ErrInvalidPostgresDBName)
	}
	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	return nil
}
