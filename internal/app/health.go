package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nagachetan/ai-rag-chatbot/internal/api"
	"github.com/nagachetan/ai-rag-chatbot/internal/config"
)

// modelProbeTimeout bounds the generation probe. A model that cannot
// produce one token in five seconds is not healthy.
const modelProbeTimeout = 5 * time.Second

// OllamaChecker verifies that the configured generation model is loaded
// and able to produce output, by requesting a single token from it.
// Listing models is not enough: a model can appear in the catalog and
// still fail to load.
type OllamaChecker struct {
	host   string
	model  string
	client *http.Client
}

// NewOllamaChecker probes the Ollama server at host for model.
func NewOllamaChecker(host, model string) *OllamaChecker {
	return &OllamaChecker{
		host:   strings.TrimSuffix(host, "/"),
		model:  model,
		client: &http.Client{Timeout: modelProbeTimeout},
	}
}

// CheckModel asks the model for one token and reports any failure.
func (c *OllamaChecker) CheckModel(ctx context.Context) error {
	body, err := json.Marshal(map[string]any{
		"model":   c.model,
		"prompt":  "ping",
		"stream":  false,
		"options": map[string]any{"num_predict": 1},
	})
	if err != nil {
		return fmt.Errorf("encoding probe request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, modelProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building probe request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("probing model %q: %w", c.model, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model %q probe returned status %d", c.model, resp.StatusCode)
	}
	return nil
}

// noopChecker always reports healthy. Used for hosted providers where
// the API key is validated on the first real call and no cheap probe
// exists.
type noopChecker struct{}

func (noopChecker) CheckModel(context.Context) error { return nil }

// ModelChecker returns the health probe matching the configured provider.
func ModelChecker(cfg *config.Config) api.ModelChecker {
	switch cfg.Provider {
	case config.ProviderGemini:
		return noopChecker{}
	default:
		return NewOllamaChecker(cfg.OllamaHost, cfg.ModelName)
	}
}
