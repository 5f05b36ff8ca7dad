// Package embed wraps a Genkit embedder behind a validated, bounded
// gateway. All text-to-vector traffic in the service goes through it, so
// input validation, timeouts, and dimension checks live in one place.
package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/nagachetan/ai-rag-chatbot/internal/rag"
)

// Gateway converts text into fixed-dimension embedding vectors.
// It is safe for concurrent use; the underlying Genkit embedder carries
// no per-call state.
type Gateway struct {
	embedder  ai.Embedder
	dimension int
	timeout   time.Duration
}

// New creates a Gateway around the given embedder. dimension is the
// vector length every response must have; timeout bounds each backend
// call (zero means no bound beyond the caller's context).
func New(embedder ai.Embedder, dimension int, timeout time.Duration) *Gateway {
	return &Gateway{
		embedder:  embedder,
		dimension: dimension,
		timeout:   timeout,
	}
}

// Dimension returns the vector length this gateway enforces.
func (g *Gateway) Dimension() int {
	return g.dimension
}

// Embed converts text into an embedding vector of exactly the configured
// dimension.
//
// Empty or whitespace-only text returns rag.ErrInvalidInput without
// touching the backend. Backend failures and timeouts return
// rag.ErrModelUnavailable; a backend response of the wrong length returns
// rag.ErrDimensionMismatch. The same text always yields the same vector
// as long as the backend model is unchanged.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embed: empty text: %w", rag.ErrInvalidInput)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return nil, fmt.Errorf("embed: backend call: %w", errors.Join(rag.ErrModelUnavailable, err))
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("embed: backend returned no embeddings: %w", rag.ErrModelUnavailable)
	}

	vector := resp.Embeddings[0].Embedding
	if len(vector) != g.dimension {
		return nil, fmt.Errorf("embed: got %d values, want %d: %w",
			len(vector), g.dimension, rag.ErrDimensionMismatch)
	}

	return vector, nil
}
