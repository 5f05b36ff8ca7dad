// Package retrieve answers "which chunks are relevant to this question"
// by embedding the question and running a similarity search over the
// document store.
package retrieve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nagachetan/ai-rag-chatbot/internal/rag"
)

// Embedder converts text into an embedding vector. Implemented by
// embed.Gateway.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher runs a nearest-neighbour query. Implemented by store.Store.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]rag.ScoredChunk, error)
}

// Engine embeds questions and searches the corpus. Dependency errors are
// propagated unchanged so callers can still distinguish their kinds.
type Engine struct {
	embedder Embedder
	searcher Searcher
	defaultK int
	maxK     int
	logger   *slog.Logger
}

// New creates an Engine. defaultK is used when the caller passes k <= 0;
// maxK caps every request to bound downstream prompt size.
func New(embedder Embedder, searcher Searcher, defaultK, maxK int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		embedder: embedder,
		searcher: searcher,
		defaultK: defaultK,
		maxK:     maxK,
		logger:   logger,
	}
}

// Retrieve returns up to k chunks relevant to the question, most similar
// first. k <= 0 falls back to the configured default; k above the
// configured maximum is clamped, not rejected. An empty corpus yields an
// empty slice.
func (e *Engine) Retrieve(ctx context.Context, question string, k int) ([]rag.ScoredChunk, error) {
	k = e.clamp(k)

	vector, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("retrieve: embedding question: %w", err)
	}

	results, err := e.searcher.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("retrieve: searching corpus: %w", err)
	}

	e.logger.Debug("retrieved chunks", "requested", k, "returned", len(results))
	return results, nil
}

func (e *Engine) clamp(k int) int {
	if k <= 0 {
		k = e.defaultK
	}
	if k > e.maxK {
		k = e.maxK
	}
	return k
}
