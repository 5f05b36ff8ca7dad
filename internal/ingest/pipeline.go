package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nagachetan/ai-rag-chatbot/internal/rag"
)

// Embedder converts text into an embedding vector. Implemented by
// embed.Gateway.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Upserter persists chunks. Implemented by store.Store.
type Upserter interface {
	Upsert(ctx context.Context, chunk rag.Chunk) error
	DeleteSource(ctx context.Context, source string) (int64, error)
}

// supportedExtensions are the knowledge-base file types the directory
// walk picks up.
var supportedExtensions = map[string]bool{
	".md":   true,
	".txt":  true,
	".json": true,
	".yaml": true,
	".yml":  true,
}

// Summary reports the outcome of ingesting one source document.
type Summary struct {
	Source    string
	Succeeded int
	Failed    int
}

// Pipeline splits, embeds, and persists source documents. A single
// chunk's failure never aborts its document; it is counted in the
// summary and ingestion continues.
type Pipeline struct {
	embedder Embedder
	store    Upserter
	size     int
	overlap  int
	logger   *slog.Logger
}

// New creates a Pipeline with the given chunk window parameters.
func New(embedder Embedder, store Upserter, size, overlap int, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		embedder: embedder,
		store:    store,
		size:     size,
		overlap:  overlap,
		logger:   logger,
	}
}

// IngestText splits text under the given source identity and persists
// every chunk. Existing chunks of the source are removed first so a
// shrinking document leaves no stale tail behind; keys are deterministic,
// so re-ingesting unchanged content yields the same corpus.
//
// Context cancellation aborts the batch; any other per-chunk failure is
// logged, counted, and skipped.
func (p *Pipeline) IngestText(ctx context.Context, source, text string) (Summary, error) {
	summary := Summary{Source: source}

	if source == "" || strings.TrimSpace(text) == "" {
		return summary, fmt.Errorf("ingest: empty source or text: %w", rag.ErrInvalidInput)
	}
	// '#' separates source from index in chunk keys; a source containing
	// it would make keys of one document parse as another's, and a keyed
	// delete of the shorter name would take the longer one's chunks too.
	if strings.Contains(source, keySeparator) {
		return summary, fmt.Errorf("ingest: source %q contains reserved separator %q: %w",
			source, keySeparator, rag.ErrInvalidInput)
	}

	chunks := SplitText(text, p.size, p.overlap)
	if len(chunks) == 0 {
		return summary, fmt.Errorf("ingest: %q produced no chunks: %w", source, rag.ErrInvalidInput)
	}

	if _, err := p.store.DeleteSource(ctx, source); err != nil {
		return summary, fmt.Errorf("ingest: clearing stale chunks of %q: %w", source, err)
	}

	for i, chunkText := range chunks {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("ingest: %q aborted: %w", source, err)
		}

		key := ChunkKey(source, i)
		vector, err := p.embedder.Embed(ctx, chunkText)
		if err != nil {
			p.logger.Warn("embedding chunk failed, skipping", "key", key, "error", err)
			summary.Failed++
			continue
		}

		chunk := rag.Chunk{Key: key, Text: chunkText, Vector: vector}
		if err := p.store.Upsert(ctx, chunk); err != nil {
			p.logger.Warn("upserting chunk failed, skipping", "key", key, "error", err)
			summary.Failed++
			continue
		}

		summary.Succeeded++
	}

	p.logger.Info("ingested source",
		"source", source, "succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary, nil
}

// IngestFile ingests a single file, keyed by its base name.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (Summary, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's KB directory
	if err != nil {
		return Summary{Source: filepath.Base(path)}, fmt.Errorf("ingest: reading %q: %w", path, err)
	}
	return p.IngestText(ctx, filepath.Base(path), string(data))
}

// IngestDir walks root and ingests every supported file. Unsupported and
// unreadable files are skipped; the returned summaries cover the files
// that were attempted.
func (p *Pipeline) IngestDir(ctx context.Context, root string) ([]Summary, error) {
	var summaries []Summary

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !SupportedFile(path) {
			return nil
		}

		summary, ingestErr := p.IngestFile(ctx, path)
		if ingestErr != nil {
			p.logger.Warn("skipping file", "path", path, "error", ingestErr)
			return nil
		}
		summaries = append(summaries, summary)
		return nil
	})
	if err != nil {
		return summaries, fmt.Errorf("ingest: walking %q: %w", root, err)
	}

	return summaries, nil
}

// SupportedFile reports whether the path has a knowledge-base file
// extension.
func SupportedFile(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}
