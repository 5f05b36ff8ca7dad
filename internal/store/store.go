// Package store persists knowledge chunks and their embeddings in
// PostgreSQL with pgvector, and serves nearest-neighbour queries over
// them.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/nagachetan/ai-rag-chatbot/internal/rag"
)

// DB is the subset of pgxpool.Pool the store needs. Defined here, on the
// consumer side, so tests can substitute a mock without a live database.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store manages the chunks table. It is safe for concurrent use; all
// state lives in PostgreSQL.
type Store struct {
	db        DB
	dimension int
	metric    string
	logger    *slog.Logger
}

// New creates a Store. dimension must match the vector column width of
// the chunks table; metric selects the distance operator for Search and
// must match the metric the ANN index was built with.
func New(db DB, dimension int, metric string, logger *slog.Logger) (*Store, error) {
	switch metric {
	case rag.MetricCosine, rag.MetricDot:
	default:
		return nil, fmt.Errorf("store: unsupported metric %q: %w", metric, rag.ErrInvalidInput)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:        db,
		dimension: dimension,
		metric:    metric,
		logger:    logger,
	}, nil
}

// Upsert inserts a chunk or replaces the existing row with the same key.
// Re-ingesting unchanged content is therefore idempotent: the row count
// stays constant and only updated_at moves.
//
// The vector length is checked client-side before any round trip; a
// mismatch returns rag.ErrDimensionMismatch. Database failures return
// rag.ErrStorageUnavailable.
func (s *Store) Upsert(ctx context.Context, chunk rag.Chunk) error {
	if chunk.Key == "" || strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("store: empty key or text: %w", rag.ErrInvalidInput)
	}
	if len(chunk.Vector) != s.dimension {
		return fmt.Errorf("store: chunk %q has %d values, want %d: %w",
			chunk.Key, len(chunk.Vector), s.dimension, rag.ErrDimensionMismatch)
	}

	const query = `
		INSERT INTO chunks (key, content, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET content = EXCLUDED.content,
		    embedding = EXCLUDED.embedding,
		    updated_at = now()`

	vec := pgvector.NewVector(chunk.Vector)
	if _, err := s.db.Exec(ctx, query, chunk.Key, chunk.Text, vec); err != nil {
		return fmt.Errorf("store: upsert %q: %w", chunk.Key, errors.Join(rag.ErrStorageUnavailable, err))
	}

	s.logger.Debug("upserted chunk", "key", chunk.Key, "content_length", len(chunk.Text))
	return nil
}

// Search returns up to k chunks nearest to the query vector, most
// similar first. Scores are normalised so that higher is always more
// similar regardless of the configured metric. Equal distances are
// broken by key order, so repeated searches return identical rankings.
// An empty corpus yields an empty slice, not an error.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]rag.ScoredChunk, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("store: query vector has %d values, want %d: %w",
			len(vector), s.dimension, rag.ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, fmt.Errorf("store: non-positive limit %d: %w", k, rag.ErrInvalidInput)
	}

	// pgvector operators return distances; similarity is recovered per
	// metric below. ORDER BY must use the raw operator expression so the
	// ANN index is eligible.
	var query string
	switch s.metric {
	case rag.MetricCosine:
		query = `
			SELECT key, content, embedding, (embedding <=> $1) AS distance
			FROM chunks
			ORDER BY embedding <=> $1 ASC, key ASC
			LIMIT $2`
	case rag.MetricDot:
		query = `
			SELECT key, content, embedding, (embedding <#> $1) AS distance
			FROM chunks
			ORDER BY embedding <#> $1 ASC, key ASC
			LIMIT $2`
	}

	vec := pgvector.NewVector(vector)
	rows, err := s.db.Query(ctx, query, vec, k)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", errors.Join(rag.ErrStorageUnavailable, err))
	}
	defer rows.Close()

	results := make([]rag.ScoredChunk, 0, k)
	for rows.Next() {
		var (
			key      string
			content  string
			emb      pgvector.Vector
			distance float64
		)
		if err := rows.Scan(&key, &content, &emb, &distance); err != nil {
			return nil, fmt.Errorf("store: scanning result row: %w", errors.Join(rag.ErrStorageUnavailable, err))
		}
		results = append(results, rag.ScoredChunk{
			Chunk: rag.Chunk{Key: key, Text: content, Vector: emb.Slice()},
			Score: similarityFromDistance(s.metric, float32(distance)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: reading results: %w", errors.Join(rag.ErrStorageUnavailable, err))
	}

	return results, nil
}

// VerifyDimension checks that the embedding column of the chunks table
// was created with the configured dimension. The migration fixes the
// column width; run this at startup so a configuration change after
// migration fails fast instead of on the first upsert.
func (s *Store) VerifyDimension(ctx context.Context) error {
	// pgvector stores the declared dimension directly in atttypmod.
	const query = `
		SELECT atttypmod
		FROM pg_attribute
		WHERE attrelid = 'chunks'::regclass AND attname = 'embedding'`

	var width int
	if err := s.db.QueryRow(ctx, query).Scan(&width); err != nil {
		return fmt.Errorf("store: reading embedding column width: %w", errors.Join(rag.ErrStorageUnavailable, err))
	}
	if width != s.dimension {
		return fmt.Errorf("store: chunks table holds %d-dimension vectors, configured dimension is %d: %w",
			width, s.dimension, rag.ErrDimensionMismatch)
	}
	return nil
}

// Count returns the number of chunks in the corpus.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM chunks`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("store: count: %w", errors.Join(rag.ErrStorageUnavailable, err))
	}
	return count, nil
}

// Delete removes a single chunk. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("store: empty key: %w", rag.ErrInvalidInput)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM chunks WHERE key = $1`, key); err != nil {
		return fmt.Errorf("store: delete %q: %w", key, errors.Join(rag.ErrStorageUnavailable, err))
	}
	s.logger.Debug("deleted chunk", "key", key)
	return nil
}

// DeleteSource removes every chunk keyed under the given source, i.e.
// all keys of the form "source#N". Used before re-ingesting a source so
// stale tail chunks do not survive a shrinking document.
func (s *Store) DeleteSource(ctx context.Context, source string) (int64, error) {
	if source == "" {
		return 0, fmt.Errorf("store: empty source: %w", rag.ErrInvalidInput)
	}

	pattern := likeEscape(source) + `#%`
	tag, err := s.db.Exec(ctx, `DELETE FROM chunks WHERE key LIKE $1 ESCAPE '\'`, pattern)
	if err != nil {
		return 0, fmt.Errorf("store: delete source %q: %w", source, errors.Join(rag.ErrStorageUnavailable, err))
	}

	removed := tag.RowsAffected()
	if removed > 0 {
		s.logger.Debug("deleted source chunks", "source", source, "count", removed)
	}
	return removed, nil
}

// similarityFromDistance converts a pgvector distance into a similarity
// where higher means closer. Cosine distance is 1-cos, inner-product
// distance is the negated dot product.
func similarityFromDistance(metric string, distance float32) float32 {
	switch metric {
	case rag.MetricCosine:
		return 1 - distance
	case rag.MetricDot:
		return -distance
	default:
		return -distance
	}
}

// likeEscape escapes LIKE metacharacters so a source name is matched
// literally inside the pattern.
func likeEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
