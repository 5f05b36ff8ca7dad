package rag

// Similarity metrics supported by the vector store. The metric chosen at
// configuration time must match the operator class the ANN index was
// built with.
const (
	MetricCosine = "cosine"
	MetricDot    = "dot"
)

// Chunk is a unit of retrievable knowledge: a passage of source text and
// its fixed-length embedding. The key is stable across re-ingestion of an
// unchanged source, so upserts replace rather than duplicate.
type Chunk struct {
	Key    string    // unique across the corpus, e.g. "faq.md#1"
	Text   string    // raw passage content, non-empty
	Vector []float32 // embedding of Text, exactly the configured dimension
}

// ScoredChunk is a search result: a chunk and its similarity to the query
// vector. Higher scores are more similar regardless of the configured
// metric.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}

// Keys returns the chunk keys of results in rank order. Used for
// provenance reporting.
func Keys(results []ScoredChunk) []string {
	keys := make([]string, len(results))
	for i, r := range results {
		keys[i] = r.Chunk.Key
	}
	return keys
}

// Chunks strips scores from results, preserving rank order.
func Chunks(results []ScoredChunk) []Chunk {
	chunks := make([]Chunk, len(results))
	for i, r := range results {
		chunks[i] = r.Chunk
	}
	return chunks
}
