package query

import (
	"context"
	"math"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/firebase/genkit/go/genkit"

	"github.com/nagachetan/ai-rag-chatbot/internal/answer"
	"github.com/nagachetan/ai-rag-chatbot/internal/embed"
	"github.com/nagachetan/ai-rag-chatbot/internal/ingest"
	"github.com/nagachetan/ai-rag-chatbot/internal/rag"
	"github.com/nagachetan/ai-rag-chatbot/internal/retrieve"
	"github.com/nagachetan/ai-rag-chatbot/internal/testutil"
)

// memoryStore is an in-memory stand-in for the pgvector store: cosine
// search ordered by similarity descending, key ascending on ties.
type memoryStore struct {
	chunks map[string]rag.Chunk
}

func newMemoryStore() *memoryStore {
	return &memoryStore{chunks: make(map[string]rag.Chunk)}
}

func (m *memoryStore) Upsert(_ context.Context, chunk rag.Chunk) error {
	m.chunks[chunk.Key] = chunk
	return nil
}

func (m *memoryStore) DeleteSource(_ context.Context, source string) (int64, error) {
	var n int64
	for key := range m.chunks {
		if strings.HasPrefix(key, source+"#") {
			delete(m.chunks, key)
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) Search(_ context.Context, vector []float32, k int) ([]rag.ScoredChunk, error) {
	scored := make([]rag.ScoredChunk, 0, len(m.chunks))
	for _, c := range m.chunks {
		scored = append(scored, rag.ScoredChunk{Chunk: c, Score: cosine(vector, c.Vector)})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.Key < scored[j].Chunk.Key
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// axisVector returns a dim-length unit vector along the given axis, with
// a small lean toward another axis so similarities are never exactly tied.
func axisVector(dim, axis int, lean int, leanWeight float32) []float32 {
	v := make([]float32, dim)
	v[axis] = 1
	if lean >= 0 {
		v[lean] = leanWeight
	}
	return v
}

// End-to-end over the real pipeline: ingest a two-chunk document, ask a
// question whose embedding sits nearest the second chunk, and verify the
// answer is grounded in it.
func TestAskEndToEnd(t *testing.T) {
	const dim = 8
	ctx := context.Background()
	logger := testutil.DiscardLogger()

	g := genkit.Init(ctx)
	if g == nil {
		t.Fatal("genkit.Init returned nil")
	}

	mockEmb := testutil.NewMockEmbedder(dim)
	aiEmbedder := mockEmb.RegisterEmbedder(g)
	llm := testutil.NewMockLLM("I don't know.")
	llm.RegisterModel(g)

	doc := "Q: What is the return window? A: Items can be returned within " +
		"30 days of delivery in original packaging. " +
		"Q: How long do refunds take? A: Refunds are issued to the original " +
		"payment method within 5 business days."
	parts := ingest.SplitText(doc, 120, 20)
	if len(parts) != 2 {
		t.Fatalf("document split into %d chunks, want 2", len(parts))
	}

	// First chunk on one axis, second on another; the question leans
	// toward the second.
	mockEmb.SetVector(parts[0], axisVector(dim, 0, -1, 0))
	mockEmb.SetVector(parts[1], axisVector(dim, 1, -1, 0))
	question := "How long do refunds take?"
	mockEmb.SetVector(question, axisVector(dim, 1, 0, 0.2))

	llm.AddResponse("refunds", "Refunds are issued within 5 business days.")

	gateway := embed.New(aiEmbedder, dim, time.Second)
	store := newMemoryStore()
	pipeline := ingest.New(gateway, store, 120, 20, logger)
	engine := retrieve.New(gateway, store, 2, 20, logger)
	generator := answer.New(g, "mock/test-model", 6000, 5*time.Second, logger)
	orchestrator := New(engine, generator, 2, logger)

	summary, err := pipeline.IngestText(ctx, "faq.md", doc)
	if err != nil {
		t.Fatalf("IngestText() = %v", err)
	}
	if summary.Succeeded != 2 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 2 succeeded", summary)
	}

	result := orchestrator.Ask(ctx, question)
	if result.State != StateAnswered {
		t.Fatalf("state = %s, err = %v", result.State, result.Err)
	}
	if result.Answer != "Refunds are issued within 5 business days." {
		t.Errorf("answer = %q", result.Answer)
	}
	if len(result.Provenance) != 2 {
		t.Fatalf("provenance = %v, want both chunks", result.Provenance)
	}
	if result.Provenance[0] != "faq.md#1" {
		t.Errorf("top provenance = %q, want faq.md#1 (refund chunk)", result.Provenance[0])
	}

	// The generation prompt must contain the refund chunk's text.
	calls := llm.Calls()
	if len(calls) != 1 {
		t.Fatalf("model called %d times, want 1", len(calls))
	}
	if !strings.Contains(calls[0].Prompt, parts[1]) {
		t.Errorf("prompt does not include the refund chunk:\n%s", calls[0].Prompt)
	}
	if !strings.Contains(calls[0].Prompt, question) {
		t.Errorf("prompt does not include the question:\n%s", calls[0].Prompt)
	}

	// With k=1 only the refund chunk is retrieved and cited.
	scored, err := engine.Retrieve(ctx, question, 1)
	if err != nil {
		t.Fatalf("Retrieve(k=1) = %v", err)
	}
	if len(scored) != 1 || scored[0].Chunk.Key != "faq.md#1" {
		t.Fatalf("Retrieve(k=1) = %v, want exactly faq.md#1", rag.Keys(scored))
	}

	narrow := New(engine, generator, 1, logger)
	result = narrow.Ask(ctx, question)
	if result.State != StateAnswered {
		t.Fatalf("k=1 state = %s, err = %v", result.State, result.Err)
	}
	if len(result.Provenance) != 1 || result.Provenance[0] != "faq.md#1" {
		t.Errorf("k=1 provenance = %v, want exactly [faq.md#1]", result.Provenance)
	}
}
