package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/nagachetan/ai-rag-chatbot/internal/rag"
	"github.com/nagachetan/ai-rag-chatbot/internal/testutil"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeSearcher struct {
	results []rag.ScoredChunk
	err     error
	lastK   int
}

func (f *fakeSearcher) Search(ctx context.Context, vector []float32, k int) ([]rag.ScoredChunk, error) {
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > k {
		return f.results[:k], nil
	}
	return f.results, nil
}

func newTestEngine(e Embedder, s Searcher) *Engine {
	return New(e, s, 5, 20, testutil.DiscardLogger())
}

func TestRetrieveClampsK(t *testing.T) {
	tests := []struct {
		name  string
		k     int
		wantK int
	}{
		{name: "zero falls back to default", k: 0, wantK: 5},
		{name: "negative falls back to default", k: -3, wantK: 5},
		{name: "within bounds unchanged", k: 7, wantK: 7},
		{name: "above maximum clamped", k: 100, wantK: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{}
			engine := newTestEngine(&fakeEmbedder{vector: []float32{1}}, searcher)

			if _, err := engine.Retrieve(context.Background(), "question", tt.k); err != nil {
				t.Fatalf("Retrieve() = %v", err)
			}
			if searcher.lastK != tt.wantK {
				t.Errorf("search k = %d, want %d", searcher.lastK, tt.wantK)
			}
		})
	}
}

func TestRetrievePropagatesEmbedderErrorKind(t *testing.T) {
	engine := newTestEngine(&fakeEmbedder{err: rag.ErrModelUnavailable}, &fakeSearcher{})

	_, err := engine.Retrieve(context.Background(), "question", 5)
	if !errors.Is(err, rag.ErrModelUnavailable) {
		t.Errorf("Retrieve() = %v, want ErrModelUnavailable to pass through", err)
	}
}

func TestRetrievePropagatesSearcherErrorKind(t *testing.T) {
	engine := newTestEngine(
		&fakeEmbedder{vector: []float32{1}},
		&fakeSearcher{err: rag.ErrStorageUnavailable},
	)

	_, err := engine.Retrieve(context.Background(), "question", 5)
	if !errors.Is(err, rag.ErrStorageUnavailable) {
		t.Errorf("Retrieve() = %v, want ErrStorageUnavailable to pass through", err)
	}
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	engine := newTestEngine(&fakeEmbedder{vector: []float32{1}}, &fakeSearcher{})

	results, err := engine.Retrieve(context.Background(), "question", 5)
	if err != nil {
		t.Fatalf("Retrieve() = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestRetrieveReturnsSearchOrder(t *testing.T) {
	results := []rag.ScoredChunk{
		{Chunk: rag.Chunk{Key: "a#0", Text: "first"}, Score: 0.9},
		{Chunk: rag.Chunk{Key: "b#0", Text: "second"}, Score: 0.5},
	}
	engine := newTestEngine(&fakeEmbedder{vector: []float32{1}}, &fakeSearcher{results: results})

	got, err := engine.Retrieve(context.Background(), "question", 2)
	if err != nil {
		t.Fatalf("Retrieve() = %v", err)
	}
	if len(got) != 2 || got[0].Chunk.Key != "a#0" || got[1].Chunk.Key != "b#0" {
		t.Errorf("results reordered: %+v", got)
	}
}
