package query

import (
	"context"
	"errors"
	"testing"

	"github.com/nagachetan/ai-rag-chatbot/internal/answer"
	"github.com/nagachetan/ai-rag-chatbot/internal/rag"
	"github.com/nagachetan/ai-rag-chatbot/internal/testutil"
)

type fakeRetriever struct {
	results []rag.ScoredChunk
	err     error
	lastK   int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, question string, k int) ([]rag.ScoredChunk, error) {
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeGenerator struct {
	result     answer.Result
	err        error
	gotChunks  []rag.Chunk
	gotCalled  bool
	lastPrompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, question string, chunks []rag.Chunk) (answer.Result, error) {
	f.gotCalled = true
	f.gotChunks = chunks
	f.lastPrompt = question
	if f.err != nil {
		return answer.Result{}, f.err
	}
	return f.result, nil
}

func TestAskAnswered(t *testing.T) {
	retriever := &fakeRetriever{results: []rag.ScoredChunk{
		{Chunk: rag.Chunk{Key: "faq.md#1", Text: "refund facts"}, Score: 0.9},
	}}
	generator := &fakeGenerator{result: answer.Result{
		Text: "Refunds take 5 days.",
		Used: []string{"faq.md#1"},
	}}

	o := New(retriever, generator, 5, testutil.DiscardLogger())
	result := o.Ask(context.Background(), "What is the refund policy?")

	if result.State != StateAnswered {
		t.Fatalf("State = %q, want answered", result.State)
	}
	if result.Answer != "Refunds take 5 days." {
		t.Errorf("Answer = %q", result.Answer)
	}
	if len(result.Provenance) != 1 || result.Provenance[0] != "faq.md#1" {
		t.Errorf("Provenance = %v, want [faq.md#1]", result.Provenance)
	}
	if result.Err != nil {
		t.Errorf("Err = %v, want nil", result.Err)
	}
	if retriever.lastK != 5 {
		t.Errorf("retrieval k = %d, want 5", retriever.lastK)
	}
	if len(generator.gotChunks) != 1 || generator.gotChunks[0].Key != "faq.md#1" {
		t.Errorf("generator received %v", generator.gotChunks)
	}
}

func TestAskEmptyCorpusStillAnswers(t *testing.T) {
	retriever := &fakeRetriever{} // zero results
	generator := &fakeGenerator{result: answer.Result{Text: "I have no notes on that, but..."}}

	o := New(retriever, generator, 5, testutil.DiscardLogger())
	result := o.Ask(context.Background(), "anything")

	if result.State != StateAnswered {
		t.Fatalf("State = %q, want answered with empty corpus", result.State)
	}
	if len(result.Provenance) != 0 {
		t.Errorf("Provenance = %v, want empty", result.Provenance)
	}
	if !generator.gotCalled {
		t.Error("generation skipped on empty retrieval")
	}
	if len(generator.gotChunks) != 0 {
		t.Errorf("generator received chunks %v, want none", generator.gotChunks)
	}
}

func TestAskRetrievalFailure(t *testing.T) {
	retriever := &fakeRetriever{err: rag.ErrStorageUnavailable}
	generator := &fakeGenerator{}

	o := New(retriever, generator, 5, testutil.DiscardLogger())
	result := o.Ask(context.Background(), "question")

	if result.State != StateFailed {
		t.Fatalf("State = %q, want failed", result.State)
	}
	if !errors.Is(result.Err, rag.ErrStorageUnavailable) {
		t.Errorf("Err = %v, want ErrStorageUnavailable preserved", result.Err)
	}
	if generator.gotCalled {
		t.Error("generation ran after retrieval failure")
	}
}

func TestAskGenerationFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "model unreachable", err: rag.ErrModelUnavailable},
		{name: "empty output", err: rag.ErrGenerationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(&fakeRetriever{}, &fakeGenerator{err: tt.err}, 5, testutil.DiscardLogger())
			result := o.Ask(context.Background(), "question")

			if result.State != StateFailed {
				t.Fatalf("State = %q, want failed", result.State)
			}
			if !errors.Is(result.Err, tt.err) {
				t.Errorf("Err = %v, want %v preserved", result.Err, tt.err)
			}
		})
	}
}
