package embed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"

	"github.com/nagachetan/ai-rag-chatbot/internal/rag"
)

// fakeEmbedder implements ai.Embedder with deterministic vectors derived
// from the input text, so equal text always embeds equally.
type fakeEmbedder struct {
	dimension int
	err       error
	delay     time.Duration
}

func (f *fakeEmbedder) Name() string { return "fake/embedder" }

func (f *fakeEmbedder) Register(r api.Registry) {}

func (f *fakeEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}

	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		text := ""
		for _, part := range doc.Content {
			text += part.Text
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{
			Embedding: deterministicVector(text, f.dimension),
		})
	}
	return resp, nil
}

func deterministicVector(text string, dim int) []float32 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, dim)
	for i := range vec {
		bits := binary.BigEndian.Uint32(sum[(i*4)%28:])
		vec[i] = float32(bits%1000)/1000.0 + float32(i)
	}
	return vec
}

func TestEmbedRejectsEmptyInput(t *testing.T) {
	fake := &fakeEmbedder{dimension: 4}
	gw := New(fake, 4, time.Second)

	for _, text := range []string{"", "   ", "\n\t "} {
		if _, err := gw.Embed(context.Background(), text); !errors.Is(err, rag.ErrInvalidInput) {
			t.Errorf("Embed(%q) = %v, want ErrInvalidInput", text, err)
		}
	}
}

func TestEmbedReturnsConfiguredDimension(t *testing.T) {
	fake := &fakeEmbedder{dimension: 8}
	gw := New(fake, 8, time.Second)

	vec, err := gw.Embed(context.Background(), "what is the refund policy")
	if err != nil {
		t.Fatalf("Embed() = %v", err)
	}
	if len(vec) != 8 {
		t.Errorf("len(vec) = %d, want 8", len(vec))
	}
}

func TestEmbedDeterministic(t *testing.T) {
	fake := &fakeEmbedder{dimension: 8}
	gw := New(fake, 8, time.Second)

	a, err := gw.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatalf("Embed() = %v", err)
	}
	b, err := gw.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatalf("Embed() = %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestEmbedDimensionMismatch(t *testing.T) {
	// Backend answers with 16 values while the gateway expects 8.
	fake := &fakeEmbedder{dimension: 16}
	gw := New(fake, 8, time.Second)

	_, err := gw.Embed(context.Background(), "hello")
	if !errors.Is(err, rag.ErrDimensionMismatch) {
		t.Errorf("Embed() = %v, want ErrDimensionMismatch", err)
	}
}

func TestEmbedBackendFailure(t *testing.T) {
	cause := errors.New("connection refused")
	fake := &fakeEmbedder{dimension: 8, err: cause}
	gw := New(fake, 8, time.Second)

	_, err := gw.Embed(context.Background(), "hello")
	if !errors.Is(err, rag.ErrModelUnavailable) {
		t.Errorf("Embed() = %v, want ErrModelUnavailable", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Embed() = %v, want wrapped cause", err)
	}
}

func TestEmbedTimeout(t *testing.T) {
	fake := &fakeEmbedder{dimension: 8, delay: time.Second}
	gw := New(fake, 8, 10*time.Millisecond)

	_, err := gw.Embed(context.Background(), "hello")
	if !errors.Is(err, rag.ErrModelUnavailable) {
		t.Errorf("Embed() = %v, want ErrModelUnavailable on timeout", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Embed() = %v, want wrapped DeadlineExceeded", err)
	}
}
