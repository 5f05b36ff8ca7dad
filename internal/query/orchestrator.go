// Package query sequences retrieval and generation for a single
// question. Each question flows through an explicit state machine so
// partial failures are observable in isolation; no state is shared
// between questions.
package query

import (
	"context"
	"log/slog"

	"github.com/nagachetan/ai-rag-chatbot/internal/answer"
	"github.com/nagachetan/ai-rag-chatbot/internal/rag"
)

// State is the phase a question is in. Terminal states are Answered and
// Failed.
type State string

const (
	StateReceived   State = "received"
	StateRetrieving State = "retrieving"
	StateGenerating State = "generating"
	StateAnswered   State = "answered"
	StateFailed     State = "failed"
)

// Retriever finds chunks relevant to a question. Implemented by
// retrieve.Engine.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]rag.ScoredChunk, error)
}

// Generator produces an answer from a question and its context.
// Implemented by answer.Generator.
type Generator interface {
	Generate(ctx context.Context, question string, chunks []rag.Chunk) (answer.Result, error)
}

// Result is the terminal outcome of one question. In the Failed state
// Err carries the originating error kind unchanged; otherwise Answer and
// Provenance are set.
type Result struct {
	State      State
	Answer     string
	Provenance []string // chunk keys that grounded the answer, rank order
	Err        error
}

// Orchestrator runs the per-question pipeline. All dependencies are
// passed in at construction; it holds no cross-query state and is safe
// for concurrent use.
type Orchestrator struct {
	retriever Retriever
	generator Generator
	topK      int
	logger    *slog.Logger
}

// New creates an Orchestrator that retrieves topK chunks per question.
func New(retriever Retriever, generator Generator, topK int, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		retriever: retriever,
		generator: generator,
		topK:      topK,
		logger:    logger,
	}
}

// Ask answers one question. Zero retrieved chunks is not a failure:
// generation proceeds with empty context and the result carries no
// provenance. Any dependency error moves the question to Failed with the
// original error attached; there is no retry here.
func (o *Orchestrator) Ask(ctx context.Context, question string) Result {
	scored, err := o.retriever.Retrieve(ctx, question, o.topK)
	if err != nil {
		o.logger.Warn("retrieval failed", "state", StateRetrieving, "error", err)
		return Result{State: StateFailed, Err: err}
	}

	generated, err := o.generator.Generate(ctx, question, rag.Chunks(scored))
	if err != nil {
		o.logger.Warn("generation failed", "state", StateGenerating, "error", err)
		return Result{State: StateFailed, Err: err}
	}

	o.logger.Info("question answered",
		"retrieved", len(scored), "used", len(generated.Used))
	return Result{
		State:      StateAnswered,
		Answer:     generated.Text,
		Provenance: generated.Used,
	}
}
