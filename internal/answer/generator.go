// Package answer turns a question plus retrieved context into a grounded
// natural-language answer via the generation model.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/nagachetan/ai-rag-chatbot/internal/rag"
)

// kbPromptFrame instructs the model to answer strictly from the supplied
// facts.
const kbPromptFrame = `Answer the question using ONLY the facts below.

Facts:
%s

Question:
%s

Rules:
- Combine facts naturally
- If the question contradicts the facts, say so
- If info is missing, say "not mentioned"
- Do NOT invent new facts

Answer concisely in 1-2 sentences:`

// fallbackPromptFrame is used when retrieval produced no context, so the
// answer explicitly signals its lack of grounding.
const fallbackPromptFrame = `Answer the question based on general knowledge only.
Do NOT assume facts from a knowledge base if not present.

Question:
%s

Answer:`

// Result is a generated answer plus the keys of the chunks that made it
// into the prompt, for provenance.
type Result struct {
	Text string
	Used []string
}

// Generator assembles grounded prompts and calls the generation model.
// Safe for concurrent use.
type Generator struct {
	g         *genkit.Genkit
	modelName string
	budget    int // context budget in runes
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a Generator. budget bounds the assembled context block in
// characters; timeout bounds each model call (zero means no bound beyond
// the caller's context).
func New(g *genkit.Genkit, modelName string, budget int, timeout time.Duration, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		g:         g,
		modelName: modelName,
		budget:    budget,
		timeout:   timeout,
		logger:    logger,
	}
}

// Generate produces an answer to the question grounded in the given
// chunks. Chunks must arrive rank-ordered; those that do not fit the
// context budget are dropped from the end, never truncated mid-chunk.
// With no usable context the model is asked to answer from general
// knowledge and the result carries no provenance.
//
// Returns rag.ErrInvalidInput for a blank question,
// rag.ErrModelUnavailable when the backend is unreachable or times out,
// and rag.ErrGenerationFailed when the backend returns empty output.
func (gen *Generator) Generate(ctx context.Context, question string, chunks []rag.Chunk) (Result, error) {
	if strings.TrimSpace(question) == "" {
		return Result{}, fmt.Errorf("generate: empty question: %w", rag.ErrInvalidInput)
	}

	included := fitBudget(chunks, gen.budget)

	var prompt string
	if len(included) == 0 {
		prompt = fmt.Sprintf(fallbackPromptFrame, question)
	} else {
		prompt = fmt.Sprintf(kbPromptFrame, contextBlock(included), question)
	}

	if gen.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gen.timeout)
		defer cancel()
	}

	resp, err := genkit.Generate(ctx, gen.g,
		ai.WithModelName(gen.modelName),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return Result{}, fmt.Errorf("generate: model call: %w", errors.Join(rag.ErrModelUnavailable, err))
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return Result{}, fmt.Errorf("generate: model returned empty output: %w", rag.ErrGenerationFailed)
	}

	gen.logger.Debug("generated answer",
		"context_chunks", len(included), "answer_length", len(text))

	return Result{Text: text, Used: keysOf(included)}, nil
}

// fitBudget returns the longest rank-order prefix of chunks whose
// concatenated text (with separators) stays within budget runes. Chunks
// are always included whole or not at all.
func fitBudget(chunks []rag.Chunk, budget int) []rag.Chunk {
	var total int
	for i, c := range chunks {
		size := len([]rune(c.Text))
		if i > 0 {
			size++ // newline separator
		}
		if total+size > budget {
			return chunks[:i]
		}
		total += size
	}
	return chunks
}

func contextBlock(chunks []rag.Chunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, "\n")
}

func keysOf(chunks []rag.Chunk) []string {
	keys := make([]string, len(chunks))
	for i, c := range chunks {
		keys[i] = c.Key
	}
	return keys
}
