// Package app assembles the application: configuration, logging,
// tracing, database pool, Genkit, and the question pipeline. All
// dependencies are constructed here and passed down explicitly; there
// are no package-level singletons.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nagachetan/ai-rag-chatbot/internal/answer"
	"github.com/nagachetan/ai-rag-chatbot/internal/config"
	"github.com/nagachetan/ai-rag-chatbot/internal/embed"
	"github.com/nagachetan/ai-rag-chatbot/internal/ingest"
	"github.com/nagachetan/ai-rag-chatbot/internal/query"
	"github.com/nagachetan/ai-rag-chatbot/internal/retrieve"
	"github.com/nagachetan/ai-rag-chatbot/internal/store"
)

// App holds the initialized application components.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	Gateway      *embed.Gateway
	Store        *store.Store
	Pipeline     *ingest.Pipeline
	Engine       *retrieve.Engine
	Generator    *answer.Generator
	Orchestrator *query.Orchestrator

	// cleanups run in reverse registration order on Close.
	cleanups []func()
}

// Close releases all resources acquired during Setup. Safe to call on a
// partially initialized App.
func (a *App) Close() error {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
	return nil
}
