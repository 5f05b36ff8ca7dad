package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nagachetan/ai-rag-chatbot/db"
	"github.com/nagachetan/ai-rag-chatbot/internal/answer"
	"github.com/nagachetan/ai-rag-chatbot/internal/config"
	"github.com/nagachetan/ai-rag-chatbot/internal/embed"
	"github.com/nagachetan/ai-rag-chatbot/internal/ingest"
	"github.com/nagachetan/ai-rag-chatbot/internal/observability"
	"github.com/nagachetan/ai-rag-chatbot/internal/query"
	"github.com/nagachetan/ai-rag-chatbot/internal/retrieve"
	"github.com/nagachetan/ai-rag-chatbot/internal/store"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.cleanups = append(a.cleanups, provideOtelShutdown(ctx, cfg))

	pool, dbCleanup, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.cleanups = append(a.cleanups, dbCleanup)
	a.DBPool = pool

	g, err := provideGenkit(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	a.Store, err = store.New(pool, cfg.EmbeddingDimension, cfg.SimilarityMetric, logger)
	if err != nil {
		return nil, fmt.Errorf("creating chunk store: %w", err)
	}
	if err := a.Store.VerifyDimension(ctx); err != nil {
		return nil, fmt.Errorf("checking schema dimension: %w", err)
	}

	a.Gateway = embed.New(embedder, cfg.EmbeddingDimension, cfg.CallTimeout())
	a.Pipeline = ingest.New(a.Gateway, a.Store, cfg.ChunkSize, cfg.ChunkOverlap, logger)
	a.Engine = retrieve.New(a.Gateway, a.Store, cfg.TopK, cfg.MaxTopK, logger)
	a.Generator = answer.New(g, modelRef(cfg), cfg.ContextBudget, cfg.CallTimeout(), logger)
	a.Orchestrator = query.New(a.Engine, a.Generator, cfg.TopK, logger)

	return a, nil
}

// modelRef returns the registry name of the configured generation model.
func modelRef(cfg *config.Config) string {
	switch cfg.Provider {
	case config.ProviderGemini:
		return "googleai/" + cfg.ModelName
	default:
		return "ollama/" + cfg.ModelName
	}
}

// provideOtelShutdown sets up OTLP trace export before Genkit
// initialization, so the TracerProvider is ready when Genkit creates
// its first span.
func provideOtelShutdown(ctx context.Context, cfg *config.Config) func() {
	shutdown, err := observability.Setup(ctx, observability.Config{
		AgentHost:   cfg.Otel.AgentHost,
		Environment: cfg.Otel.Environment,
		ServiceName: cfg.Otel.ServiceName,
	})
	if err != nil || shutdown == nil {
		slog.Warn("trace export setup failed, tracing disabled", "error", err)
		return func() {}
	}

	//nolint:contextcheck // Independent context: shutdown runs during teardown when parent is canceled
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideGenkit initializes Genkit with the configured AI provider.
// Supports ollama (default) and gemini providers.
func provideGenkit(ctx context.Context, cfg *config.Config) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderGemini:
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		slog.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)

	default: // "ollama"
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery)
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		// Register embedder for retrieval
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		slog.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the AI provider plugin.
// Each provider registers embedders differently:
//   - ollama: registered in provideGenkit, keyed by server address
//   - gemini: GoogleAIEmbedder(g, modelName)
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderGemini:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	default: // "ollama"
		return ollama.Embedder(g, cfg.OllamaHost)
	}
}

// provideDBPool creates a PostgreSQL connection pool and runs migrations.
// Pool is configured with sensible defaults for connection management.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	cleanup := func() {
		pool.Close()
	}

	return pool, cleanup, nil
}
