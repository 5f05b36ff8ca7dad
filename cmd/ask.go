package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nagachetan/ai-rag-chatbot/internal/app"
	"github.com/nagachetan/ai-rag-chatbot/internal/config"
	"github.com/nagachetan/ai-rag-chatbot/internal/query"
)

// runAsk answers a single question and prints the result. Remaining
// arguments are joined into the question, so quoting is optional:
//
//	ragbot ask what is the refund policy
func runAsk() error {
	question := strings.TrimSpace(strings.Join(os.Args[2:], " "))
	if question == "" {
		return fmt.Errorf("usage: ragbot ask <question>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	result := a.Orchestrator.Ask(ctx, question)
	if result.State == query.StateFailed {
		return fmt.Errorf("answering question: %w", result.Err)
	}

	fmt.Println(result.Answer)
	if len(result.Provenance) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, key := range result.Provenance {
			fmt.Printf("  %s\n", key)
		}
	}
	return nil
}
