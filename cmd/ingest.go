package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nagachetan/ai-rag-chatbot/internal/app"
	"github.com/nagachetan/ai-rag-chatbot/internal/config"
	"github.com/nagachetan/ai-rag-chatbot/internal/ingest"
)

// parseIngestArgs extracts the knowledge-base path and the --watch flag.
// Path defaults to the configured kb_path.
func parseIngestArgs(defaultPath string) (path string, watch bool, err error) {
	ingestFlags := flag.NewFlagSet("ingest", flag.ContinueOnError)
	ingestFlags.SetOutput(os.Stderr)
	ingestFlags.BoolVar(&watch, "watch", false, "Re-ingest files as they change")

	args := []string{}
	if len(os.Args) > 2 {
		args = os.Args[2:]
	}

	path = defaultPath
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		path = args[0]
		args = args[1:]
	}

	if err := ingestFlags.Parse(args); err != nil {
		return "", false, fmt.Errorf("parsing ingest flags: %w", err)
	}
	return path, watch, nil
}

// runIngest loads a file or directory into the knowledge base. With
// --watch it then blocks, re-ingesting files as they change, until
// interrupted.
func runIngest() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	path, watch, err := parseIngestArgs(cfg.KBPath)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("inspecting %q: %w", path, err)
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

	if info.IsDir() {
		summaries, err := a.Pipeline.IngestDir(ctx, path)
		if err != nil {
			return fmt.Errorf("ingesting directory %q: %w", path, err)
		}
		var ok, failed int
		for _, s := range summaries {
			ok += s.Succeeded
			failed += s.Failed
		}
		logger.Info("directory ingested",
			"path", path, "files", len(summaries), "chunks", ok, "failed", failed)
	} else {
		summary, err := a.Pipeline.IngestFile(ctx, path)
		if err != nil {
			return fmt.Errorf("ingesting file %q: %w", path, err)
		}
		logger.Info("file ingested",
			"path", path, "chunks", summary.Succeeded, "failed", summary.Failed)
	}

	if !watch {
		return nil
	}
	if !info.IsDir() {
		return fmt.Errorf("--watch requires a directory, got file %q", path)
	}

	watcher, err := ingest.NewWatcher(a.Pipeline, logger)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Watch(ctx, path); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watching %q: %w", path, err)
	}
	return nil
}
