// Package cmd provides the CLI commands for the answer service.
//
// Commands:
//   - serve: HTTP API server (POST /api/v1/ask plus probes)
//   - ingest: load a knowledge-base file or directory, optionally watching
//   - ask: answer one question from the terminal
//
// Signal handling and graceful shutdown are implemented for all
// long-running commands via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nagachetan/ai-rag-chatbot/internal/log"
)

// Execute is the main entry point for the ragbot CLI.
func Execute() error {
	// Initialize logger once at entry point
	slog.SetDefault(log.New(log.Config{Level: logLevel()}))

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "ingest":
		return runIngest()
	case "ask":
		return runAsk()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// logLevel maps the DEBUG environment variable to the minimum log
// level: set (any value) means debug, unset means info.
func logLevel() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("ragbot - knowledge-base answer service")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ragbot serve [addr]          Start HTTP API server (default: 127.0.0.1:8080)")
	fmt.Println("  ragbot ingest [path]         Ingest a file or directory (default: kb_path)")
	fmt.Println("  ragbot ingest --watch [path] Ingest, then re-ingest on changes")
	fmt.Println("  ragbot ask <question>        Answer one question and exit")
	fmt.Println("  ragbot --version             Show version information")
	fmt.Println("  ragbot --help                Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_URL             Optional: PostgreSQL connection URL")
	fmt.Println("  RAGBOT_PROVIDER          Optional: \"ollama\" (default) or \"gemini\"")
	fmt.Println("  RAGBOT_OLLAMA_HOST       Optional: Ollama server (default: http://localhost:11434)")
	fmt.Println("  GEMINI_API_KEY           Required for the gemini provider")
	fmt.Println("  DEBUG                    Optional: Enable debug logging")
}
