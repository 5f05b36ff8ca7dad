package testutil

import (
	"log/slog"

	"github.com/nagachetan/ai-rag-chatbot/internal/log"
)

// DiscardLogger returns a slog.Logger that discards all output. Use it
// to keep test output quiet; components that take log.Logger accept it
// directly since that is an alias for *slog.Logger.
func DiscardLogger() *slog.Logger {
	return log.NewNop()
}
