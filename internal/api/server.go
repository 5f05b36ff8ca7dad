// Package api exposes the answer service over HTTP: POST /api/v1/ask
// plus health and readiness probes. It owns transport concerns only;
// pipeline semantics live in the query package.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nagachetan/ai-rag-chatbot/internal/query"
)

// maxQuestionBytes bounds the request body so oversized payloads fail
// fast instead of being embedded.
const maxQuestionBytes = 16 << 10

// Asker answers one question. Implemented by query.Orchestrator.
type Asker interface {
	Ask(ctx context.Context, question string) query.Result
}

// ServerConfig contains the dependencies for a Server.
type ServerConfig struct {
	Logger       *slog.Logger
	Asker        Asker        // required
	ModelChecker ModelChecker // required
	Pinger       Pinger       // required
	RateBurst    int          // per-IP burst; <= 0 disables limiting
}

// Server is the HTTP front of the answer service.
type Server struct {
	handler http.Handler
	logger  *slog.Logger
	asker   Asker
}

// NewServer wires routes and middleware. Probe endpoints stay outside
// the rate limiter so orchestration traffic cannot starve them.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Asker == nil {
		return nil, errors.New("Asker is required")
	}
	if cfg.ModelChecker == nil {
		return nil, errors.New("ModelChecker is required")
	}
	if cfg.Pinger == nil {
		return nil, errors.New("Pinger is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{logger: logger, asker: cfg.Asker}

	mux := http.NewServeMux()
	mux.Handle("GET /health", &healthHandler{checker: cfg.ModelChecker, logger: logger})
	mux.Handle("GET /ready", &readyHandler{pinger: cfg.Pinger, logger: logger})

	ask := http.HandlerFunc(s.handleAsk)
	mux.Handle("POST /api/v1/ask", withRateLimit(cfg.RateBurst, logger)(ask))

	var handler http.Handler = mux
	handler = withLogging(logger)(handler)
	handler = withRequestID(handler)
	handler = withRecovery(logger)(handler)
	s.handler = handler

	return s, nil
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQuestionBytes))
	if err := decoder.Decode(&req); err != nil {
		writeError(w, s.logger, r, http.StatusBadRequest, "invalid request body")
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, s.logger, r, http.StatusBadRequest, "missing question")
		return
	}

	result := s.asker.Ask(r.Context(), question)
	if result.State == query.StateFailed {
		status, message := statusForError(result.Err)
		s.logger.Error("question failed",
			"status", status,
			"error", result.Err,
			"request_id", RequestID(r.Context()),
		)
		writeError(w, s.logger, r, status, message)
		return
	}

	chunks := result.Provenance
	if chunks == nil {
		chunks = []string{}
	}
	writeJSON(w, s.logger, http.StatusOK, askResponse{
		Question:  question,
		Answer:    result.Answer,
		Chunks:    chunks,
		RequestID: RequestID(r.Context()),
	})
}
