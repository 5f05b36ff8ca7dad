package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nagachetan/ai-rag-chatbot/internal/rag"
)

// askResponse is the body of a successful answer.
type askResponse struct {
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	Chunks    []string `json:"chunks"`
	RequestID string   `json:"request_id"`
}

// errorResponse carries a kind-specific, non-leaking message. Raw
// internal error text never reaches the client.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON encodes v into a buffer before touching the wire, so an
// encoding failure can still produce a clean 500 instead of a torn body.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger.Error("encoding response failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Debug("writing response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, status int, message string) {
	writeJSON(w, logger, status, errorResponse{
		Error:     message,
		RequestID: RequestID(r.Context()),
	})
}

// statusForError maps an error kind to an HTTP status and a safe
// client-facing message.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, rag.ErrInvalidInput):
		return http.StatusBadRequest, "invalid question"
	case errors.Is(err, rag.ErrModelUnavailable):
		return http.StatusServiceUnavailable, "model backend unavailable"
	case errors.Is(err, rag.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage unavailable"
	case errors.Is(err, rag.ErrDimensionMismatch):
		return http.StatusInternalServerError, "internal error"
	case errors.Is(err, rag.ErrGenerationFailed):
		return http.StatusBadGateway, "answer generation failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
