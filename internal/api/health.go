package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// modelCheckTTL caches the model reachability probe so health polling
// does not hammer the backend.
const modelCheckTTL = 60 * time.Second

// ModelChecker probes whether the generation backend is reachable and
// serving the configured model.
type ModelChecker interface {
	CheckModel(ctx context.Context) error
}

// Pinger reports whether the database is reachable. Implemented by
// *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthHandler struct {
	checker ModelChecker
	logger  *slog.Logger

	mu        sync.Mutex
	lastCheck time.Time
	lastErr   error
}

type healthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

// ServeHTTP reports liveness plus cached model reachability. The process
// is alive either way, so the status code stays 200 unless the model
// check fails; degraded deployments report 503 so probes can alert.
func (h *healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.checkModel(r.Context())

	resp := healthResponse{Status: "ok", Model: "ok"}
	status := http.StatusOK
	if err != nil {
		resp.Status = "degraded"
		resp.Model = "unreachable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, h.logger, status, resp)
}

func (h *healthHandler) checkModel(ctx context.Context) error {
	h.mu.Lock()
	if time.Since(h.lastCheck) < modelCheckTTL {
		err := h.lastErr
		h.mu.Unlock()
		return err
	}
	h.mu.Unlock()

	err := h.checker.CheckModel(ctx)

	h.mu.Lock()
	h.lastCheck = time.Now()
	h.lastErr = err
	h.mu.Unlock()

	if err != nil {
		h.logger.Warn("model health check failed", "error", err)
	}
	return err
}

// readyHandler reports readiness: the service can serve queries only
// when its store is reachable.
type readyHandler struct {
	pinger Pinger
	logger *slog.Logger
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Warn("readiness probe failed", "error", err)
		writeJSON(w, h.logger, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ready"})
}
