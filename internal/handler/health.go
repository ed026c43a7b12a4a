package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/opuluxe-ai/fashion-assistant/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	backend string
	pinger  store.Pinger
}

// NewHealthHandler creates a new health handler. A nil pinger means the
// store is in-process and always ready.
func NewHealthHandler(backend string, pinger store.Pinger) *HealthHandler {
	return &HealthHandler{backend: backend, pinger: pinger}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.pinger.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"store":  h.backend,
				"reason": err.Error(),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"store":  h.backend,
	})
}
