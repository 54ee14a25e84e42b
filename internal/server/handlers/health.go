package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/agentstation/storefront/internal/server/response"
)

// HandleHealth handles GET /health.
// @Summary Health check
// @Description Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Router /health [get].
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "storefront",
		"version": h.version,
	})
}

// HandleReady handles GET /ready.
// @Summary Readiness check
// @Description Readiness probe including database and stream status
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Failure 503 {object} response.Response{error=response.Error}
// @Router /ready [get].
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("Readiness check failed")
		response.ServiceUnavailable(w, "Database not available")
		return
	}

	data := map[string]any{
		"status":            "ready",
		"uptime":            time.Since(h.started).Round(time.Second).String(),
		"cache":             h.cache.GetStats(),
		"websocket_clients": h.wsHub.ClientCount(),
		"sse_clients":       h.sseBroadcaster.ClientCount(),
	}
	if h.syncer != nil {
		data["sync_running"] = h.syncer.Running()
		if last, ok := h.syncer.Last(); ok {
			data["last_sync_status"] = last.Status
		}
	}
	response.OK(w, data)
}
