package handlers

import (
	"net/http"

	"github.com/google/uuid"

	ws "github.com/agentstation/storefront/internal/server/websocket"
	"github.com/agentstation/storefront/pkg/logging"
)

// HandleWebSocket handles WebSocket connections at /api/updates/ws.
// @Summary WebSocket updates
// @Description WebSocket connection for real-time device, sync and sale events
// @Tags updates
// @Success 101 "Switching Protocols"
// @Router /api/updates/ws [get].
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.FromContext(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(uuid.NewString(), h.wsHub, conn)
	if !h.wsHub.Register(client) {
		_ = conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// HandleSSE handles Server-Sent Events at /api/updates/stream.
// @Summary SSE updates stream
// @Description Server-Sent Events stream of device, sync and sale events
// @Tags updates
// @Produce text/event-stream
// @Success 200 "Event stream"
// @Router /api/updates/stream [get].
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.sseBroadcaster.ServeHTTP(w, r)
}
