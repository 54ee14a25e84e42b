// Package sse provides Server-Sent Events support for real-time updates.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// heartbeatInterval keeps idle connections open through proxies.
const heartbeatInterval = 30 * time.Second

// Broadcaster manages Server-Sent Events connections.
type Broadcaster struct {
	clients    map[chan Event]bool
	newClients chan chan Event
	closed     chan chan Event
	events     chan Event
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zerolog.Logger
	heartbeat  time.Duration
}

// NewBroadcaster creates a new SSE broadcaster.
func NewBroadcaster(logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		clients:    make(map[chan Event]bool),
		newClients: make(chan chan Event, 10),
		closed:     make(chan chan Event, 10),
		events:     make(chan Event, 256),
		done:       make(chan struct{}),
		logger:     logger,
		heartbeat:  heartbeatInterval,
	}
}

// Run starts the broadcaster's main loop. Should be called in a goroutine.
// The broadcaster will run until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for client := range b.clients {
				close(client)
			}
			b.clients = make(map[chan Event]bool)
			b.mu.Unlock()
			b.logger.Info().Msg("SSE broadcaster shut down")
			return

		case client := <-b.newClients:
			b.mu.Lock()
			b.clients[client] = true
			total := len(b.clients)
			b.mu.Unlock()
			b.logger.Debug().
				Int("total_clients", total).
				Msg("SSE client connected")

		case client := <-b.closed:
			b.mu.Lock()
			if b.clients[client] {
				delete(b.clients, client)
				close(client)
			}
			total := len(b.clients)
			b.mu.Unlock()
			b.logger.Debug().
				Int("total_clients", total).
				Msg("SSE client disconnected")

		case event := <-b.events:
			b.mu.RLock()
			for client := range b.clients {
				select {
				case client <- event:
				default:
					b.logger.Warn().Str("event", event.Event).Msg("SSE client buffer full, event skipped")
				}
			}
			b.mu.RUnlock()
		}
	}
}

// Broadcast sends an event to all connected SSE clients.
func (b *Broadcaster) Broadcast(event Event) {
	select {
	case b.events <- event:
	default:
		b.logger.Warn().Msg("SSE broadcast channel full, event dropped")
	}
}

// ClientCount returns the number of connected SSE clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ServeHTTP streams events to one client until it disconnects or the
// broadcaster stops.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := make(chan Event, 64)
	select {
	case b.newClients <- client:
	case <-b.done:
		http.Error(w, "Event stream closed", http.StatusServiceUnavailable)
		return
	}
	defer func() {
		select {
		case b.closed <- client:
		case <-b.done:
		}
	}()

	b.writeEvent(w, flusher, Event{
		Event: "connected",
		Data: map[string]any{
			"message":   "Connected to storefront updates stream",
			"timestamp": time.Now().UTC(),
		},
	})

	ticker := time.NewTicker(b.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-client:
			if !ok {
				return
			}
			b.writeEvent(w, flusher, event)

		case <-ticker.C:
			_, _ = fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// writeEvent writes an SSE event to the response writer.
func (b *Broadcaster) writeEvent(w http.ResponseWriter, flusher http.Flusher, event Event) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		b.logger.Error().Err(err).Str("event", event.Event).Msg("Failed to marshal SSE event data")
		return
	}

	if event.Event != "" {
		_, _ = fmt.Fprintf(w, "event: %s\n", event.Event)
	}
	if event.ID != "" {
		_, _ = fmt.Fprintf(w, "id: %s\n", event.ID)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

// Event represents an SSE event.
type Event struct {
	Event string `json:"event,omitempty"` // Event type (optional)
	ID    string `json:"id,omitempty"`    // Event ID (optional)
	Data  any    `json:"data"`            // Event data
}
