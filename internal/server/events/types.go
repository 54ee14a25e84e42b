// Package events provides a unified event system for real-time storefront
// updates.
//
// The broker connects the sync hooks, the sync observers and the sale
// workflow to multiple transports (WebSocket, SSE) through a single event
// pipeline.
package events

import "time"

// EventType represents the type of storefront event.
type EventType string

// Event types published by the server.
const (
	// Device events (from sync hooks).
	DeviceAdded   EventType = "device.added"
	DeviceUpdated EventType = "device.updated"

	// Sync events (from sync observers).
	SyncStarted   EventType = "sync.started"
	SyncCompleted EventType = "sync.completed"
	SyncFailed    EventType = "sync.failed"

	// Sale events (from the checkout workflow).
	SalePlaced EventType = "sale.placed"

	// Client events (from transport layers).
	ClientConnected EventType = "client.connected"
)

// Event represents a storefront event with type, timestamp, and data.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}
