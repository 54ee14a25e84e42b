package reconciler

import (
	"sync"

	"github.com/agentstation/storefront/pkg/catalog"
	"github.com/agentstation/storefront/pkg/logging"
)

// Hook function types for device events.
type (
	// DeviceAddedHook is called after a new device is stored.
	DeviceAddedHook func(device catalog.Device)

	// DeviceUpdatedHook is called after a stored device is overwritten.
	DeviceUpdatedHook func(old, new catalog.Device)
)

// Hooks holds the device event callbacks. It is safe for concurrent use.
type Hooks struct {
	mu              sync.RWMutex
	onDeviceAdded   []DeviceAddedHook
	onDeviceUpdated []DeviceUpdatedHook
}

// NewHooks creates an empty set of hooks.
func NewHooks() *Hooks {
	return &Hooks{}
}

// OnDeviceAdded registers a callback for added devices.
func (h *Hooks) OnDeviceAdded(fn DeviceAddedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDeviceAdded = append(h.onDeviceAdded, fn)
}

// OnDeviceUpdated registers a callback for updated devices.
func (h *Hooks) OnDeviceUpdated(fn DeviceUpdatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDeviceUpdated = append(h.onDeviceUpdated, fn)
}

func (h *Hooks) deviceAdded(device catalog.Device) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onDeviceAdded {
		safeCall(func() { fn(device) })
	}
}

func (h *Hooks) deviceUpdated(old, new catalog.Device) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onDeviceUpdated {
		safeCall(func() { fn(old, new) })
	}
}

// safeCall keeps a panicking hook from aborting the pass.
func safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Interface("panic", r).Msg("Device hook panicked")
		}
	}()
	fn()
}
