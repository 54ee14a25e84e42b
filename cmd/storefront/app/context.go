package app

import (
	"context"
	"os/signal"
	"syscall"
)

// ContextWithSignals creates a context that is cancelled when the application
// receives an interrupt or termination signal.
func ContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// Context creates a new signal-aware context rooted at context.Background().
func Context() (context.Context, context.CancelFunc) {
	return ContextWithSignals(context.Background())
}
