package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey int

const (
	loggerKey contextKey = iota
	requestIDKey
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// Ctx is a shorter alias for FromContext.
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// WithRequestID adds a request ID to the context and its logger.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return WithField(ctx, "request_id", requestID)
}

// RequestID extracts the request ID from context.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithFields adds structured fields to the logger in the context.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	logCtx := FromContext(ctx).With()
	for key, value := range fields {
		logCtx = addField(logCtx, key, value)
	}
	logger := logCtx.Logger()
	return WithLogger(ctx, &logger)
}

// WithField adds a single field to the logger in the context.
func WithField(ctx context.Context, key string, value any) context.Context {
	logger := addField(FromContext(ctx).With(), key, value).Logger()
	return WithLogger(ctx, &logger)
}

// WithSyncRun tags every entry of one sync cycle with its run ID.
func WithSyncRun(ctx context.Context, runID string) context.Context {
	return WithField(ctx, "sync_run", runID)
}

// WithDevice adds device context to the logger.
func WithDevice(ctx context.Context, deviceID int64) context.Context {
	return WithField(ctx, "device_id", deviceID)
}

// WithSale adds sale context to the logger.
func WithSale(ctx context.Context, saleID int64) context.Context {
	return WithField(ctx, "sale_id", saleID)
}

// WithUser adds the acting login to the logger.
func WithUser(ctx context.Context, login string) context.Context {
	return WithField(ctx, "login", login)
}

// WithOperation adds operation context to the logger.
func WithOperation(ctx context.Context, operation string) context.Context {
	return WithField(ctx, "operation", operation)
}
