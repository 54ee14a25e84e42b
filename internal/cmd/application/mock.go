package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/internal/account"
	"github.com/agentstation/storefront/internal/auth"
	"github.com/agentstation/storefront/internal/checkout"
	"github.com/agentstation/storefront/internal/metrics"
	"github.com/agentstation/storefront/internal/scheduler"
	"github.com/agentstation/storefront/internal/server"
	"github.com/agentstation/storefront/internal/store"
	isync "github.com/agentstation/storefront/internal/sync"
	"github.com/agentstation/storefront/pkg/errors"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value or a
// not-configured error.
type Mock struct {
	StoreFunc            func(ctx context.Context) (*store.Store, error)
	SyncerFunc           func(ctx context.Context) (*isync.Syncer, error)
	CheckoutFunc         func(ctx context.Context) (*checkout.Service, error)
	AccountsFunc         func(ctx context.Context) (*account.Service, error)
	TokensFunc           func() (*auth.TokenManager, error)
	MetricsFunc          func() *metrics.Metrics
	ServerConfigFunc     func() server.Config
	SchedulerOptionsFunc func() ([]scheduler.Option, bool)
	LoggerFunc           func() *zerolog.Logger
	OutputFormatFunc     func() string
	VersionFunc          func() string
}

func notConfigured(what string) error {
	return errors.NewConfigError("mock", what+" not configured", nil)
}

// Store returns a store using the mock function.
func (m *Mock) Store(ctx context.Context) (*store.Store, error) {
	if m.StoreFunc != nil {
		return m.StoreFunc(ctx)
	}
	return nil, notConfigured("store")
}

// Syncer returns a syncer using the mock function.
func (m *Mock) Syncer(ctx context.Context) (*isync.Syncer, error) {
	if m.SyncerFunc != nil {
		return m.SyncerFunc(ctx)
	}
	return nil, notConfigured("syncer")
}

// Checkout returns a checkout service using the mock function.
func (m *Mock) Checkout(ctx context.Context) (*checkout.Service, error) {
	if m.CheckoutFunc != nil {
		return m.CheckoutFunc(ctx)
	}
	return nil, notConfigured("checkout")
}

// Accounts returns an account service using the mock function.
func (m *Mock) Accounts(ctx context.Context) (*account.Service, error) {
	if m.AccountsFunc != nil {
		return m.AccountsFunc(ctx)
	}
	return nil, notConfigured("accounts")
}

// Tokens returns a token manager using the mock function.
func (m *Mock) Tokens() (*auth.TokenManager, error) {
	if m.TokensFunc != nil {
		return m.TokensFunc()
	}
	return nil, notConfigured("tokens")
}

// Metrics returns metrics using the mock function or nil.
func (m *Mock) Metrics() *metrics.Metrics {
	if m.MetricsFunc != nil {
		return m.MetricsFunc()
	}
	return nil
}

// ServerConfig returns server settings using the mock function or defaults.
func (m *Mock) ServerConfig() server.Config {
	if m.ServerConfigFunc != nil {
		return m.ServerConfigFunc()
	}
	return server.DefaultConfig()
}

// SchedulerOptions returns scheduler settings using the mock function, or
// reports scheduling as disabled.
func (m *Mock) SchedulerOptions() ([]scheduler.Option, bool) {
	if m.SchedulerOptionsFunc != nil {
		return m.SchedulerOptionsFunc()
	}
	return nil, false
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
