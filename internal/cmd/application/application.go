// Package application provides the application interface for storefront
// commands.
//
// Commands accept Application rather than the concrete App so they can be
// tested against a Mock:
//
//	mock := &application.Mock{
//	    StoreFunc: func(context.Context) (*store.Store, error) {
//	        return testStore, nil
//	    },
//	}
//	cmd := devices.NewCommand(mock)
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
)

// Application provides what commands need. Service accessors build their
// dependency graph lazily on first use and return the same instance after.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Store returns the opened and migrated database.
	Store(ctx context.Context) (*store.Store, error)

	// Syncer returns the catalog syncer wired to the upstream client.
	Syncer(ctx context.Context) (*isync.Syncer, error)

	// Checkout returns the sale placement service.
	Checkout(ctx context.Context) (*checkout.Service, error)

	// Accounts returns the account service.
	Accounts(ctx context.Context) (*account.Service, error)

	// Tokens returns the JWT manager.
	Tokens() (*auth.TokenManager, error)

	// Metrics returns the process metrics registry.
	Metrics() *metrics.Metrics

	// ServerConfig returns the HTTP server configuration.
	ServerConfig() server.Config

	// SchedulerOptions returns the sync scheduler settings, and false when
	// scheduled sync is disabled.
	SchedulerOptions() ([]scheduler.Option, bool)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
