// Package app provides the application context and dependency management
// for the storefront CLI. It centralizes configuration, logging and the
// lazily built service graph shared by every command.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/internal/account"
	"github.com/agentstation/storefront/internal/auth"
	"github.com/agentstation/storefront/internal/checkout"
	"github.com/agentstation/storefront/internal/metrics"
	"github.com/agentstation/storefront/internal/scheduler"
	"github.com/agentstation/storefront/internal/server"
	"github.com/agentstation/storefront/internal/store"
	isync "github.com/agentstation/storefront/internal/sync"
	"github.com/agentstation/storefront/internal/token"
	"github.com/agentstation/storefront/internal/transport"
	"github.com/agentstation/storefront/internal/upstream"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// App represents the storefront application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config     *Config
	configFile string // --config
	logger     *zerolog.Logger

	// Lazily built services, guarded by mu.
	mu       sync.Mutex
	store    *store.Store
	upstream *upstream.Client
	syncer   *isync.Syncer
	checkout *checkout.Service
	accounts *account.Service
	tokens   *auth.TokenManager
	metrics  *metrics.Metrics
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = config
	app.setLogger(NewLogger(config))

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the --format value.
func (a *App) OutputFormat() string { return a.config.Format }

// ServerConfig returns the HTTP server configuration.
func (a *App) ServerConfig() server.Config { return a.config.Server }

func (a *App) setLogger(logger zerolog.Logger) {
	a.logger = &logger
	logging.SetDefault(logger)
}

// Store returns the database, opening and migrating it on first use.
func (a *App) Store(ctx context.Context) (*store.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.storeLocked(ctx)
}

func (a *App) storeLocked(ctx context.Context) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	st, err := store.Open(ctx, a.config.Database)
	if err != nil {
		return nil, errors.WrapStore("open", "database", a.config.Database.Path, err)
	}
	a.logger.Debug().Str("path", a.config.Database.Path).Msg("Database opened")
	a.store = st
	return st, nil
}

func (a *App) upstreamLocked() (*upstream.Client, error) {
	if a.upstream != nil {
		return a.upstream, nil
	}
	client, err := upstream.New(a.config.Upstream, transport.WithUserAgent("storefront/"+a.version))
	if err != nil {
		return nil, errors.WrapConfig("upstream", "creating client for "+a.config.Upstream.BaseURL, err)
	}
	a.upstream = client
	return client, nil
}

func (a *App) upstreamToken() token.Source {
	return token.NewFile(a.config.Upstream.TokenFile)
}

// Syncer returns the catalog syncer wired to the upstream client.
func (a *App) Syncer(ctx context.Context) (*isync.Syncer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.syncer != nil {
		return a.syncer, nil
	}
	st, err := a.storeLocked(ctx)
	if err != nil {
		return nil, err
	}
	client, err := a.upstreamLocked()
	if err != nil {
		return nil, err
	}
	syncer, err := isync.New(a.upstreamToken(), client, st.Devices)
	if err != nil {
		return nil, errors.WrapConfig("sync", "creating syncer", err)
	}
	a.syncer = syncer
	return syncer, nil
}

// Checkout returns the sale placement service.
func (a *App) Checkout(ctx context.Context) (*checkout.Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.checkout != nil {
		return a.checkout, nil
	}
	st, err := a.storeLocked(ctx)
	if err != nil {
		return nil, err
	}
	client, err := a.upstreamLocked()
	if err != nil {
		return nil, err
	}
	a.checkout = checkout.New(a.upstreamToken(), client, st.Sales, st.Users)
	return a.checkout, nil
}

// Accounts returns the account service.
func (a *App) Accounts(ctx context.Context) (*account.Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accounts != nil {
		return a.accounts, nil
	}
	st, err := a.storeLocked(ctx)
	if err != nil {
		return nil, err
	}
	tm, err := a.tokensLocked()
	if err != nil {
		return nil, err
	}
	a.accounts = account.New(st.Users, tm, auth.NewPasswordHasher(0), nil)
	return a.accounts, nil
}

// Tokens returns the JWT manager.
func (a *App) Tokens() (*auth.TokenManager, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tokensLocked()
}

func (a *App) tokensLocked() (*auth.TokenManager, error) {
	if a.tokens != nil {
		return a.tokens, nil
	}
	tm, err := auth.NewTokenManager(a.config.JWT)
	if err != nil {
		return nil, errors.WrapConfig("jwt", "set jwt.secret or STOREFRONT_JWT_SECRET", err)
	}
	a.tokens = tm
	return tm, nil
}

// Metrics returns the process metrics registry.
func (a *App) Metrics() *metrics.Metrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.metrics == nil {
		a.metrics = metrics.New()
	}
	return a.metrics
}

// SchedulerOptions returns the sync scheduler settings, and false when
// scheduled sync is disabled.
func (a *App) SchedulerOptions() ([]scheduler.Option, bool) {
	cfg := a.config.Sync
	if !cfg.Enabled {
		return nil, false
	}
	return []scheduler.Option{
		scheduler.WithName("catalog-sync"),
		scheduler.WithInterval(cfg.Interval),
		scheduler.WithRunTimeout(cfg.RunTimeout),
	}, true
}

// Shutdown releases the resources the app opened.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to close database during shutdown")
		return errors.WrapStore("close", "database", a.config.Database.Path, err)
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStore sets an already opened store (useful for testing).
func WithStore(st *store.Store) Option {
	return func(a *App) error {
		a.store = st
		return nil
	}
}
