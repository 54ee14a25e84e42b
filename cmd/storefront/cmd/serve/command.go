// Package serve provides the command that runs the storefront HTTP API and
// the scheduled catalog sync.
package serve

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/internal/cmd/emoji"
	"github.com/agentstation/storefront/internal/scheduler"
	"github.com/agentstation/storefront/internal/server"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
	syncpkg "github.com/agentstation/storefront/pkg/sync"
)

// NewCommand creates the serve command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Start the REST API server and the scheduled catalog sync",
		Long: `Start the storefront REST API server.

Features:
  - CRUD endpoints for devices, features, customizations, options, add-ons and sales
  - JWT authentication with account registration, activation and password reset
  - Two-phase sale placement against the upstream service
  - Scheduled catalog sync, plus manual sync under /api/admin/sync
  - WebSocket (/api/updates/ws) and SSE (/api/updates/stream) change events
  - Prometheus metrics (/metrics) and health probes (/health, /ready)
  - Per-IP rate limiting, CORS and graceful shutdown`,
		Example: `  # Start on the configured address (default localhost:8080)
  storefront serve

  # Listen on all interfaces without scheduled sync
  storefront serve --host 0.0.0.0 --port 9000 --no-sync

  # Sync every five minutes and allow a browser client
  storefront serve --sync-interval 5m --cors-origins https://shop.example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := parseConfig(cmd, app.ServerConfig())
			if err != nil {
				return err
			}
			listener, err := net.Listen("tcp", cfg.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.Addr(), err)
			}
			return run(cmd.Context(), app, cfg, schedulerOptions(cmd, app), listener, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Int("port", 0, "Server port (overrides server.port)")
	cmd.Flags().String("host", "", "Bind address (overrides server.host)")
	cmd.Flags().String("prefix", "", "Path prefix every route is served under")
	cmd.Flags().StringSlice("cors-origins", nil, "Allowed CORS origins, enables CORS (comma-separated)")
	cmd.Flags().Int("rate-limit", 0, "Requests per minute per IP (negative disables)")
	cmd.Flags().Bool("no-metrics", false, "Disable the /metrics endpoint")
	cmd.Flags().Bool("no-sync", false, "Disable scheduled catalog sync")
	cmd.Flags().Duration("sync-interval", 0, "Interval between scheduled sync cycles (overrides sync.interval)")

	return cmd
}

// parseConfig applies the flags the user set on top of the configured server
// settings.
func parseConfig(cmd *cobra.Command, cfg server.Config) (server.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		port := mustGetInt(cmd, "port")
		if port < 1 || port > 65535 {
			return cfg, errors.NewValidationError("port", port, "port out of range")
		}
		cfg.Port = port
	}
	if flags.Changed("host") {
		cfg.Host = mustGetString(cmd, "host")
	}
	if flags.Changed("prefix") {
		cfg.PathPrefix = mustGetString(cmd, "prefix")
	}
	if flags.Changed("cors-origins") {
		cfg.CORSEnabled = true
		cfg.CORSOrigins = mustGetStringSlice(cmd, "cors-origins")
	}
	if flags.Changed("rate-limit") {
		cfg.RateLimit = max(mustGetInt(cmd, "rate-limit"), 0)
	}
	if mustGetBool(cmd, "no-metrics") {
		cfg.MetricsEnabled = false
	}
	return cfg, nil
}

// schedulerOptions returns the scheduler settings, or nil when scheduled sync
// is disabled by configuration or --no-sync.
func schedulerOptions(cmd *cobra.Command, app application.Application) []scheduler.Option {
	opts, enabled := app.SchedulerOptions()
	if !enabled || mustGetBool(cmd, "no-sync") {
		return nil
	}
	if cmd.Flags().Changed("sync-interval") {
		opts = append(opts, scheduler.WithInterval(mustGetDuration(cmd, "sync-interval")))
	}
	return opts
}

// run starts the API server on listener and, when schedOpts is non-nil, the
// sync scheduler. It blocks until ctx is cancelled or the listener fails.
func run(ctx context.Context, app application.Application, cfg server.Config, schedOpts []scheduler.Option, listener net.Listener, out io.Writer) error {
	logger := app.Logger()
	ctx = logging.WithLogger(ctx, logger)

	srv, err := newServer(ctx, app, cfg)
	if err != nil {
		_ = listener.Close()
		return err
	}
	srv.Start()

	var sched *scheduler.Handle
	if schedOpts != nil {
		sched, err = startScheduler(ctx, app, schedOpts)
		if err != nil {
			_ = listener.Close()
			_ = srv.Shutdown(context.Background())
			return err
		}
	} else {
		logger.Info().Msg("Scheduled sync disabled")
	}

	logger.Info().
		Str("addr", listener.Addr().String()).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Int("rate_limit", cfg.RateLimit).
		Dur("cache_ttl", cfg.CacheTTL).
		Bool("metrics", cfg.MetricsEnabled).
		Msg("Starting API server")

	return startWithGracefulShutdown(ctx, srv.HTTPServer(), listener, srv, sched, logger, out)
}

func newServer(ctx context.Context, app application.Application, cfg server.Config) (*server.Server, error) {
	st, err := app.Store(ctx)
	if err != nil {
		return nil, err
	}
	syncer, err := app.Syncer(ctx)
	if err != nil {
		return nil, err
	}
	co, err := app.Checkout(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := app.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	tokens, err := app.Tokens()
	if err != nil {
		return nil, err
	}

	srv, err := server.New(server.Deps{
		Store:    st,
		Syncer:   syncer,
		Checkout: co,
		Accounts: accounts,
		Tokens:   tokens,
		Metrics:  app.Metrics(),
		Logger:   app.Logger(),
		Version:  app.Version(),
	}, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	return srv, nil
}

// startScheduler runs the catalog sync on a schedule. Ticks that find a
// cycle already running, such as a manual sync, are counted as skipped.
// Failed ticks are logged by the scheduler and only counted here.
func startScheduler(ctx context.Context, app application.Application, opts []scheduler.Option) (*scheduler.Handle, error) {
	syncer, err := app.Syncer(ctx)
	if err != nil {
		return nil, err
	}
	m := app.Metrics()

	job := func(ctx context.Context) error {
		_, err := syncer.Run(ctx, syncpkg.WithTrigger(syncpkg.TriggerScheduled))
		return err
	}
	opts = append(opts,
		scheduler.WithErrorHandler(func(err error) {
			if m != nil {
				m.ScheduledSyncFailed(err)
			}
		}),
		scheduler.WithSkipHandler(func() {
			if m != nil {
				m.SyncSkipped()
			}
		}),
	)

	s, err := scheduler.New(job, opts...)
	if err != nil {
		return nil, err
	}
	return s.Start(ctx), nil
}

// startWithGracefulShutdown serves until the context is cancelled, then
// drains connections, stops the scheduler and the background services.
func startWithGracefulShutdown(ctx context.Context, httpServer *http.Server, listener net.Listener, srv *server.Server, sched *scheduler.Handle, logger *zerolog.Logger, out io.Writer) error {
	serverErr := make(chan error, 1)

	go func() {
		logger.Info().Str("addr", listener.Addr().String()).Msg("HTTP server listening")
		_, _ = fmt.Fprintf(out, "%s API server listening on %s\n", emoji.Launch, listener.Addr())
		_, _ = fmt.Fprintln(out, "   Press Ctrl+C to stop")

		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	var runErr error
	select {
	case runErr = <-serverErr:
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received via context")
		_, _ = fmt.Fprintf(out, "\n%s Shutting down API server...\n", emoji.Stop)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("server shutdown failed: %w", err)
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Scheduler did not stop cleanly")
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Background services shutdown had issues")
	}

	if runErr == nil {
		logger.Info().Msg("Server stopped gracefully")
	}
	return runErr
}

func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
