// Package server provides the HTTP server for the storefront API.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/internal/account"
	"github.com/agentstation/storefront/internal/checkout"
	"github.com/agentstation/storefront/internal/metrics"
	"github.com/agentstation/storefront/internal/server/cache"
	"github.com/agentstation/storefront/internal/server/events"
	"github.com/agentstation/storefront/internal/server/events/adapters"
	"github.com/agentstation/storefront/internal/server/handlers"
	"github.com/agentstation/storefront/internal/server/middleware"
	"github.com/agentstation/storefront/internal/server/sse"
	ws "github.com/agentstation/storefront/internal/server/websocket"
	"github.com/agentstation/storefront/internal/store"
	isync "github.com/agentstation/storefront/internal/sync"
	"github.com/agentstation/storefront/pkg/catalog"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/sales"
	syncpkg "github.com/agentstation/storefront/pkg/sync"
)

// Deps are the application services the server exposes.
type Deps struct {
	Store    *store.Store
	Syncer   *isync.Syncer
	Checkout *checkout.Service
	Accounts *account.Service
	Tokens   middleware.Verifier
	Metrics  *metrics.Metrics // optional
	Logger   *zerolog.Logger
	Version  string
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	deps           Deps
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	rateLimiter    *middleware.RateLimiter
	handlers       *handlers.Handlers
	handler        http.Handler
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	startOnce      sync.Once
	startTime      time.Time
}

// New creates a new server instance with the given configuration.
func New(deps Deps, cfg Config) (*Server, error) {
	switch {
	case deps.Store == nil:
		return nil, &errors.ValidationError{Field: "store", Message: "cannot be nil"}
	case deps.Syncer == nil:
		return nil, &errors.ValidationError{Field: "syncer", Message: "cannot be nil"}
	case deps.Checkout == nil:
		return nil, &errors.ValidationError{Field: "checkout", Message: "cannot be nil"}
	case deps.Accounts == nil:
		return nil, &errors.ValidationError{Field: "accounts", Message: "cannot be nil"}
	case deps.Tokens == nil:
		return nil, &errors.ValidationError{Field: "tokens", Message: "cannot be nil"}
	case deps.Logger == nil:
		return nil, &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
	}

	logger := deps.Logger
	logger.Debug().Msg("Creating new server instance")

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.SyncTimeout == 0 {
		cfg.SyncTimeout = 2 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		deps:           deps,
		cache:          cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
		broker:         events.NewBroker(logger),
		wsHub:          ws.NewHub(logger),
		sseBroadcaster: sse.NewBroadcaster(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true // Origin checks are left to CORS configuration
			},
		},
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}

	s.handler = s.setupRouter()
	s.connectHooks()

	logger.Debug().Msg("Server instance created successfully")
	return s, nil
}

// connectHooks publishes sync and sale activity to the event broker and
// keeps the device cache coherent with sync writes.
func (s *Server) connectHooks() {
	hooks := s.deps.Syncer.Hooks()

	hooks.OnDeviceAdded(func(device catalog.Device) {
		s.broker.Publish(events.DeviceAdded, map[string]any{
			"device": device,
		})
	})

	hooks.OnDeviceUpdated(func(old, updated catalog.Device) {
		s.broker.Publish(events.DeviceUpdated, map[string]any{
			"device":   updated,
			"previous": old,
		})
	})

	s.deps.Syncer.Observe(s.observeRun)
	if s.deps.Metrics != nil {
		s.deps.Syncer.Observe(s.deps.Metrics.ObserveSyncRun)
	}

	s.deps.Checkout.OnPlaced(func(sale sales.Sale, receipt sales.Receipt) {
		s.broker.Publish(events.SalePlaced, map[string]any{
			"sale":    sale,
			"receipt": receipt,
		})
	})

	s.logger.Debug().Msg("Sync and sale hooks connected to event broker")
}

func (s *Server) observeRun(run syncpkg.Run) {
	switch run.Status {
	case syncpkg.StatusRunning:
		s.broker.Publish(events.SyncStarted, map[string]any{"run": run})
	case syncpkg.StatusSucceeded:
		if run.HasChanges() {
			s.handlers.InvalidateDevices()
		}
		s.broker.Publish(events.SyncCompleted, map[string]any{"run": run})
	case syncpkg.StatusFailed:
		// A failed cycle may still have written some devices.
		if run.HasChanges() {
			s.handlers.InvalidateDevices()
		}
		s.broker.Publish(events.SyncFailed, map[string]any{"run": run})
	}
}

// Start starts background services (broker, WebSocket hub, SSE broadcaster)
// and subscribes the transports to the broker. It is safe to call once;
// later calls do nothing.
func (s *Server) Start() {
	s.startOnce.Do(func() {
		s.logger.Debug().Msg("Starting background services")

		s.goRun(s.broker.Run)
		s.goRun(s.wsHub.Run)
		s.goRun(s.sseBroadcaster.Run)

		// Subscribe only once the broker loop is receiving.
		s.broker.Subscribe(adapters.NewWebSocketSubscriber(s.wsHub))
		s.broker.Subscribe(adapters.NewSSESubscriber(s.sseBroadcaster))

		s.logger.Debug().Msg("All background services started")
	})
}

func (s *Server) goRun(run func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		run(s.ctx)
	}()
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// HTTPServer returns an http.Server for the configured address and timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}
}

// Shutdown stops background services and waits for them to exit or for ctx
// to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")

	s.cancel()
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Background services shut down successfully")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	}
}

// Cache returns the server's cache instance.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// Broker returns the event broker for publishing events.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
