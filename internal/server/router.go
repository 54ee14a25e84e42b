package server

import (
	"net/http"
	"strings"

	"github.com/agentstation/storefront/internal/server/handlers"
	"github.com/agentstation/storefront/internal/server/middleware"
	"github.com/agentstation/storefront/pkg/users"
)

// guard wraps a route with an access check.
type guard func(http.Handler) http.Handler

func public(next http.Handler) http.Handler { return next }

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	s.handlers = handlers.New(handlers.Deps{
		Store:          s.deps.Store,
		Syncer:         s.deps.Syncer,
		Checkout:       s.deps.Checkout,
		Accounts:       s.deps.Accounts,
		Metrics:        s.deps.Metrics,
		Cache:          s.cache,
		WSHub:          s.wsHub,
		SSEBroadcaster: s.sseBroadcaster,
		Upgrader:       s.upgrader,
		Logger:         s.logger,
		BasePath:       s.prefix(),
		SyncTimeout:    s.config.SyncTimeout,
		Version:        s.deps.Version,
	})

	s.registerRoutes(mux, s.handlers)

	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	authed := guard(middleware.RequireAuthenticated)
	admin := guard(middleware.RequireAuthority(users.RoleAdmin))

	route := func(pattern string, g guard, fn http.HandlerFunc) {
		mux.Handle(pattern, g(fn))
	}

	// Favicon handler (return 204 No Content to avoid 404 logs)
	route("GET /favicon.ico", public, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Probes
	route("GET /health", public, h.HandleHealth)
	route("GET /ready", public, h.HandleReady)

	if s.config.MetricsEnabled && s.deps.Metrics != nil {
		mux.Handle("GET /metrics", s.deps.Metrics.Handler())
	}

	// Authentication and account management
	route("POST /api/authenticate", public, h.HandleAuthenticate)
	route("GET /api/authenticate", public, h.HandleCurrentLogin)
	route("POST /api/register", public, h.HandleRegister)
	route("GET /api/activate", public, h.HandleActivate)
	route("POST /api/account/reset-password/init", public, h.HandleResetPasswordInit)
	route("POST /api/account/reset-password/finish", public, h.HandleResetPasswordFinish)
	route("GET /api/account", authed, h.HandleGetAccount)
	route("POST /api/account", authed, h.HandleUpdateAccount)
	route("POST /api/account/change-password", authed, h.HandleChangePassword)

	// Devices
	route("GET /api/dispositivos", authed, h.HandleListDevices)
	route("POST /api/dispositivos", authed, h.HandleCreateDevice)
	route("GET /api/dispositivos/{id}", authed, h.HandleGetDevice)
	route("PUT /api/dispositivos/{id}", authed, h.HandleUpdateDevice)
	route("PATCH /api/dispositivos/{id}", authed, h.HandlePatchDevice)
	route("DELETE /api/dispositivos/{id}", authed, h.HandleDeleteDevice)

	// Device parts
	registerResource(route, authed, h.Features())
	registerResource(route, authed, h.Customizations())
	registerResource(route, authed, h.Options())
	registerResource(route, authed, h.AddOns())

	// Sales
	route("POST /api/ventas", authed, h.HandlePlaceSale)
	route("GET /api/ventas", authed, h.HandleListSales)
	route("GET /api/ventas/{id}", authed, h.HandleGetSale)
	route("PUT /api/ventas/{id}", authed, h.HandleUpdateSale)
	route("PATCH /api/ventas/{id}", authed, h.HandlePatchSale)
	route("DELETE /api/ventas/{id}", authed, h.HandleDeleteSale)
	route("GET /api/ventas/user/{userId}/ventas", authed, h.HandleListUserSales)

	// Administration
	route("GET /api/admin/users", admin, h.HandleListUsers)
	route("POST /api/admin/sync", admin, h.HandleSync)
	route("GET /api/admin/sync", admin, h.HandleSyncStatus)
	route("GET /api/admin/stats", admin, h.HandleStats)

	// Real-time endpoints
	route("GET /api/updates/ws", authed, h.HandleWebSocket)
	route("GET /api/updates/stream", authed, h.HandleSSE)
}

// crud is the handler set of a generic catalog resource.
type crud interface {
	Path() string
	HandleList(http.ResponseWriter, *http.Request)
	HandleGet(http.ResponseWriter, *http.Request)
	HandleCreate(http.ResponseWriter, *http.Request)
	HandleUpdate(http.ResponseWriter, *http.Request)
	HandlePatch(http.ResponseWriter, *http.Request)
	HandleDelete(http.ResponseWriter, *http.Request)
}

func registerResource(route func(string, guard, http.HandlerFunc), g guard, rs crud) {
	base := rs.Path()
	route("GET "+base, g, rs.HandleList)
	route("POST "+base, g, rs.HandleCreate)
	route("GET "+base+"/{id}", g, rs.HandleGet)
	route("PUT "+base+"/{id}", g, rs.HandleUpdate)
	route("PATCH "+base+"/{id}", g, rs.HandlePatch)
	route("DELETE "+base+"/{id}", g, rs.HandleDelete)
}

// applyMiddleware wraps handler with the middleware chain. From the outside
// in: recovery, logging, request IDs, CORS, rate limiting, authentication,
// then metrics directly around the mux.
func (s *Server) applyMiddleware(mux *http.ServeMux) http.Handler {
	cfg := s.config
	prefix := s.prefix()

	var handler http.Handler = mux
	if s.deps.Metrics != nil {
		handler = middleware.Metrics(s.deps.Metrics)(handler)
	}
	if prefix != "" {
		handler = http.StripPrefix(prefix, handler)
	}

	handler = middleware.Authenticate(s.deps.Tokens)(handler)

	// Rate limiting (if enabled)
	if cfg.RateLimit > 0 {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit, s.logger,
			prefix+"/health", prefix+"/ready", prefix+"/metrics")
		handler = middleware.RateLimit(s.rateLimiter)(handler)
	}

	// CORS (if enabled)
	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
			corsConfig.AllowAll = false
		} else {
			corsConfig.AllowAll = true
		}
		handler = middleware.CORS(corsConfig)(handler)
	}

	// Request IDs, logging and recovery (always enabled)
	handler = middleware.RequestID()(handler)
	handler = middleware.Logger(s.logger)(handler)
	handler = middleware.Recovery(s.logger)(handler)

	return handler
}

// prefix returns the normalized path prefix: empty, or "/x" without a
// trailing slash.
func (s *Server) prefix() string {
	p := strings.TrimSuffix(strings.TrimSpace(s.config.PathPrefix), "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
