// Package handlers provides HTTP request handlers for the storefront API.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/internal/account"
	"github.com/agentstation/storefront/internal/checkout"
	"github.com/agentstation/storefront/internal/metrics"
	"github.com/agentstation/storefront/internal/server/cache"
	"github.com/agentstation/storefront/internal/server/sse"
	ws "github.com/agentstation/storefront/internal/server/websocket"
	"github.com/agentstation/storefront/internal/store"
	isync "github.com/agentstation/storefront/internal/sync"
	"github.com/agentstation/storefront/pkg/catalog"
	"github.com/agentstation/storefront/pkg/errors"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Deps are the collaborators the handlers serve.
type Deps struct {
	Store    *store.Store
	Syncer   *isync.Syncer
	Checkout *checkout.Service
	Accounts *account.Service
	Metrics  *metrics.Metrics // nil when metrics are disabled

	Cache          *cache.Cache
	WSHub          *ws.Hub
	SSEBroadcaster *sse.Broadcaster
	Upgrader       websocket.Upgrader
	Logger         *zerolog.Logger

	// BasePath prefixes Location headers when the API is mounted below "/".
	BasePath string

	// SyncTimeout bounds a manually triggered sync run.
	SyncTimeout time.Duration
	Version     string
}

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	store          *store.Store
	syncer         *isync.Syncer
	checkout       *checkout.Service
	accounts       *account.Service
	metrics        *metrics.Metrics
	cache          *cache.Cache
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	basePath       string
	syncTimeout    time.Duration
	version        string
	started        time.Time

	features       *Resource[catalog.Feature]
	customizations *Resource[catalog.Customization]
	options        *Resource[catalog.Option]
	addOns         *Resource[catalog.AddOn]
}

// New creates a new Handlers instance.
func New(deps Deps) *Handlers {
	h := &Handlers{
		store:          deps.Store,
		syncer:         deps.Syncer,
		checkout:       deps.Checkout,
		accounts:       deps.Accounts,
		metrics:        deps.Metrics,
		cache:          deps.Cache,
		wsHub:          deps.WSHub,
		sseBroadcaster: deps.SSEBroadcaster,
		upgrader:       deps.Upgrader,
		logger:         deps.Logger,
		basePath:       strings.TrimSuffix(deps.BasePath, "/"),
		syncTimeout:    deps.SyncTimeout,
		version:        deps.Version,
		started:        time.Now(),
	}

	h.features = newResource(h, deps.Store.Features, "/api/caracteristicas",
		func(f *catalog.Feature) *int64 { return &f.ID }, catalog.Feature.Validate)
	h.customizations = newResource(h, deps.Store.Customizations, "/api/personalizacions",
		func(c *catalog.Customization) *int64 { return &c.ID }, catalog.Customization.Validate)
	h.options = newResource(h, deps.Store.Options, "/api/opcions",
		func(o *catalog.Option) *int64 { return &o.ID }, catalog.Option.Validate)
	h.addOns = newResource(h, deps.Store.AddOns, "/api/adicionals",
		func(a *catalog.AddOn) *int64 { return &a.ID }, catalog.AddOn.Validate)

	return h
}

// Features serves /api/caracteristicas.
func (h *Handlers) Features() *Resource[catalog.Feature] { return h.features }

// Customizations serves /api/personalizacions.
func (h *Handlers) Customizations() *Resource[catalog.Customization] { return h.customizations }

// Options serves /api/opcions.
func (h *Handlers) Options() *Resource[catalog.Option] { return h.options }

// AddOns serves /api/adicionals.
func (h *Handlers) AddOns() *Resource[catalog.AddOn] { return h.addOns }

// location builds the Location header for a created resource.
func (h *Handlers) location(collection string, id int64) string {
	return h.basePath + collection + "/" + strconv.FormatInt(id, 10)
}

// devicesCacheKey holds the full device listing.
const devicesCacheKey = "devices:all"

// InvalidateDevices drops cached device reads. Any catalog write, whether
// through the API or a sync pass, must call it.
func (h *Handlers) InvalidateDevices() {
	h.cache.Delete(devicesCacheKey)
}

// decodeJSON reads a JSON body into v, rejecting trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	return unmarshalBody(body, v)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	return body, nil
}

func unmarshalBody(body []byte, v any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return errors.NewParseError("json", "", "request body is empty", nil)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.WrapParse("json", "", err)
	}
	return nil
}

// pathID parses the {name} path value as a positive int64.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError(name, raw, "must be a positive integer")
	}
	return id, nil
}

// detached returns a context that survives the client going away, bounded
// by timeout when positive.
func detached(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
