package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/internal/account"
	"github.com/agentstation/storefront/internal/auth"
	"github.com/agentstation/storefront/internal/checkout"
	"github.com/agentstation/storefront/internal/metrics"
	"github.com/agentstation/storefront/internal/store"
	isync "github.com/agentstation/storefront/internal/sync"
	"github.com/agentstation/storefront/internal/token"
	"github.com/agentstation/storefront/internal/upstream"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// fakeUpstream serves /dispositivos and /vender.
type fakeUpstream struct {
	mu        sync.Mutex
	devices   string
	saleID    atomic.Int64
	failSales atomic.Bool
	gate      chan struct{} // when set, device fetches wait on it
}

func (f *fakeUpstream) setDevices(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices = body
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/dispositivos":
		f.mu.Lock()
		body, gate := f.devices, f.gate
		f.mu.Unlock()
		if gate != nil {
			<-gate
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	case "/vender":
		if f.failSales.Load() {
			http.Error(w, `{"message":"rejected"}`, http.StatusBadRequest)
			return
		}
		id := f.saleID.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"idVenta":       id,
			"idDispositivo": 1,
			"precioBase":    1200,
			"precioFinal":   1210.5,
		})
	default:
		http.NotFound(w, r)
	}
}

const twoDevices = `[
	{"id": 1, "codigo": "NTB-1", "nombre": "Notebook", "descripcion": "14 inch", "precioBase": 1200, "moneda": "USD",
	 "caracteristicas": [{"id": 11, "nombre": "RAM", "descripcion": "16GB"}],
	 "personalizaciones": [], "adicionales": []},
	{"id": 2, "codigo": "TAB-1", "nombre": "Tablet", "descripcion": "10 inch", "precioBase": 500, "moneda": "USD",
	 "caracteristicas": [], "personalizaciones": [], "adicionales": []}
]`

type fixture struct {
	srv      *Server
	ts       *httptest.Server
	store    *store.Store
	upstream *fakeUpstream
	accounts *account.Service
	admin    string
	user     string
}

func setup(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()
	ctx := context.Background()

	up := &fakeUpstream{devices: twoDevices}
	up.saleID.Store(5000)
	upSrv := httptest.NewServer(up)
	t.Cleanup(upSrv.Close)

	st, err := store.Open(ctx, store.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	client, err := upstream.New(upstream.Config{BaseURL: upSrv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	tokens := token.Static("upstream-token")
	syncer, err := isync.New(tokens, client, st.Devices)
	require.NoError(t, err)

	jwtCfg := auth.DefaultConfig()
	jwtCfg.Secret = "test-secret-with-enough-entropy-for-hs512"
	tm, err := auth.NewTokenManager(jwtCfg)
	require.NoError(t, err)

	accounts := account.New(st.Users, tm, auth.NewPasswordHasher(4), nil)
	co := checkout.New(tokens, client, st.Sales, st.Users)

	cfg := DefaultConfig()
	cfg.RateLimit = 0
	for _, fn := range mutate {
		fn(&cfg)
	}

	srv, err := New(Deps{
		Store:    st,
		Syncer:   syncer,
		Checkout: co,
		Accounts: accounts,
		Tokens:   tm,
		Metrics:  metrics.New(),
		Logger:   logging.NewNopLogger(),
		Version:  "test",
	}, cfg)
	require.NoError(t, err)
	srv.Start()
	t.Cleanup(func() {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	f := &fixture{srv: srv, ts: ts, store: st, upstream: up, accounts: accounts}

	_, err = accounts.CreateUser(ctx, account.NewUser{Login: "admin", Email: "admin@example.com", Password: "admin-pass", Admin: true})
	require.NoError(t, err)
	_, err = accounts.CreateUser(ctx, account.NewUser{Login: "buyer", Email: "buyer@example.com", Password: "buyer-pass"})
	require.NoError(t, err)

	f.admin, err = accounts.Authenticate(ctx, "admin", "admin-pass", false)
	require.NoError(t, err)
	f.user, err = accounts.Authenticate(ctx, "buyer", "buyer-pass", false)
	require.NoError(t, err)
	return f
}

func (f *fixture) do(t *testing.T, method, path, bearer string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, f.ts.URL+path, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

type envelope[T any] struct {
	Data  T `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode[T any](t *testing.T, resp *http.Response) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func TestNewValidatesDependencies(t *testing.T) {
	_, err := New(Deps{}, DefaultConfig())
	var invalid *errors.ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "store", invalid.Field)
}

func TestStartIsIdempotentAndShutdownReturns(t *testing.T) {
	f := setup(t)

	done := make(chan struct{})
	go func() {
		f.srv.Start()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second Start blocked")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.srv.Shutdown(ctx))
}

func TestProbesArePublic(t *testing.T) {
	f := setup(t)

	resp := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp = f.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAccessControl(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name   string
		method string
		path   string
		bearer string
		want   int
	}{
		{"anonymous devices", http.MethodGet, "/api/dispositivos", "", http.StatusUnauthorized},
		{"invalid token is anonymous", http.MethodGet, "/api/dispositivos", "garbage", http.StatusUnauthorized},
		{"user devices", http.MethodGet, "/api/dispositivos", f.user, http.StatusOK},
		{"anonymous sales", http.MethodGet, "/api/ventas", "", http.StatusUnauthorized},
		{"user admin users", http.MethodGet, "/api/admin/users", f.user, http.StatusForbidden},
		{"admin admin users", http.MethodGet, "/api/admin/users", f.admin, http.StatusOK},
		{"user sync", http.MethodPost, "/api/admin/sync", f.user, http.StatusForbidden},
		{"anonymous current login", http.MethodGet, "/api/authenticate", "", http.StatusOK},
		{"unknown route", http.MethodGet, "/api/nothing", f.admin, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, tt.method, tt.path, tt.bearer, nil)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAuthenticateFlow(t *testing.T) {
	f := setup(t)

	resp := f.do(t, http.MethodPost, "/api/authenticate", "", map[string]any{
		"username": "buyer", "password": "buyer-pass", "rememberMe": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tok := decode[map[string]string](t, resp).Data["id_token"]
	require.NotEmpty(t, tok)
	assert.Equal(t, "Bearer "+tok, resp.Header.Get("Authorization"))

	resp = f.do(t, http.MethodGet, "/api/authenticate", tok, nil)
	assert.Equal(t, "buyer", decode[string](t, resp).Data)

	resp = f.do(t, http.MethodPost, "/api/authenticate", "", map[string]any{
		"username": "buyer", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestManualSyncServesFreshCatalog(t *testing.T) {
	f := setup(t)

	resp := f.do(t, http.MethodPost, "/api/admin/sync", f.admin, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	run := decode[map[string]any](t, resp).Data
	assert.Equal(t, "succeeded", run["status"])
	assert.Equal(t, "manual", run["trigger"])
	assert.EqualValues(t, 2, run["added"])

	resp = f.do(t, http.MethodGet, "/api/dispositivos", f.user, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get("X-Total-Count"))
	devices := decode[[]map[string]any](t, resp).Data
	require.Len(t, devices, 2)
	assert.EqualValues(t, 1200, devices[0]["precioBase"])

	// The listing is cached; a sync that changes prices must evict it.
	f.upstream.setDevices(strings.Replace(twoDevices, `"precioBase": 1200`, `"precioBase": 1100`, 1))
	resp = f.do(t, http.MethodPost, "/api/admin/sync", f.admin, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.EqualValues(t, 1, decode[map[string]any](t, resp).Data["updated"])

	resp = f.do(t, http.MethodGet, "/api/dispositivos/1", f.user, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1100, decode[map[string]any](t, resp).Data["precioBase"])

	resp = f.do(t, http.MethodGet, "/api/dispositivos?max_precio=1150", f.user, nil)
	assert.Equal(t, "2", resp.Header.Get("X-Total-Count"))

	resp = f.do(t, http.MethodGet, "/api/admin/sync", f.admin, nil)
	status := decode[map[string]any](t, resp).Data
	assert.Equal(t, false, status["running"])
	assert.NotNil(t, status["last"])
}

func TestManualSyncReportsFailureInRun(t *testing.T) {
	f := setup(t)
	f.upstream.setDevices(`not json`)

	resp := f.do(t, http.MethodPost, "/api/admin/sync", f.admin, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	run := decode[map[string]any](t, resp).Data
	assert.Equal(t, "failed", run["status"])
	assert.NotEmpty(t, run["error"])

	count, err := f.store.Devices.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestManualSyncConflictsWithRunningCycle(t *testing.T) {
	f := setup(t)
	gate := make(chan struct{})
	f.upstream.mu.Lock()
	f.upstream.gate = gate
	f.upstream.mu.Unlock()

	first := make(chan int, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodPost, f.ts.URL+"/api/admin/sync", nil)
		req.Header.Set("Authorization", "Bearer "+f.admin)
		resp, err := f.ts.Client().Do(req)
		if err != nil {
			first <- 0
			return
		}
		_ = resp.Body.Close()
		first <- resp.StatusCode
	}()

	require.Eventually(t, f.srv.deps.Syncer.Running, 2*time.Second, 5*time.Millisecond)

	resp := f.do(t, http.MethodPost, "/api/admin/sync", f.admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	close(gate)
	assert.Equal(t, http.StatusAccepted, <-first)
}

func TestPlaceSale(t *testing.T) {
	f := setup(t)
	sale := map[string]any{
		"idDispositivo":     1,
		"personalizaciones": []any{},
		"adicionales":       []any{},
		"precioFinal":       1210.5,
		"fechaVenta":        "2026-03-01T10:00:00Z",
	}

	resp := f.do(t, http.MethodPost, "/api/ventas", f.user, sale)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/api/ventas/5001", resp.Header.Get("Location"))
	created := decode[map[string]any](t, resp).Data
	assert.EqualValues(t, 5001, created["id"])
	assert.EqualValues(t, 1210.5, created["ganancia"])

	resp = f.do(t, http.MethodGet, "/api/ventas/5001", f.user, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := decode[map[string]any](t, resp).Data["user"].(map[string]any)
	assert.Equal(t, "buyer", user["login"])

	withID := map[string]any{"id": 9}
	for k, v := range sale {
		withID[k] = v
	}
	resp = f.do(t, http.MethodPost, "/api/ventas", f.user, withID)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	f.upstream.failSales.Store(true)
	resp = f.do(t, http.MethodPost, "/api/ventas", f.user, sale)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/ventas", f.user, nil)
	assert.Equal(t, "1", resp.Header.Get("X-Total-Count"))
}

func TestFeatureCRUD(t *testing.T) {
	f := setup(t)

	resp := f.do(t, http.MethodPost, "/api/caracteristicas", f.user, map[string]any{"nombre": "RAM", "descripcion": "8GB"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[map[string]any](t, resp).Data
	id := int64(created["id"].(float64))
	location := resp.Header.Get("Location")
	assert.True(t, strings.HasPrefix(location, "/api/caracteristicas/"))

	resp = f.do(t, http.MethodPost, "/api/caracteristicas", f.user, map[string]any{"id": 3, "nombre": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPatch, location, f.user, `{"descripcion": "32GB"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	patched := decode[map[string]any](t, resp).Data
	assert.Equal(t, "RAM", patched["nombre"])
	assert.Equal(t, "32GB", patched["descripcion"])

	resp = f.do(t, http.MethodPut, location, f.user, map[string]any{"id": id + 1, "nombre": "RAM"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodDelete, location, f.user, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, location, f.user, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPathPrefix(t *testing.T) {
	f := setup(t, func(c *Config) { c.PathPrefix = "/shop/" })

	resp := f.do(t, http.MethodGet, "/shop/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/shop/api/opcions", f.user, map[string]any{
		"codigo": "C1", "nombre": "Color", "precioAdicional": 10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/shop/api/opcions/"))
}

func TestMetricsEndpoint(t *testing.T) {
	f := setup(t)

	f.do(t, http.MethodGet, "/api/dispositivos", f.user, nil)
	f.do(t, http.MethodPost, "/api/admin/sync", f.admin, nil)

	resp := f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "storefront_http_requests_total")
	assert.Contains(t, string(body), `route="GET /api/dispositivos"`)
	assert.Contains(t, string(body), "storefront_sync_runs_total")
}

func TestMetricsDisabled(t *testing.T) {
	f := setup(t, func(c *Config) { c.MetricsEnabled = false })

	resp := f.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketReceivesSyncEvents(t *testing.T) {
	f := setup(t)

	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/api/updates/ws?access_token=" + f.user
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return f.srv.wsHub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	f.do(t, http.MethodPost, "/api/admin/sync", f.admin, nil)

	seen := map[string]int{}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for seen["sync.completed"] == 0 {
		var msg struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		assert.NotEmpty(t, msg.ID)
		seen[msg.Type]++
	}
	assert.Equal(t, 1, seen["sync.started"])
	assert.Equal(t, 2, seen["device.added"])
}

func TestWebSocketRequiresAuthentication(t *testing.T) {
	f := setup(t)

	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/api/updates/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConfigAddr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:8080", cfg.Addr())

	cfg.Host = "::1"
	cfg.Port = 9000
	assert.Equal(t, "[::1]:9000", cfg.Addr())
}
