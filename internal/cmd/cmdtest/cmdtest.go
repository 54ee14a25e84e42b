// Package cmdtest builds an application.Mock backed by real services, an
// in-memory database and a fake upstream, for command tests.
package cmdtest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

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
	"github.com/agentstation/storefront/internal/upstream"
)

// TwoDevices is an upstream catalog with two devices.
const TwoDevices = `[
	{"id": 1, "codigo": "NTB-1", "nombre": "Notebook", "descripcion": "14 inch", "precioBase": 1200, "moneda": "USD",
	 "caracteristicas": [{"id": 11, "nombre": "RAM", "descripcion": "16GB"}],
	 "personalizaciones": [], "adicionales": []},
	{"id": 2, "codigo": "TAB-1", "nombre": "Tablet", "descripcion": "10 inch", "precioBase": 500, "moneda": "USD",
	 "caracteristicas": [], "personalizaciones": [], "adicionales": []}
]`

// Upstream serves /dispositivos and /vender.
type Upstream struct {
	mu      sync.Mutex
	devices string
	status  int
	saleID  atomic.Int64
	Fetches atomic.Int64
}

// SetDevices replaces the catalog body.
func (u *Upstream) SetDevices(body string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.devices = body
}

// FailWith makes device fetches answer with status. Zero restores success.
func (u *Upstream) FailWith(status int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = status
}

func (u *Upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/dispositivos":
		u.Fetches.Add(1)
		u.mu.Lock()
		body, status := u.devices, u.status
		u.mu.Unlock()
		if status != 0 {
			http.Error(w, `{"message":"unavailable"}`, status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	case "/vender":
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"idVenta":       u.saleID.Add(1),
			"idDispositivo": 1,
			"precioBase":    1200,
			"precioFinal":   1210.5,
		})
	default:
		http.NotFound(w, r)
	}
}

// Env is a wired application for command tests.
type Env struct {
	App      *application.Mock
	Store    *store.Store
	Syncer   *isync.Syncer
	Accounts *account.Service
	Checkout *checkout.Service
	Metrics  *metrics.Metrics
	Upstream *Upstream
}

// New wires an Env whose upstream serves TwoDevices. Output format defaults
// to format.
func New(t *testing.T, format string) *Env {
	t.Helper()
	ctx := context.Background()

	up := &Upstream{devices: TwoDevices}
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
	jwtCfg.Secret = "cmdtest-secret-with-enough-entropy-for-hs512"
	tm, err := auth.NewTokenManager(jwtCfg)
	require.NoError(t, err)

	accounts := account.New(st.Users, tm, auth.NewPasswordHasher(4), nil)
	co := checkout.New(tokens, client, st.Sales, st.Users)
	m := metrics.New()
	logger := zerolog.Nop()

	srvCfg := server.DefaultConfig()
	srvCfg.RateLimit = 0

	env := &Env{Store: st, Syncer: syncer, Accounts: accounts, Checkout: co, Metrics: m, Upstream: up}
	env.App = &application.Mock{
		StoreFunc:        func(context.Context) (*store.Store, error) { return st, nil },
		SyncerFunc:       func(context.Context) (*isync.Syncer, error) { return syncer, nil },
		CheckoutFunc:     func(context.Context) (*checkout.Service, error) { return co, nil },
		AccountsFunc:     func(context.Context) (*account.Service, error) { return accounts, nil },
		TokensFunc:       func() (*auth.TokenManager, error) { return tm, nil },
		MetricsFunc:      func() *metrics.Metrics { return m },
		ServerConfigFunc: func() server.Config { return srvCfg },
		SchedulerOptionsFunc: func() ([]scheduler.Option, bool) {
			return []scheduler.Option{scheduler.WithInterval(time.Hour)}, true
		},
		LoggerFunc:       func() *zerolog.Logger { return &logger },
		OutputFormatFunc: func() string { return format },
	}
	return env
}

// Execute runs cmd with args and returns what it wrote to stdout.
func Execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
