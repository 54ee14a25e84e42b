package checkout_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/internal/checkout"
	"github.com/agentstation/storefront/internal/store"
	"github.com/agentstation/storefront/internal/token"
	"github.com/agentstation/storefront/internal/upstream"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/sales"
	"github.com/agentstation/storefront/pkg/users"
)

type fixture struct {
	svc    *checkout.Service
	store  *store.Store
	buyer  *users.User
	placed []sales.Sale
}

func setup(t *testing.T, handler http.HandlerFunc, tokens token.Source) *fixture {
	t.Helper()

	st, err := store.Open(context.Background(), store.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	buyer := &users.User{Login: "buyer", PasswordHash: "x", Activated: true}
	require.NoError(t, st.Users.Create(context.Background(), buyer))

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := upstream.New(upstream.Config{BaseURL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)

	f := &fixture{store: st, buyer: buyer}
	f.svc = checkout.New(tokens, client, st.Sales, st.Users,
		checkout.WithPlacedHook(func(s sales.Sale, _ sales.Receipt) { f.placed = append(f.placed, s) }))
	return f
}

func request(userID int64) sales.Request {
	return sales.Request{
		DeviceID:       1,
		Customizations: []sales.PricedItem{{ID: 31, Price: decimal.NewFromInt(10)}},
		FinalPrice:     decimal.RequireFromString("1210.50"),
		SaleDate:       time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		User:           &users.Ref{ID: userID},
	}
}

func TestPlaceRecordsUnderUpstreamID(t *testing.T) {
	f := setup(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vender", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 1, body["idDispositivo"])
		assert.Equal(t, []any{}, body["adicionales"])

		_, _ = io.WriteString(w, `{"idVenta": 5001, "idDispositivo": 1, "precioBase": 1200, "precioFinal": 1210.5}`)
	}, token.Static("tok"))

	sale, receipt, err := f.svc.Place(context.Background(), request(f.buyer.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(5001), receipt.SaleID)
	assert.Equal(t, int64(5001), sale.ID)

	stored, err := f.store.Sales.Get(context.Background(), 5001)
	require.NoError(t, err)
	assert.True(t, stored.Profit.Equal(decimal.RequireFromString("1210.5")))
	require.NotNil(t, stored.DeviceID)
	assert.Equal(t, int64(1), *stored.DeviceID)
	require.NotNil(t, stored.User)
	assert.Equal(t, "buyer", stored.User.Login)

	require.Len(t, f.placed, 1)
	assert.Equal(t, int64(5001), f.placed[0].ID)
}

func TestPlaceUpstreamFailureWritesNothing(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "server error", handler: func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{name: "rejected", handler: func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "sin stock", http.StatusBadRequest)
		}},
		{name: "missing idVenta", handler: func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"idDispositivo": 1}`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, tt.handler, token.Static("tok"))

			_, _, err := f.svc.Place(context.Background(), request(f.buyer.ID))
			require.Error(t, err)
			var saleErr *errors.SaleError
			assert.ErrorAs(t, err, &saleErr)

			_, total, err := f.store.Sales.List(context.Background(), store.Page{})
			require.NoError(t, err)
			assert.Zero(t, total)
			assert.Empty(t, f.placed)
		})
	}
}

func TestPlacePreconditions(t *testing.T) {
	called := false
	handler := func(w http.ResponseWriter, _ *http.Request) {
		called = true
		_, _ = io.WriteString(w, `{"idVenta": 1}`)
	}

	t.Run("id present", func(t *testing.T) {
		f := setup(t, handler, token.Static("tok"))
		req := request(f.buyer.ID)
		id := int64(3)
		req.ID = &id
		_, _, err := f.svc.Place(context.Background(), req)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		f := setup(t, handler, token.Static("tok"))
		_, _, err := f.svc.Place(context.Background(), request(999))
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("missing token", func(t *testing.T) {
		f := setup(t, handler, token.NewFile(t.TempDir()+"/absent.json"))
		_, _, err := f.svc.Place(context.Background(), request(f.buyer.ID))
		assert.True(t, errors.IsConfigError(err))
	})

	assert.False(t, called, "upstream must not be called")
}

func TestPlaceDuplicateUpstreamID(t *testing.T) {
	f := setup(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"idVenta": 77}`)
	}, token.Static("tok"))

	_, _, err := f.svc.Place(context.Background(), request(f.buyer.ID))
	require.NoError(t, err)

	_, receipt, err := f.svc.Place(context.Background(), request(f.buyer.ID))
	require.Error(t, err)
	assert.True(t, errors.IsStoreError(err))
	assert.Equal(t, int64(77), receipt.SaleID)
}

func TestOnPlacedAfterConstruction(t *testing.T) {
	f := setup(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"idVenta": 7001, "idDispositivo": 1, "precioBase": 1200, "precioFinal": 1210.5}`)
	}, token.Static("tok"))

	var receipts []int64
	f.svc.OnPlaced(func(_ sales.Sale, r sales.Receipt) { receipts = append(receipts, r.SaleID) })

	_, _, err := f.svc.Place(context.Background(), request(f.buyer.ID))
	require.NoError(t, err)
	assert.Equal(t, []int64{7001}, receipts)
	assert.Len(t, f.placed, 1)
}
