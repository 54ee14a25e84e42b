package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/internal/store"
	"github.com/agentstation/storefront/pkg/catalog"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/sales"
	"github.com/agentstation/storefront/pkg/users"
)

// setupStore opens a private in-memory database for one test.
func setupStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(context.Background(), store.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func notebook() catalog.Device {
	return catalog.Device{
		ID:          1,
		Code:        "NB-001",
		Name:        "Notebook",
		Description: "14 inch notebook",
		BasePrice:   decimal.RequireFromString("1200.50"),
		Currency:    "USD",
		Features: []catalog.Feature{
			{ID: 11, Name: "RAM", Description: "16GB"},
			{ID: 12, Name: "Disk", Description: "512GB"},
		},
		Customizations: []catalog.Customization{
			{ID: 21, Name: "Color", Options: []catalog.Option{
				{ID: 31, Code: "BLK", Name: "Black", AdditionalPrice: decimal.Zero},
				{ID: 32, Code: "SLV", Name: "Silver", AdditionalPrice: decimal.RequireFromString("25")},
			}},
		},
		AddOns: []catalog.AddOn{
			{ID: 41, Name: "Mouse", Price: decimal.RequireFromString("15"), FreePrice: decimal.NewNullDecimal(decimal.RequireFromString("1500"))},
		},
	}
}

func TestOpenSeedsAuthorities(t *testing.T) {
	s := setupStore(t)

	var names []string
	require.NoError(t, s.DB().Model(&users.Authority{}).Order("name").Pluck("name", &names).Error)
	assert.Equal(t, []string{users.RoleAdmin, users.RoleUser}, names)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := store.Open(context.Background(), store.Config{})
	assert.True(t, errors.IsConfigError(err))
}

func TestDevicesUpsertRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Devices.Upsert(ctx, notebook())
	require.NoError(t, err)

	got, err := s.Devices.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, notebook().Equal(*got), "stored device should equal the upserted one: %v", catalog.Changes(notebook(), *got))
	require.Len(t, got.Customizations, 1)
	assert.Len(t, got.Customizations[0].Options, 2)
	require.NotNil(t, got.Features[0].DeviceID)
	assert.Equal(t, int64(1), *got.Features[0].DeviceID)
}

func TestDevicesUpsertReplacesNestedCollections(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Devices.Upsert(ctx, notebook())
	require.NoError(t, err)

	changed := notebook()
	changed.BasePrice = decimal.RequireFromString("1500")
	changed.Features = changed.Features[1:]
	changed.Customizations[0].Options = changed.Customizations[0].Options[:1]
	changed.AddOns = nil

	_, err = s.Devices.Upsert(ctx, changed)
	require.NoError(t, err)

	got, err := s.Devices.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, changed.Equal(*got), "differences: %v", catalog.Changes(changed, *got))

	var options int64
	require.NoError(t, s.DB().Model(&catalog.Option{}).Count(&options).Error)
	assert.Equal(t, int64(1), options)

	// The add-on itself is shared and survives the unlink.
	_, err = s.AddOns.Get(ctx, 41)
	assert.NoError(t, err)
}

func TestDevicesUpsertRefusesChildrenOfAnotherDevice(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Devices.Upsert(ctx, notebook())
	require.NoError(t, err)

	tests := []struct {
		name   string
		device catalog.Device
	}{
		{"feature", catalog.Device{ID: 2, Code: "TAB", Name: "Tablet", Currency: "USD",
			Features: []catalog.Feature{{ID: 12, Name: "Stolen"}}}},
		{"customization", catalog.Device{ID: 2, Code: "TAB", Name: "Tablet", Currency: "USD",
			Customizations: []catalog.Customization{{ID: 21, Name: "Stolen"}}}},
		{"option", catalog.Device{ID: 2, Code: "TAB", Name: "Tablet", Currency: "USD",
			Customizations: []catalog.Customization{{ID: 22, Name: "Finish", Options: []catalog.Option{
				{ID: 32, Code: "X", Name: "Stolen", AdditionalPrice: decimal.Zero},
			}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Devices.Upsert(ctx, tt.device)
			require.Error(t, err)
			assert.True(t, errors.IsStoreError(err))
			assert.True(t, errors.IsAlreadyExists(err))

			_, err = s.Devices.Get(ctx, 2)
			assert.True(t, errors.IsNotFound(err), "the device row is rolled back with its children")

			got, err := s.Devices.Get(ctx, 1)
			require.NoError(t, err)
			assert.True(t, notebook().Equal(*got), "differences: %v", catalog.Changes(notebook(), *got))
		})
	}
}

func TestDevicesUpsertRequiresPositiveID(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, id := range []int64{0, -3} {
		_, err := s.Devices.Upsert(ctx, catalog.Device{ID: id, Code: "X", Name: "X", Currency: "USD"})
		assert.True(t, errors.IsValidationError(err), "id %d", id)
	}
	n, err := s.Devices.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDevicesListAll(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	all, err := s.Devices.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	second := catalog.Device{ID: 2, Code: "TAB", Name: "Tablet", BasePrice: decimal.NewFromInt(300), Currency: "USD"}
	_, err = s.Devices.Upsert(ctx, second)
	require.NoError(t, err)
	_, err = s.Devices.Upsert(ctx, notebook())
	require.NoError(t, err)

	all, err = s.Devices.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Equal(t, int64(2), all[1].ID)

	page, total, err := s.Devices.List(ctx, store.Page{Number: 1, Size: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, int64(2), page[0].ID)
}

func TestDevicesCreateUpdateDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Devices.Create(ctx, notebook())
	require.NoError(t, err)

	_, err = s.Devices.Create(ctx, notebook())
	assert.True(t, errors.IsAlreadyExists(err))

	_, err = s.Devices.Update(ctx, catalog.Device{ID: 99, Code: "X", Name: "X", Currency: "USD"})
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, s.Devices.Delete(ctx, 1))
	_, err = s.Devices.Get(ctx, 1)
	assert.True(t, errors.IsNotFound(err))

	var features int64
	require.NoError(t, s.DB().Model(&catalog.Feature{}).Count(&features).Error)
	assert.Zero(t, features)

	assert.True(t, errors.IsNotFound(s.Devices.Delete(ctx, 1)))
}

func TestTableCRUD(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	feature := &catalog.Feature{Name: "Battery", Description: "10h"}
	require.NoError(t, s.Features.Create(ctx, feature))
	require.NotZero(t, feature.ID)

	got, err := s.Features.Get(ctx, feature.ID)
	require.NoError(t, err)
	assert.Equal(t, "Battery", got.Name)

	got.Description = "12h"
	require.NoError(t, s.Features.Update(ctx, got.ID, got))

	items, total, err := s.Features.List(ctx, store.Page{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "12h", items[0].Description)

	ok, err := s.Features.Exists(ctx, feature.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Features.Delete(ctx, feature.ID))
	_, err = s.Features.Get(ctx, feature.ID)
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsNotFound(s.Features.Update(ctx, feature.ID, got)))

	ok, err = s.Features.Exists(ctx, feature.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCustomizationDeleteCascadesOptions(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Devices.Upsert(ctx, notebook())
	require.NoError(t, err)

	c, err := s.Customizations.Get(ctx, 21)
	require.NoError(t, err)
	assert.Len(t, c.Options, 2)

	require.NoError(t, s.Customizations.Delete(ctx, 21))
	_, err = s.Options.Get(ctx, 31)
	assert.True(t, errors.IsNotFound(err))
}

func TestSales(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	buyer := &users.User{Login: "buyer", PasswordHash: "x", Email: "buyer@example.com", Activated: true}
	require.NoError(t, s.Users.Create(ctx, buyer))

	device := int64(1)
	when := time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC)
	sale := &sales.Sale{ID: 1042, SaleDate: when, Profit: decimal.RequireFromString("1250.5"), DeviceID: &device, UserID: &buyer.ID}
	require.NoError(t, s.Sales.Create(ctx, sale))
	require.NotNil(t, sale.User)
	assert.Equal(t, "buyer", sale.User.Login)

	dup := *sale
	assert.True(t, errors.IsAlreadyExists(s.Sales.Create(ctx, &dup)))

	got, err := s.Sales.Get(ctx, 1042)
	require.NoError(t, err)
	assert.True(t, got.SaleDate.Equal(when))
	assert.True(t, got.Profit.Equal(decimal.RequireFromString("1250.50")))
	assert.Equal(t, &users.Ref{ID: buyer.ID, Login: "buyer"}, got.User)

	mine, err := s.Sales.ListByUser(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := s.Sales.ListByUser(ctx, buyer.ID+1)
	require.NoError(t, err)
	assert.Empty(t, none)

	got.Profit = decimal.NewFromInt(1300)
	require.NoError(t, s.Sales.Update(ctx, got))

	list, total, err := s.Sales.List(ctx, store.Page{Size: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.True(t, list[0].Profit.Equal(decimal.NewFromInt(1300)))

	require.NoError(t, s.Sales.Delete(ctx, 1042))
	assert.True(t, errors.IsNotFound(s.Sales.Delete(ctx, 1042)))
}

func TestUsers(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	key := "activation-key"
	user := &users.User{
		Login:         "alice",
		PasswordHash:  "hash",
		Email:         "Alice@Example.com",
		ActivationKey: &key,
		Authorities:   []users.Authority{{Name: users.RoleUser}},
	}
	require.NoError(t, s.Users.Create(ctx, user))

	got, err := s.Users.FindByLogin(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, []string{users.RoleUser}, got.AuthorityNames())

	_, err = s.Users.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)

	byKey, err := s.Users.FindByActivationKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byKey.ID)

	_, err = s.Users.FindByResetKey(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))

	err = s.Users.Create(ctx, &users.User{Login: "Alice", PasswordHash: "x"})
	assert.True(t, errors.IsAlreadyExists(err))
	err = s.Users.Create(ctx, &users.User{Login: "bob", PasswordHash: "x", Email: "alice@example.com"})
	assert.True(t, errors.IsAlreadyExists(err))

	got.Activated = true
	got.ActivationKey = nil
	require.NoError(t, s.Users.Update(ctx, got))

	reloaded, err := s.Users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Activated)
	assert.Nil(t, reloaded.ActivationKey)
	assert.True(t, reloaded.HasAuthority(users.RoleUser))

	count, err := s.Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
