package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/pkg/catalog"
	"github.com/agentstation/storefront/pkg/errors"
)

func sampleDevice() catalog.Device {
	return catalog.Device{
		ID:          1,
		Code:        "NB-001",
		Name:        "Notebook",
		Description: "14 inch notebook",
		BasePrice:   decimal.RequireFromString("1200.00"),
		Currency:    "USD",
		Features: []catalog.Feature{
			{ID: 1, Name: "RAM", Description: "16GB"},
			{ID: 2, Name: "Disk", Description: "512GB SSD"},
		},
		Customizations: []catalog.Customization{
			{
				ID:   3,
				Name: "Color",
				Options: []catalog.Option{
					{ID: 10, Code: "BLK", Name: "Black", AdditionalPrice: decimal.Zero},
					{ID: 11, Code: "SLV", Name: "Silver", AdditionalPrice: decimal.RequireFromString("25")},
				},
			},
		},
		AddOns: []catalog.AddOn{
			{ID: 4, Name: "Mouse", Price: decimal.RequireFromString("15"), FreePrice: decimal.NewNullDecimal(decimal.RequireFromString("1500"))},
			{ID: 5, Name: "Sleeve", Price: decimal.RequireFromString("20")},
		},
	}
}

func TestDeviceEqual(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *catalog.Device)
		equal  bool
	}{
		{name: "identical", mutate: func(d *catalog.Device) {}, equal: true},
		{
			name:   "price with different scale",
			mutate: func(d *catalog.Device) { d.BasePrice = decimal.RequireFromString("1200") },
			equal:  true,
		},
		{
			name:   "base price changed",
			mutate: func(d *catalog.Device) { d.BasePrice = decimal.RequireFromString("1500") },
		},
		{name: "code changed", mutate: func(d *catalog.Device) { d.Code = "NB-002" }},
		{name: "name changed", mutate: func(d *catalog.Device) { d.Name = "Laptop" }},
		{name: "description changed", mutate: func(d *catalog.Device) { d.Description = "" }},
		{name: "currency changed", mutate: func(d *catalog.Device) { d.Currency = "ARS" }},
		{
			name: "features reordered",
			mutate: func(d *catalog.Device) {
				d.Features[0], d.Features[1] = d.Features[1], d.Features[0]
			},
			equal: true,
		},
		{name: "feature removed", mutate: func(d *catalog.Device) { d.Features = d.Features[:1] }},
		{name: "feature edited", mutate: func(d *catalog.Device) { d.Features[1].Description = "1TB SSD" }},
		{
			name:   "parent reference ignored",
			mutate: func(d *catalog.Device) { id := int64(1); d.Features[0].DeviceID = &id },
			equal:  true,
		},
		{
			name:   "nested option price changed",
			mutate: func(d *catalog.Device) { d.Customizations[0].Options[1].AdditionalPrice = decimal.RequireFromString("30") },
		},
		{
			name: "nested options reordered",
			mutate: func(d *catalog.Device) {
				opts := d.Customizations[0].Options
				opts[0], opts[1] = opts[1], opts[0]
			},
			equal: true,
		},
		{
			name:   "add-on free price cleared",
			mutate: func(d *catalog.Device) { d.AddOns[0].FreePrice = decimal.NullDecimal{} },
		},
		{
			name:   "add-on replaced",
			mutate: func(d *catalog.Device) { d.AddOns[1].ID = 6 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := sampleDevice()
			remote := sampleDevice()
			tt.mutate(&remote)
			assert.Equal(t, tt.equal, local.Equal(remote))
			assert.Equal(t, tt.equal, remote.Equal(local))
		})
	}
}

func TestDeviceEqualEmptyCollections(t *testing.T) {
	a := catalog.Device{ID: 1, Code: "A", Name: "A", Currency: "USD"}
	b := a
	b.Features = []catalog.Feature{}
	b.AddOns = []catalog.AddOn{}
	assert.True(t, a.Equal(b))
}

func TestChanges(t *testing.T) {
	local := sampleDevice()
	remote := sampleDevice()
	remote.BasePrice = decimal.RequireFromString("1300")
	remote.Features = remote.Features[:1]

	assert.Equal(t, []string{"precioBase", "caracteristicas"}, catalog.Changes(local, remote))
	assert.Empty(t, catalog.Changes(local, sampleDevice()))
}

func TestDeviceJSON(t *testing.T) {
	payload := `{
		"id": 7,
		"codigo": "TAB-7",
		"nombre": "Tablet",
		"descripcion": "10 inch tablet",
		"precioBase": 150,
		"moneda": "USD",
		"caracteristicas": [{"id": 1, "nombre": "Screen", "descripcion": "IPS"}],
		"personalizaciones": [{"id": 2, "nombre": "Storage", "descripcion": "", "opciones": [
			{"id": 3, "codigo": "64", "nombre": "64GB", "descripcion": "", "precioAdicional": 0}
		]}],
		"adicionales": [{"id": 4, "nombre": "Case", "descripcion": "", "precio": 12.5, "precioGratis": null}]
	}`

	var d catalog.Device
	require.NoError(t, json.Unmarshal([]byte(payload), &d))
	assert.Equal(t, int64(7), d.ID)
	assert.True(t, d.BasePrice.Equal(decimal.NewFromInt(150)))
	require.Len(t, d.Customizations, 1)
	require.Len(t, d.Customizations[0].Options, 1)
	assert.False(t, d.AddOns[0].FreePrice.Valid)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"precioBase":150`)
	assert.Contains(t, string(out), `"precioGratis":null`)
	assert.NotContains(t, string(out), "dispositivoId")
}

func TestDeviceValidate(t *testing.T) {
	valid := sampleDevice()
	require.NoError(t, valid.Validate())

	noID := valid
	noID.ID = 0
	assert.True(t, errors.IsValidationError(noID.Validate()))

	negative := valid
	negative.BasePrice = decimal.NewFromInt(-1)
	err := negative.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "precioBase")

	assert.Error(t, catalog.Option{Name: "x"}.Validate())
	assert.NoError(t, catalog.AddOn{Name: "x", Price: decimal.NewFromInt(1)}.Validate())
	assert.Error(t, catalog.Feature{}.Validate())
	assert.NoError(t, catalog.Customization{Name: "Color"}.Validate())
}
