package catalog

import "github.com/shopspring/decimal"

// Equal reports whether two devices carry the same catalog content: every
// scalar field, prices compared numerically, and the nested collections
// compared as sets keyed by ID. Parent references on nested items are not
// part of the content and are ignored.
func (d Device) Equal(o Device) bool {
	return d.ID == o.ID &&
		d.Code == o.Code &&
		d.Name == o.Name &&
		d.Description == o.Description &&
		d.BasePrice.Equal(o.BasePrice) &&
		d.Currency == o.Currency &&
		equalByID(d.Features, o.Features, Feature.key, Feature.Equal) &&
		equalByID(d.Customizations, o.Customizations, Customization.key, Customization.Equal) &&
		equalByID(d.AddOns, o.AddOns, AddOn.key, AddOn.Equal)
}

// Equal compares two features field by field.
func (f Feature) Equal(o Feature) bool {
	return f.ID == o.ID && f.Name == o.Name && f.Description == o.Description
}

// Equal compares two customizations, including their options.
func (c Customization) Equal(o Customization) bool {
	return c.ID == o.ID &&
		c.Name == o.Name &&
		c.Description == o.Description &&
		equalByID(c.Options, o.Options, Option.key, Option.Equal)
}

// Equal compares two options field by field.
func (o Option) Equal(p Option) bool {
	return o.ID == p.ID &&
		o.Code == p.Code &&
		o.Name == p.Name &&
		o.Description == p.Description &&
		o.AdditionalPrice.Equal(p.AdditionalPrice)
}

// Equal compares two add-ons field by field.
func (a AddOn) Equal(o AddOn) bool {
	return a.ID == o.ID &&
		a.Name == o.Name &&
		a.Description == o.Description &&
		a.Price.Equal(o.Price) &&
		equalNullDecimal(a.FreePrice, o.FreePrice)
}

// Changes lists the top-level fields that differ between two versions of a
// device, for logging.
func Changes(local, remote Device) []string {
	var fields []string
	if local.Code != remote.Code {
		fields = append(fields, "codigo")
	}
	if local.Name != remote.Name {
		fields = append(fields, "nombre")
	}
	if local.Description != remote.Description {
		fields = append(fields, "descripcion")
	}
	if !local.BasePrice.Equal(remote.BasePrice) {
		fields = append(fields, "precioBase")
	}
	if local.Currency != remote.Currency {
		fields = append(fields, "moneda")
	}
	if !equalByID(local.Features, remote.Features, Feature.key, Feature.Equal) {
		fields = append(fields, "caracteristicas")
	}
	if !equalByID(local.Customizations, remote.Customizations, Customization.key, Customization.Equal) {
		fields = append(fields, "personalizaciones")
	}
	if !equalByID(local.AddOns, remote.AddOns, AddOn.key, AddOn.Equal) {
		fields = append(fields, "adicionales")
	}
	return fields
}

func (f Feature) key() int64       { return f.ID }
func (c Customization) key() int64 { return c.ID }
func (o Option) key() int64        { return o.ID }
func (a AddOn) key() int64         { return a.ID }

// equalByID compares two collections ignoring order. Collections with
// duplicate IDs fall back to positional comparison.
func equalByID[T any](a, b []T, key func(T) int64, eq func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	index := make(map[int64]T, len(a))
	for _, item := range a {
		index[key(item)] = item
	}
	if len(index) != len(a) {
		for i := range a {
			if !eq(a[i], b[i]) {
				return false
			}
		}
		return true
	}
	for _, item := range b {
		other, ok := index[key(item)]
		if !ok || !eq(other, item) {
			return false
		}
	}
	return true
}

func equalNullDecimal(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
