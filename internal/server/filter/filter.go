// Package filter provides query parameter parsing and filtering for API endpoints.
package filter

import (
	"cmp"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/agentstation/storefront/internal/store"
	"github.com/agentstation/storefront/pkg/catalog"
	"github.com/agentstation/storefront/pkg/errors"
)

// Paging defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 2000
)

// DeviceFilter contains all possible filter criteria for devices.
type DeviceFilter struct {
	// Basic filters
	Code         string
	Currency     string
	Name         string
	NameContains string

	// Price range filters
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal

	// Sorting
	Sort  string
	Order string
}

// Sortable device fields, keyed by their query name.
var deviceSorters = map[string]func(a, b catalog.Device) int{
	"id":         func(a, b catalog.Device) int { return cmp.Compare(a.ID, b.ID) },
	"codigo":     func(a, b catalog.Device) int { return strings.Compare(a.Code, b.Code) },
	"nombre":     func(a, b catalog.Device) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
	"precioBase": func(a, b catalog.Device) int { return a.BasePrice.Cmp(b.BasePrice) },
}

// ParseDeviceFilter extracts device filter parameters from HTTP request.
func ParseDeviceFilter(r *http.Request) (DeviceFilter, error) {
	q := r.URL.Query()

	f := DeviceFilter{
		Code:         q.Get("codigo"),
		Currency:     q.Get("moneda"),
		Name:         q.Get("nombre"),
		NameContains: q.Get("nombre_contains"),
		Order:        strings.ToLower(q.Get("order")),
	}

	// Also accept the "sort=field,desc" form.
	if sort := q.Get("sort"); sort != "" {
		field, dir, found := strings.Cut(sort, ",")
		f.Sort = field
		if found {
			f.Order = strings.ToLower(dir)
		}
	}
	if f.Sort != "" {
		if _, ok := deviceSorters[f.Sort]; !ok {
			return DeviceFilter{}, errors.NewValidationError("sort", f.Sort, "unknown sort field")
		}
	}
	if f.Order != "" && f.Order != "asc" && f.Order != "desc" {
		return DeviceFilter{}, errors.NewValidationError("order", f.Order, "must be asc or desc")
	}

	var err error
	if f.MinPrice, err = parseDecimal(q.Get("min_precio"), "min_precio"); err != nil {
		return DeviceFilter{}, err
	}
	if f.MaxPrice, err = parseDecimal(q.Get("max_precio"), "max_precio"); err != nil {
		return DeviceFilter{}, err
	}

	return f, nil
}

// Apply applies the filter to a list of devices and returns filtered results.
// The input slice is not modified.
func (f DeviceFilter) Apply(devices []catalog.Device) []catalog.Device {
	results := make([]catalog.Device, 0, len(devices))
	for _, d := range devices {
		if f.matches(d) {
			results = append(results, d)
		}
	}

	if f.Sort != "" {
		less := deviceSorters[f.Sort]
		slices.SortStableFunc(results, func(a, b catalog.Device) int {
			if f.Order == "desc" {
				return less(b, a)
			}
			return less(a, b)
		})
	}

	return results
}

// matches checks if a device matches the filter criteria.
func (f DeviceFilter) matches(d catalog.Device) bool {
	return f.matchesBasicFilters(d) && f.matchesPriceFilters(d)
}

// matchesBasicFilters checks code, currency and name filters.
func (f DeviceFilter) matchesBasicFilters(d catalog.Device) bool {
	if f.Code != "" && !strings.EqualFold(d.Code, f.Code) {
		return false
	}
	if f.Currency != "" && !strings.EqualFold(d.Currency, f.Currency) {
		return false
	}
	if f.Name != "" && !strings.EqualFold(d.Name, f.Name) {
		return false
	}
	if f.NameContains != "" && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	return true
}

// matchesPriceFilters checks the base price range.
func (f DeviceFilter) matchesPriceFilters(d catalog.Device) bool {
	if f.MinPrice != nil && d.BasePrice.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && d.BasePrice.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

// IsZero reports whether the filter selects and orders nothing.
func (f DeviceFilter) IsZero() bool {
	return f.Code == "" && f.Currency == "" && f.Name == "" && f.NameContains == "" &&
		f.MinPrice == nil && f.MaxPrice == nil && f.Sort == ""
}

// ParsePage extracts zero-based page and size parameters.
func ParsePage(r *http.Request) (store.Page, error) {
	q := r.URL.Query()

	page, err := parseIntOrDefault(q.Get("page"), 0, "page")
	if err != nil {
		return store.Page{}, err
	}
	size, err := parseIntOrDefault(q.Get("size"), DefaultPageSize, "size")
	if err != nil {
		return store.Page{}, err
	}
	if page < 0 {
		return store.Page{}, errors.NewValidationError("page", page, "must not be negative")
	}
	if size < 1 || size > MaxPageSize {
		return store.Page{}, errors.NewValidationError("size", size, "must be between 1 and "+strconv.Itoa(MaxPageSize))
	}
	return store.Page{Number: page, Size: size}, nil
}

// Slice returns the items of page p within items.
func Slice[T any](items []T, p store.Page) []T {
	start := p.Number * p.Size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+p.Size, len(items))
	return items[start:end]
}

// parseIntOrDefault parses an integer or returns the default value.
func parseIntOrDefault(s string, def int, field string) (int, error) {
	if s == "" {
		return def, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NewValidationError(field, s, "must be an integer")
	}
	return i, nil
}

func parseDecimal(s, field string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.NewValidationError(field, s, "must be a number")
	}
	return &d, nil
}
