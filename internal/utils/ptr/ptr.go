// Package ptr returns pointers to values, for the optional columns and
// JSON fields of the storefront models.
package ptr

import "time"

// To creates a pointer to the given value.
func To[T any](v T) *T {
	return &v
}

// String creates a pointer to the given string value.
func String(s string) *string {
	return &s
}

// Int64 creates a pointer to the given int64 value.
func Int64(i int64) *int64 {
	return &i
}

// Time creates a pointer to the given time.
func Time(t time.Time) *time.Time {
	return &t
}

// Deref returns the value v points at, or the zero value when v is nil.
func Deref[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}
