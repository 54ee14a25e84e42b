// Package globals provides flag structures shared by the listing commands.
package globals

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/internal/store"
	"github.com/agentstation/storefront/pkg/errors"
)

// ListFlags holds the flags of a list command.
type ListFlags struct {
	Limit int
}

// Page returns the store page the flags select. A zero limit lists all rows.
func (f *ListFlags) Page() store.Page {
	return store.Page{Size: f.Limit}
}

// Truncate cuts n down to the limit, if one is set.
func (f *ListFlags) Truncate(n int) int {
	if f.Limit > 0 && n > f.Limit {
		return f.Limit
	}
	return n
}

// AddListFlags adds --limit to a list command. noun names what is listed.
func AddListFlags(cmd *cobra.Command, noun string) {
	cmd.Flags().IntP("limit", "l", 0,
		"Maximum number of "+noun+" to list (0 lists all)")
}

// ParseList extracts the list flags from a command.
// The command must have had AddListFlags called on it, otherwise this will panic.
func ParseList(cmd *cobra.Command) (*ListFlags, error) {
	limit := mustGetInt(cmd, "limit")
	if limit < 0 {
		return nil, errors.NewValidationError("limit", limit, "must be non-negative")
	}
	return &ListFlags{Limit: limit}, nil
}

// mustGetInt retrieves an integer flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
