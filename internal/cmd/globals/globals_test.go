package globals

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/internal/store"
	"github.com/agentstation/storefront/pkg/errors"
)

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "list"}
	AddListFlags(cmd, "things")
	return cmd
}

func TestParseList(t *testing.T) {
	cmd := newListCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-l", "5"}))

	flags, err := ParseList(cmd)
	require.NoError(t, err)
	assert.Equal(t, 5, flags.Limit)
	assert.Equal(t, store.Page{Size: 5}, flags.Page())
	assert.Equal(t, 5, flags.Truncate(9))
	assert.Equal(t, 3, flags.Truncate(3))
}

func TestParseListDefaultListsAll(t *testing.T) {
	cmd := newListCommand()
	require.NoError(t, cmd.ParseFlags(nil))

	flags, err := ParseList(cmd)
	require.NoError(t, err)
	assert.Zero(t, flags.Page().Size)
	assert.Equal(t, 42, flags.Truncate(42))
}

func TestParseListRejectsNegativeLimit(t *testing.T) {
	cmd := newListCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--limit", "-1"}))

	_, err := ParseList(cmd)
	assert.True(t, errors.IsValidationError(err))
}

func TestParseListPanicsWithoutFlags(t *testing.T) {
	assert.Panics(t, func() { _, _ = ParseList(&cobra.Command{Use: "bare"}) })
}
