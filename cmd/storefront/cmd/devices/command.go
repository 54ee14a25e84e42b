// Package devices provides commands for inspecting the local device catalog.
package devices

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/internal/cmd/globals"
	"github.com/agentstation/storefront/internal/cmd/output"
	"github.com/agentstation/storefront/pkg/catalog"
	"github.com/agentstation/storefront/pkg/errors"
)

// NewCommand creates the devices command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "devices",
		Aliases: []string{"device", "dispositivos"},
		GroupID: "core",
		Short:   "Inspect the local device catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newListCommand(app))
	cmd.AddCommand(newGetCommand(app))
	return cmd
}

func newListCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List devices",
		Example: `  storefront devices list
  storefront devices list -o wide
  storefront devices list --limit 10 -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags, err := globals.ParseList(cmd)
			if err != nil {
				return err
			}

			st, err := app.Store(cmd.Context())
			if err != nil {
				return err
			}
			list, _, err := st.Devices.List(cmd.Context(), flags.Page())
			if err != nil {
				return err
			}
			if list == nil {
				list = []catalog.Device{}
			}
			return output.FormatDevices(cmd.OutOrStdout(), list, output.DetectFormat(app.OutputFormat()))
		},
	}
	globals.AddListFlags(cmd, "devices")
	return cmd
}

func newGetCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one device with its features, customizations and add-ons",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.NewValidationError("id", args[0], "must be an integer")
			}

			st, err := app.Store(cmd.Context())
			if err != nil {
				return err
			}
			device, err := st.Devices.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			format := output.DetectFormat(app.OutputFormat())
			if output.IsTable(format) {
				return output.FormatDevices(cmd.OutOrStdout(), []catalog.Device{*device}, output.FormatWide)
			}
			return output.FormatAny(cmd.OutOrStdout(), device, format)
		},
	}
}
