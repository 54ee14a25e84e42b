// Package sales provides commands for inspecting recorded sales.
package sales

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/internal/cmd/globals"
	"github.com/agentstation/storefront/internal/cmd/output"
	"github.com/agentstation/storefront/pkg/sales"
)

// NewCommand creates the sales command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sales",
		Aliases: []string{"sale", "ventas"},
		GroupID: "core",
		Short:   "Inspect recorded sales",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newListCommand(app))
	return cmd
}

func newListCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List sales, optionally for one user",
		Example: `  storefront sales list
  storefront sales list --user 3 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, _ := cmd.Flags().GetInt64("user")
			flags, err := globals.ParseList(cmd)
			if err != nil {
				return err
			}

			st, err := app.Store(cmd.Context())
			if err != nil {
				return err
			}

			var list []sales.Sale
			if cmd.Flags().Changed("user") {
				list, err = st.Sales.ListByUser(cmd.Context(), userID)
				if err == nil {
					list = list[:flags.Truncate(len(list))]
				}
			} else {
				list, _, err = st.Sales.List(cmd.Context(), flags.Page())
			}
			if err != nil {
				return err
			}
			if list == nil {
				list = []sales.Sale{}
			}
			return output.FormatSales(cmd.OutOrStdout(), list, output.DetectFormat(app.OutputFormat()))
		},
	}
	cmd.Flags().Int64("user", 0, "Only list sales of this user id")
	globals.AddListFlags(cmd, "sales")
	return cmd
}
