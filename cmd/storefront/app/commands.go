package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/cmd/storefront/cmd/catalogsync"
	"github.com/agentstation/storefront/cmd/storefront/cmd/devices"
	"github.com/agentstation/storefront/cmd/storefront/cmd/sales"
	"github.com/agentstation/storefront/cmd/storefront/cmd/serve"
	"github.com/agentstation/storefront/cmd/storefront/cmd/users"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(serve.NewCommand(a))
	rootCmd.AddCommand(catalogsync.NewCommand(a))
	rootCmd.AddCommand(devices.NewCommand(a))
	rootCmd.AddCommand(sales.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(users.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.NewVersionCommand())
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("storefront %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
