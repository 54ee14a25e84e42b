// Package catalogsync provides the command that runs one catalog sync cycle.
package catalogsync

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/internal/cmd/alerts"
	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/internal/cmd/output"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/logging"
	syncpkg "github.com/agentstation/storefront/pkg/sync"
)

// NewCommand creates the sync command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Run one catalog sync cycle against the upstream service",
		Long: `Sync fetches the upstream device catalog once and reconciles it into the
local database: unknown devices are added, changed devices are replaced and
devices missing upstream are left in place.

With --dry-run the devices are classified but nothing is written.`,
		Example: `  storefront sync
  storefront sync --dry-run -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			ctx := logging.WithLogger(cmd.Context(), app.Logger())
			syncer, err := app.Syncer(ctx)
			if err != nil {
				return err
			}

			run, err := syncer.Run(ctx,
				syncpkg.WithTrigger(syncpkg.TriggerManual),
				syncpkg.WithDryRun(dryRun),
				syncpkg.WithTimeout(timeout),
			)
			if run == nil {
				return err
			}

			format := output.DetectFormat(app.OutputFormat())
			if ferr := output.FormatRun(cmd.OutOrStdout(), *run, format); ferr != nil {
				return ferr
			}
			_ = alerts.NewFormatWriter(cmd.ErrOrStderr(), format).WriteAlert(runAlert(run))
			return err
		},
	}

	cmd.Flags().Bool("dry-run", false, "Classify devices without writing them")
	cmd.Flags().Duration("timeout", constants.SyncRunTimeout, "Upper bound for the cycle")

	return cmd
}

// runAlert summarizes a finished run as a status line.
func runAlert(run *syncpkg.Run) *alerts.Alert {
	switch {
	case run.Status == syncpkg.StatusFailed:
		return alerts.NewError(run.Summary()).WithDetails("error class: " + run.ErrorClass)
	case run.DryRun:
		return alerts.NewWarning(run.Summary()).WithDetails("dry run, nothing was written")
	default:
		return alerts.NewSuccess(run.Summary())
	}
}
