// Package users provides commands for managing storefront accounts.
package users

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/storefront/internal/account"
	"github.com/agentstation/storefront/internal/cmd/alerts"
	"github.com/agentstation/storefront/internal/cmd/application"
	"github.com/agentstation/storefront/internal/cmd/globals"
	"github.com/agentstation/storefront/internal/cmd/output"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/users"
)

// NewCommand creates the users command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		GroupID: "management",
		Short:   "Manage storefront accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newAddCommand(app))
	cmd.AddCommand(newListCommand(app))
	return cmd
}

func newAddCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an activated account",
		Long: `Add creates an account that can sign in immediately. Use --admin to grant
ROLE_ADMIN, which is required for /api/admin and for managing the catalog.

Pass --password - to read the password from the first line of stdin.`,
		Example: `  storefront users add --login admin --email admin@example.com --password - --admin
  storefront users add --login buyer --email buyer@example.com --password s3cret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			login, _ := cmd.Flags().GetString("login")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			admin, _ := cmd.Flags().GetBool("admin")

			if password == "-" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.NewValidationError("password", "-", "no password on stdin")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			accounts, err := app.Accounts(cmd.Context())
			if err != nil {
				return err
			}
			user, err := accounts.CreateUser(cmd.Context(), account.NewUser{
				Login:    login,
				Email:    email,
				Password: password,
				Admin:    admin,
			})
			if err != nil {
				return err
			}

			app.Logger().Info().Int64("user_id", user.ID).Str("login", user.Login).Bool("admin", admin).Msg("User created")

			format := output.DetectFormat(app.OutputFormat())
			if err := output.FormatUsers(cmd.OutOrStdout(), []users.User{*user}, format); err != nil {
				return err
			}
			return alerts.NewFormatWriter(cmd.ErrOrStderr(), format).
				WriteAlert(alerts.NewSuccess("Created user " + user.Login).WithDetails("roles: " + strings.Join(user.AuthorityNames(), ",")))
		},
	}

	cmd.Flags().String("login", "", "Login name")
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("password", "", "Password, or - to read it from stdin")
	cmd.Flags().Bool("admin", false, "Grant ROLE_ADMIN")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newListCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List accounts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags, err := globals.ParseList(cmd)
			if err != nil {
				return err
			}

			accounts, err := app.Accounts(cmd.Context())
			if err != nil {
				return err
			}
			list, _, err := accounts.List(cmd.Context(), flags.Page())
			if err != nil {
				return err
			}
			if list == nil {
				list = []users.User{}
			}
			return output.FormatUsers(cmd.OutOrStdout(), list, output.DetectFormat(app.OutputFormat()))
		},
	}
	globals.AddListFlags(cmd, "accounts")
	return cmd
}
