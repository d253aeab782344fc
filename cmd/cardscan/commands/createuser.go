package commands

import (
	"github.com/spf13/cobra"

	"cardscan/cmd/cardscan/ui"
	"cardscan/models"
	"cardscan/server"
)

func newCreateUserCommand(a *app) *cobra.Command {
	var admin bool
	cmd := &cobra.Command{
		Use:   "create-user <username> <password>",
		Short: "Create an API account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := server.OpenDB(a.cfg.DatabaseDSN, a.cfg.DBAutoMigrate)
			if err != nil {
				return err
			}
			role := models.RoleUser
			if admin {
				role = models.RoleAdministrator
			}
			user, created, err := server.EnsureUser(db, args[0], args[1], role)
			if err != nil {
				return err
			}
			if !created {
				ui.Warning("user %s already exists (id=%d)", user.Username, user.ID)
				return nil
			}
			ui.Success("created user %s id=%d role=%s", user.Username, user.ID, role)
			return nil
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the administrator role")
	return cmd
}

func newResetPasswordCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <username> <password>",
		Short: "Set a new password for an API account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := server.OpenDB(a.cfg.DatabaseDSN, false)
			if err != nil {
				return err
			}
			if err := server.ResetPassword(db, args[0], args[1]); err != nil {
				return err
			}
			ui.Success("password reset for user %s", args[0])
			return nil
		},
	}
}
