package commands

import (
	"github.com/spf13/cobra"

	"cardscan/cmd/cardscan/ui"
	"cardscan/server"
)

// newMigrateCommand runs AutoMigrate and seeding then exits. Useful for CI or
// manual DB setup.
func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and seed roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := server.OpenDB(a.cfg.DatabaseDSN, true)
			if err != nil {
				return err
			}
			if err := server.Seed(db, a.cfg.UploadBase); err != nil {
				return err
			}
			ui.Success("migration and seeding completed")
			return nil
		},
	}
}
