package commands

import (
	"github.com/spf13/cobra"

	"cardscan/server"
)

func newServeCommand(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (needs DB_DSN)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.ListenAddr = listen
			}
			db, err := server.OpenDB(a.cfg.DatabaseDSN, a.cfg.DBAutoMigrate)
			if err != nil {
				return err
			}
			if err := server.Seed(db, a.cfg.UploadBase); err != nil {
				return err
			}
			text, err := a.textExtractor()
			if err != nil {
				return err
			}
			return server.New(a.cfg, db, text).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default $LISTEN_ADDR or :8081)")
	return cmd
}
