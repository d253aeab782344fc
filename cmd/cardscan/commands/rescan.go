package commands

import (
	"github.com/spf13/cobra"

	"cardscan/cmd/cardscan/ui"
	"cardscan/pkg/contact"
	"cardscan/pkg/ocr"
	"cardscan/process"
	"cardscan/process/rescan"
)

func newRescanCommand(a *app) *cobra.Command {
	var (
		statuses   []string
		limit      int
		dry        bool
		preprocess string
	)
	cmd := &cobra.Command{
		Use:   "rescan",
		Short: "Retry stored cards that previously failed, with stronger preprocessing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.Preprocess = preprocess
			text, err := a.textExtractor()
			if err != nil {
				return err
			}
			st, err := process.OpenStore(a.cfg.DatabaseDSN, a.cfg.DBAutoMigrate)
			if err != nil {
				return err
			}
			defer st.Close()

			opts := rescan.Options{Limit: limit, Dry: dry, Out: cmd.OutOrStdout()}
			for _, s := range statuses {
				opts.Statuses = append(opts.Statuses, ocr.Status(s))
			}
			sum, err := rescan.Run(cmd.Context(), st, text, contact.Default, opts)
			if err != nil {
				return err
			}
			ui.Success("checked %d card(s): %d recovered, %d unchanged, %d missing on disk",
				sum.Checked, sum.Recovered, sum.Unchanged, sum.Missing)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringSliceVar(&statuses, "status", nil, "statuses to retry (default no-text,ocr-failed)")
	fs.IntVar(&limit, "limit", 0, "maximum number of cards, 0 for all")
	fs.BoolVar(&dry, "dry", false, "only print what would change")
	fs.StringVar(&preprocess, "preprocess", string(ocr.ModeSharpen), "preprocessing used for the retry")
	return cmd
}
