package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"cardscan/cmd/cardscan/ui"
	"cardscan/process"
)

func newExtractCommand(a *app) *cobra.Command {
	var (
		flags scanFlags
		store bool
	)
	cmd := &cobra.Command{
		Use:   "extract [dir]",
		Short: "Read every card image in a directory and write the contacts report",
		Example: `  cardscan extract ./cards
  cardscan extract ./cards --workers 4 --format xlsx
  CARDSCAN_DIR=./cards cardscan extract --include-failures`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, a, args)
			if err != nil {
				return err
			}
			if store {
				st, err := process.OpenStore(a.cfg.DatabaseDSN, a.cfg.DBAutoMigrate)
				if err != nil {
					return err
				}
				defer st.Close()
				opts.Store = st
			}

			var bar *ui.ProgressBar
			opts.OnProgress = func(done, total int) {
				if bar == nil {
					bar = ui.NewProgressBar(total, "Reading cards")
				}
				bar.Set(done)
			}
			sum, err := process.Run(cmd.Context(), opts)
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return err
			}
			printSummary(sum)
			return nil
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&store, "store", false, "also save the run, cards and contacts to Postgres (DB_DSN)")
	return cmd
}

func printSummary(sum process.Summary) {
	ui.Message("Extraction complete. Results saved to: %s", sum.ReportPath)
	if sum.Processed == 0 {
		ui.Warning("no .png, .jpg or .jpeg files found")
		return
	}
	ui.Table([]string{"Images", "Written", "OK", "No text", "Failed"}, [][]string{{
		strconv.Itoa(sum.Processed), strconv.Itoa(sum.Written), strconv.Itoa(sum.OK),
		strconv.Itoa(sum.Empty), strconv.Itoa(sum.Failed),
	}})
	if sum.Failed > 0 {
		ui.Warning("%d image(s) could not be read; see the log for details", sum.Failed)
	}
}
