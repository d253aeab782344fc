package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"cardscan/cmd/cardscan/ui"
	"cardscan/process"
	"cardscan/process/report"
)

func newReportCommand(a *app) *cobra.Command {
	var (
		q               report.QueryOptions
		format          string
		output          string
		includeFailures bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Rebuild a report from stored runs (needs DB_DSN)",
		Example: `  cardscan report                       # latest run to stdout
  cardscan report --run <uuid> -o run.txt
  cardscan report --all --format xlsx -o contacts.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := process.ParseFormat(format)
			if err != nil {
				return err
			}
			runID, entries, err := report.Query(cmd.Context(), a.cfg.DatabaseDSN, q)
			if err != nil {
				return err
			}
			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}
			opts := report.Options{IncludeFailures: includeFailures}
			var n int
			if f == process.FormatXLSX {
				n, err = report.WriteXLSX(w, entries, opts)
			} else {
				n, err = report.WriteText(w, entries, opts)
			}
			if err != nil {
				return err
			}
			if output != "" {
				ui.Success("%d contact(s) from run %s written to %s", n, displayRun(runID, q.AllRuns), output)
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&q.RunID, "run", "", "run id (default latest run)")
	fs.BoolVar(&q.AllRuns, "all", false, "include every stored card")
	fs.IntVar(&q.Limit, "limit", 0, "maximum number of cards")
	fs.StringVarP(&format, "format", "f", "txt", "txt or xlsx")
	fs.StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	fs.BoolVar(&includeFailures, "include-failures", false, "include unreadable cards with a Status line")
	return cmd
}

func displayRun(id string, all bool) string {
	switch {
	case all:
		return "(all)"
	case id == "":
		return "(none)"
	}
	return id
}
