package commands

import (
	"github.com/spf13/cobra"

	"cardscan/cmd/cardscan/ui"
	"cardscan/process"
)

func newWatchCommand(a *app) *cobra.Command {
	var flags scanFlags
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Extract once, then rebuild the report whenever card images change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, a, args)
			if err != nil {
				return err
			}
			ui.Message("Watching %s (Ctrl+C to stop)", opts.Dir)
			return process.Watch(cmd.Context(), opts)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}
