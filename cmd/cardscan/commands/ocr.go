package commands

import (
	"time"

	"github.com/spf13/cobra"

	"cardscan/cmd/cardscan/ui"
	"cardscan/pkg/contact"
)

func newOCRCommand(a *app) *cobra.Command {
	var (
		lang       string
		preprocess string
		rawOnly    bool
	)
	cmd := &cobra.Command{
		Use:   "ocr <image>",
		Short: "Read a single image and print its raw text and parsed fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("lang") {
				a.cfg.Language = lang
			}
			if cmd.Flags().Changed("preprocess") {
				a.cfg.Preprocess = preprocess
			}
			text, err := a.textExtractor()
			if err != nil {
				return err
			}
			sp := ui.NewSpinner("Reading " + args[0])
			sp.Start()
			res := text.Extract(cmd.Context(), args[0])
			sp.Stop()
			if !res.OK() {
				ui.Error("%s: %s", res.Status, res.Reason())
				return nil
			}
			if rawOnly {
				ui.Message("%s", res.Text)
				return nil
			}
			ui.Section("Raw text")
			ui.Message("%s", res.Text)
			ui.Section("Fields")
			rows := [][]string{}
			for _, kv := range contact.Extract(res.Text).Pairs() {
				rows = append(rows, []string{kv[0], kv[1]})
			}
			ui.Table([]string{"Field", "Value"}, rows)
			ui.Success("read in %s (mode %s)", res.Duration.Round(time.Millisecond), text.Mode)
			return nil
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "tesseract languages, e.g. eng+ind")
	cmd.Flags().StringVar(&preprocess, "preprocess", "", "preprocessing: none, gray, binary, adaptive, sharpen")
	cmd.Flags().BoolVar(&rawOnly, "raw", false, "print only the recognized text")
	return cmd
}
