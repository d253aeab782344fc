package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"cardscan/pkg/config"
	"cardscan/process"
)

// scanFlags are shared by extract and watch. Values only override the
// config when the flag was given.
type scanFlags struct {
	output          string
	format          string
	workers         int
	includeFailures bool
	lang            string
	preprocess      string
	timeout         time.Duration
}

func (f *scanFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.output, "output", "o", "", "report file (default <dir>/extracted_contacts.txt)")
	fs.StringVarP(&f.format, "format", "f", "txt", "report format: txt or xlsx")
	fs.IntVarP(&f.workers, "workers", "w", 1, "images read concurrently")
	fs.BoolVar(&f.includeFailures, "include-failures", false, "write a block with a Status line for unreadable images")
	fs.StringVarP(&f.lang, "lang", "l", "", "tesseract languages, e.g. eng+ind")
	fs.StringVar(&f.preprocess, "preprocess", "", "preprocessing: none, gray, binary, adaptive, sharpen")
	fs.DurationVar(&f.timeout, "timeout", 0, "per-image timeout, 0 for none")
}

func (f *scanFlags) apply(cmd *cobra.Command, a *app) {
	fs := cmd.Flags()
	if fs.Changed("output") {
		a.cfg.Output = f.output
	}
	if fs.Changed("workers") {
		a.cfg.Workers = f.workers
	}
	if fs.Changed("include-failures") {
		a.cfg.IncludeFailures = f.includeFailures
	}
	if fs.Changed("lang") {
		a.cfg.Language = f.lang
	}
	if fs.Changed("preprocess") {
		a.cfg.Preprocess = f.preprocess
	}
	if fs.Changed("timeout") {
		a.cfg.ImageTimeout = f.timeout
	}
}

// options resolves the directory and builds batch options.
func (f *scanFlags) options(cmd *cobra.Command, a *app, args []string) (process.Options, error) {
	f.apply(cmd, a)
	dir := a.cfg.Dir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return process.Options{}, fmt.Errorf("no directory given (argument or CARDSCAN_DIR)")
	}
	format, err := process.ParseFormat(f.format)
	if err != nil {
		return process.Options{}, err
	}
	text, err := a.textExtractor()
	if err != nil {
		return process.Options{}, err
	}
	output := a.cfg.Output
	// the xlsx default follows the format unless an output was chosen
	if format == process.FormatXLSX && !cmd.Flags().Changed("output") && output == config.DefaultOutput {
		output = ""
	}
	return process.Options{
		Dir:             dir,
		Output:          output,
		Format:          format,
		Workers:         a.cfg.Workers,
		IncludeFailures: a.cfg.IncludeFailures,
		ImageTimeout:    a.cfg.ImageTimeout,
		Text:            text,
	}, nil
}
