// Package commands wires the cardscan subcommands.
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cardscan/cmd/cardscan/ui"
	"cardscan/pkg/config"
	"cardscan/pkg/logging"
	"cardscan/pkg/ocr"
	"cardscan/pkg/ocr/tesseract"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string
	quiet     bool
	noColor   bool

	cfg config.Config
	// newEngine builds the OCR engine; tests swap it for a fake.
	newEngine func() ocr.Engine
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{newEngine: func() ocr.Engine { return tesseract.New() }})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "cardscan",
		Short: "Extract contact details from business card images",
		Long: `cardscan reads every PNG/JPEG business card in a directory with OCR,
pulls out name, job title, company, phone and email, and writes them to a
single report file. It can also watch a directory, store results in Postgres
and serve them over an HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "YAML config file (default $CARDSCAN_CONFIG)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: console or json")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "no progress output and warn-level logs")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newExtractCommand(a),
		newWatchCommand(a),
		newOCRCommand(a),
		newReportCommand(a),
		newServeCommand(a),
		newMigrateCommand(a),
		newCreateUserCommand(a),
		newResetPasswordCommand(a),
		newRescanCommand(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	} else if a.quiet {
		cfg.LogLevel = "warn"
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	a.cfg = cfg
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cmd.ErrOrStderr()})
	ui.Init(a.noColor, a.quiet)
	return nil
}

// textExtractor builds the OCR front end from the effective config.
func (a *app) textExtractor() (*ocr.Extractor, error) {
	mode, err := ocr.ParseMode(a.cfg.Preprocess)
	if err != nil {
		return nil, err
	}
	x := ocr.NewExtractor(a.newEngine(), a.cfg.Languages()...)
	x.Mode = mode
	return x, nil
}

// Execute runs the CLI; Ctrl+C cancels pending work.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}
