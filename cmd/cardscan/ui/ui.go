// Package ui renders progress and status lines for the cardscan CLI.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

var (
	// Out receives normal output; Err receives progress and errors.
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr

	quiet bool
)

// Init applies the color and quiet settings.
func Init(noColor, q bool) {
	quiet = q
	if noColor {
		color.NoColor = true
	}
}

// ProgressBar wraps a progressbar instance counting processed images.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar creates a bar for total items. In quiet mode it renders nothing.
func NewProgressBar(total int, description string) *ProgressBar {
	w := Err
	if quiet {
		w = io.Discard
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("cards"),
		progressbar.OptionShowIts(),
		progressbar.OptionOnCompletion(func() { fmt.Fprint(w, "\n") }),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &ProgressBar{bar: bar}
}

// Set moves the bar to current.
func (p *ProgressBar) Set(current int) { _ = p.bar.Set(current) }

// SetTotal changes the maximum once the file count is known.
func (p *ProgressBar) SetTotal(total int) { p.bar.ChangeMax(total) }

// Finish completes the bar.
func (p *ProgressBar) Finish() { _ = p.bar.Finish() }

// Spinner shows indeterminate progress for single long steps.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a stopped spinner with message.
func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(Err))
	s.Suffix = " " + message
	return &Spinner{s: s}
}

func (s *Spinner) Start() {
	if !quiet {
		s.s.Start()
	}
}

func (s *Spinner) Stop() { s.s.Stop() }

// Success prints a green check line.
func Success(format string, args ...any) {
	fmt.Fprintf(Out, "%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

// Warning prints a yellow line to Err.
func Warning(format string, args ...any) {
	fmt.Fprintf(Err, "%s %s\n", color.YellowString("⚠"), fmt.Sprintf(format, args...))
}

// Error prints a red line to Err.
func Error(format string, args ...any) {
	fmt.Fprintf(Err, "%s %s\n", color.RedString("✗"), fmt.Sprintf(format, args...))
}

// Message prints a plain line to Out.
func Message(format string, args ...any) {
	fmt.Fprintf(Out, format+"\n", args...)
}

// Section prints an underlined header.
func Section(title string) {
	fmt.Fprintf(Out, "\n%s\n%s\n", color.New(color.Bold).Sprint(title), strings.Repeat("=", len(title)))
}

// Table prints rows aligned under headers.
func Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	sep := make([]string, len(headers))
	for i, h := range headers {
		sep[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(w, strings.Join(sep, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}
