// Package process runs the batch driver: it reads every card image in a
// directory, extracts contact fields and writes one aggregated report.
package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"cardscan/pkg/config"
	"cardscan/pkg/contact"
	"cardscan/pkg/ocr"
	"cardscan/process/report"
)

// Format selects the report serialization.
type Format string

const (
	FormatText Format = "txt"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format name; "" means FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "text":
		return FormatText, nil
	case FormatText, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// TextExtractor reads the text of one image. *ocr.Extractor implements it.
type TextExtractor interface {
	Extract(ctx context.Context, path string) ocr.Result
}

// Options configures a batch run.
type Options struct {
	Dir string
	// Output is the report path; a bare file name is placed inside Dir.
	// Defaults to extracted_contacts.txt (or .xlsx for FormatXLSX).
	Output string
	Format Format
	// Workers bounds concurrent OCR; values below 1 mean sequential.
	Workers         int
	IncludeFailures bool
	// ImageTimeout bounds one image; zero disables it.
	ImageTimeout time.Duration

	Text   TextExtractor
	Fields contact.Extractor
	// Store persists the run when non-nil.
	Store *Store
	// OnProgress is called after each image with the number done so far.
	OnProgress func(done, total int)
}

// Outcome is the per-image result kept in input order.
type Outcome struct {
	FileName string
	Path     string
	OCR      ocr.Result
	Record   contact.Record
}

// Entry converts the outcome for the report writers.
func (o Outcome) Entry() report.Entry {
	return report.Entry{FileName: o.FileName, Record: o.Record, Status: o.OCR.Status, Reason: o.OCR.Reason()}
}

// Summary describes a finished run.
type Summary struct {
	RunID      string
	ReportPath string
	Processed  int
	OK         int
	Empty      int
	Failed     int
	Written    int
	Duration   time.Duration
}

type runner struct {
	opts   Options
	format Format
	output string
}

func newRunner(opts Options) (*runner, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("%w: no directory given", ErrReadDir)
	}
	if opts.Text == nil {
		return nil, fmt.Errorf("no text extractor configured")
	}
	if opts.Fields == nil {
		opts.Fields = contact.Default
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	format := opts.Format
	if format == "" {
		format = FormatText
	}
	output := opts.Output
	if output == "" {
		output = config.DefaultOutput
		if format == FormatXLSX {
			output = strings.TrimSuffix(output, filepath.Ext(output)) + ".xlsx"
		}
	}
	if filepath.Base(output) == output {
		output = filepath.Join(opts.Dir, output)
	}
	return &runner{opts: opts, format: format, output: output}, nil
}

// Run processes every supported image in opts.Dir. Per-image failures never
// abort the run; only an unreadable directory, an unwritable report or a
// canceled context do.
func Run(ctx context.Context, opts Options) (Summary, error) {
	start := time.Now()
	r, err := newRunner(opts)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{RunID: uuid.NewString(), ReportPath: r.output}

	files, err := ListImageFiles(r.opts.Dir, filepath.Base(r.output))
	if err != nil {
		return sum, err
	}
	sum.Processed = len(files)
	log.Info().Str("dir", r.opts.Dir).Int("files", len(files)).Int("workers", r.opts.Workers).Str("run", sum.RunID).Msg("scanning")

	// Create the report up front so an unwritable destination fails before any OCR.
	pending, err := r.createReport()
	if err != nil {
		return sum, err
	}
	defer pending.abort()

	outcomes, err := r.processAll(ctx, files)
	if err != nil {
		return sum, err
	}
	tallyOutcomes(&sum, outcomes)

	written, err := r.writeReport(pending, outcomes)
	if err != nil {
		return sum, err
	}
	sum.Written = written
	sum.Duration = time.Since(start)

	if r.opts.Store != nil {
		if err := r.opts.Store.SaveRun(ctx, r.opts.Dir, sum, outcomes); err != nil {
			log.Error().Err(err).Str("run", sum.RunID).Msg("failed to store run")
		}
	}
	log.Info().Str("report", r.output).Int("written", sum.Written).Int("ok", sum.OK).
		Int("no_text", sum.Empty).Int("failed", sum.Failed).Dur("duration", sum.Duration).Msg("extraction complete")
	return sum, nil
}

func tallyOutcomes(sum *Summary, outcomes []Outcome) {
	for _, o := range outcomes {
		switch o.OCR.Status {
		case ocr.StatusOK:
			sum.OK++
		case ocr.StatusEmpty:
			sum.Empty++
		default:
			sum.Failed++
		}
	}
}

// processAll runs the bounded pool. Results land at their input index so the
// report order never depends on scheduling.
func (r *runner) processAll(ctx context.Context, files []string) ([]Outcome, error) {
	outcomes := make([]Outcome, len(files))
	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, name := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcomes[i] = r.processOne(gctx, name)
			if r.opts.OnProgress != nil {
				mu.Lock()
				done++
				r.opts.OnProgress(done, len(files))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}
	return outcomes, nil
}

// processOne runs the text then the field extractor for a single image.
func (r *runner) processOne(ctx context.Context, name string) Outcome {
	path := filepath.Join(r.opts.Dir, name)
	if r.opts.ImageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.ImageTimeout)
		defer cancel()
	}
	res := r.opts.Text.Extract(ctx, path)
	out := Outcome{FileName: name, Path: path, OCR: res}
	if res.OK() {
		out.Record = r.opts.Fields.Extract(res.Text)
	} else {
		out.Record = r.opts.Fields.Extract("")
	}
	return out
}

// pendingReport is a temp file renamed over the report once complete, so an
// interrupted run leaves the previous report untouched.
type pendingReport struct {
	f      *os.File
	target string
	done   bool
}

func (r *runner) createReport() (*pendingReport, error) {
	dir := filepath.Dir(r.output)
	f, err := os.CreateTemp(dir, "."+filepath.Base(r.output)+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrWriteReport, r.output, err)
	}
	return &pendingReport{f: f, target: r.output}, nil
}

func (p *pendingReport) commit() error {
	if err := p.f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteReport, p.target, err)
	}
	if err := os.Chmod(p.f.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteReport, p.target, err)
	}
	if err := os.Rename(p.f.Name(), p.target); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteReport, p.target, err)
	}
	p.done = true
	return nil
}

func (p *pendingReport) abort() {
	if p.done {
		return
	}
	_ = p.f.Close()
	_ = os.Remove(p.f.Name())
}

func (r *runner) writeReport(p *pendingReport, outcomes []Outcome) (int, error) {
	n, err := r.encode(p.f, outcomes)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrWriteReport, err)
	}
	return n, p.commit()
}

func (r *runner) encode(w io.Writer, outcomes []Outcome) (int, error) {
	entries := make([]report.Entry, 0, len(outcomes))
	for _, o := range outcomes {
		entries = append(entries, o.Entry())
	}
	ropts := report.Options{IncludeFailures: r.opts.IncludeFailures}
	if r.format == FormatXLSX {
		return report.WriteXLSX(w, entries, ropts)
	}
	return report.WriteText(w, entries, ropts)
}
