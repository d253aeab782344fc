// Package ocr turns business card images into raw text. The recognition itself
// is delegated to an Engine; the tesseract subpackage provides the default one.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ImageFormat identifies the content type of an input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
)

// Input is a single image submitted for recognition.
type Input struct {
	// Path of the image on disk.
	Path string
	// Format is derived from the extension when empty.
	Format ImageFormat
	// Languages are tesseract language codes, e.g. "eng" or "eng+ind".
	Languages []string
	// Mode selects the preprocessing applied before recognition.
	Mode Mode
}

// Engine is the OCR contract: one image in, best-effort text out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (string, error)
}

// Status classifies the outcome of reading one image.
type Status string

const (
	StatusOK     Status = "ok"
	StatusEmpty  Status = "no-text"
	StatusFailed Status = "ocr-failed"
)

// Result is the per-image outcome. Err is set only when Status is StatusFailed.
type Result struct {
	Path     string
	Text     string
	Status   Status
	Err      error
	Duration time.Duration
}

// OK reports whether text was recovered.
func (r Result) OK() bool { return r.Status == StatusOK }

// Reason is a short human readable explanation of a non-OK status.
func (r Result) Reason() string {
	switch r.Status {
	case StatusFailed:
		if r.Err != nil {
			return r.Err.Error()
		}
		return "unknown error"
	case StatusEmpty:
		return ErrEmptyText.Error()
	}
	return ""
}

// Extractor runs an Engine over image paths and never lets a failure escape
// as anything other than a StatusFailed result.
type Extractor struct {
	Engine    Engine
	Languages []string
	Mode      Mode
}

// NewExtractor returns an Extractor for engine using the given languages.
func NewExtractor(engine Engine, languages ...string) *Extractor {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Extractor{Engine: engine, Languages: languages, Mode: ModeGray}
}

// Extract reads the image at path and classifies the outcome.
func (x *Extractor) Extract(ctx context.Context, path string) (res Result) {
	start := time.Now()
	res = Result{Path: path}
	defer func() {
		if r := recover(); r != nil {
			res.Text = ""
			res.Status = StatusFailed
			res.Err = fmt.Errorf("%w: panic: %v", ErrEngine, r)
		}
		res.Duration = time.Since(start)
		x.logResult(res)
	}()

	if x.Engine == nil {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("%w: no engine configured", ErrEngine)
		return res
	}
	in := Input{Path: path, Format: FormatFromPath(path), Languages: x.Languages, Mode: x.Mode}
	text, err := x.Engine.Recognize(ctx, in)
	if err != nil {
		res.Status = StatusFailed
		if errors.Is(err, ErrUnreadableImage) || errors.Is(err, ErrEngine) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			res.Err = err
		} else {
			res.Err = fmt.Errorf("%w: %v", ErrEngine, err)
		}
		return res
	}
	// an engine that ignores ctx may still answer after the deadline
	if err := ctx.Err(); err != nil {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("%w: %s: %w", ErrEngine, path, err)
		return res
	}
	if strings.TrimSpace(text) == "" {
		res.Status = StatusEmpty
		return res
	}
	res.Text = text
	res.Status = StatusOK
	return res
}

func (x *Extractor) logResult(res Result) {
	engine := "none"
	if x.Engine != nil {
		engine = x.Engine.Name()
	}
	switch res.Status {
	case StatusFailed:
		log.Warn().Err(res.Err).Str("file", res.Path).Str("engine", engine).Msg("error processing image")
	case StatusEmpty:
		log.Warn().Str("file", res.Path).Str("engine", engine).Dur("duration", res.Duration).Msg("no text recognized")
	default:
		log.Debug().Str("file", res.Path).Str("engine", engine).Dur("duration", res.Duration).
			Str("snippet", snippet(res.Text, 120)).Msg("ocr done")
	}
}
