// Package tesseract provides the default ocr.Engine backed by gosseract.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"cardscan/pkg/ocr"
)

// Engine runs tesseract through a fresh gosseract client per image, so it is
// safe to share between goroutines.
type Engine struct {
	// PageSegMode defaults to PSM_AUTO when zero.
	PageSegMode gosseract.PageSegMode
	// Whitelist restricts recognized characters when non-empty.
	Whitelist string

	clientFactory func() *gosseract.Client
}

// New constructs a tesseract-backed engine.
func New() *Engine {
	return &Engine{PageSegMode: gosseract.PSM_AUTO, clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Version reports the linked tesseract version.
func (e *Engine) Version() string {
	c := e.client()
	defer c.Close()
	return c.Version()
}

func (e *Engine) client() *gosseract.Client {
	if e.clientFactory == nil {
		return gosseract.NewClient()
	}
	return e.clientFactory()
}

// Recognize implements ocr.Engine.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := ocr.PreparePNG(in.Path, in.Mode)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		// the client is closed here, after Text returns, even when the caller gave up
		c := e.client()
		defer c.Close()
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: panic: %v", ocr.ErrEngine, r)}
			}
		}()
		text, err := e.recognize(c, in, data)
		done <- outcome{text, err}
	}()
	select {
	case o := <-done:
		return o.text, o.err
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %s: %w", ocr.ErrEngine, in.Path, ctx.Err())
	}
}

func (e *Engine) recognize(c *gosseract.Client, in ocr.Input, data []byte) (string, error) {
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return "", fmt.Errorf("%w: set languages %s: %v", ocr.ErrEngine, strings.Join(in.Languages, "+"), err)
		}
	}
	if e.PageSegMode != 0 {
		if err := c.SetPageSegMode(e.PageSegMode); err != nil {
			return "", fmt.Errorf("%w: set page seg mode: %v", ocr.ErrEngine, err)
		}
	}
	if e.Whitelist != "" {
		if err := c.SetWhitelist(e.Whitelist); err != nil {
			return "", fmt.Errorf("%w: set whitelist: %v", ocr.ErrEngine, err)
		}
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("%w: set image %s: %v", ocr.ErrEngine, in.Path, err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ocr.ErrEngine, in.Path, err)
	}
	return text, nil
}
