// Package rescan re-reads stored cards whose earlier OCR did not succeed,
// typically with a stronger preprocessing mode, and updates them in place.
package rescan

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"cardscan/models"
	"cardscan/pkg/contact"
	"cardscan/pkg/ocr"
	"cardscan/process"
)

// Options controls a rescan pass.
type Options struct {
	// Statuses selects the cards to retry; defaults to no-text and ocr-failed.
	Statuses []ocr.Status
	// Limit caps the number of cards, 0 means all.
	Limit int
	// Dry only prints what would change.
	Dry bool
	// Out receives one line per card; defaults to os.Stdout.
	Out io.Writer
}

// Summary counts what a pass did.
type Summary struct {
	Checked   int
	Recovered int
	Unchanged int
	Missing   int
}

// Run retries matching cards with text and stores any improvement.
func Run(ctx context.Context, store *process.Store, text process.TextExtractor, fields contact.Extractor, opts Options) (Summary, error) {
	var sum Summary
	if fields == nil {
		fields = contact.Default
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	statuses := opts.Statuses
	if len(statuses) == 0 {
		statuses = []ocr.Status{ocr.StatusEmpty, ocr.StatusFailed}
	}
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	var cards []models.Card
	q := store.DB.WithContext(ctx).Where("status IN ?", names).Order("id")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if err := q.Find(&cards).Error; err != nil {
		return sum, fmt.Errorf("load cards: %w", err)
	}

	for i := range cards {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		card := &cards[i]
		sum.Checked++
		if card.StorePath == "" {
			sum.Missing++
			continue
		}
		if _, err := os.Stat(card.StorePath); err != nil {
			log.Warn().Err(err).Uint("card", card.ID).Str("file", card.FileName).Msg("image no longer on disk")
			sum.Missing++
			continue
		}
		res := text.Extract(ctx, card.StorePath)
		if !res.OK() {
			log.Info().Uint("card", card.ID).Str("file", card.FileName).Str("status", string(res.Status)).Msg("rescan skipped")
			sum.Unchanged++
			continue
		}
		rec := fields.Extract(res.Text)
		if opts.Dry {
			fmt.Fprintf(opts.Out, "DRY: would update card id=%d file=%s status=%s->%s name=%q\n", card.ID, card.FileName, card.Status, res.Status, rec.Name)
			sum.Recovered++
			continue
		}
		old := card.Status
		if err := store.UpdateCard(ctx, card, res, rec); err != nil {
			log.Error().Err(err).Uint("card", card.ID).Msg("failed to update card")
			sum.Unchanged++
			continue
		}
		fmt.Fprintf(opts.Out, "updated card id=%d file=%s status=%s->%s name=%q\n", card.ID, card.FileName, old, card.Status, rec.Name)
		sum.Recovered++
	}
	return sum, nil
}
