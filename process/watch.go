package process

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const (
	watchTick   = 250 * time.Millisecond
	watchSettle = 300 * time.Millisecond
)

// Watch performs an initial Run and then keeps the report current as card
// images appear, change or disappear in opts.Dir. Each file is read once per
// change and cached by name. It blocks until ctx is done.
func Watch(ctx context.Context, opts Options) error {
	r, err := newRunner(opts)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(r.opts.Dir); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrReadDir, r.opts.Dir, err)
	}

	files, err := ListImageFiles(r.opts.Dir, filepath.Base(r.output))
	if err != nil {
		return err
	}
	pending, err := r.createReport()
	if err != nil {
		return err
	}
	initial, err := r.processAll(ctx, files)
	if err != nil {
		pending.abort()
		return err
	}
	cache := make(map[string]Outcome, len(initial))
	for _, o := range initial {
		cache[o.FileName] = o
	}
	if err := r.rebuild(pending, cache); err != nil {
		return err
	}
	log.Info().Str("dir", r.opts.Dir).Int("files", len(cache)).Msg("watching (debounced)")

	report := filepath.Base(r.output)
	changed := map[string]time.Time{}
	ticker := time.NewTicker(watchTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if name == report || !IsSupported(name) {
				continue
			}
			switch {
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				changed[name] = time.Now()
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				delete(changed, name)
				if _, ok := cache[name]; ok {
					delete(cache, name)
					log.Info().Str("file", name).Msg("card removed")
					if err := r.rewrite(cache); err != nil {
						log.Error().Err(err).Msg("rebuild report")
					}
				}
			}
		case <-ticker.C:
			var ready []string
			now := time.Now()
			for name, t := range changed {
				// stable
				if now.Sub(t) > watchSettle {
					ready = append(ready, name)
					delete(changed, name)
				}
			}
			if len(ready) == 0 {
				continue
			}
			sort.Strings(ready)
			outs, err := r.processAll(ctx, ready)
			if err != nil {
				return nil
			}
			for _, o := range outs {
				cache[o.FileName] = o
				log.Info().Str("file", o.FileName).Str("status", string(o.OCR.Status)).Msg("card read")
			}
			if err := r.rewrite(cache); err != nil {
				log.Error().Err(err).Msg("rebuild report")
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (r *runner) rewrite(cache map[string]Outcome) error {
	pending, err := r.createReport()
	if err != nil {
		return err
	}
	return r.rebuild(pending, cache)
}

// rebuild writes the cached outcomes in sorted name order.
func (r *runner) rebuild(p *pendingReport, cache map[string]Outcome) error {
	defer p.abort()
	names := make([]string, 0, len(cache))
	for name := range cache {
		names = append(names, name)
	}
	sort.Strings(names)
	outcomes := make([]Outcome, 0, len(names))
	for _, name := range names {
		outcomes = append(outcomes, cache[name])
	}
	_, err := r.writeReport(p, outcomes)
	return err
}
