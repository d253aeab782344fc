// Package report serializes extracted contacts into the aggregated report
// file and reads stored contacts back from the database.
package report

import (
	"bufio"
	"fmt"
	"io"

	"cardscan/pkg/contact"
	"cardscan/pkg/ocr"
)

// Entry is one image in report order.
type Entry struct {
	FileName string
	Record   contact.Record
	Status   ocr.Status
	Reason   string
}

// Options controls which entries are written.
type Options struct {
	// IncludeFailures writes a block for unreadable or blank images too,
	// followed by a Status line. Without it those images leave no trace.
	IncludeFailures bool
}

// Include reports whether e produces a block under opts.
func (o Options) Include(e Entry) bool {
	return e.Status == ocr.StatusOK || o.IncludeFailures
}

// WriteText writes one block per included entry:
//
//	--- Contact from card1.jpg ---
//	Name: Jane Doe
//	...
//	Email: jane.doe@acme.com
//	<blank line>
func WriteText(w io.Writer, entries []Entry, opts Options) (int, error) {
	bw := bufio.NewWriter(w)
	written := 0
	for _, e := range entries {
		if !opts.Include(e) {
			continue
		}
		fmt.Fprintf(bw, "--- Contact from %s ---\n", e.FileName)
		for _, kv := range e.Record.Pairs() {
			fmt.Fprintf(bw, "%s: %s\n", kv[0], kv[1])
		}
		if e.Status != ocr.StatusOK {
			if e.Reason != "" && e.Status == ocr.StatusFailed {
				fmt.Fprintf(bw, "Status: %s: %s\n", e.Status, e.Reason)
			} else {
				fmt.Fprintf(bw, "Status: %s\n", e.Status)
			}
		}
		bw.WriteString("\n")
		written++
	}
	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("write report: %w", err)
	}
	return written, nil
}
