package contact

import (
	"regexp"
	"strings"
)

var (
	phoneRE = regexp.MustCompile(`\+?\d[\d\-() ]{7,}\d`)
	emailRE = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// Extractor turns raw OCR text into a contact record.
type Extractor interface {
	Extract(text string) Record
}

// PositionalExtractor reads phone and email by pattern anywhere in the text and
// takes name, job title and company from the first three lines, in that order.
// Lines are never validated; a card whose name is not on the first line yields
// a wrong record. The zero value is ready to use.
type PositionalExtractor struct {
	// NotFound overrides the sentinel written into missing fields.
	NotFound string
}

// Default is the extractor used when callers do not supply one.
var Default Extractor = PositionalExtractor{}

// Extract parses text using Default.
func Extract(text string) Record {
	return Default.Extract(text)
}

func (p PositionalExtractor) sentinel() string {
	if p.NotFound == "" {
		return NotFound
	}
	return p.NotFound
}

// Extract implements Extractor.
func (p PositionalExtractor) Extract(text string) Record {
	rec := NewRecord(p.sentinel())
	if strings.TrimSpace(text) == "" {
		return rec
	}
	if m := phoneRE.FindString(text); m != "" {
		rec.Phone = m
	}
	if m := emailRE.FindString(text); m != "" {
		rec.Email = m
	}
	lines := SplitLines(text)
	rec.Name = p.lineAt(lines, 0)
	rec.JobTitle = p.lineAt(lines, 1)
	rec.Company = p.lineAt(lines, 2)
	return rec
}

func (p PositionalExtractor) lineAt(lines []string, i int) string {
	if i >= len(lines) {
		return p.sentinel()
	}
	// a present but blank line stays blank; only a missing line is not-found
	return strings.TrimSpace(lines[i])
}

// SplitLines splits text on \n, \r\n and \r. A single trailing terminator
// (tesseract always emits one) does not add an empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
