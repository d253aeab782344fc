package ocr

import (
	"path/filepath"
	"strings"
)

// snippet returns a shortened single-line version of text for logging.
func snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// FormatFromPath maps a file extension to an ImageFormat. Unknown extensions return "".
func FormatFromPath(path string) ImageFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return ImageFormatPNG
	case ".jpg", ".jpeg":
		return ImageFormatJPEG
	}
	return ""
}
