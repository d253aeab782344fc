package ocr

import "errors"

var (
	// ErrUnreadableImage is returned when an image cannot be opened or decoded.
	ErrUnreadableImage = errors.New("unreadable image")
	// ErrEngine wraps failures reported by the OCR engine itself.
	ErrEngine = errors.New("ocr engine failure")
	// ErrEmptyText marks an image that was read fine but produced no text.
	ErrEmptyText = errors.New("no text recognized")
)
