package models

import (
	"time"
)

// Card is one scanned business card image and the outcome of reading it.
type Card struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RunID       *uint  `gorm:"index"` // FK to scan_runs.id, nil for API uploads
	UserID      *uint  `gorm:"index"` // owner for API uploads
	FileName    string `gorm:"size:255;not null"`
	StorePath   string `gorm:"column:store_path;size:512"`
	ContentType string `gorm:"size:128"`
	Status      string `gorm:"size:32;index;not null"` // ok, no-text, ocr-failed
	// FailedReason is kept so a failed card can be reviewed instead of disappearing.
	FailedReason string `gorm:"size:512"`
	RawText      string `gorm:"type:text"`
	DurationMS   int64
	Contact      *Contact `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
