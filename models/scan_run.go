package models

import "time"

// ScanRun records one batch run over a directory.
type ScanRun struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	RunID      string `gorm:"size:36;uniqueIndex;not null"` // uuid
	Dir        string `gorm:"size:1024;not null"`
	ReportPath string `gorm:"size:1024"`
	Processed  int
	Written    int
	Empty      int
	Failed     int
	FinishedAt *time.Time
	Cards      []Card `gorm:"foreignKey:RunID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}
