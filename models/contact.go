package models

import (
	"time"

	"cardscan/pkg/contact"
)

// Contact holds the fields extracted from a Card.
type Contact struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	CardID    uint   `gorm:"uniqueIndex;not null"`
	Name      string `gorm:"size:255;not null"`
	JobTitle  string `gorm:"size:255"`
	Company   string `gorm:"size:255;index"`
	Phone     string `gorm:"size:64"`
	Email     string `gorm:"size:255;index"`
}

// ContactFromRecord copies an extracted record into a row for cardID.
func ContactFromRecord(cardID uint, r contact.Record) Contact {
	return Contact{CardID: cardID, Name: r.Name, JobTitle: r.JobTitle, Company: r.Company, Phone: r.Phone, Email: r.Email}
}

// Record converts the row back to the extractor's record type.
func (c Contact) Record() contact.Record {
	return contact.Record{Name: c.Name, JobTitle: c.JobTitle, Company: c.Company, Phone: c.Phone, Email: c.Email}
}
