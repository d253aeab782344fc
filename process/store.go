package process

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cardscan/models"
	"cardscan/pkg/contact"
	"cardscan/pkg/ocr"
)

// Store persists scan runs, cards and contacts through gorm.
type Store struct {
	DB *gorm.DB
}

// OpenStore connects to Postgres. When migrate is set the card tables are
// created or updated first.
func OpenStore(dsn string, migrate bool) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := NewStore(gdb)
	if migrate {
		if err := s.Migrate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewStore wraps an existing connection.
func NewStore(db *gorm.DB) *Store { return &Store{DB: db} }

// Migrate creates the tables used by batch runs.
func (s *Store) Migrate() error {
	if err := s.DB.AutoMigrate(&models.ScanRun{}, &models.Card{}, &models.Contact{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CardFromOutcome builds the card row for one processed image. It does not
// set the run or owner.
func CardFromOutcome(o Outcome) models.Card {
	return models.Card{
		FileName:     o.FileName,
		StorePath:    o.Path,
		ContentType:  MimeFromExt(o.FileName),
		Status:       string(o.OCR.Status),
		FailedReason: o.OCR.Reason(),
		RawText:      o.OCR.Text,
		DurationMS:   o.OCR.Duration.Milliseconds(),
	}
}

// SaveRun stores one run and all of its cards in a single transaction.
// Contacts are only written for cards that were read successfully.
func (s *Store) SaveRun(ctx context.Context, dir string, sum Summary, outcomes []Outcome) error {
	now := time.Now()
	run := models.ScanRun{
		RunID:      sum.RunID,
		Dir:        dir,
		ReportPath: sum.ReportPath,
		Processed:  sum.Processed,
		Written:    sum.Written,
		Empty:      sum.Empty,
		Failed:     sum.Failed,
		FinishedAt: &now,
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("create scan run: %w", err)
		}
		for _, o := range outcomes {
			card := CardFromOutcome(o)
			card.RunID = &run.ID
			var rec *contact.Record
			if o.OCR.Status == ocr.StatusOK {
				rec = &o.Record
			}
			if err := saveCard(tx, &card, rec); err != nil {
				return err
			}
		}
		log.Debug().Str("run", run.RunID).Int("cards", len(outcomes)).Msg("run stored")
		return nil
	})
}

// SaveCard stores a single card, e.g. an API upload, with its contact when
// rec is non-nil.
func (s *Store) SaveCard(ctx context.Context, card *models.Card, rec *contact.Record) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveCard(tx, card, rec)
	})
}

func saveCard(tx *gorm.DB, card *models.Card, rec *contact.Record) error {
	if err := tx.Create(card).Error; err != nil {
		return fmt.Errorf("create card %s: %w", card.FileName, err)
	}
	if rec == nil {
		return nil
	}
	ct := models.ContactFromRecord(card.ID, *rec)
	if err := tx.Create(&ct).Error; err != nil {
		return fmt.Errorf("create contact for %s: %w", card.FileName, err)
	}
	card.Contact = &ct
	return nil
}

// UpdateCard replaces the outcome of an existing card, upserting its contact
// when the new result is ok and removing it otherwise.
func (s *Store) UpdateCard(ctx context.Context, card *models.Card, res ocr.Result, rec contact.Record) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		card.Status = string(res.Status)
		card.FailedReason = res.Reason()
		card.RawText = res.Text
		card.DurationMS = res.Duration.Milliseconds()
		if err := tx.Model(card).Select("status", "failed_reason", "raw_text", "duration_ms").Updates(card).Error; err != nil {
			return fmt.Errorf("update card %d: %w", card.ID, err)
		}
		if !res.OK() {
			if err := tx.Where("card_id = ?", card.ID).Delete(&models.Contact{}).Error; err != nil {
				return fmt.Errorf("delete contact for card %d: %w", card.ID, err)
			}
			card.Contact = nil
			return nil
		}
		var ct models.Contact
		err := tx.Where("card_id = ?", card.ID).First(&ct).Error
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			ct = models.Contact{CardID: card.ID}
		default:
			return fmt.Errorf("load contact for card %d: %w", card.ID, err)
		}
		fresh := models.ContactFromRecord(card.ID, rec)
		fresh.ID = ct.ID
		fresh.CreatedAt = ct.CreatedAt
		if err := tx.Save(&fresh).Error; err != nil {
			return fmt.Errorf("save contact for card %d: %w", card.ID, err)
		}
		card.Contact = &fresh
		return nil
	})
}
