package server

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cardscan/models"
)

// OpenDB connects to Postgres and, when autoMigrate is set, migrates the
// schema. Roles are always seeded so user rows can reference them.
func OpenDB(dsn string, autoMigrate bool) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("DB_DSN is not set; the API requires a Postgres DSN")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if autoMigrate {
		Migrate(db)
	}
	if err := seedRoles(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates every table. Models are migrated one by one so a
// permission problem on one table does not block the others.
func Migrate(db *gorm.DB) {
	// roles first so the users FK can be applied
	for _, m := range []any{&models.Role{}, &models.User{}, &models.ScanRun{}, &models.Card{}, &models.Contact{}} {
		if err := db.AutoMigrate(m); err != nil {
			log.Warn().Err(err).Str("model", fmt.Sprintf("%T", m)).Msg("migration warning")
		}
	}
}

func seedRoles(db *gorm.DB) error {
	roles := []models.Role{
		{Name: models.RoleAdministrator, Description: "full access"},
		{Name: models.RoleUser, Description: "regular user"},
	}
	for _, r := range roles {
		if err := db.Where("name = ?", r.Name).FirstOrCreate(&r).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", r.Name, err)
		}
	}
	return nil
}

// Seed ensures the roles, a default admin account and the upload directory.
func Seed(db *gorm.DB, uploadBase string) error {
	if err := seedRoles(db); err != nil {
		return err
	}
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		if _, _, err := EnsureUser(db, "admin", "admin123", models.RoleAdministrator); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		log.Warn().Msg("seeded admin user: username=admin, password=admin123; change it")
	}
	if err := os.MkdirAll(uploadBase, 0o755); err != nil {
		return fmt.Errorf("create upload base %s: %w", uploadBase, err)
	}
	return nil
}

// EnsureUser creates username with role unless it already exists. It reports
// whether a new row was created.
func EnsureUser(db *gorm.DB, username, password, role string) (models.User, bool, error) {
	var existing models.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		return existing, false, nil
	}
	r := models.Role{Name: role}
	if err := db.Where("name = ?", role).FirstOrCreate(&r).Error; err != nil {
		return models.User{}, false, fmt.Errorf("ensure role %s: %w", role, err)
	}
	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, false, err
	}
	rid := r.ID
	user := models.User{Username: username, HashedPassword: hpw, RoleID: &rid}
	if err := db.Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.User{}, false, ErrUserExists
		}
		return models.User{}, false, err
	}
	return user, true, nil
}
