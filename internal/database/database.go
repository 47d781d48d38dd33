package database

import (
	"fmt"
	"time"

	"github.com/gatherup/backend/internal/config"
	"github.com/gatherup/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.GroupInvite{},
		&models.GroupBackground{},
		&models.CalendarEntry{},
		&models.Trip{},
		&models.Location{},
		&models.Payment{},
		&models.PaymentShare{},
	)
}

// RunInTransaction wraps a unit of work in one transaction and, on postgres,
// bounds row-lock waits so a stuck lock surfaces as an error instead of
// hanging the calling goroutine.
func RunInTransaction(db *gorm.DB, lockTimeout time.Duration, fn func(tx *gorm.DB) error) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			timeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", lockTimeout.Milliseconds())
			if err := tx.Exec(timeout).Error; err != nil {
				return err
			}
		}
		return fn(tx)
	})
}

// LockForUpdate adds a FOR UPDATE row lock on stores that support it. The
// sqlite test store serializes writers on its own, so the clause is skipped
// there rather than failing the statement.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() != "postgres" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
