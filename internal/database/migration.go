package database

import (
	"fmt"

	"gamecore-market/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Wallet{},
		&models.LedgerEntry{},
		&models.Listing{},
		&models.Trade{},
		&models.AuditLog{},
		&models.ReconcileAlarm{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
