package database

import (
	"github.com/siampay/installment-api/internal/models"
	"gorm.io/gorm"
)

// Migrate runs schema auto-migration for every persisted model
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Customer{},
		&models.Contract{},
		&models.ContractItem{},
		&models.Guarantor{},
		&models.Collateral{},
		&models.LedgerEntry{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Notification{},
		&models.AnalyticsCache{},
		&models.AuditLog{},
	)
}
