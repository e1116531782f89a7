package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	db           *gorm.DB
	User         UserRepository
	Customer     CustomerRepository
	Contract     ContractRepository
	Ledger       LedgerRepository
	Invoice      InvoiceRepository
	Notification NotificationRepository
	RefreshToken RefreshTokenRepository
	Analytics    AnalyticsRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		User:         NewUserRepository(db),
		Customer:     NewCustomerRepository(db),
		Contract:     NewContractRepository(db),
		Ledger:       NewLedgerRepository(db),
		Invoice:      NewInvoiceRepository(db),
		Notification: NewNotificationRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
		Analytics:    NewAnalyticsRepository(db),
	}
}

// Transaction runs fn with a Repositories bound to a single database
// transaction. Row locks taken inside fn hold until commit or rollback.
func (r *Repositories) Transaction(ctx context.Context, fn func(repos *Repositories) error) error {
	if r.db == nil {
		// In-memory composition without a database, used by tests that
		// assemble repositories from mocks.
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
