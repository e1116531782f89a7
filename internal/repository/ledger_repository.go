package repository

import (
	"context"
	"time"

	"github.com/siampay/installment-api/internal/models"

	"gorm.io/gorm"
)

// LedgerRepository defines the interface for payment ledger data access
type LedgerRepository interface {
	Create(ctx context.Context, entry *models.LedgerEntry) error
	Update(ctx context.Context, entry *models.LedgerEntry) error
	FindByID(ctx context.Context, id uint) (*models.LedgerEntry, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*models.LedgerEntry, error)
	FindByContract(ctx context.Context, contractID uint) ([]models.LedgerEntry, error)
	FindByContractAndInstallment(ctx context.Context, contractID uint, installmentNumber int) (*models.LedgerEntry, error)
	SumPaidByContract(ctx context.Context, contractID uint) (float64, error)
	CountPaidByContract(ctx context.Context, contractID uint) (int64, error)
	SumPaidInPeriod(ctx context.Context, start, end time.Time) (float64, error)
	CountInPeriod(ctx context.Context, start, end time.Time) (int64, error)
	CountOnTimeInPeriod(ctx context.Context, start, end time.Time) (int64, error)
	FindPaidInRange(ctx context.Context, start, end time.Time, branchCode string) ([]models.LedgerEntry, error)
	FindOverdueEntries(ctx context.Context, now time.Time) ([]models.LedgerEntry, error)
	DeleteByContract(ctx context.Context, contractID uint) error
}

// ledgerRepository handles database operations for ledger entries
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *ledgerRepository) Update(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *ledgerRepository) FindByID(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).First(&entry, id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepository) FindByPaymentID(ctx context.Context, paymentID string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepository) FindByContract(ctx context.Context, contractID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("installment_number ASC, created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepository) FindByContractAndInstallment(ctx context.Context, contractID uint, installmentNumber int) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("contract_id = ? AND installment_number = ?", contractID, installmentNumber).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SumPaidByContract derives the contract paid aggregate as the sum over
// PAID entries. Always a full summation, never an incremental add, so
// re-recorded corrections stay consistent.
func (r *ledgerRepository) SumPaidByContract(ctx context.Context, contractID uint) (float64, error) {
	var result struct {
		Total float64
	}

	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount_paid), 0) as total").
		Where("contract_id = ? AND status = ?", contractID, models.LedgerStatusPaid).
		Scan(&result).Error

	return result.Total, err
}

func (r *ledgerRepository) CountPaidByContract(ctx context.Context, contractID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("contract_id = ? AND status = ?", contractID, models.LedgerStatusPaid).
		Count(&count).Error
	return count, err
}

func (r *ledgerRepository) SumPaidInPeriod(ctx context.Context, start, end time.Time) (float64, error) {
	var result struct {
		Total float64
	}

	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount_paid), 0) as total").
		Where("status = ? AND payment_date >= ? AND payment_date < ?", models.LedgerStatusPaid, start, end).
		Scan(&result).Error

	return result.Total, err
}

func (r *ledgerRepository) CountInPeriod(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("payment_date >= ? AND payment_date < ?", start, end).
		Count(&count).Error
	return count, err
}

func (r *ledgerRepository) CountOnTimeInPeriod(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("payment_date >= ? AND payment_date < ?", start, end).
		Where("payment_date <= due_date").
		Count(&count).Error
	return count, err
}

func (r *ledgerRepository) FindPaidInRange(ctx context.Context, start, end time.Time, branchCode string) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	db := r.db.WithContext(ctx).
		Where("status = ? AND payment_date >= ? AND payment_date < ?", models.LedgerStatusPaid, start, end)
	if branchCode != "" {
		db = db.Where("branch_code = ?", branchCode)
	}
	err := db.
		Preload("Contract").
		Preload("RecordedBy").
		Order("payment_date DESC").
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepository) FindOverdueEntries(ctx context.Context, now time.Time) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", models.LedgerStatusPending, now).
		Order("due_date ASC").
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepository) DeleteByContract(ctx context.Context, contractID uint) error {
	return r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Delete(&models.LedgerEntry{}).Error
}
