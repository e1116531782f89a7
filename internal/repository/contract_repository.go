package repository

import (
	"context"
	"strings"
	"time"

	"github.com/siampay/installment-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContractRepository defines the interface for contract data access.
// Every read filters soft-deleted rows unless the method name says
// otherwise.
type ContractRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Contract, error)
	FindByIDIncludingDeleted(ctx context.Context, id uint) (*models.Contract, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Contract, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Contract, error)
	FindByNumber(ctx context.Context, number string) (*models.Contract, error)
	Create(ctx context.Context, contract *models.Contract) error
	Update(ctx context.Context, contract *models.Contract) error
	SoftDelete(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
	List(ctx context.Context, query *ContractQuery) ([]models.Contract, int64, error)
	CountByStatuses(ctx context.Context, statuses []string) (int64, error)
	CountCreatedBetween(ctx context.Context, start, end time.Time) (int64, error)
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
	FindOverdueCandidates(ctx context.Context, now time.Time) ([]models.Contract, error)
}

// ContractQuery extends ListQuery with contract-specific filters
type ContractQuery struct {
	*ListQuery
	Statuses   []string
	PlanType   string
	BranchCode string
}

type contractRepository struct {
	db *gorm.DB
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) FindByID(ctx context.Context, id uint) (*models.Contract, error) {
	var contract models.Contract
	err := r.db.WithContext(ctx).First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) FindByIDIncludingDeleted(ctx context.Context, id uint) (*models.Contract, error) {
	var contract models.Contract
	err := r.db.WithContext(ctx).Unscoped().First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Contract, error) {
	var contract models.Contract
	// Customer and Creator join in one query; the one-to-many associations
	// stay as Preloads.
	err := r.db.WithContext(ctx).
		Joins("Customer").
		Joins("Creator").
		Preload("Items").
		Preload("Guarantors").
		Preload("Collateral").
		Preload("LedgerEntries", func(db *gorm.DB) *gorm.DB {
			return db.Order("installment_number ASC")
		}).
		First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// FindByIDForUpdate takes a row lock so the recompute-and-persist sequence
// in payment recording never races another writer on the same contract.
// Only meaningful inside a transaction.
func (r *contractRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Contract, error) {
	var contract models.Contract
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) FindByNumber(ctx context.Context, number string) (*models.Contract, error) {
	var contract models.Contract
	err := r.db.WithContext(ctx).
		Where("contract_number = ?", number).
		First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) Create(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *contractRepository) Update(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Save(contract).Error
}

func (r *contractRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Contract{}, id).Error
}

func (r *contractRepository) Restore(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Contract{}).
		Where("id = ?", id).
		Update("deleted_at", nil).Error
}

func (r *contractRepository) List(ctx context.Context, query *ContractQuery) ([]models.Contract, int64, error) {
	var contracts []models.Contract
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Contract{})

	// Default listing covers the repayment-relevant statuses
	statuses := query.Statuses
	if len(statuses) == 0 {
		statuses = append(append([]string{}, models.ActiveStatuses...), models.ContractStatusCompleted)
	}
	db = db.Where("contracts.status IN ?", statuses)

	if query.PlanType != "" {
		db = db.Where("contracts.plan_type = ?", query.PlanType)
	}
	if query.BranchCode != "" {
		db = db.Where("contracts.branch_code = ?", query.BranchCode)
	}

	// Created-at range filters
	if query.Filters != nil {
		if val, ok := query.Filters["start_date"]; ok && val != "" {
			db = db.Where("contracts.created_at >= ?", val)
		}
		if val, ok := query.Filters["end_date"]; ok && val != "" {
			if len(val) == 10 { // YYYY-MM-DD
				val += " 23:59:59"
			}
			db = db.Where("contracts.created_at <= ?", val)
		}
	}

	// Search across contract number and customer snapshot, plus the linked
	// customer record when present
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("LEFT JOIN customers ON customers.id = contracts.customer_id").
			Where("contracts.contract_number ILIKE ? OR contracts.customer_name ILIKE ? OR contracts.customer_phone ILIKE ? OR "+
				"customers.first_name ILIKE ? OR customers.last_name ILIKE ? OR customers.phone ILIKE ?",
				search, search, search, search, search, search)
	}

	// Count in a separate session so Count() does not alter the main query
	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if query.SortBy != "" {
		order := "contracts." + query.SortBy
		if strings.ToLower(query.SortDir) == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("contracts.created_at DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.
		Preload("Customer").
		Preload("Items").
		Find(&contracts).Error
	if err != nil {
		return nil, 0, err
	}

	return contracts, total, nil
}

func (r *contractRepository) CountByStatuses(ctx context.Context, statuses []string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Contract{}).
		Where("status IN ?", statuses).
		Count(&count).Error
	return count, err
}

func (r *contractRepository) CountCreatedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Contract{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error
	return count, err
}

// CountOverdue counts contracts whose next due date has passed with a
// balance outstanding. The status filter excludes terminal states so the
// derived classification matches IsOverdue.
func (r *contractRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Contract{}).
		Where("status IN ?", []string{
			models.ContractStatusOngoing,
			models.ContractStatusActive,
			models.ContractStatusOverdue,
		}).
		Where("remaining_balance > 0").
		Where("COALESCE(next_payment_date, due_date) < ?", now).
		Count(&count).Error
	return count, err
}

func (r *contractRepository) FindOverdueCandidates(ctx context.Context, now time.Time) ([]models.Contract, error) {
	var contracts []models.Contract
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{
			models.ContractStatusOngoing,
			models.ContractStatusActive,
		}).
		Where("remaining_balance > 0").
		Where("COALESCE(next_payment_date, due_date) < ?", now).
		Find(&contracts).Error
	return contracts, err
}
