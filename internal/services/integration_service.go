package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/siampay/installment-api/internal/models"
	"github.com/siampay/installment-api/internal/repository"
	"github.com/siampay/installment-api/internal/transform"
	"github.com/siampay/installment-api/pkg/logger"
	"gorm.io/gorm"
)

// IntegrationService bridges the installment ledger and the external loan
// system vocabulary. Exports shape contracts as loan records; imports map
// loan records onto contracts keyed by contract number.
type IntegrationService struct {
	repos *repository.Repositories
}

func NewIntegrationService(repos *repository.Repositories) *IntegrationService {
	return &IntegrationService{repos: repos}
}

// ExportLoan shapes one contract as a loan record
func (s *IntegrationService) ExportLoan(ctx context.Context, contractID uint) (*transform.LoanRecord, error) {
	contract, err := s.repos.Contract.FindByIDWithDetails(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "contract", ID: strconv.FormatUint(uint64(contractID), 10)}
		}
		return nil, err
	}

	record := transform.InstallmentToLoan(contract, time.Now())
	return &record, nil
}

// ExportLoans shapes every contract matching the query as loan records
func (s *IntegrationService) ExportLoans(ctx context.Context, query *repository.ContractQuery) ([]transform.LoanRecord, int64, error) {
	contracts, total, err := s.repos.Contract.List(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return transform.InstallmentToLoanSlice(contracts, time.Now()), total, nil
}

// ImportLoans upserts loan records as contracts, keyed by contract number.
// Records without a resolvable key are skipped and counted, not fatal; one
// bad row must not sink a batch.
func (s *IntegrationService) ImportLoans(ctx context.Context, records []transform.LoanRecord) (imported, skipped int, err error) {
	for i := range records {
		record := &records[i]
		if record.ContractNumber == "" {
			skipped++
			continue
		}

		incoming := transform.LoanToInstallment(*record)

		existing, err := s.repos.Contract.FindByNumber(ctx, record.ContractNumber)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return imported, skipped, err
		}

		if existing == nil {
			if err := s.repos.Contract.Create(ctx, &incoming); err != nil {
				logger.Warn("loan import failed", "contract_number", record.ContractNumber, "error", err)
				skipped++
				continue
			}
			imported++
			continue
		}

		// Completion stays one directional on re-import too.
		if existing.Status == models.ContractStatusCompleted && incoming.Status != models.ContractStatusCompleted {
			incoming.Status = models.ContractStatusCompleted
		}

		incoming.ID = existing.ID
		incoming.CreatedAt = existing.CreatedAt
		incoming.RecalculateBalances()
		if err := s.repos.Contract.Update(ctx, &incoming); err != nil {
			logger.Warn("loan import failed", "contract_number", record.ContractNumber, "error", err)
			skipped++
			continue
		}
		imported++
	}

	return imported, skipped, nil
}
