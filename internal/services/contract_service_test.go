package services

import (
	"context"
	"testing"
	"time"

	"github.com/siampay/installment-api/internal/events"
	"github.com/siampay/installment-api/internal/models"
	"github.com/siampay/installment-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newTestContractService(contractRepo *mockContractRepo, ledgerRepo *mockLedgerRepo) *ContractService {
	repos := &repository.Repositories{Contract: contractRepo, Ledger: ledgerRepo}
	return NewContractService(repos, events.NopPublisher{}, NewAuditService(nil), nil)
}

func pendingContract() *models.Contract {
	creatorID := uint(3)
	return &models.Contract{
		ID:                1,
		Status:            models.ContractStatusPending,
		ApprovalStatus:    models.ApprovalStatusPending,
		CustomerName:      "Somchai Jaidee",
		TotalAmount:       24000,
		DownPayment:       4000,
		MonthlyPayment:    2000,
		InstallmentMonths: 12,
		CreatorID:         &creatorID,
		CreatedAt:         time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestContractService_Create(t *testing.T) {
	contractRepo := &mockContractRepo{}
	service := newTestContractService(contractRepo, &mockLedgerRepo{})

	var created *models.Contract
	contractRepo.mockFindByNumber = func(ctx context.Context, number string) (*models.Contract, error) {
		return nil, gorm.ErrRecordNotFound
	}
	contractRepo.mockCreate = func(ctx context.Context, c *models.Contract) error {
		created = c
		return nil
	}

	contract := pendingContract()
	number := "  CT-2025-0001  "
	contract.ContractNumber = &number
	contract.Status = ""
	contract.ApprovalStatus = ""

	err := service.Create(context.Background(), contract)

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Equal(t, models.ContractStatusPending, created.Status)
	assert.Equal(t, models.ApprovalStatusPending, created.ApprovalStatus)
	assert.Equal(t, "CT-2025-0001", *created.ContractNumber)
	assert.Equal(t, 20000.0, created.FinanceAmount)
	assert.Equal(t, 24000.0, created.RemainingBalance)
	assert.Equal(t, 12, created.RemainingPeriods)
}

func TestContractService_Create_BlankNumberStaysNil(t *testing.T) {
	contractRepo := &mockContractRepo{}
	service := newTestContractService(contractRepo, &mockLedgerRepo{})

	contractRepo.mockCreate = func(ctx context.Context, c *models.Contract) error {
		c.ID = 42
		return nil
	}

	contract := pendingContract()
	blank := "   "
	contract.ContractNumber = &blank

	assert.NoError(t, service.Create(context.Background(), contract))
	assert.Nil(t, contract.ContractNumber)
	assert.Equal(t, "AUTO-000042", contract.DisplayNumber())
}

func TestContractService_Create_DuplicateNumber(t *testing.T) {
	contractRepo := &mockContractRepo{}
	service := newTestContractService(contractRepo, &mockLedgerRepo{})

	contractRepo.mockFindByNumber = func(ctx context.Context, number string) (*models.Contract, error) {
		return &models.Contract{ID: 99}, nil
	}

	contract := pendingContract()
	number := "CT-2025-0001"
	contract.ContractNumber = &number

	err := service.Create(context.Background(), contract)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestContractService_Create_Validation(t *testing.T) {
	service := newTestContractService(&mockContractRepo{}, &mockLedgerRepo{})

	tests := []struct {
		name   string
		mutate func(c *models.Contract)
	}{
		{"missing customer name", func(c *models.Contract) { c.CustomerName = "  " }},
		{"zero total", func(c *models.Contract) { c.TotalAmount = 0 }},
		{"negative down payment", func(c *models.Contract) { c.DownPayment = -1 }},
		{"down payment exceeds total", func(c *models.Contract) { c.DownPayment = 25000 }},
		{"zero monthly payment", func(c *models.Contract) { c.MonthlyPayment = 0 }},
		{"zero months", func(c *models.Contract) { c.InstallmentMonths = 0 }},
		{"unknown plan type", func(c *models.Contract) { c.PlanType = "plan9" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contract := pendingContract()
			tt.mutate(contract)
			assert.ErrorIs(t, service.Create(context.Background(), contract), ErrValidation)
		})
	}
}

func TestContractService_Approve(t *testing.T) {
	contract := pendingContract()
	contractRepo := &mockContractRepo{}
	ledgerRepo := &mockLedgerRepo{}
	service := newTestContractService(contractRepo, ledgerRepo)

	var scheduled []models.LedgerEntry
	contractRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Contract, error) {
		return contract, nil
	}
	contractRepo.mockUpdate = func(ctx context.Context, c *models.Contract) error {
		return nil
	}
	ledgerRepo.mockCreate = func(ctx context.Context, entry *models.LedgerEntry) error {
		scheduled = append(scheduled, *entry)
		return nil
	}

	approved, err := service.Approve(context.Background(), 1, 9, "10.0.0.1", "test-agent")

	assert.NoError(t, err)
	assert.Equal(t, models.ContractStatusActive, approved.Status)
	assert.Equal(t, models.ApprovalStatusApproved, approved.ApprovalStatus)
	assert.Equal(t, uint(9), *approved.ApprovedByUserID)
	assert.NotNil(t, approved.ApprovedAt)
	assert.NotNil(t, approved.StartDate)
	assert.NotNil(t, approved.NextPaymentDate)

	// Missing due date derives from the term length
	if assert.NotNil(t, approved.DueDate) {
		assert.Equal(t, contract.CreatedAt.AddDate(0, 12, 0), *approved.DueDate)
	}

	// One pending entry per installment, due monthly from creation
	if assert.Len(t, scheduled, 12) {
		assert.Equal(t, 1, scheduled[0].InstallmentNumber)
		assert.Equal(t, contract.CreatedAt.AddDate(0, 1, 0), scheduled[0].DueDate)
		assert.Equal(t, contract.CreatedAt.AddDate(0, 12, 0), scheduled[11].DueDate)
		for _, entry := range scheduled {
			assert.Equal(t, models.LedgerStatusPending, entry.Status)
			assert.Equal(t, 2000.0, entry.AmountDue)
		}
	}
}

func TestContractService_Approve_AlreadyResolved(t *testing.T) {
	contractRepo := &mockContractRepo{}
	service := newTestContractService(contractRepo, &mockLedgerRepo{})

	contract := pendingContract()
	contract.Status = models.ContractStatusActive
	contract.ApprovalStatus = models.ApprovalStatusApproved
	contractRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Contract, error) {
		return contract, nil
	}

	_, err := service.Approve(context.Background(), 1, 9, "", "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestContractService_Reject(t *testing.T) {
	contract := pendingContract()
	contractRepo := &mockContractRepo{}
	service := newTestContractService(contractRepo, &mockLedgerRepo{})

	contractRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Contract, error) {
		return contract, nil
	}
	contractRepo.mockUpdate = func(ctx context.Context, c *models.Contract) error {
		return nil
	}

	rejected, err := service.Reject(context.Background(), 1, 9, "insufficient income", "", "")

	assert.NoError(t, err)
	assert.Equal(t, models.ContractStatusRejected, rejected.Status)
	assert.Equal(t, models.ApprovalStatusRejected, rejected.ApprovalStatus)
	assert.Equal(t, "insufficient income", *rejected.RejectionReason)
	assert.NotNil(t, rejected.RejectedAt)
}

func TestContractService_Reject_RequiresReason(t *testing.T) {
	service := newTestContractService(&mockContractRepo{}, &mockLedgerRepo{})

	_, err := service.Reject(context.Background(), 1, 9, "   ", "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestContractService_Cancel(t *testing.T) {
	contract := pendingContract()
	contract.Status = models.ContractStatusOngoing

	contractRepo := &mockContractRepo{}
	ledgerRepo := &mockLedgerRepo{}
	service := newTestContractService(contractRepo, ledgerRepo)

	paidAt := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	entries := []models.LedgerEntry{
		{ID: 1, InstallmentNumber: 1, Status: models.LedgerStatusPaid, PaymentDate: &paidAt},
		{ID: 2, InstallmentNumber: 2, Status: models.LedgerStatusPending},
		{ID: 3, InstallmentNumber: 3, Status: models.LedgerStatusPending},
	}

	var updated []models.LedgerEntry
	contractRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Contract, error) {
		return contract, nil
	}
	contractRepo.mockUpdate = func(ctx context.Context, c *models.Contract) error {
		return nil
	}
	ledgerRepo.mockFindByContract = func(ctx context.Context, contractID uint) ([]models.LedgerEntry, error) {
		return entries, nil
	}
	ledgerRepo.mockUpdate = func(ctx context.Context, entry *models.LedgerEntry) error {
		updated = append(updated, *entry)
		return nil
	}

	cancelled, err := service.Cancel(context.Background(), 1, 9, "customer request")

	assert.NoError(t, err)
	assert.Equal(t, models.ContractStatusCancelled, cancelled.Status)

	// Pending entries cancel; the settled one stays untouched
	if assert.Len(t, updated, 2) {
		assert.Equal(t, uint(2), updated[0].ID)
		assert.Equal(t, uint(3), updated[1].ID)
		assert.Equal(t, models.LedgerStatusCancelled, updated[0].Status)
		assert.Equal(t, "customer request", updated[0].CancellationReason)
	}
}

func TestContractService_Cancel_TerminalContract(t *testing.T) {
	contractRepo := &mockContractRepo{}
	service := newTestContractService(contractRepo, &mockLedgerRepo{})

	contract := pendingContract()
	contract.Status = models.ContractStatusCompleted
	contractRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Contract, error) {
		return contract, nil
	}

	_, err := service.Cancel(context.Background(), 1, 9, "too late")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestContractService_Restore(t *testing.T) {
	contractRepo := &mockContractRepo{}
	service := newTestContractService(contractRepo, &mockLedgerRepo{})

	deleted := pendingContract()
	deleted.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}

	var restoredID uint
	contractRepo.mockFindByIDIncludingDeleted = func(ctx context.Context, id uint) (*models.Contract, error) {
		return deleted, nil
	}
	contractRepo.mockRestore = func(ctx context.Context, id uint) error {
		restoredID = id
		return nil
	}

	restored, err := service.Restore(context.Background(), 1, 9)

	assert.NoError(t, err)
	assert.Equal(t, uint(1), restoredID)
	assert.False(t, restored.DeletedAt.Valid)
}

func TestContractService_Restore_NotDeleted(t *testing.T) {
	contractRepo := &mockContractRepo{}
	service := newTestContractService(contractRepo, &mockLedgerRepo{})

	contractRepo.mockFindByIDIncludingDeleted = func(ctx context.Context, id uint) (*models.Contract, error) {
		return pendingContract(), nil
	}

	_, err := service.Restore(context.Background(), 1, 9)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestContractService_FindByID_NotFound(t *testing.T) {
	contractRepo := &mockContractRepo{}
	service := newTestContractService(contractRepo, &mockLedgerRepo{})

	contractRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Contract, error) {
		return nil, gorm.ErrRecordNotFound
	}

	_, err := service.FindByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
