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

type mockContractRepo struct {
	repository.ContractRepository
	mockFindByID                 func(ctx context.Context, id uint) (*models.Contract, error)
	mockFindByIDForUpdate        func(ctx context.Context, id uint) (*models.Contract, error)
	mockFindByIDIncludingDeleted func(ctx context.Context, id uint) (*models.Contract, error)
	mockFindByIDWithDetails      func(ctx context.Context, id uint) (*models.Contract, error)
	mockFindByNumber             func(ctx context.Context, number string) (*models.Contract, error)
	mockCreate                   func(ctx context.Context, contract *models.Contract) error
	mockUpdate                   func(ctx context.Context, contract *models.Contract) error
	mockRestore                  func(ctx context.Context, id uint) error
	mockCountByStatuses          func(ctx context.Context, statuses []string) (int64, error)
	mockCountCreatedBetween      func(ctx context.Context, start, end time.Time) (int64, error)
	mockCountOverdue             func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockContractRepo) FindByID(ctx context.Context, id uint) (*models.Contract, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockContractRepo) FindByIDForUpdate(ctx context.Context, id uint) (*models.Contract, error) {
	return m.mockFindByIDForUpdate(ctx, id)
}

func (m *mockContractRepo) FindByIDIncludingDeleted(ctx context.Context, id uint) (*models.Contract, error) {
	return m.mockFindByIDIncludingDeleted(ctx, id)
}

func (m *mockContractRepo) FindByIDWithDetails(ctx context.Context, id uint) (*models.Contract, error) {
	return m.mockFindByIDWithDetails(ctx, id)
}

func (m *mockContractRepo) FindByNumber(ctx context.Context, number string) (*models.Contract, error) {
	return m.mockFindByNumber(ctx, number)
}

func (m *mockContractRepo) Create(ctx context.Context, contract *models.Contract) error {
	return m.mockCreate(ctx, contract)
}

func (m *mockContractRepo) Update(ctx context.Context, contract *models.Contract) error {
	return m.mockUpdate(ctx, contract)
}

func (m *mockContractRepo) Restore(ctx context.Context, id uint) error {
	return m.mockRestore(ctx, id)
}

func (m *mockContractRepo) CountByStatuses(ctx context.Context, statuses []string) (int64, error) {
	return m.mockCountByStatuses(ctx, statuses)
}

func (m *mockContractRepo) CountCreatedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	return m.mockCountCreatedBetween(ctx, start, end)
}

func (m *mockContractRepo) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	return m.mockCountOverdue(ctx, now)
}

type mockLedgerRepo struct {
	repository.LedgerRepository
	mockCreate                       func(ctx context.Context, entry *models.LedgerEntry) error
	mockUpdate                       func(ctx context.Context, entry *models.LedgerEntry) error
	mockFindByContract               func(ctx context.Context, contractID uint) ([]models.LedgerEntry, error)
	mockFindByContractAndInstallment func(ctx context.Context, contractID uint, installmentNumber int) (*models.LedgerEntry, error)
	mockFindByPaymentID              func(ctx context.Context, paymentID string) (*models.LedgerEntry, error)
	mockSumPaidByContract            func(ctx context.Context, contractID uint) (float64, error)
	mockCountPaidByContract          func(ctx context.Context, contractID uint) (int64, error)
	mockSumPaidInPeriod              func(ctx context.Context, start, end time.Time) (float64, error)
	mockCountInPeriod                func(ctx context.Context, start, end time.Time) (int64, error)
	mockCountOnTimeInPeriod          func(ctx context.Context, start, end time.Time) (int64, error)
}

func (m *mockLedgerRepo) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return m.mockCreate(ctx, entry)
}

func (m *mockLedgerRepo) Update(ctx context.Context, entry *models.LedgerEntry) error {
	return m.mockUpdate(ctx, entry)
}

func (m *mockLedgerRepo) FindByContract(ctx context.Context, contractID uint) ([]models.LedgerEntry, error) {
	return m.mockFindByContract(ctx, contractID)
}

func (m *mockLedgerRepo) FindByContractAndInstallment(ctx context.Context, contractID uint, installmentNumber int) (*models.LedgerEntry, error) {
	return m.mockFindByContractAndInstallment(ctx, contractID, installmentNumber)
}

func (m *mockLedgerRepo) FindByPaymentID(ctx context.Context, paymentID string) (*models.LedgerEntry, error) {
	return m.mockFindByPaymentID(ctx, paymentID)
}

func (m *mockLedgerRepo) SumPaidByContract(ctx context.Context, contractID uint) (float64, error) {
	return m.mockSumPaidByContract(ctx, contractID)
}

func (m *mockLedgerRepo) CountPaidByContract(ctx context.Context, contractID uint) (int64, error) {
	return m.mockCountPaidByContract(ctx, contractID)
}

func (m *mockLedgerRepo) SumPaidInPeriod(ctx context.Context, start, end time.Time) (float64, error) {
	return m.mockSumPaidInPeriod(ctx, start, end)
}

func (m *mockLedgerRepo) CountInPeriod(ctx context.Context, start, end time.Time) (int64, error) {
	return m.mockCountInPeriod(ctx, start, end)
}

func (m *mockLedgerRepo) CountOnTimeInPeriod(ctx context.Context, start, end time.Time) (int64, error) {
	return m.mockCountOnTimeInPeriod(ctx, start, end)
}

func newTestPaymentService(contractRepo *mockContractRepo, ledgerRepo *mockLedgerRepo) *PaymentService {
	repos := &repository.Repositories{Contract: contractRepo, Ledger: ledgerRepo}
	return NewPaymentService(repos, events.NopPublisher{}, NewAuditService(nil), nil)
}

func repaymentContract() *models.Contract {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	return &models.Contract{
		ID:                1,
		Status:            models.ContractStatusActive,
		ApprovalStatus:    models.ApprovalStatusApproved,
		TotalAmount:       24000,
		MonthlyPayment:    2000,
		InstallmentMonths: 12,
		StartDate:         &start,
		CreatedAt:         start,
		BranchCode:        "00001",
	}
}

func TestPaymentService_RecordPayment_NewEntry(t *testing.T) {
	contract := repaymentContract()
	contractRepo := &mockContractRepo{}
	ledgerRepo := &mockLedgerRepo{}
	service := newTestPaymentService(contractRepo, ledgerRepo)

	var created *models.LedgerEntry
	var saved *models.Contract

	contractRepo.mockFindByIDForUpdate = func(ctx context.Context, id uint) (*models.Contract, error) {
		return contract, nil
	}
	contractRepo.mockUpdate = func(ctx context.Context, c *models.Contract) error {
		saved = c
		return nil
	}
	ledgerRepo.mockFindByContractAndInstallment = func(ctx context.Context, contractID uint, n int) (*models.LedgerEntry, error) {
		return nil, gorm.ErrRecordNotFound
	}
	ledgerRepo.mockCreate = func(ctx context.Context, entry *models.LedgerEntry) error {
		created = entry
		return nil
	}
	ledgerRepo.mockSumPaidByContract = func(ctx context.Context, contractID uint) (float64, error) {
		return 2000, nil
	}
	ledgerRepo.mockCountPaidByContract = func(ctx context.Context, contractID uint) (int64, error) {
		return 1, nil
	}

	entry, err := service.RecordPayment(context.Background(), RecordPaymentInput{
		ContractID:        1,
		InstallmentNumber: 1,
		Amount:            2000,
		PaymentMethod:     models.PaymentMethodCash,
		ActorID:           7,
	})

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Equal(t, models.LedgerStatusPaid, entry.Status)
	assert.Equal(t, 2000.0, entry.AmountPaid)
	assert.Equal(t, 2000.0, entry.AmountDue)
	assert.Regexp(t, `^PAY-\d{8}-[0-9A-F]{6}$`, entry.PaymentID)
	assert.Equal(t, contract.CreatedAt.AddDate(0, 1, 0), entry.DueDate)
	assert.Equal(t, uint(7), *entry.RecordedByUserID)

	// Aggregates re-derive from the ledger sum
	assert.NotNil(t, saved)
	assert.Equal(t, 2000.0, saved.PaidAmount)
	assert.Equal(t, 1, saved.PaidPeriods)
	assert.Equal(t, 22000.0, saved.RemainingBalance)
	assert.Equal(t, models.ContractStatusOngoing, saved.Status)

	// Next payment falls one month after the last settled period
	if assert.NotNil(t, saved.NextPaymentDate) {
		assert.Equal(t, contract.StartDate.AddDate(0, 2, 0), *saved.NextPaymentDate)
	}
}

func TestPaymentService_RecordPayment_CorrectionConverges(t *testing.T) {
	contract := repaymentContract()
	contract.Status = models.ContractStatusOngoing
	contract.PaidAmount = 2000
	contract.PaidPeriods = 1

	contractRepo := &mockContractRepo{}
	ledgerRepo := &mockLedgerRepo{}
	service := newTestPaymentService(contractRepo, ledgerRepo)

	existing := &models.LedgerEntry{
		ID:                10,
		PaymentID:         "PAY-20250210-AAAAAA",
		ContractID:        1,
		InstallmentNumber: 1,
		AmountDue:         2000,
		AmountPaid:        2000,
		Status:            models.LedgerStatusPaid,
	}

	var updated *models.LedgerEntry
	var saved *models.Contract

	contractRepo.mockFindByIDForUpdate = func(ctx context.Context, id uint) (*models.Contract, error) {
		return contract, nil
	}
	contractRepo.mockUpdate = func(ctx context.Context, c *models.Contract) error {
		saved = c
		return nil
	}
	ledgerRepo.mockFindByContractAndInstallment = func(ctx context.Context, contractID uint, n int) (*models.LedgerEntry, error) {
		return existing, nil
	}
	ledgerRepo.mockUpdate = func(ctx context.Context, entry *models.LedgerEntry) error {
		updated = entry
		return nil
	}
	ledgerRepo.mockSumPaidByContract = func(ctx context.Context, contractID uint) (float64, error) {
		// The corrected amount replaces the original in the summation
		return 2500, nil
	}
	ledgerRepo.mockCountPaidByContract = func(ctx context.Context, contractID uint) (int64, error) {
		return 1, nil
	}

	entry, err := service.RecordPayment(context.Background(), RecordPaymentInput{
		ContractID:        1,
		InstallmentNumber: 1,
		Amount:            2500,
		PaymentMethod:     models.PaymentMethodTransfer,
		ActorID:           7,
	})

	assert.NoError(t, err)
	assert.Equal(t, updated, entry)
	assert.Equal(t, "PAY-20250210-AAAAAA", entry.PaymentID)
	assert.Equal(t, 2500.0, entry.AmountPaid)
	assert.Equal(t, 2500.0, saved.PaidAmount)
	assert.Equal(t, 21500.0, saved.RemainingBalance)
}

func TestPaymentService_RecordPayment_FinalPaymentCompletes(t *testing.T) {
	contract := repaymentContract()
	contract.Status = models.ContractStatusOngoing
	contract.PaidAmount = 22000
	contract.PaidPeriods = 11

	contractRepo := &mockContractRepo{}
	ledgerRepo := &mockLedgerRepo{}
	service := newTestPaymentService(contractRepo, ledgerRepo)

	contractRepo.mockFindByIDForUpdate = func(ctx context.Context, id uint) (*models.Contract, error) {
		return contract, nil
	}
	contractRepo.mockUpdate = func(ctx context.Context, c *models.Contract) error {
		return nil
	}
	ledgerRepo.mockFindByContractAndInstallment = func(ctx context.Context, contractID uint, n int) (*models.LedgerEntry, error) {
		return nil, gorm.ErrRecordNotFound
	}
	ledgerRepo.mockCreate = func(ctx context.Context, entry *models.LedgerEntry) error {
		return nil
	}
	ledgerRepo.mockSumPaidByContract = func(ctx context.Context, contractID uint) (float64, error) {
		return 24000, nil
	}
	ledgerRepo.mockCountPaidByContract = func(ctx context.Context, contractID uint) (int64, error) {
		return 12, nil
	}

	_, err := service.RecordPayment(context.Background(), RecordPaymentInput{
		ContractID:        1,
		InstallmentNumber: 12,
		Amount:            2000,
		PaymentMethod:     models.PaymentMethodCash,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.ContractStatusCompleted, contract.Status)
	assert.Equal(t, 0.0, contract.RemainingBalance)
	assert.Equal(t, 0, contract.RemainingPeriods)
}

func TestPaymentService_RecordPayment_Validation(t *testing.T) {
	service := newTestPaymentService(&mockContractRepo{}, &mockLedgerRepo{})

	tests := []struct {
		name  string
		input RecordPaymentInput
	}{
		{"zero amount", RecordPaymentInput{ContractID: 1, InstallmentNumber: 1, Amount: 0}},
		{"negative amount", RecordPaymentInput{ContractID: 1, InstallmentNumber: 1, Amount: -50}},
		{"zero installment", RecordPaymentInput{ContractID: 1, InstallmentNumber: 0, Amount: 100}},
		{"unknown method", RecordPaymentInput{ContractID: 1, InstallmentNumber: 1, Amount: 100, PaymentMethod: "barter"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.RecordPayment(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestPaymentService_RecordPayment_MixedBreakdownMismatch(t *testing.T) {
	contract := repaymentContract()
	contractRepo := &mockContractRepo{}
	ledgerRepo := &mockLedgerRepo{}
	service := newTestPaymentService(contractRepo, ledgerRepo)

	contractRepo.mockFindByIDForUpdate = func(ctx context.Context, id uint) (*models.Contract, error) {
		return contract, nil
	}
	ledgerRepo.mockFindByContractAndInstallment = func(ctx context.Context, contractID uint, n int) (*models.LedgerEntry, error) {
		return nil, gorm.ErrRecordNotFound
	}

	_, err := service.RecordPayment(context.Background(), RecordPaymentInput{
		ContractID:        1,
		InstallmentNumber: 1,
		Amount:            2000,
		PaymentMethod:     models.PaymentMethodMixed,
		MixedCash:         1000,
		MixedTransfer:     500,
	})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestPaymentService_RecordPayment_TerminatedContract(t *testing.T) {
	contractRepo := &mockContractRepo{}
	service := newTestPaymentService(contractRepo, &mockLedgerRepo{})

	for _, status := range []string{models.ContractStatusCancelled, models.ContractStatusDefaulted} {
		contract := repaymentContract()
		contract.Status = status
		contractRepo.mockFindByIDForUpdate = func(ctx context.Context, id uint) (*models.Contract, error) {
			return contract, nil
		}

		_, err := service.RecordPayment(context.Background(), RecordPaymentInput{
			ContractID:        1,
			InstallmentNumber: 1,
			Amount:            2000,
		})
		assert.ErrorIs(t, err, ErrInvalidState, status)
	}
}

func TestPaymentService_RecordPayment_ContractNotFound(t *testing.T) {
	contractRepo := &mockContractRepo{}
	service := newTestPaymentService(contractRepo, &mockLedgerRepo{})

	contractRepo.mockFindByIDForUpdate = func(ctx context.Context, id uint) (*models.Contract, error) {
		return nil, gorm.ErrRecordNotFound
	}

	_, err := service.RecordPayment(context.Background(), RecordPaymentInput{
		ContractID:        99,
		InstallmentNumber: 1,
		Amount:            2000,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaymentService_CancelPayment(t *testing.T) {
	contract := repaymentContract()
	contract.Status = models.ContractStatusOngoing
	contract.PaidAmount = 4000
	contract.PaidPeriods = 2

	contractRepo := &mockContractRepo{}
	ledgerRepo := &mockLedgerRepo{}
	service := newTestPaymentService(contractRepo, ledgerRepo)

	paidAt := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	entry := &models.LedgerEntry{
		ID:                5,
		PaymentID:         "PAY-20250210-BBBBBB",
		ContractID:        1,
		InstallmentNumber: 2,
		AmountPaid:        2000,
		PaymentDate:       &paidAt,
		Status:            models.LedgerStatusPaid,
	}

	var saved *models.Contract
	ledgerRepo.mockFindByPaymentID = func(ctx context.Context, paymentID string) (*models.LedgerEntry, error) {
		return entry, nil
	}
	ledgerRepo.mockUpdate = func(ctx context.Context, e *models.LedgerEntry) error {
		return nil
	}
	ledgerRepo.mockSumPaidByContract = func(ctx context.Context, contractID uint) (float64, error) {
		return 2000, nil
	}
	ledgerRepo.mockCountPaidByContract = func(ctx context.Context, contractID uint) (int64, error) {
		return 1, nil
	}
	contractRepo.mockFindByIDForUpdate = func(ctx context.Context, id uint) (*models.Contract, error) {
		return contract, nil
	}
	contractRepo.mockUpdate = func(ctx context.Context, c *models.Contract) error {
		saved = c
		return nil
	}

	cancelled, err := service.CancelPayment(context.Background(), "PAY-20250210-BBBBBB", 7, "duplicate entry", "", "")

	assert.NoError(t, err)
	assert.Equal(t, models.LedgerStatusCancelled, cancelled.Status)
	assert.Equal(t, "duplicate entry", cancelled.CancellationReason)
	assert.Equal(t, uint(7), *cancelled.CancelledByUserID)
	assert.Equal(t, 2000.0, saved.PaidAmount)
	assert.Equal(t, 22000.0, saved.RemainingBalance)
}

func TestPaymentService_CancelPayment_NeverReopensCompleted(t *testing.T) {
	contract := repaymentContract()
	contract.Status = models.ContractStatusCompleted
	contract.PaidAmount = 24000
	contract.PaidPeriods = 12

	contractRepo := &mockContractRepo{}
	ledgerRepo := &mockLedgerRepo{}
	service := newTestPaymentService(contractRepo, ledgerRepo)

	entry := &models.LedgerEntry{
		PaymentID:  "PAY-20251210-CCCCCC",
		ContractID: 1,
		AmountPaid: 2000,
		Status:     models.LedgerStatusPaid,
	}

	ledgerRepo.mockFindByPaymentID = func(ctx context.Context, paymentID string) (*models.LedgerEntry, error) {
		return entry, nil
	}
	ledgerRepo.mockUpdate = func(ctx context.Context, e *models.LedgerEntry) error {
		return nil
	}
	ledgerRepo.mockSumPaidByContract = func(ctx context.Context, contractID uint) (float64, error) {
		return 22000, nil
	}
	ledgerRepo.mockCountPaidByContract = func(ctx context.Context, contractID uint) (int64, error) {
		return 11, nil
	}
	contractRepo.mockFindByIDForUpdate = func(ctx context.Context, id uint) (*models.Contract, error) {
		return contract, nil
	}
	contractRepo.mockUpdate = func(ctx context.Context, c *models.Contract) error {
		return nil
	}

	_, err := service.CancelPayment(context.Background(), "PAY-20251210-CCCCCC", 7, "correction", "", "")

	assert.NoError(t, err)
	// The amounts adjust but completion is one directional
	assert.Equal(t, 22000.0, contract.PaidAmount)
	assert.Equal(t, 2000.0, contract.RemainingBalance)
	assert.Equal(t, models.ContractStatusCompleted, contract.Status)
}

func TestPaymentService_CancelPayment_Errors(t *testing.T) {
	ledgerRepo := &mockLedgerRepo{}
	service := newTestPaymentService(&mockContractRepo{}, ledgerRepo)

	_, err := service.CancelPayment(context.Background(), "PAY-X", 7, "", "", "")
	assert.ErrorIs(t, err, ErrValidation)

	ledgerRepo.mockFindByPaymentID = func(ctx context.Context, paymentID string) (*models.LedgerEntry, error) {
		return nil, gorm.ErrRecordNotFound
	}
	_, err = service.CancelPayment(context.Background(), "PAY-MISSING", 7, "reason", "", "")
	assert.ErrorIs(t, err, ErrNotFound)

	ledgerRepo.mockFindByPaymentID = func(ctx context.Context, paymentID string) (*models.LedgerEntry, error) {
		return &models.LedgerEntry{Status: models.LedgerStatusPending}, nil
	}
	_, err = service.CancelPayment(context.Background(), "PAY-PENDING", 7, "reason", "", "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPaymentService_OnTimeRate(t *testing.T) {
	ledgerRepo := &mockLedgerRepo{}
	service := newTestPaymentService(&mockContractRepo{}, ledgerRepo)

	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	// An empty period counts as fully on time
	ledgerRepo.mockCountInPeriod = func(ctx context.Context, s, e time.Time) (int64, error) {
		return 0, nil
	}
	rate, err := service.OnTimeRate(context.Background(), start, end)
	assert.NoError(t, err)
	assert.Equal(t, 100, rate)

	ledgerRepo.mockCountInPeriod = func(ctx context.Context, s, e time.Time) (int64, error) {
		return 3, nil
	}
	ledgerRepo.mockCountOnTimeInPeriod = func(ctx context.Context, s, e time.Time) (int64, error) {
		return 2, nil
	}
	rate, err = service.OnTimeRate(context.Background(), start, end)
	assert.NoError(t, err)
	assert.Equal(t, 67, rate)
}
