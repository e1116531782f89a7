package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/siampay/installment-api/internal/events"
	"github.com/siampay/installment-api/internal/jobs"
	"github.com/siampay/installment-api/internal/models"
	"github.com/siampay/installment-api/internal/money"
	"github.com/siampay/installment-api/internal/repository"
	"github.com/siampay/installment-api/internal/statemachine"
	"gorm.io/gorm"
)

// RecordPaymentInput carries one payment to record against a contract
// installment
type RecordPaymentInput struct {
	ContractID        uint
	InstallmentNumber int
	Amount            float64
	PaymentMethod     string
	PaymentDate       *time.Time
	Notes             string
	ReceiptNumber     string
	MixedCash         float64
	MixedTransfer     float64
	MixedCard         float64
	ActorID           uint
	IP                string
	UserAgent         string
}

type PaymentService struct {
	repos     *repository.Repositories
	publisher events.Publisher
	auditSvc  *AuditService
	worker    *jobs.Worker
}

func NewPaymentService(
	repos *repository.Repositories,
	publisher events.Publisher,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *PaymentService {
	return &PaymentService{
		repos:     repos,
		publisher: publisher,
		auditSvc:  auditSvc,
		worker:    worker,
	}
}

// RecordPayment settles one installment and re-derives the contract
// aggregates inside a single transaction. The contract row is locked for
// the whole sequence so concurrent recordings against the same contract
// serialize. Paid amount is always the full sum over PAID entries, never
// an incremental add, so re-recording a corrected amount against the same
// installment converges on the right total.
func (s *PaymentService) RecordPayment(ctx context.Context, input RecordPaymentInput) (*models.LedgerEntry, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	paymentDate := time.Now()
	if input.PaymentDate != nil {
		paymentDate = *input.PaymentDate
	}

	var entry *models.LedgerEntry
	var contract *models.Contract
	var completed bool

	err := s.repos.Transaction(ctx, func(repos *repository.Repositories) error {
		var err error
		contract, err = repos.Contract.FindByIDForUpdate(ctx, input.ContractID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "contract", ID: strconv.FormatUint(uint64(input.ContractID), 10)}
			}
			return err
		}

		if contract.Status == models.ContractStatusCancelled || contract.Status == models.ContractStatusDefaulted {
			return &InvalidStateError{Current: contract.Status, Attempted: "record payment"}
		}

		// Reuse the scheduled entry for this installment when one exists,
		// otherwise record against a fresh entry.
		entry, err = repos.Ledger.FindByContractAndInstallment(ctx, contract.ID, input.InstallmentNumber)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			entry = &models.LedgerEntry{
				PaymentID:         models.GeneratePaymentID(paymentDate),
				ContractID:        contract.ID,
				CustomerID:        contract.CustomerID,
				InstallmentNumber: input.InstallmentNumber,
				DueDate:           contract.CreatedAt.AddDate(0, input.InstallmentNumber, 0),
				AmountDue:         contract.MonthlyPayment,
				BranchCode:        contract.BranchCode,
			}
		}

		entry.AmountPaid = input.Amount
		entry.PaymentDate = &paymentDate
		entry.PaymentMethod = input.PaymentMethod
		entry.Status = models.LedgerStatusPaid
		entry.Notes = input.Notes
		entry.ReceiptNumber = input.ReceiptNumber
		entry.MixedCashAmount = input.MixedCash
		entry.MixedTransferAmount = input.MixedTransfer
		entry.MixedCardAmount = input.MixedCard
		entry.RecordedByUserID = &input.ActorID

		if err := entry.ValidateMixed(); err != nil {
			return &ValidationError{Field: "mixed_amounts", Message: err.Error()}
		}

		if entry.ID == 0 {
			err = repos.Ledger.Create(ctx, entry)
		} else {
			err = repos.Ledger.Update(ctx, entry)
		}
		if err != nil {
			return err
		}

		if err := s.rederiveAggregates(ctx, repos, contract, &paymentDate); err != nil {
			return err
		}

		completed = contract.Status == models.ContractStatusCompleted
		return repos.Contract.Update(ctx, contract)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.Event{
		Name:       events.PaymentRecorded,
		EntityID:   entry.ID,
		Title:      "Payment recorded",
		Message:    fmt.Sprintf("Payment %s of %.2f recorded for contract %s", entry.PaymentID, entry.AmountPaid, contract.DisplayNumber()),
		BranchCode: entry.BranchCode,
	})

	if completed {
		s.publisher.Publish(ctx, events.Event{
			Name:       events.ContractCompleted,
			EntityID:   contract.ID,
			Title:      "Contract completed",
			Message:    fmt.Sprintf("Contract %s fully paid", contract.DisplayNumber()),
			BranchCode: contract.BranchCode,
		})
	}

	s.auditSvc.Log(ctx, input.ActorID, models.AuditActionRecordPayment, "LedgerEntry", entry.ID,
		fmt.Sprintf("Payment %s of %.2f recorded against installment %d of contract %s",
			entry.PaymentID, entry.AmountPaid, entry.InstallmentNumber, contract.DisplayNumber()), input.IP, input.UserAgent)

	return entry, nil
}

func (s *PaymentService) validate(input *RecordPaymentInput) error {
	if input.Amount <= 0 {
		return &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if input.InstallmentNumber <= 0 {
		return &ValidationError{Field: "installment_number", Message: "must be greater than zero"}
	}
	switch input.PaymentMethod {
	case models.PaymentMethodCash, models.PaymentMethodTransfer, models.PaymentMethodCard, models.PaymentMethodMixed:
	case "":
		input.PaymentMethod = models.PaymentMethodCash
	default:
		return &ValidationError{Field: "payment_method", Message: "unknown payment method"}
	}
	return nil
}

// rederiveAggregates recomputes every persisted contract aggregate from the
// ledger and advances the lifecycle. The caller holds the contract row
// lock and persists the result.
func (s *PaymentService) rederiveAggregates(ctx context.Context, repos *repository.Repositories, contract *models.Contract, paymentDate *time.Time) error {
	paid, err := repos.Ledger.SumPaidByContract(ctx, contract.ID)
	if err != nil {
		return &ComputationError{Detail: "summing paid ledger entries", Err: err}
	}
	paidCount, err := repos.Ledger.CountPaidByContract(ctx, contract.ID)
	if err != nil {
		return &ComputationError{Detail: "counting paid ledger entries", Err: err}
	}

	contract.PaidAmount = paid
	contract.PaidPeriods = int(paidCount)
	if paymentDate != nil {
		contract.LastPaymentDate = paymentDate
	}
	contract.NextPaymentDate = contract.CalculateNextPaymentDate()
	contract.RecalculateBalances()

	// RecalculateBalances already flips a fully paid contract to completed.
	// A partial payment on an active or overdue contract moves it to
	// ongoing.
	if contract.Status == models.ContractStatusActive || contract.Status == models.ContractStatusOverdue {
		fsm := statemachine.NewContractFSM(contract)
		if err := fsm.StartRepayment(ctx); err != nil {
			return &InvalidStateError{Current: contract.Status, Attempted: "start repayment"}
		}
		contract.OverdueAmount = 0
		contract.OverduePeriods = 0
		contract.OverdueDays = 0
	}

	return nil
}

// CancelPayment reverses a settled payment. The entry flips to CANCELLED
// with the audit fields stamped and the contract aggregates re-derive
// without it. Completion is one directional, so cancelling a payment on a
// completed contract adjusts the amounts but never reopens the lifecycle.
func (s *PaymentService) CancelPayment(ctx context.Context, paymentID string, actorID uint, reason, ip, userAgent string) (*models.LedgerEntry, error) {
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Message: "is required"}
	}

	var entry *models.LedgerEntry
	var contract *models.Contract

	err := s.repos.Transaction(ctx, func(repos *repository.Repositories) error {
		var err error
		entry, err = repos.Ledger.FindByPaymentID(ctx, paymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "payment", ID: paymentID}
			}
			return err
		}
		if !entry.IsPaid() {
			return &InvalidStateError{Current: entry.Status, Attempted: "cancel payment"}
		}

		contract, err = repos.Contract.FindByIDForUpdate(ctx, entry.ContractID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "contract", ID: strconv.FormatUint(uint64(entry.ContractID), 10)}
			}
			return err
		}

		entry.Cancel(actorID, reason, time.Now())
		if err := repos.Ledger.Update(ctx, entry); err != nil {
			return err
		}

		if err := s.rederiveAggregates(ctx, repos, contract, nil); err != nil {
			return err
		}
		return repos.Contract.Update(ctx, contract)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.Event{
		Name:       events.PaymentCancelled,
		EntityID:   entry.ID,
		Title:      "Payment cancelled",
		Message:    fmt.Sprintf("Payment %s cancelled: %s", entry.PaymentID, reason),
		BranchCode: entry.BranchCode,
	})

	s.auditSvc.Log(ctx, actorID, models.AuditActionCancelPayment, "LedgerEntry", entry.ID,
		fmt.Sprintf("Payment %s cancelled: %s", entry.PaymentID, reason), ip, userAgent)

	return entry, nil
}

// History returns the full ledger for a contract in installment order
func (s *PaymentService) History(ctx context.Context, contractID uint) ([]models.LedgerEntryResponse, error) {
	if _, err := s.repos.Contract.FindByID(ctx, contractID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "contract", ID: strconv.FormatUint(uint64(contractID), 10)}
		}
		return nil, err
	}

	entries, err := s.repos.Ledger.FindByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	responses := make([]models.LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, entries[i].ToResponse())
	}
	return responses, nil
}

// FindByPaymentID resolves one ledger entry by its public payment id
func (s *PaymentService) FindByPaymentID(ctx context.Context, paymentID string) (*models.LedgerEntry, error) {
	entry, err := s.repos.Ledger.FindByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "payment", ID: paymentID}
		}
		return nil, err
	}
	return entry, nil
}

// ListPaidInRange returns settled payments inside [start, end), optionally
// restricted to one branch
func (s *PaymentService) ListPaidInRange(ctx context.Context, start, end time.Time, branchCode string) ([]models.LedgerEntry, error) {
	return s.repos.Ledger.FindPaidInRange(ctx, start, end, branchCode)
}

// TotalPaidInPeriod sums settled payments inside [start, end)
func (s *PaymentService) TotalPaidInPeriod(ctx context.Context, start, end time.Time) (float64, error) {
	return s.repos.Ledger.SumPaidInPeriod(ctx, start, end)
}

// OnTimeRate returns the share of payments in [start, end) settled on or
// before their due date, as a whole percentage. An empty period counts as
// fully on time.
func (s *PaymentService) OnTimeRate(ctx context.Context, start, end time.Time) (int, error) {
	total, err := s.repos.Ledger.CountInPeriod(ctx, start, end)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 100, nil
	}
	onTime, err := s.repos.Ledger.CountOnTimeInPeriod(ctx, start, end)
	if err != nil {
		return 0, err
	}
	return int(money.Round0(float64(onTime) / float64(total) * 100)), nil
}
