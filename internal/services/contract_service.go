package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/siampay/installment-api/internal/events"
	"github.com/siampay/installment-api/internal/jobs"
	"github.com/siampay/installment-api/internal/models"
	"github.com/siampay/installment-api/internal/repository"
	"github.com/siampay/installment-api/internal/statemachine"
	"gorm.io/gorm"
)

type ContractService struct {
	repos           *repository.Repositories
	publisher       events.Publisher
	auditSvc        *AuditService
	worker          *jobs.Worker
	paymentSchedule *PaymentScheduleService
}

func NewContractService(
	repos *repository.Repositories,
	publisher events.Publisher,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *ContractService {
	return &ContractService{
		repos:           repos,
		publisher:       publisher,
		auditSvc:        auditSvc,
		worker:          worker,
		paymentSchedule: NewPaymentScheduleService(),
	}
}

// FindByID gets a contract by ID
func (s *ContractService) FindByID(ctx context.Context, id uint) (*models.Contract, error) {
	contract, err := s.repos.Contract.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "contract", ID: strconv.FormatUint(uint64(id), 10)}
		}
		return nil, err
	}
	return contract, nil
}

// GetDetail gets a contract with all associations plus its ordered ledger,
// shaped for the detail response
func (s *ContractService) GetDetail(ctx context.Context, id uint) (*models.ContractDetail, error) {
	contract, err := s.repos.Contract.FindByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "contract", ID: strconv.FormatUint(uint64(id), 10)}
		}
		return nil, err
	}

	detail := contract.ToDetail(contract.LedgerEntries)
	return &detail, nil
}

// List returns listing rows for the query
func (s *ContractService) List(ctx context.Context, query *repository.ContractQuery) ([]models.ContractListRow, int64, error) {
	contracts, total, err := s.repos.Contract.List(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	rows := make([]models.ContractListRow, 0, len(contracts))
	for i := range contracts {
		rows = append(rows, contracts[i].ToListRow(now))
	}
	return rows, total, nil
}

// Create validates and persists a new contract in pending state. A blank
// contract number stays nil; the display layer derives an AUTO- fallback
// from the record id.
func (s *ContractService) Create(ctx context.Context, contract *models.Contract) error {
	if err := s.validateNew(contract); err != nil {
		return err
	}

	if contract.ContractNumber != nil {
		trimmed := strings.TrimSpace(*contract.ContractNumber)
		if trimmed == "" {
			contract.ContractNumber = nil
		} else {
			contract.ContractNumber = &trimmed
			existing, err := s.repos.Contract.FindByNumber(ctx, trimmed)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if existing != nil {
				return &ValidationError{Field: "contract_number", Message: "already in use"}
			}
		}
	}

	contract.Status = models.ContractStatusPending
	contract.ApprovalStatus = models.ApprovalStatusPending
	contract.FinanceAmount = contract.TotalAmount - contract.DownPayment
	contract.RecalculateBalances()

	if err := s.repos.Contract.Create(ctx, contract); err != nil {
		return err
	}

	s.publisher.Publish(ctx, events.Event{
		Name:       events.ContractCreated,
		EntityID:   contract.ID,
		Title:      "New contract request",
		Message:    fmt.Sprintf("Contract %s created for %s, total %.2f", contract.DisplayNumber(), contract.ResolveCustomerName(), contract.TotalAmount),
		BranchCode: contract.BranchCode,
	})

	if contract.CreatorID != nil {
		s.auditSvc.Log(ctx, *contract.CreatorID, models.AuditActionCreate, "Contract", contract.ID,
			fmt.Sprintf("Contract %s created, total %.2f over %d months", contract.DisplayNumber(), contract.TotalAmount, contract.InstallmentMonths), "", "")
	}

	return nil
}

func (s *ContractService) validateNew(contract *models.Contract) error {
	if strings.TrimSpace(contract.ResolveCustomerName()) == "" {
		return &ValidationError{Field: "customer_name", Message: "is required"}
	}
	if contract.TotalAmount <= 0 {
		return &ValidationError{Field: "total_amount", Message: "must be greater than zero"}
	}
	if contract.DownPayment < 0 {
		return &ValidationError{Field: "down_payment", Message: "cannot be negative"}
	}
	if contract.DownPayment > contract.TotalAmount {
		return &ValidationError{Field: "down_payment", Message: "cannot exceed total amount"}
	}
	if contract.MonthlyPayment <= 0 {
		return &ValidationError{Field: "monthly_payment", Message: "must be greater than zero"}
	}
	if contract.InstallmentMonths <= 0 {
		return &ValidationError{Field: "installment_months", Message: "must be greater than zero"}
	}
	switch contract.PlanType {
	case "", models.PlanTypeInstallment, models.PlanTypeSavings, models.PlanTypePayoff:
	default:
		return &ValidationError{Field: "plan_type", Message: "unknown plan type"}
	}
	return nil
}

// Update persists edits to a contract that is still pending approval
func (s *ContractService) Update(ctx context.Context, contract *models.Contract) error {
	if contract.IsTerminal() {
		return &InvalidStateError{Current: contract.Status, Attempted: "update"}
	}
	contract.FinanceAmount = contract.TotalAmount - contract.DownPayment
	contract.RecalculateBalances()
	return s.repos.Contract.Update(ctx, contract)
}

// Approve moves the contract through its approval workflow and activates
// repayment: start date is stamped, the pending schedule generated, and the
// lifecycle advanced to active.
func (s *ContractService) Approve(ctx context.Context, id uint, actorID uint, ip, userAgent string) (*models.Contract, error) {
	contract, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Lifecycle first: its guard reads the approval sub-state, which must
	// still be unresolved at that point.
	fsm := statemachine.NewContractFSM(contract)
	if err := fsm.Approve(ctx); err != nil {
		return nil, &InvalidStateError{Current: contract.Status, Attempted: "approve"}
	}

	approval := statemachine.NewApprovalFSM(contract)
	if err := approval.Approve(ctx); err != nil {
		return nil, &InvalidStateError{Current: contract.ApprovalStatus, Attempted: "approve"}
	}

	if err := fsm.Activate(ctx); err != nil {
		return nil, &InvalidStateError{Current: contract.Status, Attempted: "activate"}
	}

	now := time.Now()
	contract.ApprovedAt = &now
	contract.ApprovedByUserID = &actorID
	contract.StartDate = &now
	if contract.DueDate == nil {
		end := contract.CreatedAt.AddDate(0, contract.InstallmentMonths, 0)
		contract.DueDate = &end
	}
	contract.NextPaymentDate = contract.CalculateNextPaymentDate()

	entries, err := s.paymentSchedule.GenerateSchedule(ctx, contract)
	if err != nil {
		return nil, err
	}

	err = s.repos.Transaction(ctx, func(repos *repository.Repositories) error {
		if err := repos.Contract.Update(ctx, contract); err != nil {
			return err
		}
		for i := range entries {
			if err := repos.Ledger.Create(ctx, &entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.Event{
		Name:       events.ContractApproved,
		EntityID:   contract.ID,
		Title:      "Contract approved",
		Message:    fmt.Sprintf("Contract %s approved and activated", contract.DisplayNumber()),
		BranchCode: contract.BranchCode,
	})

	s.auditSvc.Log(ctx, actorID, models.AuditActionApprove, "Contract", contract.ID,
		fmt.Sprintf("Contract %s approved, %d installments scheduled", contract.DisplayNumber(), len(entries)), ip, userAgent)

	return contract, nil
}

// Reject declines a pending contract. The reason is mandatory.
func (s *ContractService) Reject(ctx context.Context, id uint, actorID uint, reason, ip, userAgent string) (*models.Contract, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Field: "reason", Message: "is required"}
	}

	contract, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fsm := statemachine.NewContractFSM(contract)
	if err := fsm.Reject(ctx); err != nil {
		return nil, &InvalidStateError{Current: contract.Status, Attempted: "reject"}
	}

	approval := statemachine.NewApprovalFSM(contract)
	if err := approval.Reject(ctx); err != nil {
		return nil, &InvalidStateError{Current: contract.ApprovalStatus, Attempted: "reject"}
	}

	now := time.Now()
	contract.RejectedAt = &now
	contract.RejectedByUserID = &actorID
	contract.RejectionReason = &reason

	if err := s.repos.Contract.Update(ctx, contract); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.Event{
		Name:       events.ContractRejected,
		EntityID:   contract.ID,
		Title:      "Contract rejected",
		Message:    fmt.Sprintf("Contract %s rejected: %s", contract.DisplayNumber(), reason),
		BranchCode: contract.BranchCode,
	})

	s.auditSvc.Log(ctx, actorID, models.AuditActionReject, "Contract", contract.ID,
		fmt.Sprintf("Contract %s rejected: %s", contract.DisplayNumber(), reason), ip, userAgent)

	return contract, nil
}

// Cancel terminates a non-terminal contract. Pending ledger entries are
// marked cancelled; settled entries stay untouched for the audit trail.
func (s *ContractService) Cancel(ctx context.Context, id uint, actorID uint, reason string) (*models.Contract, error) {
	contract, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fsm := statemachine.NewContractFSM(contract)
	if err := fsm.Cancel(ctx); err != nil {
		return nil, &InvalidStateError{Current: contract.Status, Attempted: "cancel"}
	}

	now := time.Now()
	err = s.repos.Transaction(ctx, func(repos *repository.Repositories) error {
		if err := repos.Contract.Update(ctx, contract); err != nil {
			return err
		}

		entries, err := repos.Ledger.FindByContract(ctx, contract.ID)
		if err != nil {
			return err
		}
		for i := range entries {
			entry := &entries[i]
			if entry.Status != models.LedgerStatusPending {
				continue
			}
			entry.Cancel(actorID, reason, now)
			if err := repos.Ledger.Update(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.Event{
		Name:       events.ContractCancelled,
		EntityID:   contract.ID,
		Title:      "Contract cancelled",
		Message:    fmt.Sprintf("Contract %s cancelled: %s", contract.DisplayNumber(), reason),
		BranchCode: contract.BranchCode,
	})

	s.auditSvc.Log(ctx, actorID, models.AuditActionUpdate, "Contract", contract.ID,
		fmt.Sprintf("Contract %s cancelled: %s", contract.DisplayNumber(), reason), "", "")

	return contract, nil
}

// SoftDelete hides a contract from every read path without destroying its
// ledger
func (s *ContractService) SoftDelete(ctx context.Context, id uint, actorID uint) error {
	contract, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repos.Contract.SoftDelete(ctx, contract.ID); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionDelete, "Contract", contract.ID,
		fmt.Sprintf("Contract %s soft-deleted", contract.DisplayNumber()), "", "")

	return nil
}

// Restore reverses a soft delete. Restoring a contract that is not deleted
// fails.
func (s *ContractService) Restore(ctx context.Context, id uint, actorID uint) (*models.Contract, error) {
	contract, err := s.repos.Contract.FindByIDIncludingDeleted(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "contract", ID: strconv.FormatUint(uint64(id), 10)}
		}
		return nil, err
	}
	if !contract.DeletedAt.Valid {
		return nil, &InvalidStateError{Current: "not deleted", Attempted: "restore"}
	}

	if err := s.repos.Contract.Restore(ctx, contract.ID); err != nil {
		return nil, err
	}
	contract.DeletedAt = gorm.DeletedAt{}

	s.auditSvc.Log(ctx, actorID, models.AuditActionRestore, "Contract", contract.ID,
		fmt.Sprintf("Contract %s restored", contract.DisplayNumber()), "", "")

	return contract, nil
}

// SweepOverdue walks active contracts with a missed due date and advances
// them to overdue. Runs on the background scheduler; the read path also
// derives the classification so a sweep lag never hides lateness.
func (s *ContractService) SweepOverdue(ctx context.Context) (int, error) {
	now := time.Now()
	candidates, err := s.repos.Contract.FindOverdueCandidates(ctx, now)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range candidates {
		contract := &candidates[i]

		fsm := statemachine.NewContractFSM(contract)
		if err := fsm.MarkOverdue(ctx); err != nil {
			continue
		}

		entries, err := s.repos.Ledger.FindOverdueEntries(ctx, now)
		if err == nil {
			overdueAmount := 0.0
			overduePeriods := 0
			maxDays := 0
			for j := range entries {
				if entries[j].ContractID != contract.ID {
					continue
				}
				overdueAmount += entries[j].AmountDue
				overduePeriods++
				if d := entries[j].OverdueDays(now); d > maxDays {
					maxDays = d
				}
			}
			contract.OverdueAmount = overdueAmount
			contract.OverduePeriods = overduePeriods
			contract.OverdueDays = maxDays
		}

		if err := s.repos.Contract.Update(ctx, contract); err != nil {
			continue
		}

		s.publisher.Publish(ctx, events.Event{
			Name:       events.ContractOverdue,
			EntityID:   contract.ID,
			Title:      "Contract overdue",
			Message:    fmt.Sprintf("Contract %s is overdue, %.2f outstanding", contract.DisplayNumber(), contract.OverdueAmount),
			BranchCode: contract.BranchCode,
		})
		swept++
	}

	return swept, nil
}
