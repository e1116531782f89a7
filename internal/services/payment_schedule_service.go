package services

import (
	"context"
	"fmt"
	"time"

	"github.com/siampay/installment-api/internal/models"
)

// PaymentScheduleService builds the pending ledger skeleton for a contract
type PaymentScheduleService struct{}

// NewPaymentScheduleService creates a new payment schedule service
func NewPaymentScheduleService() *PaymentScheduleService {
	return &PaymentScheduleService{}
}

// GenerateSchedule creates one pending entry per installment. Installment i
// falls due i calendar months after the contract was created, so the first
// installment is due one month in.
func (s *PaymentScheduleService) GenerateSchedule(ctx context.Context, contract *models.Contract) ([]models.LedgerEntry, error) {
	if contract.InstallmentMonths <= 0 {
		return nil, &ValidationError{Field: "installment_months", Message: "must be greater than zero"}
	}
	if contract.MonthlyPayment <= 0 {
		return nil, &ValidationError{Field: "monthly_payment", Message: "must be greater than zero"}
	}

	entries := make([]models.LedgerEntry, 0, contract.InstallmentMonths)
	base := contract.CreatedAt
	now := time.Now()

	for i := 1; i <= contract.InstallmentMonths; i++ {
		entry := models.LedgerEntry{
			PaymentID:         models.GeneratePaymentID(now),
			ContractID:        contract.ID,
			CustomerID:        contract.CustomerID,
			InstallmentNumber: i,
			DueDate:           base.AddDate(0, i, 0),
			AmountDue:         contract.MonthlyPayment,
			Status:            models.LedgerStatusPending,
			BranchCode:        contract.BranchCode,
			Notes:             fmt.Sprintf("Installment %d of %d", i, contract.InstallmentMonths),
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
