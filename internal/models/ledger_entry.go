package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LedgerEntry is one scheduled-or-recorded installment payment against a
// contract. Entries are append-only; corrections re-record against the same
// installment number and the contract aggregate is re-derived by summation.
type LedgerEntry struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PaymentID  string `gorm:"uniqueIndex;not null" json:"payment_id"`
	ContractID uint   `gorm:"not null;index:idx_ledger_contract_installment" json:"contract_id"`
	CustomerID *uint  `gorm:"index" json:"customer_id"`

	InstallmentNumber int       `gorm:"not null;index:idx_ledger_contract_installment" json:"installment_number"`
	DueDate           time.Time `gorm:"type:date;not null;index" json:"due_date"`

	AmountDue     float64    `gorm:"type:decimal(15,2);not null" json:"amount_due"`
	AmountPaid    float64    `gorm:"type:decimal(15,2);default:0" json:"amount_paid"`
	PaymentDate   *time.Time `gorm:"index" json:"payment_date"`
	PaymentMethod string     `gorm:"default:cash" json:"payment_method"`
	Status        string     `gorm:"default:PENDING;not null;index" json:"status"`
	Notes         string     `gorm:"type:text" json:"notes"`
	ReceiptNumber string     `json:"receipt_number"`

	// Mixed method breakdown; the three parts must match AmountPaid within
	// a cent.
	MixedCashAmount     float64 `gorm:"type:decimal(15,2);default:0" json:"mixed_cash_amount"`
	MixedTransferAmount float64 `gorm:"type:decimal(15,2);default:0" json:"mixed_transfer_amount"`
	MixedCardAmount     float64 `gorm:"type:decimal(15,2);default:0" json:"mixed_card_amount"`

	BranchCode       string `gorm:"default:00000;index" json:"branch_code"`
	RecordedByUserID *uint  `gorm:"index" json:"recorded_by_user_id"`

	CancelledAt        *time.Time `json:"cancelled_at"`
	CancelledByUserID  *uint      `json:"cancelled_by_user_id"`
	CancellationReason string     `gorm:"type:text" json:"cancellation_reason"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Contract   Contract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	RecordedBy *User    `gorm:"foreignKey:RecordedByUserID" json:"recorded_by,omitempty"`
}

// TableName specifies the table name for LedgerEntry
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// Ledger entry status constants
const (
	LedgerStatusPending   = "PENDING"
	LedgerStatusPaid      = "PAID"
	LedgerStatusOverdue   = "OVERDUE"
	LedgerStatusWaived    = "WAIVED"
	LedgerStatusCancelled = "CANCELLED"
)

// Payment method constants
const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "transfer"
	PaymentMethodCard     = "card"
	PaymentMethodMixed    = "mixed"
)

// GeneratePaymentID returns a new ledger payment identifier of the form
// PAY-YYYYMMDD-XXXXXX
func GeneratePaymentID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("PAY-%s-%s", now.Format("20060102"), suffix)
}

// IsPaid returns true when the entry settles its installment
func (e *LedgerEntry) IsPaid() bool {
	return e.Status == LedgerStatusPaid
}

// IsOnTime classifies a settled entry: paid on or before its due date
func (e *LedgerEntry) IsOnTime() bool {
	if e.PaymentDate == nil {
		return false
	}
	return !e.PaymentDate.After(e.DueDate)
}

// IsOverdue returns true when the entry is unsettled past its due date
func (e *LedgerEntry) IsOverdue(now time.Time) bool {
	return e.Status == LedgerStatusPending && now.After(e.DueDate)
}

// OverdueDays returns whole days past the due date for unsettled entries
func (e *LedgerEntry) OverdueDays(now time.Time) int {
	if !e.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(e.DueDate).Hours() / 24)
}

// MixedTotal sums the mixed method breakdown
func (e *LedgerEntry) MixedTotal() float64 {
	return e.MixedCashAmount + e.MixedTransferAmount + e.MixedCardAmount
}

// ValidateMixed checks the mixed breakdown against the paid amount within
// the cent tolerance
func (e *LedgerEntry) ValidateMixed() error {
	if e.PaymentMethod != PaymentMethodMixed {
		return nil
	}
	diff := e.MixedTotal() - e.AmountPaid
	if diff < -0.01 || diff > 0.01 {
		return fmt.Errorf("mixed payment breakdown %.2f does not match amount %.2f", e.MixedTotal(), e.AmountPaid)
	}
	return nil
}

// Cancel marks the entry cancelled with an audit trail
func (e *LedgerEntry) Cancel(userID uint, reason string, now time.Time) {
	e.Status = LedgerStatusCancelled
	e.CancelledAt = &now
	e.CancelledByUserID = &userID
	e.CancellationReason = reason
}

// AgingBucket classifies an unsettled entry by days past due
func (e *LedgerEntry) AgingBucket(now time.Time) string {
	days := e.OverdueDays(now)
	switch {
	case days == 0:
		return "current"
	case days <= 30:
		return "1-30"
	case days <= 60:
		return "31-60"
	case days <= 90:
		return "61-90"
	case days <= 180:
		return "91-180"
	default:
		return "180+"
	}
}

// LedgerEntryResponse is the JSON response format for ledger entries
type LedgerEntryResponse struct {
	ID                uint       `json:"id"`
	PaymentID         string     `json:"payment_id"`
	ContractID        uint       `json:"contract_id"`
	InstallmentNumber int        `json:"installment_number"`
	DueDate           time.Time  `json:"due_date"`
	Amount            float64    `json:"amount"`
	PaidAmount        float64    `json:"paid_amount"`
	PaidDate          *time.Time `json:"paid_date"`
	IsPaid            bool       `json:"is_paid"`
	PaymentMethod     string     `json:"payment_method"`
	Status            string     `json:"status"`
	Notes             string     `json:"notes,omitempty"`
	ReceiptNumber     string     `json:"receipt_number,omitempty"`
	BranchCode        string     `json:"branch_code,omitempty"`
	RecordedBy        string     `json:"recorded_by,omitempty"`
}

// ToResponse converts a LedgerEntry to its response shape
func (e *LedgerEntry) ToResponse() LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:                e.ID,
		PaymentID:         e.PaymentID,
		ContractID:        e.ContractID,
		InstallmentNumber: e.InstallmentNumber,
		DueDate:           e.DueDate,
		Amount:            e.AmountDue,
		PaidAmount:        e.AmountPaid,
		PaidDate:          e.PaymentDate,
		IsPaid:            e.IsPaid(),
		PaymentMethod:     e.PaymentMethod,
		Status:            e.Status,
		Notes:             e.Notes,
		ReceiptNumber:     e.ReceiptNumber,
		BranchCode:        e.BranchCode,
	}

	if e.RecordedBy != nil {
		resp.RecordedBy = e.RecordedBy.FullName
	}

	return resp
}
