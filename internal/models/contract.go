package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/siampay/installment-api/internal/money"
)

// Contract represents a financed installment purchase contract
type Contract struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	ContractNumber *string `gorm:"uniqueIndex" json:"contract_number"`
	PlanType       string  `gorm:"default:plan1;index" json:"plan_type"`
	BranchCode     string  `gorm:"default:00000;index" json:"branch_code"`

	// Customer reference plus a denormalized snapshot. The snapshot survives
	// later edits to the customer record.
	CustomerID      *uint  `gorm:"index" json:"customer_id"`
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerTaxID   string `json:"customer_tax_id"`
	CustomerAddress string `gorm:"type:text" json:"customer_address"`

	CreatorID        *uint `gorm:"index" json:"creator_id"`
	ApprovedByUserID *uint `gorm:"index" json:"approved_by_user_id"`
	RejectedByUserID *uint `gorm:"index" json:"rejected_by_user_id"`

	// Financial terms
	TotalAmount       float64  `gorm:"type:decimal(15,2);not null" json:"total_amount"`
	DownPayment       float64  `gorm:"type:decimal(15,2);default:0" json:"down_payment"`
	MonthlyPayment    float64  `gorm:"type:decimal(15,2);not null" json:"monthly_payment"`
	InterestRate      *float64 `gorm:"type:decimal(6,3)" json:"interest_rate"`
	InstallmentMonths int      `gorm:"not null" json:"installment_months"`
	DocFee            float64  `gorm:"type:decimal(10,2);default:0" json:"doc_fee"`
	FinanceAmount     float64  `gorm:"type:decimal(15,2)" json:"finance_amount"`

	// Progress aggregates, persisted for query performance and recomputed
	// from the ledger on every payment write.
	PaidAmount       float64    `gorm:"type:decimal(15,2);default:0" json:"paid_amount"`
	PaidPeriods      int        `gorm:"default:0" json:"paid_periods"`
	RemainingBalance float64    `gorm:"type:decimal(15,2)" json:"remaining_balance"`
	RemainingPeriods int        `json:"remaining_periods"`
	NextPaymentDate  *time.Time `gorm:"index" json:"next_payment_date"`
	LastPaymentDate  *time.Time `json:"last_payment_date"`
	OverdueAmount    float64    `gorm:"type:decimal(15,2);default:0" json:"overdue_amount"`
	OverdueDays      int        `gorm:"default:0" json:"overdue_days"`
	OverduePeriods   int        `gorm:"default:0" json:"overdue_periods"`
	PenaltyAmount    float64    `gorm:"type:decimal(15,2);default:0" json:"penalty_amount"`

	// Lifecycle and approval workflow
	Status          string     `gorm:"default:pending;index" json:"status"`
	ApprovalStatus  string     `gorm:"default:pending;index" json:"approval_status"`
	ApprovedAt      *time.Time `json:"approved_at"`
	RejectedAt      *time.Time `json:"rejected_at"`
	RejectionReason *string    `gorm:"type:text" json:"rejection_reason"`

	StartDate *time.Time `gorm:"type:date" json:"start_date"`
	DueDate   *time.Time `gorm:"type:date;index" json:"due_date"`

	LockVersion uint           `gorm:"default:0" json:"-"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Associations
	Customer      *Customer      `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Creator       *User          `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	ApprovedBy    *User          `gorm:"foreignKey:ApprovedByUserID" json:"approved_by,omitempty"`
	Items         []ContractItem `gorm:"foreignKey:ContractID" json:"items,omitempty"`
	Guarantors    []Guarantor    `gorm:"foreignKey:ContractID" json:"guarantors,omitempty"`
	Collateral    []Collateral   `gorm:"foreignKey:ContractID" json:"collateral,omitempty"`
	LedgerEntries []LedgerEntry  `gorm:"foreignKey:ContractID" json:"ledger_entries,omitempty"`
}

// TableName specifies the table name for Contract
func (Contract) TableName() string {
	return "contracts"
}

// Contract lifecycle status constants
const (
	ContractStatusPending   = "pending"
	ContractStatusApproved  = "approved"
	ContractStatusActive    = "active"
	ContractStatusOngoing   = "ongoing"
	ContractStatusCompleted = "completed"
	ContractStatusOverdue   = "overdue"
	ContractStatusCancelled = "cancelled"
	ContractStatusDefaulted = "defaulted"
	ContractStatusRejected  = "rejected"
)

// Approval workflow sub-state constants
const (
	ApprovalStatusPending     = "pending"
	ApprovalStatusUnderReview = "under_review"
	ApprovalStatusApproved    = "approved"
	ApprovalStatusRejected    = "rejected"
)

// Plan type constants
const (
	PlanTypeInstallment = "plan1"
	PlanTypeSavings     = "plan2"
	PlanTypePayoff      = "plan3"
)

// ActiveStatuses is the set of statuses counted as live contracts
var ActiveStatuses = []string{
	ContractStatusOngoing,
	ContractStatusActive,
	ContractStatusApproved,
}

// MayApprove returns true if the approval workflow allows approving
func (c *Contract) MayApprove() bool {
	return c.ApprovalStatus == ApprovalStatusPending ||
		c.ApprovalStatus == ApprovalStatusUnderReview
}

// MayReject returns true if the approval workflow allows rejecting
func (c *Contract) MayReject() bool {
	return c.ApprovalStatus == ApprovalStatusPending ||
		c.ApprovalStatus == ApprovalStatusUnderReview
}

// MayActivate returns true if the contract can move into repayment
func (c *Contract) MayActivate() bool {
	return c.Status == ContractStatusApproved
}

// MayCancel returns true if the contract can be cancelled
func (c *Contract) MayCancel() bool {
	return !c.IsTerminal()
}

// MayComplete returns true if the contract can close out
func (c *Contract) MayComplete() bool {
	return c.Status == ContractStatusActive ||
		c.Status == ContractStatusOngoing ||
		c.Status == ContractStatusOverdue
}

// MayDefault returns true if the contract can be marked defaulted
func (c *Contract) MayDefault() bool {
	return c.Status == ContractStatusActive ||
		c.Status == ContractStatusOngoing ||
		c.Status == ContractStatusOverdue
}

// IsTerminal returns true once no further lifecycle transitions are allowed
func (c *Contract) IsTerminal() bool {
	return c.Status == ContractStatusCompleted ||
		c.Status == ContractStatusCancelled ||
		c.Status == ContractStatusDefaulted
}

// RecalculateBalances recomputes the derived balance fields from the
// persisted aggregates. Idempotent; must run before every persist where
// PaidAmount or TotalAmount changed. Negative results clamp to zero.
func (c *Contract) RecalculateBalances() {
	c.RemainingBalance = money.ClampNonNegative(c.TotalAmount - c.PaidAmount)

	remaining := c.InstallmentMonths - c.PaidPeriods
	if remaining < 0 {
		remaining = 0
	}
	c.RemainingPeriods = remaining

	// Completion is one directional: a fully paid contract never reopens.
	if c.RemainingBalance <= 0 && c.TotalAmount > 0 && !c.IsTerminal() {
		c.Status = ContractStatusCompleted
	}
}

// CalculateNextPaymentDate returns startDate + (paidPeriods+1) months,
// or nil when no start date is set
func (c *Contract) CalculateNextPaymentDate() *time.Time {
	if c.StartDate == nil {
		return nil
	}
	next := c.StartDate.AddDate(0, c.PaidPeriods+1, 0)
	return &next
}

// IsOverdue reports the derived overdue classification at the given instant
func (c *Contract) IsOverdue(now time.Time) bool {
	if c.IsTerminal() {
		return false
	}
	if c.RemainingBalance <= 0 {
		return false
	}
	ref := c.NextPaymentDate
	if ref == nil {
		ref = c.DueDate
	}
	return ref != nil && ref.Before(now)
}

// ProgressPercent returns paid/total as a whole percentage, 0 when total is 0
func (c *Contract) ProgressPercent() int {
	if c.TotalAmount <= 0 {
		return 0
	}
	return int(money.Round0(c.PaidAmount / c.TotalAmount * 100))
}

// PaidInstallments derives the paid period count from amounts. A missing
// monthly payment is treated as 1 so the division never blows up.
func (c *Contract) PaidInstallments() int {
	divisor := c.MonthlyPayment
	if divisor <= 0 {
		divisor = 1
	}
	return int(c.PaidAmount / divisor)
}

// DisplayNumber returns the assigned contract number, or a generated
// fallback derived from the internal id
func (c *Contract) DisplayNumber() string {
	if c.ContractNumber != nil && *c.ContractNumber != "" {
		return *c.ContractNumber
	}
	return fmt.Sprintf("AUTO-%06d", c.ID%1000000)
}

// StatusBucket classifies the contract for listing rows
func (c *Contract) StatusBucket(now time.Time) string {
	if c.Status == ContractStatusCompleted {
		return "completed"
	}
	if c.IsOverdue(now) {
		return "overdue"
	}
	return "current"
}

// TypeLabel maps the plan type to its display vocabulary
func (c *Contract) TypeLabel() string {
	switch c.PlanType {
	case PlanTypeSavings:
		return "SAVINGS"
	case PlanTypePayoff:
		return "PAYOFF"
	default:
		return "INSTALLMENT"
	}
}

// ContractItem is a financed line item embedded in a contract
type ContractItem struct {
	ID                uint    `gorm:"primaryKey" json:"id"`
	ContractID        uint    `gorm:"not null;index" json:"contract_id"`
	Name              string  `gorm:"not null" json:"name"`
	IMEI              string  `json:"imei"`
	Description       string  `json:"description"`
	Quantity          int     `gorm:"default:1" json:"quantity"`
	UnitPrice         float64 `gorm:"type:decimal(15,2);not null" json:"unit_price"`
	DownAmount        float64 `gorm:"type:decimal(15,2);default:0" json:"down_amount"`
	TermCount         int     `gorm:"default:0" json:"term_count"`
	InstallmentAmount float64 `gorm:"type:decimal(15,2);default:0" json:"installment_amount"`
	TotalPrice        float64 `gorm:"type:decimal(15,2)" json:"total_price"`
}

// TableName specifies the table name for ContractItem
func (ContractItem) TableName() string {
	return "contract_items"
}

// Guarantor is a contract guarantor, not independently persisted
type Guarantor struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	ContractID uint   `gorm:"not null;index" json:"contract_id"`
	Name       string `gorm:"not null" json:"name"`
	IDCard     string `json:"id_card"`
	Phone      string `json:"phone"`
	Relation   string `json:"relation"`
	Address    string `gorm:"type:text" json:"address"`
}

// TableName specifies the table name for Guarantor
func (Guarantor) TableName() string {
	return "guarantors"
}

// Collateral is an asset pledged against a contract
type Collateral struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	ContractID     uint    `gorm:"not null;index" json:"contract_id"`
	Description    string  `gorm:"not null" json:"description"`
	SerialNumber   string  `json:"serial_number"`
	EstimatedValue float64 `gorm:"type:decimal(15,2);default:0" json:"estimated_value"`
}

// TableName specifies the table name for Collateral
func (Collateral) TableName() string {
	return "collateral"
}

// ContractListRow is the denormalized listing shape
type ContractListRow struct {
	ID                 uint       `json:"id"`
	ContractNumber     string     `json:"contract_number"`
	CustomerName       string     `json:"customer_name"`
	CustomerPhone      string     `json:"customer_phone"`
	ProductName        string     `json:"product_name"`
	ProductDescription string     `json:"product_description"`
	Type               string     `json:"type"`
	Status             string     `json:"status"`
	TotalAmount        float64    `json:"total_amount"`
	PaidAmount         float64    `json:"paid_amount"`
	RemainingAmount    float64    `json:"remaining_amount"`
	ProgressPercent    int        `json:"progress_percent"`
	MonthlyAmount      float64    `json:"monthly_amount"`
	TotalInstallments  int        `json:"total_installments"`
	PaidInstallments   int        `json:"paid_installments"`
	DueDate            *time.Time `json:"due_date"`
	CreatedAt          time.Time  `json:"created_at"`
	PlanType           string     `json:"plan_type"`
}

// ToListRow converts a Contract to its listing row. Missing denormalized
// lookups degrade to empty strings rather than failing the listing.
func (c *Contract) ToListRow(now time.Time) ContractListRow {
	row := ContractListRow{
		ID:                c.ID,
		ContractNumber:    c.DisplayNumber(),
		CustomerName:      c.ResolveCustomerName(),
		CustomerPhone:     c.ResolveCustomerPhone(),
		Type:              c.TypeLabel(),
		Status:            c.StatusBucket(now),
		TotalAmount:       c.TotalAmount,
		PaidAmount:        c.PaidAmount,
		RemainingAmount:   c.TotalAmount - c.PaidAmount,
		ProgressPercent:   c.ProgressPercent(),
		MonthlyAmount:     c.MonthlyPayment,
		TotalInstallments: c.InstallmentMonths,
		PaidInstallments:  c.PaidInstallments(),
		DueDate:           c.DueDate,
		CreatedAt:         c.CreatedAt,
		PlanType:          c.PlanType,
	}

	if len(c.Items) > 0 {
		row.ProductName = c.Items[0].Name
		row.ProductDescription = c.Items[0].IMEI
	}

	return row
}

// ResolveCustomerName prefers the linked customer record and falls back to
// the flat snapshot
func (c *Contract) ResolveCustomerName() string {
	if c.Customer != nil {
		if name := c.Customer.DisplayName(); name != "" {
			return name
		}
	}
	return c.CustomerName
}

// ResolveCustomerPhone prefers the linked customer record and falls back to
// the flat snapshot
func (c *Contract) ResolveCustomerPhone() string {
	if c.Customer != nil && c.Customer.Phone != "" {
		return c.Customer.Phone
	}
	return c.CustomerPhone
}

// ContractDetail is the full single-contract response shape
type ContractDetail struct {
	ID                uint                  `json:"id"`
	ContractNumber    string                `json:"contract_number"`
	CustomerName      string                `json:"customer_name"`
	CustomerPhone     string                `json:"customer_phone"`
	CustomerIDCard    string                `json:"customer_id_card"`
	CustomerAddress   string                `json:"customer_address"`
	Type              string                `json:"type"`
	Status            string                `json:"status"`
	ApprovalStatus    string                `json:"approval_status"`
	TotalAmount       float64               `json:"total_amount"`
	PaidAmount        float64               `json:"paid_amount"`
	RemainingAmount   float64               `json:"remaining_amount"`
	DownPayment       float64               `json:"down_payment"`
	FinanceAmount     float64               `json:"finance_amount"`
	MonthlyAmount     float64               `json:"monthly_amount"`
	TotalInstallments int                   `json:"total_installments"`
	PaidInstallments  int                   `json:"paid_installments"`
	StartDate         time.Time             `json:"start_date"`
	EndDate           *time.Time            `json:"end_date"`
	Products          []ContractItem        `json:"products"`
	Installments      []LedgerEntryResponse `json:"installments"`
}

// ToDetail converts a Contract plus its ordered ledger to the detail shape
func (c *Contract) ToDetail(entries []LedgerEntry) ContractDetail {
	detail := ContractDetail{
		ID:                c.ID,
		ContractNumber:    c.DisplayNumber(),
		CustomerName:      c.ResolveCustomerName(),
		CustomerPhone:     c.ResolveCustomerPhone(),
		CustomerIDCard:    maskIdentity(c.CustomerTaxID),
		CustomerAddress:   c.CustomerAddress,
		Type:              c.TypeLabel(),
		Status:            c.Status,
		ApprovalStatus:    c.ApprovalStatus,
		TotalAmount:       c.TotalAmount,
		PaidAmount:        c.PaidAmount,
		RemainingAmount:   c.TotalAmount - c.PaidAmount,
		DownPayment:       c.DownPayment,
		FinanceAmount:     c.TotalAmount - c.DownPayment,
		MonthlyAmount:     c.MonthlyPayment,
		TotalInstallments: c.InstallmentMonths,
		PaidInstallments:  c.PaidInstallments(),
		StartDate:         c.CreatedAt,
		EndDate:           c.DueDate,
		Products:          c.Items,
	}

	for _, entry := range entries {
		detail.Installments = append(detail.Installments, entry.ToResponse())
	}

	return detail
}

// maskIdentity masks an identity string for privacy
func maskIdentity(identity string) string {
	if len(identity) <= 4 {
		masked := ""
		for range identity {
			masked += "*"
		}
		return masked
	}
	masked := identity[:4]
	for i := 4; i < len(identity)-3; i++ {
		masked += "*"
	}
	masked += identity[len(identity)-3:]
	return masked
}
