// Package transform converts between the installment-order representation
// and the generic loan representation of the same underlying contract. The
// conversion is lossy only for fields unique to one side; fields present in
// both schemas survive a round trip unchanged.
package transform

import (
	"strings"
	"time"

	"github.com/siampay/installment-api/internal/models"
	"github.com/siampay/installment-api/internal/money"
)

// Risk rating bands
const (
	RiskHigh    = "high"
	RiskMedium  = "medium"
	RiskLow     = "low"
	RiskMinimal = "minimal"
)

// LoanRecord is the loan-system shape of a contract
type LoanRecord struct {
	LoanID         uint   `json:"loanId"`
	ContractNumber string `json:"contractNumber"`
	LoanType       string `json:"loanType"`

	CustomerID      *uint  `json:"customerId"`
	CustomerName    string `json:"customerName"`
	CustomerPhone   string `json:"customerPhone"`
	CustomerEmail   string `json:"customerEmail"`
	CustomerAddress string `json:"customerAddress"`

	PrincipalAmount    float64 `json:"principalAmount"`
	LoanAmount         float64 `json:"loanAmount"`
	DisbursedAmount    float64 `json:"disbursedAmount"`
	OutstandingBalance float64 `json:"outstandingBalance"`
	TotalInterest      float64 `json:"totalInterest"`

	TermInMonths   int     `json:"termInMonths"`
	MonthlyPayment float64 `json:"monthlyPayment"`
	InterestRate   float64 `json:"interestRate"`

	Status           string     `json:"status"`
	ApplicationDate  time.Time  `json:"applicationDate"`
	ApprovalDate     *time.Time `json:"approvalDate"`
	DisbursementDate time.Time  `json:"disbursementDate"`
	MaturityDate     *time.Time `json:"maturityDate"`
	LastPaymentDate  *time.Time `json:"lastPaymentDate"`
	NextDueDate      *time.Time `json:"nextDueDate"`

	PaymentsCount     int     `json:"paymentsCount"`
	RemainingPayments int     `json:"remainingPayments"`
	PaymentProgress   float64 `json:"paymentProgress"`

	DaysPastDue int    `json:"daysPastDue"`
	RiskRating  string `json:"riskRating"`

	Purpose     string           `json:"purpose"`
	Collateral  []LoanCollateral `json:"collateral"`
	BranchCode  string           `json:"branchCode"`
	OfficerName string           `json:"officerName"`

	SourceSystem string    `json:"sourceSystem"`
	LastUpdated  time.Time `json:"lastUpdated"`

	Original LoanOrigin `json:"originalData"`
}

// LoanCollateral is the loan-side view of a financed product
type LoanCollateral struct {
	Type         string  `json:"type"`
	Description  string  `json:"description"`
	Quantity     int     `json:"quantity"`
	Value        float64 `json:"value"`
	SerialNumber string  `json:"serialNumber"`
	Condition    string  `json:"condition"`
}

// LoanOrigin keeps a back reference to the source record
type LoanOrigin struct {
	InstallmentOrderID uint   `json:"installmentOrderId"`
	PlanType           string `json:"planType"`
}

// InstallmentToLoan converts one contract into the loan shape
func InstallmentToLoan(c *models.Contract, now time.Time) LoanRecord {
	if c == nil {
		return LoanRecord{}
	}

	totalAmount := money.ClampNonNegative(c.TotalAmount)
	paidAmount := money.ClampNonNegative(c.PaidAmount)
	outstanding := money.ClampNonNegative(totalAmount - paidAmount)

	paymentsCount := len(c.LedgerEntries)
	remainingPayments := c.InstallmentMonths - paymentsCount
	if remainingPayments < 0 {
		remainingPayments = 0
	}

	rec := LoanRecord{
		LoanID:         c.ID,
		ContractNumber: c.DisplayNumber(),
		LoanType:       "installment_purchase",

		CustomerID:      c.CustomerID,
		CustomerName:    c.ResolveCustomerName(),
		CustomerPhone:   c.ResolveCustomerPhone(),
		CustomerAddress: c.CustomerAddress,

		PrincipalAmount:    totalAmount,
		LoanAmount:         totalAmount,
		DisbursedAmount:    c.DownPayment,
		OutstandingBalance: outstanding,
		TotalInterest:      0, // the installment system does not separate interest

		TermInMonths:   c.InstallmentMonths,
		MonthlyPayment: c.MonthlyPayment,
		InterestRate:   0,

		Status:           UnifyStatus(c.Status, SystemInstallment),
		ApplicationDate:  c.CreatedAt,
		DisbursementDate: c.CreatedAt,
		MaturityDate:     c.DueDate,
		LastPaymentDate:  lastPaymentDate(c.LedgerEntries),
		NextDueDate:      c.DueDate,

		PaymentsCount:     paymentsCount,
		RemainingPayments: remainingPayments,
		PaymentProgress:   money.Percent(paidAmount, totalAmount),

		DaysPastDue: DaysPastDue(c.DueDate, now),

		Purpose:    extractPurpose(c.Items),
		Collateral: formatCollateral(c.Items),
		BranchCode: c.BranchCode,

		SourceSystem: SystemInstallment,
		LastUpdated:  c.UpdatedAt,

		Original: LoanOrigin{
			InstallmentOrderID: c.ID,
			PlanType:           c.PlanType,
		},
	}

	if c.Customer != nil {
		rec.CustomerEmail = c.Customer.Email
	}

	if c.Status == models.ContractStatusApproved {
		approved := c.CreatedAt
		if c.ApprovedAt != nil {
			approved = *c.ApprovedAt
		}
		rec.ApprovalDate = &approved
	}

	rec.RiskRating = AssessRisk(rec.DaysPastDue, paidAmount, totalAmount)

	return rec
}

// InstallmentToLoanSlice converts a batch of contracts
func InstallmentToLoanSlice(contracts []models.Contract, now time.Time) []LoanRecord {
	out := make([]LoanRecord, 0, len(contracts))
	for i := range contracts {
		out = append(out, InstallmentToLoan(&contracts[i], now))
	}
	return out
}

// LoanToInstallment converts a loan record back into the installment
// contract shape. Fields unique to the loan side are dropped, never
// fabricated.
func LoanToInstallment(rec LoanRecord) models.Contract {
	first, last := splitName(rec.CustomerName)

	contract := models.Contract{
		ID:                rec.LoanID,
		PlanType:          "loan_integration",
		CustomerID:        rec.CustomerID,
		CustomerName:      strings.TrimSpace(first + " " + last),
		CustomerPhone:     rec.CustomerPhone,
		CustomerAddress:   rec.CustomerAddress,
		TotalAmount:       rec.LoanAmount,
		PaidAmount:        money.ClampNonNegative(rec.LoanAmount - rec.OutstandingBalance),
		DownPayment:       rec.DisbursedAmount,
		MonthlyPayment:    rec.MonthlyPayment,
		InstallmentMonths: rec.TermInMonths,
		Status:            UnifyStatus(rec.Status, SystemLoan),
		BranchCode:        rec.BranchCode,
		CreatedAt:         rec.ApplicationDate,
		UpdatedAt:         rec.LastUpdated,
	}

	if rec.ContractNumber != "" {
		num := rec.ContractNumber
		contract.ContractNumber = &num
	}

	if rec.NextDueDate != nil {
		contract.DueDate = rec.NextDueDate
	} else {
		contract.DueDate = rec.MaturityDate
	}

	return contract
}

// LoanToInstallmentSlice converts a batch of loan records
func LoanToInstallmentSlice(records []LoanRecord) []models.Contract {
	out := make([]models.Contract, 0, len(records))
	for _, rec := range records {
		out = append(out, LoanToInstallment(rec))
	}
	return out
}

// DaysPastDue returns whole days elapsed past the due date, 0 when the due
// date is unset or still ahead
func DaysPastDue(dueDate *time.Time, now time.Time) int {
	if dueDate == nil || !now.After(*dueDate) {
		return 0
	}
	return int(now.Sub(*dueDate).Hours() / 24)
}

// AssessRisk bands a contract by days past due and paid ratio
func AssessRisk(daysPastDue int, paidAmount, totalAmount float64) string {
	ratio := 0.0
	if totalAmount > 0 {
		ratio = paidAmount / totalAmount
	}

	switch {
	case daysPastDue > 90 || ratio < 0.3:
		return RiskHigh
	case daysPastDue > 60 || ratio < 0.5:
		return RiskMedium
	case daysPastDue > 30 || ratio < 0.7:
		return RiskLow
	default:
		return RiskMinimal
	}
}

func lastPaymentDate(entries []models.LedgerEntry) *time.Time {
	var latest *time.Time
	for i := range entries {
		d := entries[i].PaymentDate
		if d == nil {
			continue
		}
		if latest == nil || d.After(*latest) {
			latest = d
		}
	}
	return latest
}

func extractPurpose(items []models.ContractItem) string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		if it.Name != "" {
			names = append(names, it.Name)
		}
	}
	if len(names) == 0 {
		return "installment purchase"
	}
	return strings.Join(names, ", ")
}

func formatCollateral(items []models.ContractItem) []LoanCollateral {
	out := make([]LoanCollateral, 0, len(items))
	for _, it := range items {
		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		out = append(out, LoanCollateral{
			Type:         "product",
			Description:  it.Name,
			Quantity:     qty,
			Value:        it.DownAmount,
			SerialNumber: it.IMEI,
			Condition:    "new",
		})
	}
	return out
}

func splitName(fullName string) (first, last string) {
	parts := strings.Fields(strings.TrimSpace(fullName))
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
