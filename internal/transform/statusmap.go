package transform

// System vocabulary identifiers
const (
	SystemInstallment = "installment"
	SystemLoan        = "loan"
)

// Loan-domain status constants
const (
	LoanStatusPendingApproval = "pending_approval"
	LoanStatusApproved        = "approved"
	LoanStatusActive          = "active"
	LoanStatusDisbursed       = "disbursed"
	LoanStatusFullyPaid       = "fully_paid"
	LoanStatusCancelled       = "cancelled"
	LoanStatusRejected        = "rejected"
	LoanStatusDefaulted       = "defaulted"
)

// The two vocabulary tables are the single source of truth for status
// unification. Statuses without a row pass through unchanged.
var installmentToLoanStatus = map[string]string{
	"pending":   LoanStatusPendingApproval,
	"approved":  LoanStatusApproved,
	"active":    LoanStatusActive,
	"ongoing":   LoanStatusActive,
	"completed": LoanStatusFullyPaid,
	"cancelled": LoanStatusCancelled,
	"rejected":  LoanStatusRejected,
}

var loanToInstallmentStatus = map[string]string{
	LoanStatusPendingApproval: "pending",
	LoanStatusApproved:        "approved",
	LoanStatusActive:          "active",
	LoanStatusDisbursed:       "active",
	LoanStatusFullyPaid:       "completed",
	LoanStatusCancelled:       "cancelled",
	LoanStatusRejected:        "rejected",
	LoanStatusDefaulted:       "overdue",
}

// UnifyStatus translates a status string out of the given system's
// vocabulary. Unknown statuses and unknown systems return the input as is.
func UnifyStatus(status, fromSystem string) string {
	var mapping map[string]string
	switch fromSystem {
	case SystemInstallment:
		mapping = installmentToLoanStatus
	case SystemLoan:
		mapping = loanToInstallmentStatus
	default:
		return status
	}

	if mapped, ok := mapping[status]; ok {
		return mapped
	}
	return status
}
