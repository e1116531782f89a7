package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContract_RecalculateBalances(t *testing.T) {
	contract := &Contract{
		Status:            ContractStatusOngoing,
		TotalAmount:       12000,
		PaidAmount:        4500,
		InstallmentMonths: 12,
		PaidPeriods:       4,
	}

	contract.RecalculateBalances()

	assert.Equal(t, 7500.0, contract.RemainingBalance)
	assert.Equal(t, 8, contract.RemainingPeriods)
	assert.Equal(t, ContractStatusOngoing, contract.Status)
}

func TestContract_RecalculateBalances_ClampsNegative(t *testing.T) {
	// An overpayment never persists a negative balance
	contract := &Contract{
		Status:            ContractStatusOngoing,
		TotalAmount:       1000,
		PaidAmount:        1200,
		InstallmentMonths: 10,
		PaidPeriods:       12,
	}

	contract.RecalculateBalances()

	assert.Equal(t, 0.0, contract.RemainingBalance)
	assert.Equal(t, 0, contract.RemainingPeriods)
	assert.Equal(t, ContractStatusCompleted, contract.Status)
}

func TestContract_RecalculateBalances_CompletionIsOneDirectional(t *testing.T) {
	// A cancelled contract stays cancelled even with the balance settled
	contract := &Contract{
		Status:      ContractStatusCancelled,
		TotalAmount: 1000,
		PaidAmount:  1000,
	}

	contract.RecalculateBalances()
	assert.Equal(t, ContractStatusCancelled, contract.Status)

	// A zero-total contract never flips to completed
	empty := &Contract{Status: ContractStatusPending}
	empty.RecalculateBalances()
	assert.Equal(t, ContractStatusPending, empty.Status)
}

func TestContract_CalculateNextPaymentDate(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	contract := &Contract{StartDate: &start, PaidPeriods: 2}
	next := contract.CalculateNextPaymentDate()
	assert.NotNil(t, next)
	assert.Equal(t, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), *next)

	noStart := &Contract{PaidPeriods: 2}
	assert.Nil(t, noStart.CalculateNextPaymentDate())
}

func TestContract_IsOverdue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -5)
	future := now.AddDate(0, 0, 5)

	tests := []struct {
		name     string
		contract Contract
		want     bool
	}{
		{"past next payment date", Contract{Status: ContractStatusOngoing, RemainingBalance: 500, NextPaymentDate: &past}, true},
		{"future next payment date", Contract{Status: ContractStatusOngoing, RemainingBalance: 500, NextPaymentDate: &future}, false},
		{"falls back to due date", Contract{Status: ContractStatusOngoing, RemainingBalance: 500, DueDate: &past}, true},
		{"no balance outstanding", Contract{Status: ContractStatusOngoing, RemainingBalance: 0, NextPaymentDate: &past}, false},
		{"terminal status", Contract{Status: ContractStatusCompleted, RemainingBalance: 500, NextPaymentDate: &past}, false},
		{"no reference date", Contract{Status: ContractStatusOngoing, RemainingBalance: 500}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.contract.IsOverdue(now))
		})
	}
}

func TestContract_ProgressPercent(t *testing.T) {
	assert.Equal(t, 38, (&Contract{TotalAmount: 12000, PaidAmount: 4500}).ProgressPercent())
	assert.Equal(t, 100, (&Contract{TotalAmount: 1000, PaidAmount: 1000}).ProgressPercent())
	assert.Equal(t, 0, (&Contract{TotalAmount: 0, PaidAmount: 500}).ProgressPercent())
}

func TestContract_DisplayNumber(t *testing.T) {
	number := "CT-2025-0042"
	assert.Equal(t, "CT-2025-0042", (&Contract{ContractNumber: &number}).DisplayNumber())

	blank := ""
	assert.Equal(t, "AUTO-000007", (&Contract{ID: 7, ContractNumber: &blank}).DisplayNumber())
	assert.Equal(t, "AUTO-000123", (&Contract{ID: 123}).DisplayNumber())
}

func TestContract_StatusBucket(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -10)

	assert.Equal(t, "completed", (&Contract{Status: ContractStatusCompleted}).StatusBucket(now))
	assert.Equal(t, "overdue", (&Contract{Status: ContractStatusOngoing, RemainingBalance: 100, DueDate: &past}).StatusBucket(now))
	assert.Equal(t, "current", (&Contract{Status: ContractStatusOngoing, RemainingBalance: 100}).StatusBucket(now))
}

func TestContract_ResolveCustomer(t *testing.T) {
	contract := &Contract{
		CustomerName:  "Snapshot Name",
		CustomerPhone: "0800000000",
		Customer: &Customer{
			Type:      CustomerTypeIndividual,
			FirstName: "Somchai",
			LastName:  "Jaidee",
			Phone:     "0811111111",
		},
	}

	assert.Equal(t, "Somchai Jaidee", contract.ResolveCustomerName())
	assert.Equal(t, "0811111111", contract.ResolveCustomerPhone())

	// The flat snapshot backs up a missing link
	snapshot := &Contract{CustomerName: "Snapshot Name", CustomerPhone: "0800000000"}
	assert.Equal(t, "Snapshot Name", snapshot.ResolveCustomerName())
	assert.Equal(t, "0800000000", snapshot.ResolveCustomerPhone())
}

func TestMaskIdentity(t *testing.T) {
	assert.Equal(t, "1234******890", maskIdentity("1234567890890"))
	assert.Equal(t, "****", maskIdentity("1234"))
	assert.Equal(t, "", maskIdentity(""))
}
