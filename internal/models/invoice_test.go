package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoice_ComputeTotals(t *testing.T) {
	inv := &Invoice{
		VATInclusive:  true,
		DiscountValue: 500,
		DocFee:        200,
		Items: []InvoiceItem{
			{UnitPrice: 3000, Quantity: 2, DownAmount: 1000, TermCount: 10, InstallmentAmount: 550},
			{UnitPrice: 4000, Quantity: 1, DownAmount: 500, TermCount: 6, InstallmentAmount: 650},
		},
	}

	inv.ComputeTotals()

	// subtotal 10000 - discount 500 + doc fee 200 = 9700 before tax
	assert.Equal(t, 10000.0, inv.Subtotal)
	assert.Equal(t, 679.00, inv.VAT)
	assert.Equal(t, 10379.00, inv.NetTotal)
	assert.Equal(t, inv.NetTotal, inv.GrandTotal)

	// Financed and down totals come from the items alone
	assert.Equal(t, 9400.0, inv.FinancedTotal)
	assert.Equal(t, 1500.0, inv.DownTotal)
}

func TestInvoice_ComputeTotals_VATExclusive(t *testing.T) {
	inv := &Invoice{
		VATInclusive: false,
		Items: []InvoiceItem{
			{UnitPrice: 1000, Quantity: 1},
		},
	}

	inv.ComputeTotals()

	assert.Equal(t, 1000.0, inv.Subtotal)
	assert.Equal(t, 0.0, inv.VAT)
	assert.Equal(t, 1000.0, inv.NetTotal)
}

func TestInvoice_ComputeTotals_Idempotent(t *testing.T) {
	inv := &Invoice{
		VATInclusive: true,
		Items:        []InvoiceItem{{UnitPrice: 2500, Quantity: 2}},
	}

	inv.ComputeTotals()
	first := *inv
	inv.ComputeTotals()

	assert.Equal(t, first.Subtotal, inv.Subtotal)
	assert.Equal(t, first.VAT, inv.VAT)
	assert.Equal(t, first.NetTotal, inv.NetTotal)
}

func TestInvoice_ComputeTotals_NoItems(t *testing.T) {
	inv := &Invoice{VATInclusive: true, DocFee: 100}

	inv.ComputeTotals()

	assert.Equal(t, 0.0, inv.Subtotal)
	assert.Equal(t, 7.00, inv.VAT)
	assert.Equal(t, 107.00, inv.NetTotal)
}
