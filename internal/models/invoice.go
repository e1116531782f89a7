package models

import (
	"time"

	"github.com/siampay/installment-api/internal/money"
)

// Invoice is a derived financial document. It duplicates a snapshot of
// items, customer and fees at generation time; editing the source contract
// later must not change an issued invoice.
type Invoice struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	InvoiceNumber string    `gorm:"uniqueIndex;not null" json:"invoice_number"`
	ContractID    *uint     `gorm:"index" json:"contract_id"`
	QuotationRef  *string   `gorm:"index" json:"quotation_ref"`
	Date          time.Time `gorm:"not null" json:"date"`
	BranchCode    string    `gorm:"default:00000;index" json:"branch_code"`
	Currency      string    `gorm:"default:THB" json:"currency"`

	// Customer snapshot
	CustomerName    string `gorm:"not null" json:"customer_name"`
	CustomerAddress string `gorm:"type:text" json:"customer_address"`
	CustomerTaxID   string `json:"customer_tax_id"`
	CustomerPhone   string `json:"customer_phone"`

	// Witness snapshot
	WitnessName     string `json:"witness_name"`
	WitnessIDCard   string `json:"witness_id_card"`
	WitnessPhone    string `json:"witness_phone"`
	WitnessRelation string `json:"witness_relation"`

	SalespersonID   *uint  `gorm:"index" json:"salesperson_id"`
	SalespersonName string `json:"salesperson_name"`

	VATInclusive  bool    `gorm:"default:true" json:"vat_inclusive"`
	DiscountValue float64 `gorm:"type:decimal(15,2);default:0" json:"discount_value"`
	DocFee        float64 `gorm:"type:decimal(10,2);default:0" json:"doc_fee"`
	ShippingFee   float64 `gorm:"type:decimal(10,2);default:0" json:"shipping_fee"`

	// Computed summary, recomputed on every save and never trusted from
	// client input.
	Subtotal      float64 `gorm:"type:decimal(15,2);default:0" json:"subtotal"`
	VAT           float64 `gorm:"type:decimal(15,2);default:0" json:"vat"`
	NetTotal      float64 `gorm:"type:decimal(15,2);default:0" json:"net_total"`
	FinancedTotal float64 `gorm:"type:decimal(15,2);default:0" json:"financed_total"`
	DownTotal     float64 `gorm:"type:decimal(15,2);default:0" json:"down_total"`
	GrandTotal    float64 `gorm:"type:decimal(15,2);default:0" json:"grand_total"`

	Status    string    `gorm:"default:draft;index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

// TableName specifies the table name for Invoice
func (Invoice) TableName() string {
	return "invoices"
}

// Invoice status constants
const (
	InvoiceStatusDraft = "draft"
	InvoiceStatusSent  = "sent"
	InvoiceStatusPaid  = "paid"
)

// InvoiceItem is an invoice line item snapshot
type InvoiceItem struct {
	ID                uint    `gorm:"primaryKey" json:"id"`
	InvoiceID         uint    `gorm:"not null;index" json:"invoice_id"`
	IMEI              string  `json:"imei"`
	Description       string  `json:"description"`
	Quantity          int     `gorm:"default:1" json:"quantity"`
	UnitPrice         float64 `gorm:"type:decimal(15,2);not null" json:"unit_price"`
	Discount          float64 `gorm:"type:decimal(15,2);default:0" json:"discount"`
	DownAmount        float64 `gorm:"type:decimal(15,2);default:0" json:"down_amount"`
	TermCount         int     `gorm:"default:0" json:"term_count"`
	InstallmentAmount float64 `gorm:"type:decimal(15,2);default:0" json:"installment_amount"`
	TotalPrice        float64 `gorm:"type:decimal(15,2)" json:"total_price"`
}

// TableName specifies the table name for InvoiceItem
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// ComputeTotals derives every summary figure from the line items and fees.
// financedTotal and downTotal come from the items alone; the grand total is
// beforeTax plus VAT when the invoice is VAT inclusive.
func (inv *Invoice) ComputeTotals() {
	var financed, down, subtotal float64
	for _, it := range inv.Items {
		financed += it.InstallmentAmount * float64(it.TermCount)
		down += it.DownAmount
		subtotal += it.UnitPrice * float64(it.Quantity)
	}

	beforeTax := subtotal - inv.DiscountValue + inv.DocFee + inv.ShippingFee

	vat := 0.0
	if inv.VATInclusive {
		vat = money.VAT(beforeTax)
	}

	inv.FinancedTotal = financed
	inv.DownTotal = down
	inv.Subtotal = subtotal
	inv.VAT = vat
	inv.NetTotal = beforeTax + vat
	inv.GrandTotal = inv.NetTotal
}
