package models

import (
	"strings"
	"time"
)

// Customer is the structured party record. Contracts keep their own flat
// snapshot, so listing reads still work when this record is missing or was
// edited after origination.
type Customer struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Type string `gorm:"default:individual;index" json:"type"`

	// Individual
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Corporate
	CompanyName string `json:"company_name"`

	Phone   string `gorm:"index" json:"phone"`
	Email   string `json:"email"`
	TaxID   string `gorm:"index" json:"tax_id"`
	Address string `gorm:"type:text" json:"address"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Customer
func (Customer) TableName() string {
	return "customers"
}

// Customer type constants
const (
	CustomerTypeIndividual = "individual"
	CustomerTypeCorporate  = "corporate"
)

// DisplayName returns the customer's display name for either party type
func (c *Customer) DisplayName() string {
	if c.Type == CustomerTypeCorporate && c.CompanyName != "" {
		return c.CompanyName
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
