package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/siampay/installment-api/internal/models"
	"github.com/siampay/installment-api/internal/repository"
	"gorm.io/gorm"
)

type InvoiceService struct {
	repos    *repository.Repositories
	auditSvc *AuditService
}

func NewInvoiceService(repos *repository.Repositories, auditSvc *AuditService) *InvoiceService {
	return &InvoiceService{repos: repos, auditSvc: auditSvc}
}

// Create validates an invoice, computes its totals and persists it. Totals
// always recompute server side; client supplied figures are ignored.
func (s *InvoiceService) Create(ctx context.Context, invoice *models.Invoice, actorID uint) error {
	if err := s.validate(invoice); err != nil {
		return err
	}

	if invoice.Date.IsZero() {
		invoice.Date = time.Now()
	}

	if invoice.InvoiceNumber == "" {
		invoice.InvoiceNumber = s.nextInvoiceNumber(ctx, time.Now())
	} else {
		existing, err := s.repos.Invoice.FindByNumber(ctx, invoice.InvoiceNumber)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil {
			return &ValidationError{Field: "invoice_number", Message: "already in use"}
		}
	}

	if invoice.ContractID != nil {
		if _, err := s.repos.Contract.FindByID(ctx, *invoice.ContractID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "contract", ID: strconv.FormatUint(uint64(*invoice.ContractID), 10)}
			}
			return err
		}
	}

	invoice.ComputeTotals()

	if err := s.repos.Invoice.Create(ctx, invoice); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionCreate, "Invoice", invoice.ID,
		fmt.Sprintf("Invoice %s created, net total %.2f", invoice.InvoiceNumber, invoice.NetTotal), "", "")

	return nil
}

func (s *InvoiceService) validate(invoice *models.Invoice) error {
	if strings.TrimSpace(invoice.CustomerName) == "" {
		return &ValidationError{Field: "customer_name", Message: "is required"}
	}
	if len(invoice.Items) == 0 {
		return &ValidationError{Field: "items", Message: "at least one line item is required"}
	}
	for i := range invoice.Items {
		item := &invoice.Items[i]
		if item.Quantity <= 0 {
			return &ValidationError{Field: "items", Message: fmt.Sprintf("item %d quantity must be greater than zero", i+1)}
		}
		if item.UnitPrice < 0 {
			return &ValidationError{Field: "items", Message: fmt.Sprintf("item %d unit price cannot be negative", i+1)}
		}
	}
	if invoice.DiscountValue < 0 {
		return &ValidationError{Field: "discount_value", Message: "cannot be negative"}
	}
	return nil
}

// nextInvoiceNumber builds INV-YYYYMM-NNNN from the monthly count. A read
// failure degrades to a timestamp suffix instead of blocking the sale.
func (s *InvoiceService) nextInvoiceNumber(ctx context.Context, now time.Time) string {
	query := repository.NewListQuery()
	query.PerPage = 0
	_, total, err := s.repos.Invoice.List(ctx, query)
	if err != nil {
		return fmt.Sprintf("INV-%s-%d", now.Format("200601"), now.Unix()%10000)
	}
	return fmt.Sprintf("INV-%s-%04d", now.Format("200601"), total+1)
}

// Update recomputes totals and persists edits to a draft invoice
func (s *InvoiceService) Update(ctx context.Context, invoice *models.Invoice) error {
	if invoice.Status != models.InvoiceStatusDraft {
		return &InvalidStateError{Current: invoice.Status, Attempted: "update"}
	}
	if err := s.validate(invoice); err != nil {
		return err
	}
	invoice.ComputeTotals()
	return s.repos.Invoice.Update(ctx, invoice)
}

func (s *InvoiceService) FindByID(ctx context.Context, id uint) (*models.Invoice, error) {
	invoice, err := s.repos.Invoice.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "invoice", ID: strconv.FormatUint(uint64(id), 10)}
		}
		return nil, err
	}
	return invoice, nil
}

func (s *InvoiceService) FindByContract(ctx context.Context, contractID uint) ([]models.Invoice, error) {
	return s.repos.Invoice.FindByContract(ctx, contractID)
}

func (s *InvoiceService) List(ctx context.Context, query *repository.ListQuery) ([]models.Invoice, int64, error) {
	return s.repos.Invoice.List(ctx, query)
}
