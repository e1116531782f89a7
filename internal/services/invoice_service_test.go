package services

import (
	"context"
	"testing"

	"github.com/siampay/installment-api/internal/models"
	"github.com/siampay/installment-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type mockInvoiceRepo struct {
	repository.InvoiceRepository
	mockFindByNumber func(ctx context.Context, number string) (*models.Invoice, error)
	mockCreate       func(ctx context.Context, invoice *models.Invoice) error
	mockUpdate       func(ctx context.Context, invoice *models.Invoice) error
	mockList         func(ctx context.Context, query *repository.ListQuery) ([]models.Invoice, int64, error)
}

func (m *mockInvoiceRepo) FindByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	return m.mockFindByNumber(ctx, number)
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	return m.mockCreate(ctx, invoice)
}

func (m *mockInvoiceRepo) Update(ctx context.Context, invoice *models.Invoice) error {
	return m.mockUpdate(ctx, invoice)
}

func (m *mockInvoiceRepo) List(ctx context.Context, query *repository.ListQuery) ([]models.Invoice, int64, error) {
	return m.mockList(ctx, query)
}

func newTestInvoiceService(invoiceRepo *mockInvoiceRepo, contractRepo *mockContractRepo) *InvoiceService {
	repos := &repository.Repositories{Invoice: invoiceRepo, Contract: contractRepo}
	return NewInvoiceService(repos, NewAuditService(nil))
}

func draftInvoice() *models.Invoice {
	return &models.Invoice{
		CustomerName: "Somchai Jaidee",
		VATInclusive: true,
		Status:       models.InvoiceStatusDraft,
		Items: []models.InvoiceItem{
			{Description: "Phone X", Quantity: 1, UnitPrice: 10000, DownAmount: 300},
		},
	}
}

func TestInvoiceService_Create(t *testing.T) {
	invoiceRepo := &mockInvoiceRepo{}
	service := newTestInvoiceService(invoiceRepo, &mockContractRepo{})

	var created *models.Invoice
	invoiceRepo.mockList = func(ctx context.Context, query *repository.ListQuery) ([]models.Invoice, int64, error) {
		return nil, 11, nil
	}
	invoiceRepo.mockCreate = func(ctx context.Context, invoice *models.Invoice) error {
		created = invoice
		return nil
	}

	invoice := draftInvoice()
	// Client supplied figures are recomputed, never trusted
	invoice.NetTotal = 1

	err := service.Create(context.Background(), invoice, 7)

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Regexp(t, `^INV-\d{6}-0012$`, created.InvoiceNumber)
	assert.False(t, created.Date.IsZero())
	assert.Equal(t, 10000.0, created.Subtotal)
	assert.Equal(t, 700.00, created.VAT)
	assert.Equal(t, 10700.00, created.NetTotal)
}

func TestInvoiceService_Create_DuplicateNumber(t *testing.T) {
	invoiceRepo := &mockInvoiceRepo{}
	service := newTestInvoiceService(invoiceRepo, &mockContractRepo{})

	invoiceRepo.mockFindByNumber = func(ctx context.Context, number string) (*models.Invoice, error) {
		return &models.Invoice{ID: 3}, nil
	}

	invoice := draftInvoice()
	invoice.InvoiceNumber = "INV-202508-0001"

	assert.ErrorIs(t, service.Create(context.Background(), invoice, 7), ErrValidation)
}

func TestInvoiceService_Create_UnknownContract(t *testing.T) {
	invoiceRepo := &mockInvoiceRepo{}
	contractRepo := &mockContractRepo{}
	service := newTestInvoiceService(invoiceRepo, contractRepo)

	invoiceRepo.mockFindByNumber = func(ctx context.Context, number string) (*models.Invoice, error) {
		return nil, gorm.ErrRecordNotFound
	}
	contractRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Contract, error) {
		return nil, gorm.ErrRecordNotFound
	}

	invoice := draftInvoice()
	invoice.InvoiceNumber = "INV-202508-0002"
	contractID := uint(404)
	invoice.ContractID = &contractID

	assert.ErrorIs(t, service.Create(context.Background(), invoice, 7), ErrNotFound)
}

func TestInvoiceService_Create_Validation(t *testing.T) {
	service := newTestInvoiceService(&mockInvoiceRepo{}, &mockContractRepo{})

	tests := []struct {
		name   string
		mutate func(inv *models.Invoice)
	}{
		{"missing customer name", func(inv *models.Invoice) { inv.CustomerName = " " }},
		{"no items", func(inv *models.Invoice) { inv.Items = nil }},
		{"zero quantity", func(inv *models.Invoice) { inv.Items[0].Quantity = 0 }},
		{"negative unit price", func(inv *models.Invoice) { inv.Items[0].UnitPrice = -1 }},
		{"negative discount", func(inv *models.Invoice) { inv.DiscountValue = -10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoice := draftInvoice()
			tt.mutate(invoice)
			assert.ErrorIs(t, service.Create(context.Background(), invoice, 7), ErrValidation)
		})
	}
}

func TestInvoiceService_Update_DraftOnly(t *testing.T) {
	invoiceRepo := &mockInvoiceRepo{}
	service := newTestInvoiceService(invoiceRepo, &mockContractRepo{})

	var updated *models.Invoice
	invoiceRepo.mockUpdate = func(ctx context.Context, invoice *models.Invoice) error {
		updated = invoice
		return nil
	}

	invoice := draftInvoice()
	invoice.Items[0].UnitPrice = 5000

	assert.NoError(t, service.Update(context.Background(), invoice))
	assert.Equal(t, 5000.0, updated.Subtotal)

	sent := draftInvoice()
	sent.Status = models.InvoiceStatusSent
	assert.ErrorIs(t, service.Update(context.Background(), sent), ErrInvalidState)
}
