package services

import (
	"context"
	"testing"

	"github.com/siampay/installment-api/internal/models"
	"github.com/siampay/installment-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type mockCustomerRepo struct {
	repository.CustomerRepository
	mockFindByID func(ctx context.Context, id uint) (*models.Customer, error)
	mockCreate   func(ctx context.Context, customer *models.Customer) error
}

func (m *mockCustomerRepo) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockCustomerRepo) Create(ctx context.Context, customer *models.Customer) error {
	return m.mockCreate(ctx, customer)
}

func TestCustomerService_Create(t *testing.T) {
	mockRepo := &mockCustomerRepo{}
	service := NewCustomerService(mockRepo)

	var created *models.Customer
	mockRepo.mockCreate = func(ctx context.Context, customer *models.Customer) error {
		created = customer
		return nil
	}

	customer := &models.Customer{FirstName: "Somchai", LastName: "Jaidee"}
	assert.NoError(t, service.Create(context.Background(), customer))

	// Missing type defaults to individual
	assert.Equal(t, models.CustomerTypeIndividual, created.Type)
}

func TestCustomerService_Create_Validation(t *testing.T) {
	service := NewCustomerService(&mockCustomerRepo{})

	tests := []struct {
		name     string
		customer models.Customer
	}{
		{"individual without name", models.Customer{Type: models.CustomerTypeIndividual}},
		{"corporate without company name", models.Customer{Type: models.CustomerTypeCorporate}},
		{"unknown type", models.Customer{Type: "partnership", FirstName: "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.Create(context.Background(), &tt.customer)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCustomerService_FindByID_NotFound(t *testing.T) {
	mockRepo := &mockCustomerRepo{}
	service := NewCustomerService(mockRepo)

	mockRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Customer, error) {
		return nil, gorm.ErrRecordNotFound
	}

	_, err := service.FindByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
