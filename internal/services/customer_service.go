package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/siampay/installment-api/internal/models"
	"github.com/siampay/installment-api/internal/repository"
	"gorm.io/gorm"
)

// CustomerService manages the structured party records behind contract
// snapshots
type CustomerService struct {
	repo repository.CustomerRepository
}

func NewCustomerService(repo repository.CustomerRepository) *CustomerService {
	return &CustomerService{repo: repo}
}

func (s *CustomerService) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "customer", ID: strconv.FormatUint(uint64(id), 10)}
		}
		return nil, err
	}
	return customer, nil
}

func (s *CustomerService) List(ctx context.Context, query *repository.ListQuery) ([]models.Customer, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *CustomerService) Create(ctx context.Context, customer *models.Customer) error {
	if err := s.validate(customer); err != nil {
		return err
	}
	return s.repo.Create(ctx, customer)
}

func (s *CustomerService) Update(ctx context.Context, customer *models.Customer) error {
	if err := s.validate(customer); err != nil {
		return err
	}
	return s.repo.Update(ctx, customer)
}

func (s *CustomerService) validate(customer *models.Customer) error {
	if customer.Type == "" {
		customer.Type = models.CustomerTypeIndividual
	}
	switch customer.Type {
	case models.CustomerTypeIndividual:
		if strings.TrimSpace(customer.FirstName+customer.LastName) == "" {
			return &ValidationError{Field: "first_name", Message: "individual customers need a name"}
		}
	case models.CustomerTypeCorporate:
		if strings.TrimSpace(customer.CompanyName) == "" {
			return &ValidationError{Field: "company_name", Message: "corporate customers need a company name"}
		}
	default:
		return &ValidationError{Field: "type", Message: "must be individual or corporate"}
	}
	return nil
}
