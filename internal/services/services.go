package services

import (
	"github.com/siampay/installment-api/internal/config"
	"github.com/siampay/installment-api/internal/jobs"
	"github.com/siampay/installment-api/internal/repository"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	User         *UserService
	Customer     *CustomerService
	Contract     *ContractService
	Payment      *PaymentService
	Invoice      *InvoiceService
	Integration  *IntegrationService
	Notification *NotificationService
	Analytics    *AnalyticsService
	Export       *ExportService
	Audit        *AuditService
	Job          *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config, db *gorm.DB) *Services {
	notificationSvc := NewNotificationService(repos.Notification, repos.User, worker)
	auditSvc := NewAuditService(db)

	return &Services{
		Auth:         NewAuthService(repos.User, repos.RefreshToken, cfg),
		User:         NewUserService(repos.User, auditSvc),
		Customer:     NewCustomerService(repos.Customer),
		Contract:     NewContractService(repos, notificationSvc, auditSvc, worker),
		Payment:      NewPaymentService(repos, notificationSvc, auditSvc, worker),
		Invoice:      NewInvoiceService(repos, auditSvc),
		Integration:  NewIntegrationService(repos),
		Notification: notificationSvc,
		Analytics:    NewAnalyticsService(repos.Analytics, repos.Contract, repos.Ledger, cfg.AnalyticsCacheTTL),
		Export:       NewExportService(repos),
		Audit:        auditSvc,
		Job:          NewJobService(worker),
	}
}
