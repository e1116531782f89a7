package handlers

import (
	"github.com/siampay/installment-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	Customer     *CustomerHandler
	Contract     *ContractHandler
	Payment      *PaymentHandler
	Invoice      *InvoiceHandler
	Integration  *IntegrationHandler
	Notification *NotificationHandler
	Audit        *AuditHandler
	Analytics    *AnalyticsHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Auth:         NewAuthHandler(svcs.Auth),
		User:         NewUserHandler(svcs.User),
		Customer:     NewCustomerHandler(svcs.Customer),
		Contract:     NewContractHandler(svcs.Contract),
		Payment:      NewPaymentHandler(svcs.Payment),
		Invoice:      NewInvoiceHandler(svcs.Invoice),
		Integration:  NewIntegrationHandler(svcs.Integration),
		Notification: NewNotificationHandler(svcs.Notification),
		Audit:        NewAuditHandler(svcs.Audit),
		Analytics:    NewAnalyticsHandler(svcs.Analytics, svcs.Export),
		Job:          NewJobHandler(svcs.Job),
	}
}
