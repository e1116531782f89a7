package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/siampay/installment-api/internal/services"
	"github.com/siampay/installment-api/internal/transform"
)

// IntegrationHandler exposes the loan-system exchange endpoints. Contracts
// leave as loan records and loan records come back as contract upserts.
type IntegrationHandler struct {
	integrationService *services.IntegrationService
}

func NewIntegrationHandler(integrationService *services.IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{integrationService: integrationService}
}

// @Summary Export Loan
// @Description Export a single contract in the loan-system record format
// @Tags Integration
// @Accept json
// @Produce json
// @Param id path int true "Contract ID"
// @Success 200 {object} transform.LoanRecord
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /integration/loans/{id} [get]
func (h *IntegrationHandler) ExportLoan(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	record, err := h.integrationService.ExportLoan(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, record)
}

// @Summary Export Loans
// @Description Export contracts as loan-system records, paginated
// @Tags Integration
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status (comma separated)"
// @Param branch_code query string false "Filter by branch"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /integration/loans [get]
func (h *IntegrationHandler) ExportLoans(c *gin.Context) {
	query := contractQueryFromRequest(c)

	records, total, err := h.integrationService.ExportLoans(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, records, newPagination(query.Page, query.PerPage, total))
}

type ImportLoansRequest struct {
	Loans []transform.LoanRecord `json:"loans"`
}

// @Summary Import Loans
// @Description Upsert contracts from loan-system records, keyed by contract number. Rows that cannot be applied are skipped, not fatal.
// @Tags Integration
// @Accept json
// @Produce json
// @Param request body ImportLoansRequest true "Loan Records"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /integration/loans [post]
func (h *IntegrationHandler) ImportLoans(c *gin.Context) {
	var req ImportLoansRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &services.ValidationError{Field: "body", Message: err.Error()})
		return
	}
	if len(req.Loans) == 0 {
		respondError(c, &services.ValidationError{Field: "loans", Message: "at least one record is required"})
		return
	}

	imported, skipped, err := h.integrationService.ImportLoans(c.Request.Context(), req.Loans)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"imported": imported, "skipped": skipped})
}
