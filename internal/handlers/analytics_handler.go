package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/siampay/installment-api/internal/services"
)

type AnalyticsHandler struct {
	analyticsSvc *services.AnalyticsService
	exportSvc    *services.ExportService
}

func NewAnalyticsHandler(analyticsSvc *services.AnalyticsService, exportSvc *services.ExportService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsSvc: analyticsSvc,
		exportSvc:    exportSvc,
	}
}

// @Summary Dashboard Statistics
// @Description Returns the cached dashboard aggregates: contract counts, monthly collections, overdue counts, on-time rate and month-over-month growth
// @Tags Analytics
// @Produce json
// @Success 200 {object} models.DashboardStats
// @Security BearerAuth
// @Router /analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	stats, err := h.analyticsSvc.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}

// @Summary Refresh Dashboard
// @Description Drop the cached dashboard aggregates so the next read recomputes them (Admin)
// @Tags Analytics
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /analytics/dashboard/refresh [post]
func (h *AnalyticsHandler) RefreshDashboard(c *gin.Context) {
	if err := h.analyticsSvc.InvalidateDashboard(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"refreshed": true})
}

// @Summary Aging Summary
// @Description Returns outstanding receivables bucketed by days overdue
// @Tags Analytics
// @Produce json
// @Param branch_code query string false "Filter by branch"
// @Success 200 {object} models.AgingSummary
// @Security BearerAuth
// @Router /analytics/aging [get]
func (h *AnalyticsHandler) Aging(c *gin.Context) {
	summary, err := h.analyticsSvc.GetAgingSummary(c.Request.Context(), c.Query("branch_code"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, summary)
}

// @Summary Export Contracts
// @Description Download the contract book as an xlsx workbook
// @Tags Analytics
// @Produce application/octet-stream
// @Param status query string false "Filter by status (comma separated)"
// @Param branch_code query string false "Filter by branch"
// @Security BearerAuth
// @Router /analytics/export/contracts [get]
func (h *AnalyticsHandler) ExportContracts(c *gin.Context) {
	query := contractQueryFromRequest(c)
	// Export is unpaginated; the listing defaults would truncate it.
	query.PerPage = 0

	data, filename, err := h.exportSvc.ExportContractsXLSX(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	sendAttachment(c, data, filename)
}

// @Summary Export Payments
// @Description Download paid entries in a date range as xlsx or csv
// @Tags Analytics
// @Produce application/octet-stream
// @Param format query string true "Report format (csv, xlsx)"
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Param branch_code query string false "Filter by branch"
// @Security BearerAuth
// @Router /analytics/export/payments [get]
func (h *AnalyticsHandler) ExportPayments(c *gin.Context) {
	start, end, err := parseDateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var data []byte
	var filename string
	format := c.DefaultQuery("format", "xlsx")
	switch format {
	case "csv":
		data, filename, err = h.exportSvc.ExportPaymentsCSV(c.Request.Context(), start, end, c.Query("branch_code"))
	case "xlsx":
		data, filename, err = h.exportSvc.ExportPaymentsXLSX(c.Request.Context(), start, end, c.Query("branch_code"))
	default:
		respondError(c, &services.ValidationError{Field: "format", Message: "must be csv or xlsx"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	sendAttachment(c, data, filename)
}

func sendAttachment(c *gin.Context, data []byte, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/octet-stream", data)
}
