package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/siampay/installment-api/internal/middleware"
	"github.com/siampay/installment-api/internal/models"
	"github.com/siampay/installment-api/internal/repository"
	"github.com/siampay/installment-api/internal/services"
)

type InvoiceHandler struct {
	invoiceService *services.InvoiceService
}

func NewInvoiceHandler(invoiceService *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// @Summary List Invoices
// @Description Get a paginated list of invoices
// @Tags Invoices
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search by invoice number or customer name"
// @Param status query string false "Filter by status"
// @Param branch_code query string false "Filter by branch"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	if status := c.Query("status"); status != "" {
		query.Filters["status"] = status
	}
	if branch := c.Query("branch_code"); branch != "" {
		query.Filters["branch_code"] = branch
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, invoices, newPagination(query.Page, query.PerPage, total))
}

// @Summary Get Invoice
// @Description Get an invoice with its line items
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} models.Invoice
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Show(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	invoice, err := h.invoiceService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoice)
}

// CreateInvoiceRequest is the body for POST /invoices. Totals in the body
// are ignored; the summary is always computed server side.
type CreateInvoiceRequest struct {
	InvoiceNumber   string               `json:"invoice_number"`
	ContractID      *uint                `json:"contract_id"`
	QuotationRef    *string              `json:"quotation_ref"`
	Date            *string              `json:"date"` // YYYY-MM-DD, defaults to now
	BranchCode      string               `json:"branch_code"`
	CustomerName    string               `json:"customer_name"`
	CustomerAddress string               `json:"customer_address"`
	CustomerTaxID   string               `json:"customer_tax_id"`
	CustomerPhone   string               `json:"customer_phone"`
	WitnessName     string               `json:"witness_name"`
	WitnessIDCard   string               `json:"witness_id_card"`
	WitnessPhone    string               `json:"witness_phone"`
	WitnessRelation string               `json:"witness_relation"`
	SalespersonID   *uint                `json:"salesperson_id"`
	SalespersonName string               `json:"salesperson_name"`
	VATInclusive    *bool                `json:"vat_inclusive"`
	DiscountValue   float64              `json:"discount_value"`
	DocFee          float64              `json:"doc_fee"`
	ShippingFee     float64              `json:"shipping_fee"`
	Items           []models.InvoiceItem `json:"items"`
}

// @Summary Create Invoice
// @Description Create an invoice; VAT and totals are computed from the line items
// @Tags Invoices
// @Accept json
// @Produce json
// @Param request body CreateInvoiceRequest true "Invoice Data"
// @Success 201 {object} models.Invoice
// @Failure 400,404 {object} map[string]string
// @Security BearerAuth
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := BindNestedOrFlat(c, "invoice", &req); err != nil {
		respondError(c, &services.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	invoice := &models.Invoice{
		InvoiceNumber:   req.InvoiceNumber,
		ContractID:      req.ContractID,
		QuotationRef:    req.QuotationRef,
		BranchCode:      req.BranchCode,
		CustomerName:    req.CustomerName,
		CustomerAddress: req.CustomerAddress,
		CustomerTaxID:   req.CustomerTaxID,
		CustomerPhone:   req.CustomerPhone,
		WitnessName:     req.WitnessName,
		WitnessIDCard:   req.WitnessIDCard,
		WitnessPhone:    req.WitnessPhone,
		WitnessRelation: req.WitnessRelation,
		SalespersonID:   req.SalespersonID,
		SalespersonName: req.SalespersonName,
		VATInclusive:    true,
		DiscountValue:   req.DiscountValue,
		DocFee:          req.DocFee,
		ShippingFee:     req.ShippingFee,
		Items:           req.Items,
	}
	if req.VATInclusive != nil {
		invoice.VATInclusive = *req.VATInclusive
	}
	if req.Date != nil && *req.Date != "" {
		parsed, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			respondError(c, &services.ValidationError{Field: "date", Message: "must be YYYY-MM-DD"})
			return
		}
		invoice.Date = parsed
	}

	if err := h.invoiceService.Create(c.Request.Context(), invoice, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, invoice)
}

// UpdateInvoiceRequest is the body for PATCH /invoices/:id. Only draft
// invoices are editable.
type UpdateInvoiceRequest struct {
	CustomerName    *string               `json:"customer_name"`
	CustomerAddress *string               `json:"customer_address"`
	CustomerPhone   *string               `json:"customer_phone"`
	VATInclusive    *bool                 `json:"vat_inclusive"`
	DiscountValue   *float64              `json:"discount_value"`
	DocFee          *float64              `json:"doc_fee"`
	ShippingFee     *float64              `json:"shipping_fee"`
	Status          *string               `json:"status"`
	Items           *[]models.InvoiceItem `json:"items"`
}

// @Summary Update Invoice
// @Description Update a draft invoice and recompute its totals
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path int true "Invoice ID"
// @Param request body UpdateInvoiceRequest true "Invoice Data"
// @Success 200 {object} models.Invoice
// @Failure 400,404,409 {object} map[string]string
// @Security BearerAuth
// @Router /invoices/{id} [patch]
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	invoice, err := h.invoiceService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	var req UpdateInvoiceRequest
	if err := BindNestedOrFlat(c, "invoice", &req); err != nil {
		respondError(c, &services.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	if req.CustomerName != nil {
		invoice.CustomerName = *req.CustomerName
	}
	if req.CustomerAddress != nil {
		invoice.CustomerAddress = *req.CustomerAddress
	}
	if req.CustomerPhone != nil {
		invoice.CustomerPhone = *req.CustomerPhone
	}
	if req.VATInclusive != nil {
		invoice.VATInclusive = *req.VATInclusive
	}
	if req.DiscountValue != nil {
		invoice.DiscountValue = *req.DiscountValue
	}
	if req.DocFee != nil {
		invoice.DocFee = *req.DocFee
	}
	if req.ShippingFee != nil {
		invoice.ShippingFee = *req.ShippingFee
	}
	if req.Status != nil {
		invoice.Status = *req.Status
	}
	if req.Items != nil {
		invoice.Items = *req.Items
	}

	if err := h.invoiceService.Update(c.Request.Context(), invoice); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoice)
}

// @Summary List Contract Invoices
// @Description Get invoices issued for a contract, newest first
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path int true "Contract ID"
// @Success 200 {object} []models.Invoice
// @Security BearerAuth
// @Router /contracts/{id}/invoices [get]
func (h *InvoiceHandler) IndexByContract(c *gin.Context) {
	contractID, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	invoices, err := h.invoiceService.FindByContract(c.Request.Context(), contractID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoices)
}
