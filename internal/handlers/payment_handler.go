package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/siampay/installment-api/internal/middleware"
	"github.com/siampay/installment-api/internal/services"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RecordPaymentRequest is the body for POST /contracts/:id/payments.
// Accepts either a flat body or one nested under a "payment" key.
type RecordPaymentRequest struct {
	InstallmentNumber int     `json:"installment_number"`
	Amount            float64 `json:"amount"`
	PaymentMethod     string  `json:"payment_method"`
	PaymentDate       *string `json:"payment_date"` // YYYY-MM-DD, defaults to now
	Notes             string  `json:"notes"`
	ReceiptNumber     string  `json:"receipt_number"`
	MixedCash         float64 `json:"mixed_cash"`
	MixedTransfer     float64 `json:"mixed_transfer"`
	MixedCard         float64 `json:"mixed_card"`
}

// @Summary Record Payment
// @Description Record a payment against a contract installment and re-derive the contract balances
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path int true "Contract ID"
// @Param request body RecordPaymentRequest true "Payment Data"
// @Success 201 {object} models.LedgerEntryResponse
// @Failure 400,404,409 {object} map[string]string
// @Security BearerAuth
// @Router /contracts/{id}/payments [post]
func (h *PaymentHandler) Record(c *gin.Context) {
	contractID, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var req RecordPaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		respondError(c, &services.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	var paymentDate *time.Time
	if req.PaymentDate != nil && *req.PaymentDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.PaymentDate)
		if err != nil {
			respondError(c, &services.ValidationError{Field: "payment_date", Message: "must be YYYY-MM-DD"})
			return
		}
		paymentDate = &parsed
	}

	entry, err := h.paymentService.RecordPayment(c.Request.Context(), services.RecordPaymentInput{
		ContractID:        contractID,
		InstallmentNumber: req.InstallmentNumber,
		Amount:            req.Amount,
		PaymentMethod:     req.PaymentMethod,
		PaymentDate:       paymentDate,
		Notes:             req.Notes,
		ReceiptNumber:     req.ReceiptNumber,
		MixedCash:         req.MixedCash,
		MixedTransfer:     req.MixedTransfer,
		MixedCard:         req.MixedCard,
		ActorID:           middleware.GetUserID(c),
		IP:                c.ClientIP(),
		UserAgent:         c.Request.UserAgent(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, entry.ToResponse())
}

// @Summary Payment History
// @Description Get the full ordered ledger for a contract
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path int true "Contract ID"
// @Success 200 {object} []models.LedgerEntryResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /contracts/{id}/payments [get]
func (h *PaymentHandler) History(c *gin.Context) {
	contractID, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	history, err := h.paymentService.History(c.Request.Context(), contractID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, history)
}

// @Summary Get Payment
// @Description Look up a single payment by its public payment id (PAY-...)
// @Tags Payments
// @Accept json
// @Produce json
// @Param payment_id path string true "Payment ID"
// @Success 200 {object} models.LedgerEntryResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id} [get]
func (h *PaymentHandler) Show(c *gin.Context) {
	entry, err := h.paymentService.FindByPaymentID(c.Request.Context(), c.Param("payment_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entry.ToResponse())
}

type CancelPaymentRequest struct {
	Reason string `json:"reason"`
}

// @Summary Cancel Payment
// @Description Void a recorded payment and re-derive the contract balances (Admin)
// @Tags Payments
// @Accept json
// @Produce json
// @Param payment_id path string true "Payment ID"
// @Param request body CancelPaymentRequest true "Reason"
// @Success 200 {object} models.LedgerEntryResponse
// @Failure 400,404,409 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id}/cancel [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	var req CancelPaymentRequest
	c.ShouldBindJSON(&req)

	entry, err := h.paymentService.CancelPayment(c.Request.Context(), c.Param("payment_id"),
		middleware.GetUserID(c), req.Reason, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, entry.ToResponse())
}

// @Summary List Payments
// @Description Get paid entries in a date range
// @Tags Payments
// @Accept json
// @Produce json
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Param branch_code query string false "Filter by branch"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /payments [get]
func (h *PaymentHandler) Index(c *gin.Context) {
	start, end, err := parseDateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	entries, err := h.paymentService.ListPaidInRange(c.Request.Context(), start, end, c.Query("branch_code"))
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	var total float64
	for _, entry := range entries {
		responses = append(responses, entry.ToResponse())
		total += entry.AmountPaid
	}
	respondOK(c, gin.H{"payments": responses, "total_amount": total, "count": len(entries)})
}

// parseDateRange reads start_date/end_date query params. The end bound is
// exclusive at the following midnight so a whole day range covers the
// entire last day.
func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", c.Query("start_date"))
	if err != nil {
		return time.Time{}, time.Time{}, &services.ValidationError{Field: "start_date", Message: "must be YYYY-MM-DD"}
	}
	end, err := time.Parse("2006-01-02", c.Query("end_date"))
	if err != nil {
		return time.Time{}, time.Time{}, &services.ValidationError{Field: "end_date", Message: "must be YYYY-MM-DD"}
	}
	end = end.AddDate(0, 0, 1)
	if end.Before(start) {
		return time.Time{}, time.Time{}, &services.ValidationError{Field: "end_date", Message: "must not precede start_date"}
	}
	return start, end, nil
}
