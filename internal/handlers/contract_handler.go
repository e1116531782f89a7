package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/siampay/installment-api/internal/middleware"
	"github.com/siampay/installment-api/internal/models"
	"github.com/siampay/installment-api/internal/repository"
	"github.com/siampay/installment-api/internal/services"
)

type ContractHandler struct {
	contractService *services.ContractService
}

func NewContractHandler(contractService *services.ContractService) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

func contractQueryFromRequest(c *gin.Context) *repository.ContractQuery {
	query := &repository.ContractQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	query.PlanType = c.Query("plan_type")
	query.BranchCode = c.Query("branch_code")
	if status := c.Query("status"); status != "" {
		query.Statuses = strings.Split(status, ",")
	}
	return query
}

// @Summary List Contracts
// @Description Get a paginated list of contracts
// @Tags Contracts
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search by contract number, customer name or phone"
// @Param status query string false "Filter by status (comma separated)"
// @Param plan_type query string false "Filter by plan type"
// @Param branch_code query string false "Filter by branch"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /contracts [get]
func (h *ContractHandler) Index(c *gin.Context) {
	query := contractQueryFromRequest(c)

	rows, total, err := h.contractService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, rows, newPagination(query.Page, query.PerPage, total))
}

// @Summary Get Contract
// @Description Get a contract with items, guarantors, collateral and schedule
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path int true "Contract ID"
// @Success 200 {object} models.ContractDetail
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /contracts/{id} [get]
func (h *ContractHandler) Show(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	detail, err := h.contractService.GetDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, detail)
}

// CreateContractRequest is the body for POST /contracts. Accepts either a
// flat body or one nested under a "contract" key.
type CreateContractRequest struct {
	ContractNumber    string                `json:"contract_number"`
	PlanType          string                `json:"plan_type"`
	BranchCode        string                `json:"branch_code"`
	CustomerID        *uint                 `json:"customer_id"`
	CustomerName      string                `json:"customer_name"`
	CustomerPhone     string                `json:"customer_phone"`
	CustomerTaxID     string                `json:"customer_tax_id"`
	CustomerAddress   string                `json:"customer_address"`
	TotalAmount       float64               `json:"total_amount"`
	DownPayment       float64               `json:"down_payment"`
	MonthlyPayment    float64               `json:"monthly_payment"`
	InterestRate      *float64              `json:"interest_rate"`
	InstallmentMonths int                   `json:"installment_months"`
	DocFee            float64               `json:"doc_fee"`
	Items             []models.ContractItem `json:"items"`
	Guarantors        []models.Guarantor    `json:"guarantors"`
	Collateral        []models.Collateral   `json:"collateral"`
}

// @Summary Create Contract
// @Description Create a new installment contract in pending state
// @Tags Contracts
// @Accept json
// @Produce json
// @Param request body CreateContractRequest true "Contract Data"
// @Success 201 {object} models.Contract
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /contracts [post]
func (h *ContractHandler) Create(c *gin.Context) {
	var req CreateContractRequest
	if err := BindNestedOrFlat(c, "contract", &req); err != nil {
		respondError(c, &services.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	creatorID := middleware.GetUserID(c)
	contract := &models.Contract{
		PlanType:          req.PlanType,
		BranchCode:        req.BranchCode,
		CustomerID:        req.CustomerID,
		CustomerName:      req.CustomerName,
		CustomerPhone:     req.CustomerPhone,
		CustomerTaxID:     req.CustomerTaxID,
		CustomerAddress:   req.CustomerAddress,
		CreatorID:         &creatorID,
		TotalAmount:       req.TotalAmount,
		DownPayment:       req.DownPayment,
		MonthlyPayment:    req.MonthlyPayment,
		InterestRate:      req.InterestRate,
		InstallmentMonths: req.InstallmentMonths,
		DocFee:            req.DocFee,
		Items:             req.Items,
		Guarantors:        req.Guarantors,
		Collateral:        req.Collateral,
	}
	if number := strings.TrimSpace(req.ContractNumber); number != "" {
		contract.ContractNumber = &number
	}

	if err := h.contractService.Create(c.Request.Context(), contract); err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, contract)
}

// UpdateContractRequest is the body for PATCH /contracts/:id. Only the
// customer snapshot and financial terms are editable, and only while the
// contract has not reached a terminal state.
type UpdateContractRequest struct {
	CustomerName      *string  `json:"customer_name"`
	CustomerPhone     *string  `json:"customer_phone"`
	CustomerAddress   *string  `json:"customer_address"`
	BranchCode        *string  `json:"branch_code"`
	TotalAmount       *float64 `json:"total_amount"`
	DownPayment       *float64 `json:"down_payment"`
	MonthlyPayment    *float64 `json:"monthly_payment"`
	InterestRate      *float64 `json:"interest_rate"`
	InstallmentMonths *int     `json:"installment_months"`
	DocFee            *float64 `json:"doc_fee"`
}

// @Summary Update Contract
// @Description Update contract terms. Financial terms are only editable before approval.
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path int true "Contract ID"
// @Param request body UpdateContractRequest true "Contract Data"
// @Success 200 {object} models.Contract
// @Failure 400,404,409 {object} map[string]string
// @Security BearerAuth
// @Router /contracts/{id} [patch]
func (h *ContractHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	contract, err := h.contractService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	var req UpdateContractRequest
	if err := BindNestedOrFlat(c, "contract", &req); err != nil {
		respondError(c, &services.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	if req.CustomerName != nil {
		contract.CustomerName = *req.CustomerName
	}
	if req.CustomerPhone != nil {
		contract.CustomerPhone = *req.CustomerPhone
	}
	if req.CustomerAddress != nil {
		contract.CustomerAddress = *req.CustomerAddress
	}
	if req.BranchCode != nil {
		contract.BranchCode = *req.BranchCode
	}

	// Financial terms freeze once the approval workflow has resolved.
	wantsFinancial := req.TotalAmount != nil || req.DownPayment != nil ||
		req.MonthlyPayment != nil || req.InterestRate != nil ||
		req.InstallmentMonths != nil || req.DocFee != nil
	if wantsFinancial {
		if contract.ApprovalStatus == models.ApprovalStatusApproved {
			respondError(c, &services.InvalidStateError{Current: contract.Status, Attempted: "edit financial terms"})
			return
		}
		if req.TotalAmount != nil {
			contract.TotalAmount = *req.TotalAmount
		}
		if req.DownPayment != nil {
			contract.DownPayment = *req.DownPayment
		}
		if req.MonthlyPayment != nil {
			contract.MonthlyPayment = *req.MonthlyPayment
		}
		if req.InterestRate != nil {
			contract.InterestRate = req.InterestRate
		}
		if req.InstallmentMonths != nil {
			contract.InstallmentMonths = *req.InstallmentMonths
		}
		if req.DocFee != nil {
			contract.DocFee = *req.DocFee
		}
	}

	if err := h.contractService.Update(c.Request.Context(), contract); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, contract)
}

// @Summary Approve Contract
// @Description Approve a pending contract, activate it and generate its payment schedule (Admin)
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path int true "Contract ID"
// @Success 200 {object} models.Contract
// @Failure 404,409 {object} map[string]string
// @Security BearerAuth
// @Router /contracts/{id}/approve [post]
func (h *ContractHandler) Approve(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	contract, err := h.contractService.Approve(c.Request.Context(), id,
		middleware.GetUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, contract)
}

type RejectContractRequest struct {
	Reason string `json:"reason"`
}

// @Summary Reject Contract
// @Description Reject a pending contract with a reason (Admin)
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path int true "Contract ID"
// @Param request body RejectContractRequest true "Reason"
// @Success 200 {object} models.Contract
// @Failure 400,404,409 {object} map[string]string
// @Security BearerAuth
// @Router /contracts/{id}/reject [post]
func (h *ContractHandler) Reject(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req RejectContractRequest
	c.ShouldBindJSON(&req)

	contract, err := h.contractService.Reject(c.Request.Context(), id,
		middleware.GetUserID(c), req.Reason, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, contract)
}

type CancelContractRequest struct {
	Reason string `json:"reason"`
}

// @Summary Cancel Contract
// @Description Cancel a contract and void its pending installments (Admin)
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path int true "Contract ID"
// @Param request body CancelContractRequest true "Reason"
// @Success 200 {object} models.Contract
// @Failure 404,409 {object} map[string]string
// @Security BearerAuth
// @Router /contracts/{id}/cancel [post]
func (h *ContractHandler) Cancel(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req CancelContractRequest
	c.ShouldBindJSON(&req)

	contract, err := h.contractService.Cancel(c.Request.Context(), id, middleware.GetUserID(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, contract)
}

// @Summary Delete Contract
// @Description Soft delete a contract. The record stays recoverable via restore. (Admin)
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path int true "Contract ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /contracts/{id} [delete]
func (h *ContractHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.contractService.SoftDelete(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

// @Summary Restore Contract
// @Description Restore a soft-deleted contract (Admin)
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path int true "Contract ID"
// @Success 200 {object} models.Contract
// @Failure 404,409 {object} map[string]string
// @Security BearerAuth
// @Router /contracts/{id}/restore [post]
func (h *ContractHandler) Restore(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	contract, err := h.contractService.Restore(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, contract)
}

// @Summary Sweep Overdue Contracts
// @Description Scan active contracts and mark those past due as overdue (Admin)
// @Tags Contracts
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /contracts/sweep_overdue [post]
func (h *ContractHandler) SweepOverdue(c *gin.Context) {
	swept, err := h.contractService.SweepOverdue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"swept": swept})
}
