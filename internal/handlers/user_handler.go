package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/siampay/installment-api/internal/middleware"
	"github.com/siampay/installment-api/internal/models"
	"github.com/siampay/installment-api/internal/repository"
	"github.com/siampay/installment-api/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// @Summary List Users
// @Description Get a paginated list of staff users
// @Tags Users
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search by name or email"
// @Param role query string false "Filter by role"
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	query.Filters["role"] = c.Query("role")

	status := c.Query("status")
	if status == "" {
		status = models.StatusActive
	} else if status == "all" {
		status = ""
	}
	query.Filters["status"] = status

	users, total, err := h.userService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}
	respondPage(c, responses, newPagination(query.Page, query.PerPage, total))
}

// @Summary Get User
// @Description Get a user by ID
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) Show(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := h.userService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user.ToResponse())
}

type CreateUserRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	FullName   string `json:"full_name" binding:"required"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	BranchCode string `json:"branch_code"`
}

// @Summary Create User
// @Description Create a new staff user (Admin)
// @Tags Users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User Data"
// @Success 201 {object} models.UserResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &services.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	creatorID := middleware.GetUserID(c)
	user := &models.User{
		Email:      req.Email,
		FullName:   req.FullName,
		Phone:      req.Phone,
		Role:       req.Role,
		BranchCode: req.BranchCode,
		CreatedBy:  &creatorID,
	}

	if err := h.userService.Create(c.Request.Context(), user, req.Password, creatorID); err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, user.ToResponse())
}

// UpdateUserRequest is the body for PUT /users/:id. Role, status and email
// changes require the admin role.
type UpdateUserRequest struct {
	FullName   *string `json:"full_name"`
	Phone      *string `json:"phone"`
	BranchCode *string `json:"branch_code"`
	Email      *string `json:"email"`
	Role       *string `json:"role"`
	Status     *string `json:"status"`
}

// @Summary Update User
// @Description Update user details (admin: any field; owner: name, phone and branch only)
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body UpdateUserRequest true "User Fields"
// @Success 200 {object} models.UserResponse
// @Failure 400,404 {object} map[string]string
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := h.userService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &services.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.BranchCode != nil {
		user.BranchCode = *req.BranchCode
	}

	if middleware.IsAdmin(c) {
		if req.Email != nil {
			user.Email = *req.Email
		}
		if req.Role != nil {
			user.Role = *req.Role
		}
		if req.Status != nil {
			user.Status = *req.Status
		}
	}

	if err := h.userService.Update(c.Request.Context(), user, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user.ToResponse())
}

// @Summary Delete User
// @Description Soft delete a user (Admin)
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.userService.Delete(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

// @Summary Restore User
// @Description Restore a soft-deleted user (Admin)
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /users/{id}/restore [post]
func (h *UserHandler) Restore(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.userService.Restore(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"restored": true})
}

// @Summary Toggle User Status
// @Description Enable or disable a user (Admin)
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserResponse
// @Security BearerAuth
// @Router /users/{id}/toggle_status [put]
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := h.userService.ToggleStatus(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user.ToResponse())
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// @Summary Change Password
// @Description Change a user's password. Admins may reset another user's password without the current one.
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body ChangePasswordRequest true "Password Data"
// @Success 200 {object} map[string]interface{}
// @Failure 400,422 {object} map[string]string
// @Security BearerAuth
// @Router /users/{id}/change_password [patch]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &services.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	currentUserID := middleware.GetUserID(c)
	if middleware.IsAdmin(c) && id != currentUserID {
		if err := h.userService.ForceChangePassword(c.Request.Context(), id, req.NewPassword, currentUserID); err != nil {
			respondError(c, err)
			return
		}
	} else {
		if req.CurrentPassword == "" {
			respondError(c, &services.ValidationError{Field: "current_password", Message: "is required"})
			return
		}
		if err := h.userService.ChangePassword(c.Request.Context(), id, req.CurrentPassword, req.NewPassword, currentUserID); err != nil {
			respondError(c, err)
			return
		}
	}
	respondOK(c, gin.H{"changed": true})
}
