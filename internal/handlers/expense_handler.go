package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "spendsense/internal/errors"
	"spendsense/internal/models"
	"spendsense/internal/pagination"
	"spendsense/internal/services"
)

// ExpenseHandler handles expense-related requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	auditService   services.AuditServicer
	now            services.Clock
}

// NewExpenseHandler creates a new ExpenseHandler. now supplies the default
// expense date and the location used to read YYYY-MM-DD dates.
func NewExpenseHandler(expenseService services.ExpenseServicer, auditService services.AuditServicer, now services.Clock) *ExpenseHandler {
	if now == nil {
		now = services.UTCClock
	}
	return &ExpenseHandler{expenseService: expenseService, auditService: auditService, now: now}
}

// CreateExpenseRequest represents the request payload for creating an expense
type CreateExpenseRequest struct {
	Amount        decimal.Decimal      `json:"amount" binding:"required,gt=0" swaggertype:"number"`
	Category      models.Category      `json:"category" binding:"required,expense_category"`
	Description   string               `json:"description" binding:"required,max=200"`
	PaymentMethod models.PaymentMethod `json:"payment_method" binding:"omitempty,payment_method"`
	Date          string               `json:"date" binding:"required" example:"2024-03-09"`
}

// UpdateExpenseRequest represents a partial expense update
type UpdateExpenseRequest struct {
	Amount        *decimal.Decimal      `json:"amount" binding:"omitempty,gt=0" swaggertype:"number"`
	Category      *models.Category      `json:"category" binding:"omitempty,expense_category"`
	Description   *string               `json:"description" binding:"omitempty,max=200"`
	PaymentMethod *models.PaymentMethod `json:"payment_method" binding:"omitempty,payment_method"`
	Date          *string               `json:"date"`
}

// CreateExpenseResponse is returned after an expense is stored.
type CreateExpenseResponse struct {
	Expense   *models.Expense  `json:"expense"`
	Message   string           `json:"message"`
	NewBadges []models.BadgeID `json:"new_badges,omitempty"`
}

// CreateExpense handles the creation of a new expense
// @Summary     Create an expense
// @Description Record an expense. Updates the saving streak and awards any badges it unlocks.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateExpenseRequest true "Expense details"
// @Success     201 {object} CreateExpenseResponse "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if strings.TrimSpace(req.Date) == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required"))
		return
	}
	date, err := parseExpenseDate(req.Date, h.now().Location())
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, newBadges, err := h.expenseService.CreateExpense(userID, req.Amount, req.Category, req.Description, req.PaymentMethod, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateExpense, services.ResourceExpense, expense.ID, c.ClientIP(),
		map[string]interface{}{"amount": expense.Amount.String(), "category": expense.Category})

	c.JSON(http.StatusCreated, CreateExpenseResponse{
		Expense:   expense,
		Message:   "Expense added successfully",
		NewBadges: newBadges,
	})
}

// GetExpenses handles listing the user's expenses
// @Summary     List expenses
// @Description Paginated expenses, newest first, optionally limited to a month and/or category
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       month     query int    false "Month 1-12 (requires or defaults year)"
// @Param       year      query int    false "Year"
// @Param       category  query string false "Category (food, travel, bills, subscriptions, others)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} map[string]interface{} "Expenses with count and pagination"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /expenses [get]
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	year, month, err := parseMonthYear(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter := services.ExpenseFilter{Year: year, Month: month}
	if raw := c.Query("category"); raw != "" {
		cat := models.Category(raw)
		if !cat.Valid() {
			respondWithError(c, apperrors.ErrInvalidCategory)
			return
		}
		filter.Category = &cat
	}

	resp, err := h.expenseService.GetUserExpenses(userID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"expenses":    resp.Data,
		"count":       len(resp.Data),
		"page":        resp.Page,
		"page_size":   resp.PageSize,
		"total_items": resp.TotalItems,
		"total_pages": resp.TotalPages,
	})
}

// GetExpense handles retrieval of a single expense
// @Summary     Get an expense
// @Description Get one of the user's expenses by ID
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} map[string]models.Expense "Expense"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpenseByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// UpdateExpense handles a partial expense update
// @Summary     Update an expense
// @Description Change any subset of an expense's fields. Does not affect streaks or badges.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Expense ID"
// @Param       request body UpdateExpenseRequest true "Fields to change"
// @Success     200 {object} map[string]interface{} "Updated expense"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	update := services.ExpenseUpdate{
		Amount:        req.Amount,
		Category:      req.Category,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
	}
	if req.Date != nil {
		date, err := parseExpenseDate(*req.Date, h.now().Location())
		if err != nil {
			respondWithError(c, err)
			return
		}
		update.Date = &date
	}

	expense, err := h.expenseService.UpdateExpense(userID, c.Param("id"), update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.Amount != nil {
		changes["amount"] = req.Amount.String()
	}
	if req.Category != nil {
		changes["category"] = *req.Category
	}
	if req.Description != nil {
		changes["description"] = *req.Description
	}
	if req.PaymentMethod != nil {
		changes["payment_method"] = *req.PaymentMethod
	}
	if update.Date != nil {
		changes["date"] = update.Date.Format(time.RFC3339)
	}
	h.auditService.Log(userID, services.AuditUpdateExpense, services.ResourceExpense, expense.ID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, gin.H{"expense": expense, "message": "Expense updated successfully"})
}

// DeleteExpense handles deletion of an expense
// @Summary     Delete an expense
// @Description Permanently delete one of the user's expenses. Earned badges are kept.
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} map[string]string "Expense deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id := c.Param("id")
	if err := h.expenseService.DeleteExpense(userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteExpense, services.ResourceExpense, id, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}
