package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "spendsense/internal/errors"
	"spendsense/internal/models"
	"spendsense/internal/services"
)

// BudgetHandler handles allowance and category budget requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// UpdateBudgetSettingsRequest replaces the allowance and all category limits.
type UpdateBudgetSettingsRequest struct {
	MonthlyAllowance *decimal.Decimal      `json:"monthly_allowance" binding:"required,gte=0" swaggertype:"number"`
	CategoryBudgets  models.CategoryBudgets `json:"category_budgets" binding:"omitempty,category_budgets" swaggertype:"object,number"`
}

// SetCategoryBudgetRequest sets the limit of one category.
type SetCategoryBudgetRequest struct {
	Category models.Category  `json:"category" binding:"required,expense_category"`
	Limit    *decimal.Decimal `json:"limit" binding:"required,gte=0" swaggertype:"number"`
}

// GetSettings handles retrieval of the budget configuration
// @Summary     Get budget settings
// @Description Get the monthly allowance, category limits and currency
// @Tags        settings
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.BudgetSettings "Budget settings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /settings/budget [get]
func (h *BudgetHandler) GetSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	settings, err := h.budgetService.GetSettings(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles replacing the budget configuration
// @Summary     Update budget settings
// @Description Set the monthly allowance (0 disables budget tracking) and the category limits
// @Tags        settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateBudgetSettingsRequest true "Budget settings"
// @Success     200 {object} services.BudgetSettings "Updated settings"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /settings/budget [put]
func (h *BudgetHandler) UpdateSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	settings, err := h.budgetService.UpdateSettings(userID, *req.MonthlyAllowance, req.CategoryBudgets)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdateBudget, services.ResourceBudgetConfig, userID, c.ClientIP(),
		map[string]interface{}{"monthly_allowance": settings.MonthlyAllowance.String(), "category_budgets": settings.CategoryBudgets})

	c.JSON(http.StatusOK, settings)
}

// GetBudgets handles the per-category budget status list
// @Summary     Get budget status
// @Description Spend against each category limit for a month, in category order
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       month query int false "Month 1-12 (default current)"
// @Param       year  query int false "Year (default current)"
// @Success     200 {object} services.BudgetReport "Budget status"
// @Failure     400 {object} ErrorResponse "Invalid month or year"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	year, month, err := parseMonthYear(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.budgetService.GetBudgetReport(userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// SetCategoryBudget handles setting a single category limit
// @Summary     Set category budget
// @Description Set the monthly limit of one category; 0 removes the limit
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SetCategoryBudgetRequest true "Category limit"
// @Success     200 {object} map[string]interface{} "Updated category budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets [post]
func (h *BudgetHandler) SetCategoryBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetCategoryBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budgets, err := h.budgetService.SetCategoryBudget(userID, req.Category, *req.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditSetCategory, services.ResourceBudgetConfig, userID, c.ClientIP(),
		map[string]interface{}{"category": req.Category, "limit": req.Limit.String()})

	c.JSON(http.StatusOK, gin.H{
		"message":          "Budget set for " + req.Category.Label(),
		"category_budgets": budgets,
	})
}

// GetWarnings handles the budget warning list
// @Summary     Get budget warnings
// @Description Overall and per-category alerts for a month
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       month query int false "Month 1-12 (default current)"
// @Param       year  query int false "Year (default current)"
// @Success     200 {object} map[string]interface{} "Warnings and count"
// @Failure     400 {object} ErrorResponse "Invalid month or year"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets/warnings [get]
func (h *BudgetHandler) GetWarnings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	year, month, err := parseMonthYear(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	warnings, err := h.budgetService.GetWarnings(userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"warnings": warnings, "count": len(warnings)})
}
