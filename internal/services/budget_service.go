package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"spendsense/internal/analytics"
	apperrors "spendsense/internal/errors"
	"spendsense/internal/models"
)

// Category status thresholds, in percent of the limit.
const (
	warningPercent  = 80.0
	exceededPercent = 100.0
)

// budgetService handles the allowance, category limits and their status.
type budgetService struct {
	db  *gorm.DB
	now Clock
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, clock Clock) BudgetServicer {
	if clock == nil {
		clock = UTCClock
	}
	return &budgetService{db: db, now: clock}
}

func settingsOf(user *models.User) *BudgetSettings {
	budgets := user.CategoryBudgets
	if budgets == nil {
		budgets = models.CategoryBudgets{}
	}
	return &BudgetSettings{
		MonthlyAllowance: user.MonthlyAllowance,
		CategoryBudgets:  budgets,
		Currency:         user.Currency,
	}
}

// GetSettings returns the user's budget configuration.
func (s *budgetService) GetSettings(userID string) (*BudgetSettings, error) {
	user, err := findUser(s.db, userID)
	if err != nil {
		return nil, err
	}
	return settingsOf(user), nil
}

// UpdateSettings replaces the allowance and the whole category budget map.
func (s *budgetService) UpdateSettings(userID string, monthlyAllowance decimal.Decimal, categoryBudgets models.CategoryBudgets) (*BudgetSettings, error) {
	if monthlyAllowance.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly allowance must not be negative")
	}
	if categoryBudgets == nil {
		categoryBudgets = models.CategoryBudgets{}
	}
	if err := categoryBudgets.Validate(); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	user, err := findUser(s.db, userID)
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"monthly_allowance": monthlyAllowance,
		"category_budgets":  categoryBudgets,
	}).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user.MonthlyAllowance = monthlyAllowance
	user.CategoryBudgets = categoryBudgets
	return settingsOf(user), nil
}

// SetCategoryBudget sets the limit of a single category, keeping the others.
func (s *budgetService) SetCategoryBudget(userID string, category models.Category, limit decimal.Decimal) (models.CategoryBudgets, error) {
	if !category.Valid() {
		return nil, apperrors.ErrInvalidCategory
	}
	if limit.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must not be negative")
	}

	user, err := findUser(s.db, userID)
	if err != nil {
		return nil, err
	}

	budgets := models.CategoryBudgets{}
	for c, v := range user.CategoryBudgets {
		budgets[c] = v
	}
	budgets[category] = limit

	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Update("category_budgets", budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

func statusFor(percentage float64) BudgetState {
	switch {
	case percentage > exceededPercent:
		return BudgetExceeded
	case percentage > warningPercent:
		return BudgetWarning
	}
	return BudgetGood
}

// GetBudgetReport returns every category's spend against its limit for one
// month, in category order. Categories without a limit report 0%.
func (s *budgetService) GetBudgetReport(userID string, year, month int) (*BudgetReport, error) {
	user, expenses, w, err := monthExpenses(s.db, s.now, userID, year, month)
	if err != nil {
		return nil, err
	}
	spent := analytics.SpentByCategory(expenses)

	statuses := make([]CategoryBudgetStatus, 0, len(models.AllCategories))
	for _, c := range models.AllCategories {
		limit := user.CategoryBudgets[c]
		pct := analytics.Percent(spent[c], limit)
		statuses = append(statuses, CategoryBudgetStatus{
			Category:   c,
			Limit:      limit,
			Spent:      spent[c],
			Remaining:  limit.Sub(spent[c]),
			Percentage: pct,
			Status:     statusFor(pct),
		})
	}

	return &BudgetReport{
		Year:            w.Year,
		Month:           int(w.Month),
		Budgets:         statuses,
		TotalBudget:     user.MonthlyAllowance,
		CategoryBudgets: settingsOf(user).CategoryBudgets,
	}, nil
}

// GetWarnings returns the budget alerts for one month.
func (s *budgetService) GetWarnings(userID string, year, month int) ([]analytics.Warning, error) {
	user, expenses, w, err := monthExpenses(s.db, s.now, userID, year, month)
	if err != nil {
		return nil, err
	}
	summary := analytics.Aggregate(expenses, user.MonthlyAllowance, w)
	return analytics.GenerateWarnings(summary, user.CategoryBudgets), nil
}
