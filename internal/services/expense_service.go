package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"spendsense/internal/analytics"
	apperrors "spendsense/internal/errors"
	"spendsense/internal/logger"
	"spendsense/internal/models"
	"spendsense/internal/pagination"
)

const maxDescriptionLen = 200

// expenseService handles expense-related business logic.
type expenseService struct {
	db           *gorm.DB
	gamification GamificationServicer
	now          Clock
}

// NewExpenseService creates a new ExpenseServicer. gamification may be nil,
// in which case expense creation has no streak or badge side effects.
func NewExpenseService(db *gorm.DB, gamification GamificationServicer, clock Clock) ExpenseServicer {
	if clock == nil {
		clock = UTCClock
	}
	return &expenseService{db: db, gamification: gamification, now: clock}
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	return nil
}

func normalizeDescription(description string) (string, error) {
	d := strings.TrimSpace(description)
	if d == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if len([]rune(d)) > maxDescriptionLen {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "description must be at most 200 characters")
	}
	return d, nil
}

// CreateExpense stores the expense, then runs the gamification evaluators.
// Evaluator failures are logged and do not undo the stored expense.
func (s *expenseService) CreateExpense(userID string, amount decimal.Decimal, category models.Category, description string, paymentMethod models.PaymentMethod, date time.Time) (*models.Expense, []models.BadgeID, error) {
	if err := validateAmount(amount); err != nil {
		return nil, nil, err
	}
	if !category.Valid() {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid category")
	}
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodCash
	}
	if !paymentMethod.Valid() {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid payment method")
	}
	desc, err := normalizeDescription(description)
	if err != nil {
		return nil, nil, err
	}
	if date.IsZero() {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}

	if _, err := findUser(s.db, userID); err != nil {
		return nil, nil, err
	}

	expense := &models.Expense{
		UserID:        userID,
		Amount:        amount,
		Category:      category,
		Description:   desc,
		PaymentMethod: paymentMethod,
		Date:          date.UTC(),
	}
	if err := s.db.Create(expense).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	newBadges := []models.BadgeID{}
	if s.gamification != nil {
		result, err := s.gamification.RecordActivity(userID)
		if err != nil {
			logger.Named("gamification").Warnw("activity evaluation failed after expense insert",
				"user_id", userID,
				"expense_id", expense.ID,
				"error", err,
			)
		} else {
			newBadges = result.NewBadges
		}
	}

	return expense, newBadges, nil
}

// GetUserExpenses lists expenses newest first, optionally limited to one
// month and/or one category.
func (s *expenseService) GetUserExpenses(userID string, filter ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	query := s.db.Model(&models.Expense{}).Where("user_id = ?", userID)
	if filter.Year != 0 || filter.Month != 0 {
		w, err := resolveWindow(s.now, filter.Year, filter.Month)
		if err != nil {
			return nil, err
		}
		query = query.Where("date >= ? AND date <= ?", w.Start().UTC(), w.End().UTC())
	}
	if filter.Category != nil {
		if !filter.Category.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid category")
		}
		query = query.Where("category = ?", *filter.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := query.Scopes(pagination.Paginate(page)).Order("date DESC, created_at DESC").Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(expenses, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetExpenseByID returns one of the user's expenses. Expenses of other users
// are reported as not found.
func (s *expenseService) GetExpenseByID(userID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// UpdateExpense applies a partial update. Editing does not re-run the
// gamification evaluators.
func (s *expenseService) UpdateExpense(userID, expenseID string, update ExpenseUpdate) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return nil, err
	}

	if update.Amount != nil {
		if err := validateAmount(*update.Amount); err != nil {
			return nil, err
		}
		expense.Amount = *update.Amount
	}
	if update.Category != nil {
		if !update.Category.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid category")
		}
		expense.Category = *update.Category
	}
	if update.Description != nil {
		desc, err := normalizeDescription(*update.Description)
		if err != nil {
			return nil, err
		}
		expense.Description = desc
	}
	if update.PaymentMethod != nil {
		if !update.PaymentMethod.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid payment method")
		}
		expense.PaymentMethod = *update.PaymentMethod
	}
	if update.Date != nil {
		if update.Date.IsZero() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must not be empty")
		}
		expense.Date = update.Date.UTC()
	}

	if err := s.db.Save(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expense, nil
}

// DeleteExpense permanently removes one of the user's expenses.
func (s *expenseService) DeleteExpense(userID, expenseID string) error {
	res := s.db.Where("id = ? AND user_id = ?", expenseID, userID).Delete(&models.Expense{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrExpenseNotFound
	}
	return nil
}

// monthExpenses is shared by the analytics and budget services.
func monthExpenses(db *gorm.DB, clock Clock, userID string, year, month int) (*models.User, []models.Expense, analytics.Window, error) {
	w, err := resolveWindow(clock, year, month)
	if err != nil {
		return nil, nil, analytics.Window{}, err
	}
	user, err := findUser(db, userID)
	if err != nil {
		return nil, nil, w, err
	}
	expenses, err := expensesInWindow(db, userID, w)
	if err != nil {
		return nil, nil, w, err
	}
	return user, expenses, w, nil
}
