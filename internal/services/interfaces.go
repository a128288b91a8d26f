package services

import (
	"time"

	"github.com/shopspring/decimal"

	"spendsense/internal/analytics"
	"spendsense/internal/gamification"
	"spendsense/internal/models"
	"spendsense/internal/pagination"
)

// Clock returns the current time in the location that defines calendar days.
type Clock func() time.Time

// UTCClock is the default clock.
func UTCClock() time.Time { return time.Now().UTC() }

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(name, email, password, currency string, monthlyAllowance decimal.Decimal) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID string, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	UpdateProfile(userID string, name, email *string) (*models.User, error)
	ChangePassword(userID, currentPassword, newPassword string) error
	// CreatePasswordReset stores a hashed reset token and returns the raw one.
	CreatePasswordReset(email string) (*models.User, string, error)
	ClearPasswordReset(userID string) error
	ValidateResetToken(token string) (*models.User, error)
	ResetPassword(token, newPassword string) (*models.User, error)
}

// ExpenseFilter holds optional filter parameters for listing expenses.
// Year and Month are zero when no month filter applies.
type ExpenseFilter struct {
	Year     int
	Month    int
	Category *models.Category
}

// ExpenseUpdate carries a partial update; nil fields are left unchanged.
type ExpenseUpdate struct {
	Amount        *decimal.Decimal
	Category      *models.Category
	Description   *string
	PaymentMethod *models.PaymentMethod
	Date          *time.Time
}

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	// CreateExpense persists an expense and then runs the streak and badge
	// evaluators. It returns the badges newly earned by this expense.
	CreateExpense(userID string, amount decimal.Decimal, category models.Category, description string, paymentMethod models.PaymentMethod, date time.Time) (*models.Expense, []models.BadgeID, error)
	GetUserExpenses(userID string, filter ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	GetExpenseByID(userID, expenseID string) (*models.Expense, error)
	UpdateExpense(userID, expenseID string, update ExpenseUpdate) (*models.Expense, error)
	DeleteExpense(userID, expenseID string) error
}

// ActivityResult is the outcome of one RecordActivity call.
type ActivityResult struct {
	User      *models.User
	Outcome   gamification.StreakOutcome
	NewBadges []models.BadgeID
}

// EarnedBadge is a badge the user holds.
type EarnedBadge struct {
	ID          models.BadgeID `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	EarnedAt    time.Time      `json:"earned_at"`
}

// BadgeStatus is one entry of the catalogue, annotated for a user.
type BadgeStatus struct {
	ID          models.BadgeID `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Earned      bool           `json:"earned"`
	EarnedAt    *time.Time     `json:"earned_at,omitempty"`
}

// StreakStatus is the read-only streak view.
type StreakStatus struct {
	CurrentStreak         int             `json:"current_streak"`
	LongestStreak         int             `json:"longest_streak"`
	BudgetDisciplineScore int             `json:"budget_discipline_score"`
	TodaySpent            decimal.Decimal `json:"today_spent"`
	DailyBudget           decimal.Decimal `json:"daily_budget"`
	IsWithinBudget        bool            `json:"is_within_budget"`
	ExpectedSpendingByNow decimal.Decimal `json:"expected_spending_by_now"`
	MonthSpent            decimal.Decimal `json:"month_spent"`
	LastActiveDate        *time.Time      `json:"last_active_date,omitempty"`
}

// GamificationServicer defines the contract for streaks and badges.
type GamificationServicer interface {
	RecordActivity(userID string) (*ActivityResult, error)
	CheckBadges(userID string) ([]models.BadgeID, error)
	GetBadges(userID string) ([]EarnedBadge, error)
	GetAvailableBadges(userID string) ([]BadgeStatus, error)
	GetStreak(userID string) (*StreakStatus, error)
}

// GamificationSnapshot is the gamification part of the dashboard.
type GamificationSnapshot struct {
	CurrentStreak   int              `json:"current_streak"`
	LongestStreak   int              `json:"longest_streak"`
	DisciplineScore int              `json:"discipline_score"`
	Badges          []models.BadgeID `json:"badges"`
}

// Dashboard is the month summary plus gamification state and warnings.
type Dashboard struct {
	analytics.Summary
	Gamification GamificationSnapshot `json:"gamification"`
	Warnings     []analytics.Warning  `json:"warnings"`
}

// AnalyticsServicer defines the contract for read-only month analytics.
// A zero year or month means the current one.
type AnalyticsServicer interface {
	GetDashboard(userID string, year, month int) (*Dashboard, error)
	GetMonthSummary(userID string, year, month int) (*analytics.Summary, error)
}

// BudgetSettings is the user's budget configuration.
type BudgetSettings struct {
	MonthlyAllowance decimal.Decimal        `json:"monthly_allowance"`
	CategoryBudgets  models.CategoryBudgets `json:"category_budgets"`
	Currency         string                 `json:"currency"`
}

// BudgetState classifies category usage.
type BudgetState string

const (
	BudgetGood     BudgetState = "good"
	BudgetWarning  BudgetState = "warning"
	BudgetExceeded BudgetState = "exceeded"
)

// CategoryBudgetStatus is spend against the limit of one category.
type CategoryBudgetStatus struct {
	Category   models.Category `json:"category"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
	Status     BudgetState     `json:"status"`
}

// BudgetReport lists every category's status for one month.
type BudgetReport struct {
	Year            int                    `json:"year"`
	Month           int                    `json:"month"`
	Budgets         []CategoryBudgetStatus `json:"budgets"`
	TotalBudget     decimal.Decimal        `json:"total_budget"`
	CategoryBudgets models.CategoryBudgets `json:"category_budgets"`
}

// BudgetServicer defines the contract for budget settings and status.
type BudgetServicer interface {
	GetSettings(userID string) (*BudgetSettings, error)
	UpdateSettings(userID string, monthlyAllowance decimal.Decimal, categoryBudgets models.CategoryBudgets) (*BudgetSettings, error)
	SetCategoryBudget(userID string, category models.Category, limit decimal.Decimal) (models.CategoryBudgets, error)
	GetBudgetReport(userID string, year, month int) (*BudgetReport, error)
	GetWarnings(userID string, year, month int) ([]analytics.Warning, error)
}

// EmailSender delivers transactional email.
type EmailSender interface {
	Enabled() bool
	SendPasswordReset(to, name, resetURL string) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
