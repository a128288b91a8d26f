package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"spendsense/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password, unique email and no
// allowance configured.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithAllowance(t, db, decimal.Zero)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	return createUser(t, db, email, decimal.Zero)
}

// CreateTestUserWithAllowance creates a user with the given monthly allowance.
func CreateTestUserWithAllowance(t *testing.T, db *gorm.DB, allowance decimal.Decimal) *models.User {
	t.Helper()
	return createUser(t, db, fmt.Sprintf("user%d@test.com", nextID()), allowance)
}

func createUser(t *testing.T, db *gorm.DB, email string, allowance decimal.Decimal) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Name:             fmt.Sprintf("Test User %d", nextID()),
		Email:            email,
		Password:         string(hash),
		Currency:         "USD",
		MonthlyAllowance: allowance,
		CategoryBudgets:  models.CategoryBudgets{},
		Gamification:     models.Gamification{BudgetDisciplineScore: 100},
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// SetCategoryBudgets overwrites the user's category limits.
func SetCategoryBudgets(t *testing.T, db *gorm.DB, user *models.User, budgets models.CategoryBudgets) {
	t.Helper()

	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("category_budgets", budgets).Error; err != nil {
		t.Fatalf("failed to set category budgets: %v", err)
	}
	user.CategoryBudgets = budgets
}

// CreateTestExpense stores an expense directly, bypassing the gamification
// side effects of the expense service.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID string, category models.Category, amount string, date time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:        userID,
		Amount:        decimal.RequireFromString(amount),
		Category:      category,
		Description:   fmt.Sprintf("Test Expense %d", nextID()),
		PaymentMethod: models.PaymentMethodCash,
		Date:          date.UTC(),
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// AwardTestBadge records a badge as already earned.
func AwardTestBadge(t *testing.T, db *gorm.DB, userID string, badge models.BadgeID, at time.Time) {
	t.Helper()

	row := &models.UserBadge{UserID: userID, BadgeID: badge, EarnedAt: at.UTC()}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("failed to award test badge: %v", err)
	}
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
