package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Gamification is the per-user streak and discipline state. It is embedded in
// User and only ever written by the streak evaluator.
type Gamification struct {
	SavingStreak          int        `gorm:"not null;default:0" json:"saving_streak"`
	LongestStreak         int        `gorm:"not null;default:0" json:"longest_streak"`
	BudgetDisciplineScore int        `gorm:"not null;default:100" json:"budget_discipline_score"`
	LastActiveDate        *time.Time `json:"last_active_date,omitempty"`
}

// User represents the user model in the database
type User struct {
	Base
	Name                string          `gorm:"size:50;not null" json:"name"`
	Email               string          `gorm:"uniqueIndex;not null" json:"email"`
	Password            string          `gorm:"not null" json:"-"`
	Currency            string          `gorm:"size:3;not null;default:USD" json:"currency"`
	MonthlyAllowance    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"monthly_allowance"`
	CategoryBudgets     CategoryBudgets `json:"category_budgets"`
	Gamification        `gorm:"embedded"`
	ResetPasswordToken  string          `gorm:"size:64;index" json:"-"`
	ResetPasswordExpire *time.Time      `json:"-"`
	RefreshTokenHash    string          `gorm:"size:64" json:"-"`
	FailedLoginAttempts int             `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time      `json:"-"`
	LastLoginAt         *time.Time      `json:"last_login_at,omitempty"`
	Badges              []UserBadge     `gorm:"foreignKey:UserID" json:"badges,omitempty"`
}

// BudgetConfigured reports whether the user has set a monthly allowance.
// A zero allowance means "not configured" rather than "nothing to spend".
func (u *User) BudgetConfigured() bool {
	return u.MonthlyAllowance.IsPositive()
}
