package models

import "time"

// BadgeID identifies an achievement badge.
type BadgeID string

const (
	BadgeFirstExpense  BadgeID = "first_expense"
	BadgeWeekSaver     BadgeID = "week_saver"
	BadgeBudgetMaster  BadgeID = "budget_master"
	BadgePennyPincher  BadgeID = "penny_pincher"
	BadgeStreakWarrior BadgeID = "streak_warrior"
	BadgeFinancialGuru BadgeID = "financial_guru"
)

// UserBadge records that a user earned a badge. Rows are insert-only: a badge
// is never removed and its EarnedAt is never rewritten.
type UserBadge struct {
	UserID   string    `gorm:"type:uuid;primaryKey" json:"-"`
	BadgeID  BadgeID   `gorm:"size:32;primaryKey" json:"badge_id"`
	EarnedAt time.Time `gorm:"not null" json:"earned_at"`
}
