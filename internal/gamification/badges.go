package gamification

import (
	"time"

	"github.com/shopspring/decimal"

	"spendsense/internal/models"
)

var half = decimal.RequireFromString("0.5")

// Snapshot is everything the badge rules look at, fetched up front.
type Snapshot struct {
	Now                time.Time
	MonthlyAllowance   decimal.Decimal
	SavingStreak       int
	ExpenseCount       int64
	CurrentMonthSpent  decimal.Decimal
	PreviousMonthSpent decimal.Decimal
	// OldestExpenseDate is nil when the user has no expenses.
	OldestExpenseDate *time.Time
}

// Rule decides whether a badge's condition holds.
type Rule func(Snapshot) bool

// Definition describes one badge.
type Definition struct {
	ID          models.BadgeID `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Rule        Rule           `json:"-"`
}

// Definitions is the badge catalogue in display order.
var Definitions = []Definition{
	{
		ID:          models.BadgeFirstExpense,
		Name:        "First Step",
		Description: "Added your first expense",
		Rule:        func(s Snapshot) bool { return s.ExpenseCount >= 1 },
	},
	{
		ID:          models.BadgeWeekSaver,
		Name:        "Week Saver",
		Description: "Stayed under budget for 7 days",
		Rule:        func(s Snapshot) bool { return s.SavingStreak >= 7 },
	},
	{
		ID:          models.BadgeBudgetMaster,
		Name:        "Budget Master",
		Description: "Completed a month under budget",
		// Compares last month against the allowance as it is today.
		Rule: func(s Snapshot) bool {
			return s.PreviousMonthSpent.IsPositive() && s.PreviousMonthSpent.LessThanOrEqual(s.MonthlyAllowance)
		},
	},
	{
		ID:          models.BadgePennyPincher,
		Name:        "Penny Pincher",
		Description: "Saved 50% of allowance",
		Rule: func(s Snapshot) bool {
			// A zero allowance means no budget is set.
			return s.MonthlyAllowance.IsPositive() && s.CurrentMonthSpent.LessThanOrEqual(s.MonthlyAllowance.Mul(half))
		},
	},
	{
		ID:          models.BadgeStreakWarrior,
		Name:        "Streak Warrior",
		Description: "Maintained 14-day streak",
		Rule:        func(s Snapshot) bool { return s.SavingStreak >= 14 },
	},
	{
		ID:          models.BadgeFinancialGuru,
		Name:        "Financial Guru",
		Description: "Tracked expenses for 3 months",
		Rule: func(s Snapshot) bool {
			return s.OldestExpenseDate != nil && !s.OldestExpenseDate.After(s.Now.AddDate(0, -3, 0))
		},
	},
}

// Lookup returns the definition for id.
func Lookup(id models.BadgeID) (Definition, bool) {
	for _, d := range Definitions {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// Evaluate returns the badges whose rule holds for s and that are not already
// in earned, in catalogue order. Earned badges are never re-evaluated.
func Evaluate(s Snapshot, earned map[models.BadgeID]bool) []models.BadgeID {
	newly := make([]models.BadgeID, 0)
	for _, d := range Definitions {
		if earned[d.ID] {
			continue
		}
		if d.Rule(s) {
			newly = append(newly, d.ID)
		}
	}
	return newly
}
