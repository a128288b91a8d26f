package gamification

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendsense/internal/models"
)

var badgeNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestEvaluate_Rules(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want []models.BadgeID
	}{
		{
			name: "no expenses, no allowance",
			snap: Snapshot{Now: badgeNow},
			want: []models.BadgeID{},
		},
		{
			name: "expenses without an allowance",
			snap: Snapshot{Now: badgeNow, ExpenseCount: 2, PreviousMonthSpent: dec("40")},
			want: []models.BadgeID{models.BadgeFirstExpense},
		},
		{
			name: "allowance set, nothing spent this month",
			snap: Snapshot{Now: badgeNow, MonthlyAllowance: dec("100")},
			want: []models.BadgeID{models.BadgePennyPincher},
		},
		{
			name: "first expense over half the allowance",
			snap: Snapshot{Now: badgeNow, MonthlyAllowance: dec("100"), ExpenseCount: 1, CurrentMonthSpent: dec("60"), OldestExpenseDate: ptr(badgeNow)},
			want: []models.BadgeID{models.BadgeFirstExpense},
		},
		{
			name: "week streak",
			snap: Snapshot{Now: badgeNow, MonthlyAllowance: dec("100"), SavingStreak: 7, ExpenseCount: 3, CurrentMonthSpent: dec("51")},
			want: []models.BadgeID{models.BadgeFirstExpense, models.BadgeWeekSaver},
		},
		{
			name: "fourteen day streak earns both streak badges",
			snap: Snapshot{Now: badgeNow, MonthlyAllowance: dec("100"), SavingStreak: 14, ExpenseCount: 3, CurrentMonthSpent: dec("51")},
			want: []models.BadgeID{models.BadgeFirstExpense, models.BadgeWeekSaver, models.BadgeStreakWarrior},
		},
		{
			name: "previous month under allowance",
			snap: Snapshot{Now: badgeNow, MonthlyAllowance: dec("100"), ExpenseCount: 2, CurrentMonthSpent: dec("80"), PreviousMonthSpent: dec("100")},
			want: []models.BadgeID{models.BadgeFirstExpense, models.BadgeBudgetMaster},
		},
		{
			name: "previous month empty does not count",
			snap: Snapshot{Now: badgeNow, MonthlyAllowance: dec("100"), ExpenseCount: 2, CurrentMonthSpent: dec("80")},
			want: []models.BadgeID{models.BadgeFirstExpense},
		},
		{
			name: "previous month over allowance",
			snap: Snapshot{Now: badgeNow, MonthlyAllowance: dec("100"), ExpenseCount: 2, CurrentMonthSpent: dec("80"), PreviousMonthSpent: dec("100.01")},
			want: []models.BadgeID{models.BadgeFirstExpense},
		},
		{
			name: "exactly half the allowance",
			snap: Snapshot{Now: badgeNow, MonthlyAllowance: dec("100"), ExpenseCount: 1, CurrentMonthSpent: dec("50")},
			want: []models.BadgeID{models.BadgeFirstExpense, models.BadgePennyPincher},
		},
		{
			name: "three months of history",
			snap: Snapshot{Now: badgeNow, MonthlyAllowance: dec("100"), ExpenseCount: 1, CurrentMonthSpent: dec("90"), OldestExpenseDate: ptr(badgeNow.AddDate(0, -3, 0))},
			want: []models.BadgeID{models.BadgeFirstExpense, models.BadgeFinancialGuru},
		},
		{
			name: "just under three months",
			snap: Snapshot{Now: badgeNow, MonthlyAllowance: dec("100"), ExpenseCount: 1, CurrentMonthSpent: dec("90"), OldestExpenseDate: ptr(badgeNow.AddDate(0, -3, 1))},
			want: []models.BadgeID{models.BadgeFirstExpense},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.snap, nil))
		})
	}
}

func TestEvaluate_SkipsEarned(t *testing.T) {
	snap := Snapshot{Now: badgeNow, MonthlyAllowance: dec("100"), SavingStreak: 20, ExpenseCount: 5, CurrentMonthSpent: dec("10")}

	first := Evaluate(snap, nil)
	require.NotEmpty(t, first)

	earned := make(map[models.BadgeID]bool)
	for _, id := range first {
		earned[id] = true
	}
	assert.Empty(t, Evaluate(snap, earned), "second evaluation must not award again")
}

func TestEvaluate_EarnedIsNotRevoked(t *testing.T) {
	// Conditions no longer hold, but Evaluate only reports additions.
	snap := Snapshot{Now: badgeNow, MonthlyAllowance: dec("100"), CurrentMonthSpent: dec("99")}
	earned := map[models.BadgeID]bool{models.BadgeWeekSaver: true}

	got := Evaluate(snap, earned)
	assert.NotContains(t, got, models.BadgeWeekSaver)
	assert.Empty(t, got)
}

func TestDefinitions(t *testing.T) {
	require.Len(t, Definitions, 6)
	seen := make(map[models.BadgeID]bool)
	for _, d := range Definitions {
		assert.False(t, seen[d.ID], "duplicate badge %s", d.ID)
		seen[d.ID] = true
		assert.NotEmpty(t, d.Name)
		assert.NotEmpty(t, d.Description)
		assert.NotNil(t, d.Rule)
	}

	d, ok := Lookup(models.BadgeStreakWarrior)
	require.True(t, ok)
	assert.Equal(t, "Streak Warrior", d.Name)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestEvaluate_PennyPincherUsesCurrentMonthOnly(t *testing.T) {
	snap := Snapshot{
		Now:                badgeNow,
		MonthlyAllowance:   decimal.NewFromInt(1000),
		ExpenseCount:       10,
		CurrentMonthSpent:  decimal.NewFromInt(400),
		PreviousMonthSpent: decimal.NewFromInt(5000),
	}
	assert.Contains(t, Evaluate(snap, nil), models.BadgePennyPincher)
}

func TestEvaluate_PennyPincherNeedsAllowance(t *testing.T) {
	snap := Snapshot{Now: badgeNow, MonthlyAllowance: decimal.Zero, CurrentMonthSpent: decimal.Zero}
	assert.NotContains(t, Evaluate(snap, nil), models.BadgePennyPincher)

	snap.MonthlyAllowance = dec("0.01")
	assert.Contains(t, Evaluate(snap, nil), models.BadgePennyPincher)
}
