// Package gamification holds the streak, discipline and badge rules. Like
// analytics it is pure: services load the inputs and persist the results.
package gamification

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"spendsense/internal/models"
)

const (
	maxScore = 100
	minScore = 0
)

// ExpectedSpendingByNow is the linear pacing target: allowance spread evenly
// over the days of now's month, times the current day of month.
func ExpectedSpendingByNow(allowance decimal.Decimal, now time.Time) decimal.Decimal {
	days := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	return allowance.Mul(decimal.NewFromInt(int64(now.Day()))).Div(decimal.NewFromInt(int64(days)))
}

// DisciplineScore maps month spend against the allowance onto 0-100. Spending
// at or under the allowance scores 100; every percent over costs one point.
// An unconfigured allowance always scores 100.
func DisciplineScore(spent, allowance decimal.Decimal) int {
	if !allowance.IsPositive() {
		return maxScore
	}
	ratio := spent.Div(allowance).InexactFloat64()
	score := 100 - (ratio-1)*100
	score = math.Max(minScore, math.Min(maxScore, score))
	return int(math.Round(score))
}

// StreakOutcome describes what UpdateStreak did.
type StreakOutcome struct {
	// Skipped is set when the evaluator already ran on now's calendar day.
	Skipped  bool
	OnPace   bool
	Expected decimal.Decimal
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// UpdateStreak applies one activity event to state. monthSpent must already
// include the expense that triggered the event.
//
// A second call on the same calendar day leaves streak and score untouched
// and only refreshes LastActiveDate. Otherwise the streak grows when spending
// is on pace (or no allowance is set) and drops to zero when it is not.
func UpdateStreak(state models.Gamification, allowance, monthSpent decimal.Decimal, now time.Time) (models.Gamification, StreakOutcome) {
	out := StreakOutcome{Expected: ExpectedSpendingByNow(allowance, now)}
	next := state

	if state.LastActiveDate != nil && SameDay(*state.LastActiveDate, now, now.Location()) {
		out.Skipped = true
	} else {
		out.OnPace = !allowance.IsPositive() || monthSpent.LessThanOrEqual(out.Expected)
		if out.OnPace {
			next.SavingStreak++
		} else {
			next.SavingStreak = 0
		}
		next.BudgetDisciplineScore = DisciplineScore(monthSpent, allowance)
	}

	if next.SavingStreak > next.LongestStreak {
		next.LongestStreak = next.SavingStreak
	}
	ts := now
	next.LastActiveDate = &ts
	return next, out
}
