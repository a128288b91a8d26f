package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"spendsense/internal/models"
)

var hundred = decimal.NewFromInt(100)

// CategoryTotal is one row of the category breakdown.
type CategoryTotal struct {
	Category   models.Category `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
}

// DayAmount is the amount spent on one calendar day.
type DayAmount struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// HeatmapDay is one cell of the month grid.
type HeatmapDay struct {
	Date   string          `json:"date"`
	Day    int             `json:"day"`
	Amount decimal.Decimal `json:"amount"`
}

// Summary is the analytics view of one month.
type Summary struct {
	Year                  int             `json:"year"`
	Month                 int             `json:"month"`
	MonthlyAllowance      decimal.Decimal `json:"monthly_allowance"`
	BudgetConfigured      bool            `json:"budget_configured"`
	TotalSpent            decimal.Decimal `json:"total_spent"`
	RemainingAllowance    decimal.Decimal `json:"remaining_allowance"`
	BudgetUsagePercentage float64         `json:"budget_usage_percentage"`
	AllowancePercentage   float64         `json:"allowance_percentage"`
	IsOverBudget          bool            `json:"is_over_budget"`
	ExpenseCount          int             `json:"expense_count"`
	Categories            []CategoryTotal `json:"categories"`
	DailySpending         []DayAmount     `json:"daily_spending"`
	Heatmap               []HeatmapDay    `json:"heatmap_data"`
}

// CategoryAmount returns the total for a category, zero when absent.
func (s Summary) CategoryAmount(c models.Category) decimal.Decimal {
	for _, ct := range s.Categories {
		if ct.Category == c {
			return ct.Amount
		}
	}
	return decimal.Zero
}

// TotalSpent sums the amounts of expenses.
func TotalSpent(expenses []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// SpentByCategory sums amounts per category. Categories without expenses are absent.
func SpentByCategory(expenses []models.Expense) map[models.Category]decimal.Decimal {
	out := make(map[models.Category]decimal.Decimal)
	for _, e := range expenses {
		out[e.Category] = out[e.Category].Add(e.Amount)
	}
	return out
}

// Percent returns part/whole*100, or 0 when whole is not positive.
func Percent(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Div(whole).Mul(hundred).InexactFloat64()
}

// Aggregate computes the month view for expenses that the caller selected for
// window w. A zero allowance is the "not configured" sentinel: every ratio
// against it is 0 and the month is never reported as over budget.
func Aggregate(expenses []models.Expense, allowance decimal.Decimal, w Window) Summary {
	total := TotalSpent(expenses)
	configured := allowance.IsPositive()
	remaining := allowance.Sub(total)

	s := Summary{
		Year:                  w.Year,
		Month:                 int(w.Month),
		MonthlyAllowance:      allowance,
		BudgetConfigured:      configured,
		TotalSpent:            total,
		RemainingAllowance:    remaining,
		BudgetUsagePercentage: Percent(total, allowance),
		AllowancePercentage:   Percent(remaining, allowance),
		IsOverBudget:          configured && total.GreaterThan(allowance),
		ExpenseCount:          len(expenses),
		Categories:            categoryBreakdown(expenses, total),
	}

	daily := dailyTotals(expenses, w)
	s.DailySpending = sparseDays(daily)
	s.Heatmap = denseDays(daily, w)
	return s
}

func categoryBreakdown(expenses []models.Expense, total decimal.Decimal) []CategoryTotal {
	amounts := SpentByCategory(expenses)
	counts := make(map[models.Category]int, len(amounts))
	for _, e := range expenses {
		counts[e.Category]++
	}

	out := make([]CategoryTotal, 0, len(amounts))
	for _, c := range models.AllCategories {
		n, ok := counts[c]
		if !ok {
			continue
		}
		out = append(out, CategoryTotal{
			Category:   c,
			Amount:     amounts[c],
			Count:      n,
			Percentage: Percent(amounts[c], total),
		})
	}
	return out
}

func dailyTotals(expenses []models.Expense, w Window) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		key := w.DayKey(e.Date)
		out[key] = out[key].Add(e.Amount)
	}
	return out
}

// sparseDays lists only days that have expenses, oldest first.
func sparseDays(daily map[string]decimal.Decimal) []DayAmount {
	out := make([]DayAmount, 0, len(daily))
	for date, amount := range daily {
		out = append(out, DayAmount{Date: date, Amount: amount})
	}
	// YYYY-MM-DD keys sort chronologically as strings.
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// denseDays lists every day of the month, zero-filled.
func denseDays(daily map[string]decimal.Decimal, w Window) []HeatmapDay {
	n := w.DaysInMonth()
	out := make([]HeatmapDay, 0, n)
	start := w.Start()
	for day := 1; day <= n; day++ {
		key := start.AddDate(0, 0, day-1).Format(DateLayout)
		amount, ok := daily[key]
		if !ok {
			amount = decimal.Zero
		}
		out = append(out, HeatmapDay{Date: key, Day: day, Amount: amount})
	}
	return out
}
