package analytics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"spendsense/internal/models"
)

// Severity of a budget warning. Critical outranks warning.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// WarningType says whether a warning is about the whole allowance or one category.
type WarningType string

const (
	WarningOverall  WarningType = "overall"
	WarningCategory WarningType = "category"
)

// warnRatio is the usage above which an approaching-limit warning fires.
var warnRatio = decimal.RequireFromString("0.8")

// Warning is a human-readable budget alert.
type Warning struct {
	Type       WarningType `json:"type"`
	Severity   Severity    `json:"severity"`
	Category   string      `json:"category"`
	Message    string      `json:"message"`
	Percentage float64     `json:"percentage"`
}

// GenerateWarnings derives alerts from a month summary. At most one overall
// warning is emitted, and none when the allowance is not configured. Category
// warnings are only produced for categories with a non-zero limit, in
// category order.
func GenerateWarnings(s Summary, budgets models.CategoryBudgets) []Warning {
	warnings := make([]Warning, 0)

	if w, ok := overallWarning(s.TotalSpent, s.MonthlyAllowance); ok {
		warnings = append(warnings, w)
	}

	for _, c := range models.AllCategories {
		limit, ok := budgets.Limit(c)
		if !ok {
			continue
		}
		if w, ok := categoryWarning(c, s.CategoryAmount(c), limit); ok {
			warnings = append(warnings, w)
		}
	}
	return warnings
}

func overallWarning(spent, allowance decimal.Decimal) (Warning, bool) {
	if !allowance.IsPositive() {
		return Warning{}, false
	}
	pct := Percent(spent, allowance)

	switch {
	case spent.GreaterThan(allowance):
		return Warning{
			Type:       WarningOverall,
			Severity:   SeverityCritical,
			Category:   string(WarningOverall),
			Message:    fmt.Sprintf("You've exceeded your monthly allowance by %s", spent.Sub(allowance).StringFixed(2)),
			Percentage: pct,
		}, true
	case spent.GreaterThan(allowance.Mul(warnRatio)):
		return Warning{
			Type:       WarningOverall,
			Severity:   SeverityWarning,
			Category:   string(WarningOverall),
			Message:    fmt.Sprintf("You've used %.1f%% of your monthly allowance", pct),
			Percentage: pct,
		}, true
	}
	return Warning{}, false
}

func categoryWarning(c models.Category, spent, limit decimal.Decimal) (Warning, bool) {
	pct := Percent(spent, limit)

	switch {
	case spent.GreaterThan(limit):
		return Warning{
			Type:       WarningCategory,
			Severity:   SeverityCritical,
			Category:   string(c),
			Message:    fmt.Sprintf("%s budget exceeded by %s", c.Label(), spent.Sub(limit).StringFixed(2)),
			Percentage: pct,
		}, true
	case spent.Div(limit).GreaterThan(warnRatio):
		return Warning{
			Type:       WarningCategory,
			Severity:   SeverityWarning,
			Category:   string(c),
			Message:    fmt.Sprintf("%s budget at %.1f%%", c.Label(), pct),
			Percentage: pct,
		}, true
	}
	return Warning{}, false
}
