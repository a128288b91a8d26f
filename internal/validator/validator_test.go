package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"spendsense/internal/models"
)

type sample struct {
	Category  string                 `validate:"omitempty,expense_category"`
	Method    string                 `validate:"omitempty,payment_method"`
	Currency  string                 `validate:"omitempty,iso4217"`
	Allowance decimal.Decimal        `validate:"gte=0"`
	Budgets   models.CategoryBudgets `validate:"omitempty,category_budgets"`
}

func newValidate() *validator.Validate {
	v := validator.New()
	RegisterOn(v)
	return v
}

func TestCustomTags(t *testing.T) {
	v := newValidate()

	tests := []struct {
		name    string
		in      sample
		wantErr bool
	}{
		{"empty", sample{}, false},
		{"valid", sample{
			Category:  "food",
			Method:    "upi",
			Currency:  "INR",
			Allowance: decimal.NewFromInt(1000),
			Budgets:   models.CategoryBudgets{models.CategoryBills: decimal.NewFromInt(200)},
		}, false},
		{"unknown category", sample{Category: "rent"}, true},
		{"unknown payment method", sample{Method: "cheque"}, true},
		{"unknown currency", sample{Currency: "ABC"}, true},
		{"negative allowance", sample{Allowance: decimal.NewFromInt(-1)}, true},
		{"unknown budget key", sample{Budgets: models.CategoryBudgets{"rent": decimal.NewFromInt(1)}}, true},
		{"negative budget", sample{Budgets: models.CategoryBudgets{models.CategoryFood: decimal.NewFromInt(-5)}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
