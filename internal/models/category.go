package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Category is one of the fixed expense categories.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryTravel        Category = "travel"
	CategoryBills         Category = "bills"
	CategorySubscriptions Category = "subscriptions"
	CategoryOthers        Category = "others"
)

// AllCategories lists every category in display order. Category-keyed output
// is always emitted in this order.
var AllCategories = []Category{
	CategoryFood,
	CategoryTravel,
	CategoryBills,
	CategorySubscriptions,
	CategoryOthers,
}

var categoryLabels = map[Category]string{
	CategoryFood:          "Food",
	CategoryTravel:        "Travel",
	CategoryBills:         "Bills",
	CategorySubscriptions: "Subscriptions",
	CategoryOthers:        "Others",
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display name, or the raw value for unknown categories.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// CategoryBudgets maps a category to its monthly spending limit. Only the
// fixed categories are accepted as keys and limits must be non-negative;
// Validate enforces this and Scan refuses stored data that violates it.
type CategoryBudgets map[Category]decimal.Decimal

// Validate checks the key-set and values.
func (b CategoryBudgets) Validate() error {
	for cat, limit := range b {
		if !cat.Valid() {
			return fmt.Errorf("unknown category %q", cat)
		}
		if limit.IsNegative() {
			return fmt.Errorf("budget for %s must not be negative", cat)
		}
	}
	return nil
}

// Limit returns the configured limit for a category and whether one is set
// to a non-zero value.
func (b CategoryBudgets) Limit(c Category) (decimal.Decimal, bool) {
	limit, ok := b[c]
	if !ok || !limit.IsPositive() {
		return decimal.Zero, false
	}
	return limit, true
}

// Value implements driver.Valuer; budgets are stored as a JSON object.
func (b CategoryBudgets) Value() (driver.Value, error) {
	if b == nil {
		return "{}", nil
	}
	data, err := json.Marshal(map[Category]decimal.Decimal(b))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (b *CategoryBudgets) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*b = CategoryBudgets{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into CategoryBudgets", value)
	}

	parsed := CategoryBudgets{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("decode category budgets: %w", err)
		}
	}
	if err := parsed.Validate(); err != nil {
		return err
	}
	*b = parsed
	return nil
}

// GormDataType keeps the column portable between postgres and sqlite.
func (CategoryBudgets) GormDataType() string {
	return "text"
}

// PaymentMethod is how an expense was paid.
type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodNetBanking PaymentMethod = "netbanking"
	PaymentMethodOther      PaymentMethod = "other"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodCard, PaymentMethodNetBanking, PaymentMethodOther:
		return true
	}
	return false
}
