package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money is exchanged as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Expense is a single spending event owned by one user.
type Expense struct {
	Base
	UserID        string          `gorm:"type:uuid;not null;index:idx_expenses_user_date,priority:1;index:idx_expenses_user_category,priority:1" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Category      Category        `gorm:"size:20;not null;index:idx_expenses_user_category,priority:2" json:"category"`
	Description   string          `gorm:"size:200;not null" json:"description"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null;default:cash" json:"payment_method"`
	Date          time.Time       `gorm:"not null;index:idx_expenses_user_date,priority:2" json:"date"`
}
