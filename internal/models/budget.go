package models

import "github.com/shopspring/decimal"

// Budget caps spending in one expense category for one calendar month.
// Spent, Remaining and PercentageSpent are derived on every read.
type Budget struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;uniqueIndex:idx_budgets_user_category_period,priority:1" json:"user_id"`
	CategoryID string          `gorm:"type:uuid;not null;uniqueIndex:idx_budgets_user_category_period,priority:2" json:"category_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Month      int             `gorm:"not null;uniqueIndex:idx_budgets_user_category_period,priority:3" json:"month"`
	Year       int             `gorm:"not null;uniqueIndex:idx_budgets_user_category_period,priority:4" json:"year"`

	Spent           decimal.Decimal `gorm:"-" json:"spent"`
	Remaining       decimal.Decimal `gorm:"-" json:"remaining"`
	PercentageSpent int64           `gorm:"-" json:"percentage_spent"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
}
