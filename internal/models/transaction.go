package models

import "github.com/shopspring/decimal"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// RecurringFrequency is the period between instances of a recurring series.
type RecurringFrequency string

const (
	FrequencyWeekly  RecurringFrequency = "weekly"
	FrequencyMonthly RecurringFrequency = "monthly"
	FrequencyYearly  RecurringFrequency = "yearly"
)

// Transaction represents a dated income or expense. Instances generated from
// one recurring request share RecurringGroupID with the request's own row.
type Transaction struct {
	Base
	UserID             string              `gorm:"type:uuid;not null;index:idx_transactions_user_date,priority:1" json:"user_id"`
	CategoryID         string              `gorm:"type:uuid;not null;index" json:"category_id"`
	Type               TransactionType     `gorm:"size:10;not null" json:"type"`
	Amount             decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description        string              `gorm:"size:200;not null" json:"description"`
	Date               Date                `gorm:"not null;index:idx_transactions_user_date,priority:2" json:"date"`
	Notes              *string             `gorm:"size:500" json:"notes"`
	IsRecurring        bool                `gorm:"not null;default:false" json:"is_recurring"`
	RecurringFrequency *RecurringFrequency `gorm:"size:10" json:"recurring_frequency"`
	RecurringEndDate   *Date               `json:"recurring_end_date"`
	RecurringGroupID   *string             `gorm:"type:uuid;index" json:"recurring_group_id"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
}
