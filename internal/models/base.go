package models

import (
	"time"

	"gorm.io/gorm"

	"fintrack/internal/uuid"
)

// Base contains common columns for all tables. Rows are hard-deleted so
// unique constraints and cascades behave the same in every driver.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
