package models

import (
	"time"

	"marketledger/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for reference tables. The ingestion
// pipeline never deletes rows, so there is no soft-delete column.
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
