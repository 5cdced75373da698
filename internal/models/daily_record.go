package models

import (
	"time"

	"marketledger/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DailyRecord represents one security's trading activity for one calendar
// date. This is immutable time-series data — no Base embed, no updates.
// Absent values (suspended change, non-traded fields) are stored as NULL,
// never as zero.
type DailyRecord struct {
	ID           string              `gorm:"type:uuid;primaryKey" json:"id"`
	SecurityID   string              `gorm:"type:uuid;not null;uniqueIndex:uq_daily_records_security_trade_date" json:"security_id"`
	TradeDate    time.Time           `gorm:"type:date;not null;uniqueIndex:uq_daily_records_security_trade_date" json:"trade_date"`
	Code         string              `gorm:"not null;index" json:"code"`
	Volume       *int64              `json:"volume,omitempty"`
	Value        decimal.NullDecimal `gorm:"type:numeric(20,2)" json:"value,omitempty"`
	Open         decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"open,omitempty"`
	High         decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"high,omitempty"`
	Low          decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"low,omitempty"`
	Close        decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"close,omitempty"`
	Change       decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"change,omitempty"`
	Transactions *int64              `json:"transactions,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	Security     Security            `gorm:"foreignKey:SecurityID" json:"security,omitempty"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (r *DailyRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New()
	}
	return nil
}
