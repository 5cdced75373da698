package services

import (
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "marketledger/internal/errors"
	"marketledger/internal/models"
	"marketledger/internal/twse"
)

// ledgerService appends immutable daily records.
type ledgerService struct{}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService() LedgerServicer {
	return &ledgerService{}
}

// Append inserts the daily record for one security and trade date. The
// storage layer's uniqueness constraint on (security_id, trade_date) is the
// idempotency guard: a duplicate surfaces as DUPLICATE_RECORD and is left
// for the orchestrator to treat as a fatal run failure.
func (s *ledgerService) Append(tx *gorm.DB, security *models.Security, tradeDate time.Time, rec twse.CandidateRecord) error {
	record := models.DailyRecord{
		SecurityID:   security.ID,
		TradeDate:    tradeDate,
		Code:         rec.Code,
		Volume:       rec.Volume,
		Value:        rec.Value,
		Open:         rec.Open,
		High:         rec.High,
		Low:          rec.Low,
		Close:        rec.Close,
		Change:       rec.Change,
		Transactions: rec.Transactions,
	}

	if err := tx.Create(&record).Error; err != nil {
		if isUniqueConstraintError(err) {
			return apperrors.Wrap(apperrors.ErrDuplicateRecord, err)
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// isUniqueConstraintError checks if a GORM error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "duplicate key value violates unique constraint") // PostgreSQL
}
