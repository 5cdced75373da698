package services

import (
	"time"

	"gorm.io/gorm"

	"marketledger/internal/models"
	"marketledger/internal/pagination"
	"marketledger/internal/twse"
)

// ResolverServicer defines the contract for mapping a reported security's
// exchange code to its stable internal identifier.
type ResolverServicer interface {
	// ResolveOrCreate looks up a security by exchange code within the
	// active transaction, inserting it on first sighting. The returned
	// bool reports whether a new security was created. The display name
	// of an existing security is not refreshed.
	ResolveOrCreate(tx *gorm.DB, code, name string) (*models.Security, bool, error)
}

// LedgerServicer defines the contract for appending daily records.
type LedgerServicer interface {
	// Append inserts one daily record within the active transaction.
	// A record already present for (security, trade date) surfaces as
	// DUPLICATE_RECORD.
	Append(tx *gorm.DB, security *models.Security, tradeDate time.Time, rec twse.CandidateRecord) error
}

// MarketServicer defines the contract for the read-only query side.
type MarketServicer interface {
	ListSecurities(page pagination.PageRequest) (*pagination.PageResponse[models.Security], error)
	ListDailyRecords(code string, page pagination.PageRequest) (*pagination.PageResponse[models.DailyRecord], error)
}
