package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"marketledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestSecurity creates a security with a unique exchange code.
func CreateTestSecurity(t *testing.T, db *gorm.DB) *models.Security {
	t.Helper()
	n := nextID()
	return CreateTestSecurityWithCode(t, db, fmt.Sprintf("%04d", 1000+n), fmt.Sprintf("Test Security %d", n))
}

// CreateTestSecurityWithCode creates a security with the given exchange code and name.
func CreateTestSecurityWithCode(t *testing.T, db *gorm.DB, code, name string) *models.Security {
	t.Helper()

	security := &models.Security{Code: code, Name: name}
	if err := db.Create(security).Error; err != nil {
		t.Fatalf("failed to create test security: %v", err)
	}
	return security
}

// CreateTestDailyRecord creates a fully populated daily record for the given
// security and trade date.
func CreateTestDailyRecord(t *testing.T, db *gorm.DB, security *models.Security, tradeDate time.Time) *models.DailyRecord {
	t.Helper()

	volume := int64(1000)
	transactions := int64(50)
	record := &models.DailyRecord{
		SecurityID:   security.ID,
		TradeDate:    tradeDate,
		Code:         security.Code,
		Volume:       &volume,
		Value:        NullDecimal("500000"),
		Open:         NullDecimal("10.00"),
		High:         NullDecimal("10.50"),
		Low:          NullDecimal("9.90"),
		Close:        NullDecimal("10.20"),
		Change:       NullDecimal("0.10"),
		Transactions: &transactions,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to create test daily record: %v", err)
	}
	return record
}

// NullDecimal builds a valid NullDecimal from a literal, failing the build
// on malformed literals rather than a test.
func NullDecimal(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}
