package models

// Security represents one tradable instrument listed on the exchange.
// Code is the exchange-assigned ticker and is the natural key; it is
// immutable once assigned. Name is captured at first sighting and is
// not refreshed by later reports.
type Security struct {
	Base
	Code string `gorm:"not null;uniqueIndex:uq_securities_code" json:"code"`
	Name string `gorm:"not null" json:"name"`
}
