package twse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "marketledger/internal/errors"
)

// Canonical attribute names for the daily report columns.
const (
	FieldCode         = "stock_code"
	FieldName         = "stock_name"
	FieldVolume       = "trade_volume"
	FieldValue        = "trade_value"
	FieldOpen         = "opening_price"
	FieldHigh         = "highest_price"
	FieldLow          = "lowest_price"
	FieldClose        = "closing_price"
	FieldChange       = "change"
	FieldTransactions = "transaction"
)

// suspensionMarker prefixes a change value when the exchange has not
// computed a price change (trading halted). Such values normalize to
// absent, never to zero or a parse error.
const suspensionMarker = "X"

// requiredFields lists every canonical attribute a report row must provide.
var requiredFields = []string{
	FieldCode, FieldName, FieldVolume, FieldValue,
	FieldOpen, FieldHigh, FieldLow, FieldClose,
	FieldChange, FieldTransactions,
}

// DefaultFieldMap returns the provider-label to canonical-name mapping for
// the exchange's daily closing report columns.
func DefaultFieldMap() map[string]string {
	return map[string]string{
		"證券代號": FieldCode,
		"證券名稱": FieldName,
		"成交股數": FieldVolume,
		"成交金額": FieldValue,
		"開盤價":  FieldOpen,
		"最高價":  FieldHigh,
		"最低價":  FieldLow,
		"收盤價":  FieldClose,
		"漲跌價差": FieldChange,
		"成交筆數": FieldTransactions,
	}
}

// CandidateRecord is one normalized report row, ready for persistence.
// Nil pointers and invalid NullDecimals mean the provider reported no
// value for that field.
type CandidateRecord struct {
	Code         string
	Name         string
	Volume       *int64
	Value        decimal.NullDecimal
	Open         decimal.NullDecimal
	High         decimal.NullDecimal
	Low          decimal.NullDecimal
	Close        decimal.NullDecimal
	Change       decimal.NullDecimal
	Transactions *int64
}

// Normalizer maps raw report rows into CandidateRecords using an immutable
// provider-label to canonical-name mapping fixed at construction.
type Normalizer struct {
	fieldMap map[string]string
}

// NewNormalizer creates a Normalizer with the given field mapping. The map
// is copied so later mutation by the caller has no effect.
func NewNormalizer(fieldMap map[string]string) *Normalizer {
	m := make(map[string]string, len(fieldMap))
	for label, canonical := range fieldMap {
		m[label] = canonical
	}
	return &Normalizer{fieldMap: m}
}

// Normalize converts every row of the report into a CandidateRecord,
// preserving row order. A required provider column missing from the report
// header is fatal for the whole batch (SCHEMA_MISMATCH) since it indicates
// an upstream format change.
func (n *Normalizer) Normalize(report *RawReport) ([]CandidateRecord, error) {
	columns := make(map[string]int, len(report.Fields))
	for i, label := range report.Fields {
		if canonical, ok := n.fieldMap[label]; ok {
			columns[canonical] = i
		}
	}

	for _, field := range requiredFields {
		if _, ok := columns[field]; !ok {
			return nil, apperrors.WithMessage(apperrors.ErrSchemaMismatch,
				fmt.Sprintf("Exchange report is missing the %s column", field))
		}
	}

	records := make([]CandidateRecord, 0, len(report.Rows))
	for i, row := range report.Rows {
		rec, err := n.normalizeRow(columns, row)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrSourceDataInvalid,
				fmt.Sprintf("Row %d: %v", i, err))
		}
		records = append(records, rec)
	}
	return records, nil
}

// normalizeRow cleans each field independently; absence in one field never
// affects another.
func (n *Normalizer) normalizeRow(columns map[string]int, row []string) (CandidateRecord, error) {
	cell := func(field string) (string, error) {
		idx := columns[field]
		if idx >= len(row) {
			return "", fmt.Errorf("row has %d values, %s expected at position %d", len(row), field, idx)
		}
		return strings.TrimSpace(row[idx]), nil
	}

	var rec CandidateRecord
	var err error

	if rec.Code, err = cell(FieldCode); err != nil {
		return rec, err
	}
	if rec.Name, err = cell(FieldName); err != nil {
		return rec, err
	}

	counts := []struct {
		field string
		dst   **int64
	}{
		{FieldVolume, &rec.Volume},
		{FieldTransactions, &rec.Transactions},
	}
	for _, c := range counts {
		raw, err := cell(c.field)
		if err != nil {
			return rec, err
		}
		if *c.dst, err = parseCount(raw); err != nil {
			return rec, fmt.Errorf("%s: %w", c.field, err)
		}
	}

	prices := []struct {
		field string
		dst   *decimal.NullDecimal
	}{
		{FieldValue, &rec.Value},
		{FieldOpen, &rec.Open},
		{FieldHigh, &rec.High},
		{FieldLow, &rec.Low},
		{FieldClose, &rec.Close},
	}
	for _, p := range prices {
		raw, err := cell(p.field)
		if err != nil {
			return rec, err
		}
		if *p.dst, err = parsePrice(raw); err != nil {
			return rec, fmt.Errorf("%s: %w", p.field, err)
		}
	}

	rawChange, err := cell(FieldChange)
	if err != nil {
		return rec, err
	}
	if rec.Change, err = parseChange(rawChange); err != nil {
		return rec, fmt.Errorf("%s: %w", FieldChange, err)
	}

	return rec, nil
}

// isAbsent reports whether the provider left a field empty. The exchange
// uses "--" for prices on days a security did not trade.
func isAbsent(s string) bool {
	return s == "" || s == "--"
}

// parseCount parses a non-negative integer field after stripping grouping
// commas. Absent values stay absent.
func parseCount(s string) (*int64, error) {
	if isAbsent(s) {
		return nil, nil
	}
	v, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid count %q", s)
	}
	if v < 0 {
		return nil, fmt.Errorf("negative count %q", s)
	}
	return &v, nil
}

// parsePrice parses a decimal monetary field after stripping currency
// markers and grouping commas. Absent values stay absent, never zero.
func parsePrice(s string) (decimal.NullDecimal, error) {
	if isAbsent(s) {
		return decimal.NullDecimal{}, nil
	}
	cleaned := strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid price %q", s)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

// parseChange parses the signed price-change field. A value carrying the
// suspension marker means the exchange computed no change for the day and
// normalizes to absent.
func parseChange(s string) (decimal.NullDecimal, error) {
	if isAbsent(s) || strings.HasPrefix(s, suspensionMarker) {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid change %q", s)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}
