// Package twse fetches and normalizes the Taiwan Stock Exchange daily
// closing report.
package twse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "marketledger/internal/errors"
)

// reportDateLayout is the date format embedded in the exchange payload.
const reportDateLayout = "20060102"

// RawReport is the exchange's daily closing report as delivered: column
// labels plus positionally aligned row values. No transformation happens
// at this layer — structural validation only.
type RawReport struct {
	Stat   string     `json:"stat"`
	Date   string     `json:"date"`
	Fields []string   `json:"fields"`
	Rows   [][]string `json:"data"`
}

// Client fetches the daily closing report from the exchange endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewClient creates a new exchange report client.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

// Fetch retrieves the closing report for the given trade date and validates
// its envelope: the stat flag must be "OK" and the embedded date must match
// the requested date. Transport and HTTP failures surface as
// SOURCE_UNAVAILABLE; envelope failures as SOURCE_DATA_INVALID.
func (c *Client) Fetch(ctx context.Context, reportDate time.Time) (*RawReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSourceUnavailable, fmt.Errorf("building request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSourceUnavailable, fmt.Errorf("http request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.WithMessage(apperrors.ErrSourceUnavailable,
			fmt.Sprintf("Exchange endpoint returned status %d", resp.StatusCode))
	}

	var report RawReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSourceDataInvalid, fmt.Errorf("decoding report: %w", err))
	}

	if report.Stat != "OK" {
		return nil, apperrors.WithMessage(apperrors.ErrSourceDataInvalid,
			fmt.Sprintf("Exchange report stat is %q", report.Stat))
	}

	wantDate := reportDate.Format(reportDateLayout)
	if report.Date != wantDate {
		return nil, apperrors.WithMessage(apperrors.ErrSourceDataInvalid,
			fmt.Sprintf("Exchange report date is %q, requested %s", report.Date, wantDate))
	}

	return &report, nil
}
