// Package pipeline orchestrates one end-to-end ingestion run: fetch the
// daily closing report, normalize it, and persist it inside a single
// transaction, reporting the outcome to the notification channel.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"marketledger/internal/logger"
	"marketledger/internal/services"
	"marketledger/internal/twse"
)

// SourceClient defines the exchange operations needed by the pipeline.
type SourceClient interface {
	Fetch(ctx context.Context, reportDate time.Time) (*twse.RawReport, error)
}

// Notifier delivers the run outcome to an external channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// RunResult contains the outcome of one ingestion run.
type RunResult struct {
	RowsFetched       int
	RecordsPersisted  int
	SecuritiesCreated int
	Duration          time.Duration
}

// Pipeline sequences one ingestion run and owns its transaction boundary.
// It is not designed for concurrent invocations against the same trade
// date; the external scheduler triggers it once per business day.
type Pipeline struct {
	db         *gorm.DB
	source     SourceClient
	normalizer *twse.Normalizer
	resolver   services.ResolverServicer
	ledger     services.LedgerServicer
	notifier   Notifier
}

// New creates a Pipeline.
func New(db *gorm.DB, source SourceClient, normalizer *twse.Normalizer,
	resolver services.ResolverServicer, ledger services.LedgerServicer, notifier Notifier) *Pipeline {
	return &Pipeline{
		db:         db,
		source:     source,
		normalizer: normalizer,
		resolver:   resolver,
		ledger:     ledger,
		notifier:   notifier,
	}
}

// Run executes one ingestion run for the given trade date. Any fetch,
// normalize, or persist failure rolls back all writes for the run and
// produces exactly one failure notification; success produces exactly one
// success notification. A report with zero rows (non-trading day) is a
// quiet no-op: nothing persisted, nothing notified.
func (p *Pipeline) Run(ctx context.Context, tradeDate time.Time) (*RunResult, error) {
	start := time.Now()
	log := logger.Get()
	result := &RunResult{}

	report, err := p.source.Fetch(ctx, tradeDate)
	if err != nil {
		p.notifyFailure(ctx, tradeDate, err)
		return nil, err
	}
	result.RowsFetched = len(report.Rows)

	if len(report.Rows) == 0 {
		log.Infow("no rows in daily report, nothing to do", "trade_date", tradeDate.Format("2006-01-02"))
		result.Duration = time.Since(start)
		return result, nil
	}

	records, err := p.normalizer.Normalize(report)
	if err != nil {
		p.notifyFailure(ctx, tradeDate, err)
		return nil, err
	}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range records {
			security, created, err := p.resolver.ResolveOrCreate(tx, rec.Code, rec.Name)
			if err != nil {
				return err
			}
			if created {
				result.SecuritiesCreated++
			}
			if err := p.ledger.Append(tx, security, tradeDate, rec); err != nil {
				return err
			}
			result.RecordsPersisted++
		}
		return nil
	})
	if err != nil {
		// The transaction rolled back; no partial counts survive.
		result.RecordsPersisted = 0
		result.SecuritiesCreated = 0
		p.notifyFailure(ctx, tradeDate, err)
		return nil, err
	}

	p.notify(ctx, fmt.Sprintf("[TWSE] %s success", tradeDate.Format("2006-01-02")))

	result.Duration = time.Since(start)
	return result, nil
}

// notifyFailure sends the single failure notification for a run.
func (p *Pipeline) notifyFailure(ctx context.Context, tradeDate time.Time, cause error) {
	p.notify(ctx, fmt.Sprintf("[TWSE] %s error: %s", tradeDate.Format("2006-01-02"), cause.Error()))
}

// notify delivers one outcome message. A notification failure is logged
// and swallowed so it never masks the run's own outcome.
func (p *Pipeline) notify(ctx context.Context, message string) {
	if err := p.notifier.Notify(ctx, message); err != nil {
		logger.Get().Warnw("outcome notification failed", "message", message, "error", err)
	}
}
