package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	apperrors "marketledger/internal/errors"
	"marketledger/internal/models"
	"marketledger/internal/services"
	"marketledger/internal/testutil"
	"marketledger/internal/twse"
)

var tradeDate = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

// stubSource serves a canned report or a canned error.
type stubSource struct {
	report *twse.RawReport
	err    error
}

func (s *stubSource) Fetch(_ context.Context, _ time.Time) (*twse.RawReport, error) {
	return s.report, s.err
}

// recorderNotifier captures every delivered message and optionally fails.
type recorderNotifier struct {
	messages []string
	err      error
}

func (n *recorderNotifier) Notify(_ context.Context, message string) error {
	n.messages = append(n.messages, message)
	return n.err
}

func stubReport(rows [][]string) *twse.RawReport {
	return &twse.RawReport{
		Stat: "OK",
		Date: "20260831",
		Fields: []string{
			"證券代號", "證券名稱", "成交股數", "成交金額",
			"開盤價", "最高價", "最低價", "收盤價", "漲跌價差", "成交筆數",
		},
		Rows: rows,
	}
}

func stubRow(code, name string) []string {
	return []string{code, name, "1,000", "500,000", "10.00", "10.50", "9.90", "10.20", "0.10", "50"}
}

func newTestPipeline(t *testing.T, source SourceClient, notifier Notifier) (*Pipeline, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	p := New(db, source, twse.NewNormalizer(twse.DefaultFieldMap()),
		services.NewResolverService(), services.NewLedgerService(), notifier)
	return p, func() { testutil.TeardownTestDB(t, db) }
}

func countRows(t *testing.T, p *Pipeline, model interface{}) int64 {
	t.Helper()
	var count int64
	if err := p.db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return count
}

func TestRun(t *testing.T) {
	t.Run("success_persists_and_notifies_once", func(t *testing.T) {
		source := &stubSource{report: stubReport([][]string{
			stubRow("2330", "台積電"),
			stubRow("2317", "鴻海"),
			stubRow("1101", "台泥"),
		})}
		notifier := &recorderNotifier{}
		p, teardown := newTestPipeline(t, source, notifier)
		defer teardown()

		result, err := p.Run(context.Background(), tradeDate)
		testutil.AssertNoError(t, err)

		if result.RowsFetched != 3 || result.RecordsPersisted != 3 || result.SecuritiesCreated != 3 {
			t.Errorf("unexpected result: %+v", result)
		}
		if got := countRows(t, p, &models.DailyRecord{}); got != 3 {
			t.Errorf("expected 3 persisted records, got %d", got)
		}
		if len(notifier.messages) != 1 {
			t.Fatalf("expected exactly 1 notification, got %d", len(notifier.messages))
		}
		if notifier.messages[0] != "[TWSE] 2026-08-31 success" {
			t.Errorf("unexpected notification: %q", notifier.messages[0])
		}
	})

	t.Run("zero_rows_quiet_noop", func(t *testing.T) {
		source := &stubSource{report: stubReport(nil)}
		notifier := &recorderNotifier{}
		p, teardown := newTestPipeline(t, source, notifier)
		defer teardown()

		result, err := p.Run(context.Background(), tradeDate)
		testutil.AssertNoError(t, err)

		if result.RowsFetched != 0 || result.RecordsPersisted != 0 {
			t.Errorf("unexpected result: %+v", result)
		}
		if got := countRows(t, p, &models.DailyRecord{}); got != 0 {
			t.Errorf("expected no persisted records, got %d", got)
		}
		if len(notifier.messages) != 0 {
			t.Errorf("expected no notifications, got %v", notifier.messages)
		}
	})

	t.Run("fetch_failure_notifies_failure", func(t *testing.T) {
		source := &stubSource{err: apperrors.WithMessage(apperrors.ErrSourceUnavailable, "Exchange endpoint returned status 503")}
		notifier := &recorderNotifier{}
		p, teardown := newTestPipeline(t, source, notifier)
		defer teardown()

		_, err := p.Run(context.Background(), tradeDate)
		testutil.AssertAppError(t, err, "SOURCE_UNAVAILABLE")

		if got := countRows(t, p, &models.DailyRecord{}); got != 0 {
			t.Errorf("expected no persisted records, got %d", got)
		}
		if len(notifier.messages) != 1 {
			t.Fatalf("expected exactly 1 notification, got %d", len(notifier.messages))
		}
		if !strings.HasPrefix(notifier.messages[0], "[TWSE] 2026-08-31 error:") {
			t.Errorf("unexpected notification: %q", notifier.messages[0])
		}
	})

	t.Run("normalize_failure_notifies_failure", func(t *testing.T) {
		report := stubReport([][]string{stubRow("2330", "台積電")})
		report.Fields = []string{"證券代號"}
		source := &stubSource{report: report}
		notifier := &recorderNotifier{}
		p, teardown := newTestPipeline(t, source, notifier)
		defer teardown()

		_, err := p.Run(context.Background(), tradeDate)
		testutil.AssertAppError(t, err, "SCHEMA_MISMATCH")

		if len(notifier.messages) != 1 {
			t.Fatalf("expected exactly 1 notification, got %d", len(notifier.messages))
		}
	})

	t.Run("rerun_same_date_fails_and_changes_nothing", func(t *testing.T) {
		source := &stubSource{report: stubReport([][]string{
			stubRow("2330", "台積電"),
			stubRow("2317", "鴻海"),
		})}
		notifier := &recorderNotifier{}
		p, teardown := newTestPipeline(t, source, notifier)
		defer teardown()

		_, err := p.Run(context.Background(), tradeDate)
		testutil.AssertNoError(t, err)

		result, err := p.Run(context.Background(), tradeDate)
		testutil.AssertAppError(t, err, "DUPLICATE_RECORD")
		if result != nil {
			t.Errorf("expected nil result on failed run, got %+v", result)
		}

		if got := countRows(t, p, &models.DailyRecord{}); got != 2 {
			t.Errorf("expected record count unchanged at 2, got %d", got)
		}
		if len(notifier.messages) != 2 {
			t.Fatalf("expected 2 notifications across both runs, got %d", len(notifier.messages))
		}
		if !strings.Contains(notifier.messages[1], "error:") {
			t.Errorf("expected second notification to report failure, got %q", notifier.messages[1])
		}
	})

	t.Run("mid_batch_failure_rolls_back_everything", func(t *testing.T) {
		// The duplicate row sits after a valid one, so the first insert
		// succeeds inside the transaction and must be rolled back.
		source := &stubSource{report: stubReport([][]string{
			stubRow("2330", "台積電"),
			stubRow("2330", "台積電"),
		})}
		notifier := &recorderNotifier{}
		p, teardown := newTestPipeline(t, source, notifier)
		defer teardown()

		_, err := p.Run(context.Background(), tradeDate)
		testutil.AssertAppError(t, err, "DUPLICATE_RECORD")

		if got := countRows(t, p, &models.DailyRecord{}); got != 0 {
			t.Errorf("expected full rollback, got %d records", got)
		}
		if got := countRows(t, p, &models.Security{}); got != 0 {
			t.Errorf("expected security insert rolled back, got %d", got)
		}
	})

	t.Run("existing_securities_not_recreated", func(t *testing.T) {
		source := &stubSource{report: stubReport([][]string{stubRow("2330", "台積電")})}
		notifier := &recorderNotifier{}
		p, teardown := newTestPipeline(t, source, notifier)
		defer teardown()

		_, err := p.Run(context.Background(), tradeDate)
		testutil.AssertNoError(t, err)

		result, err := p.Run(context.Background(), tradeDate.AddDate(0, 0, 1))
		testutil.AssertNoError(t, err)

		if result.SecuritiesCreated != 0 {
			t.Errorf("expected 0 securities created on second run, got %d", result.SecuritiesCreated)
		}
		if got := countRows(t, p, &models.Security{}); got != 1 {
			t.Errorf("expected 1 security, got %d", got)
		}
	})

	t.Run("notifier_failure_does_not_fail_run", func(t *testing.T) {
		source := &stubSource{report: stubReport([][]string{stubRow("2330", "台積電")})}
		notifier := &recorderNotifier{err: errors.New("channel down")}
		p, teardown := newTestPipeline(t, source, notifier)
		defer teardown()

		result, err := p.Run(context.Background(), tradeDate)
		testutil.AssertNoError(t, err)

		if result.RecordsPersisted != 1 {
			t.Errorf("expected 1 persisted record, got %d", result.RecordsPersisted)
		}
	})

	t.Run("failure_notification_carries_cause", func(t *testing.T) {
		cause := fmt.Errorf("connect: connection refused")
		source := &stubSource{err: apperrors.Wrap(apperrors.ErrSourceUnavailable, cause)}
		notifier := &recorderNotifier{}
		p, teardown := newTestPipeline(t, source, notifier)
		defer teardown()

		_, err := p.Run(context.Background(), tradeDate)
		testutil.AssertAppError(t, err, "SOURCE_UNAVAILABLE")

		if len(notifier.messages) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(notifier.messages))
		}
		if !strings.Contains(notifier.messages[0], "2026-08-31") {
			t.Errorf("expected notification to carry the trade date, got %q", notifier.messages[0])
		}
	})
}
