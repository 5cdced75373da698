package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"marketledger/internal/config"
	"marketledger/internal/database"
	"marketledger/internal/logger"
	"marketledger/internal/notify"
	"marketledger/internal/pipeline"
	"marketledger/internal/services"
	"marketledger/internal/twse"

	"github.com/robfig/cron/v3"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	dateFlag := flag.String("date", "", "trade date to ingest (YYYY-MM-DD, default today)")
	cronFlag := flag.String("cron", "", "stay resident and run on this cron schedule (e.g. \"30 14 * * 1-5\")")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	var notifier pipeline.Notifier
	if cfg.LineNotifyToken != "" {
		notifier = notify.NewLineNotifier(cfg.LineNotifyToken, httpClient)
	} else {
		logger.Get().Warn("LINE_NOTIFY_TOKEN not set, outcome notifications go to the log only")
		notifier = notify.NewLogNotifier()
	}

	p := pipeline.New(
		dbManager.DB(),
		twse.NewClient(cfg.DailyReportURL, httpClient),
		twse.NewNormalizer(twse.DefaultFieldMap()),
		services.NewResolverService(),
		services.NewLedgerService(),
		notifier,
	)

	if *cronFlag != "" {
		return runScheduled(p, *cronFlag)
	}

	tradeDate := time.Now()
	if *dateFlag != "" {
		tradeDate, err = time.Parse("2006-01-02", *dateFlag)
		if err != nil {
			return fmt.Errorf("invalid -date value %q: %w", *dateFlag, err)
		}
	}

	return runOnce(p, tradeDate)
}

// runOnce executes a single ingestion run for the given trade date.
func runOnce(p *pipeline.Pipeline, tradeDate time.Time) error {
	log := logger.Get()

	result, err := p.Run(context.Background(), tradeDate)
	if err != nil {
		return fmt.Errorf("ingestion run failed: %w", err)
	}

	log.Infow("ingestion run completed",
		"trade_date", tradeDate.Format("2006-01-02"),
		"rows_fetched", result.RowsFetched,
		"records_persisted", result.RecordsPersisted,
		"securities_created", result.SecuritiesCreated,
		"duration", result.Duration.String(),
	)
	return nil
}

// runScheduled stays resident and triggers one run per cron firing, using
// the current date at each trigger. Run failures are logged; the scheduler
// keeps going so the next business day gets its attempt.
func runScheduled(p *pipeline.Pipeline, spec string) error {
	log := logger.Get()

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := runOnce(p, time.Now()); err != nil {
			log.Errorw("scheduled ingestion run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}

	log.Infof("Ingestion scheduler started with schedule %q", spec)
	c.Run()
	return nil
}
