package main

import (
	"context"
	"errors"
	"os"

	"finance/internal/amqp"
	"finance/internal/cache"
	"finance/internal/cli"
	"finance/internal/config"
	applog "finance/internal/log"
	"finance/internal/sheets"
	gsheet "finance/internal/sheets/google"
	mem "finance/internal/sheets/memory"
	"finance/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	logger.Info("Starting finance-worker")

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {
		logger.Info("Shutting down worker...")
	})

	caches := cache.NewManager()

	var ledger sheets.LedgerWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client",
				applog.FieldError, err,
				applog.FieldErrorType, applog.ErrorTypeConfiguration)
			os.Exit(1)
		}
		caches.Register("sheet_rows", client.RowCache())
		ledger = client
		logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		ledger = mem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, using in-memory ledger")
	}

	ledgerWorker := worker.NewLedgerWorker(ledger)
	caches.Register("event_versions", ledgerWorker.VersionCache())

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeNetwork)
		os.Exit(1)
	}
	defer amqpClient.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeTransactionEvents(gctx, ledgerWorker.HandleEvent)
	})
	g.Go(func() error {
		return caches.Run(gctx, cfg.CacheCleanupInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		_ = amqpClient.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
