package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"mmex/internal/amqp"
	"mmex/internal/cli"
	"mmex/internal/export/sheets"
	applog "mmex/internal/log"
	"mmex/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentSheets)

	logger.Info("Starting sheets-worker")

	if !cfg.SheetsEnabled() {
		logger.Error("Google Sheets export is not configured, set GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	// The worker only consumes, on a queue of its own.
	brokerURL := cfg.AMQPURL
	cfg.AMQPURL = ""

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer app.Close()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	client, err := sheets.New(ctx, sheets.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	w := worker.NewExportWorker(app.Reports, sheets.NewExporter(client, cfg.GoogleSheetName),
		cfg.GoogleSheetReport, string(app.Prefs.DefaultReportPeriod))

	if brokerURL == "" {
		logger.Info("AMQP disabled, exporting once")
		if err := w.Export(ctx); err != nil {
			logger.Error("Export failed", applog.FieldError, err)
			os.Exit(1)
		}
		return
	}

	consumer, err := amqp.NewClient(brokerURL, cfg.AMQPExchange, cfg.AMQPQueue+"_sheets")
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer consumer.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, cfg.GoogleExportInterval)
	})
	g.Go(func() error {
		return consumer.ConsumeChanges(gctx, w.HandleChangeMessage)
	})

	logger.Info("Sheets export configured",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName,
		"report", cfg.GoogleSheetReport,
		"interval", cfg.GoogleExportInterval)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Sheets worker failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Sheets-worker shutdown complete")
}
