package main

import (
	"os"
	"time"

	"mmex/internal/cli"
	applog "mmex/internal/log"
	"mmex/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	logger.Info("Starting recurring-worker")

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer app.Close()

	if app.Events == nil {
		logger.Info("AMQP disabled, entered transactions will not be announced")
	}

	scheduler := services.NewScheduler(app.Processor, services.SchedulerConfig{Interval: cfg.RecurringInterval})

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"catch_up", cfg.RecurringCatchUp,
		"sqlite_db", cfg.SQLiteDBPath)

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", applog.FieldError, err)
		os.Exit(1)
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := cli.ShutdownContext(30 * time.Second)
	defer shutdownCancel()
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("Scheduler did not stop cleanly", applog.FieldError, err)
	}
	logger.Info("Recurring-worker shutdown complete")
}
