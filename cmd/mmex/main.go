package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"mmex/internal/cli"
	apphttp "mmex/internal/http"
	applog "mmex/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer app.Close()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Recurring:    app.Recurring,
		Processor:    app.Processor,
		Transactions: app.Transactions,
		Budgets:      app.Budgets,
		Reports:      app.Reports,
		Summary:      app.Summary,
		Catalog:      app.Catalog,
		Prefs:        app.Prefs,
		Ready:        app.Repo.Ping,
	}, apphttp.Options{
		RateLimitRPM:   cfg.RateLimitRPM,
		MetricsEnabled: cfg.MetricsEnabled,
		Logger:         logger.WithComponent(applog.ComponentHTTP),
		TrustedProxies: cfg.TrustedProxies,
	})

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting mmex server",
			"port", cfg.Port,
			"database", cfg.SQLiteDBPath,
			"events", cfg.EventsEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if app.Events != nil {
		g.Go(func() error {
			err := app.Events.ConsumeChanges(gctx, app.HandleRemoteChange)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := cli.ShutdownContext(30 * time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			applog.LogError(shutdownCtx, "Server shutdown error", err, applog.ComponentHTTP, applog.OpShutdown)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
