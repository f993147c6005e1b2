// Package cli holds the start-up wiring shared by cmd/mmex,
// cmd/recurring-worker and cmd/mmexctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mmex/internal/amqp"
	"mmex/internal/cache"
	"mmex/internal/config"
	"mmex/internal/core"
	applog "mmex/internal/log"
	"mmex/internal/metrics"
	"mmex/internal/prefs"
	"mmex/internal/services"
	"mmex/internal/storage"
)

// SetupLogger builds the process logger from the configured level and
// format and installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	lc := applog.DefaultConfig()
	if level, err := applog.ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = level
	}
	lc.Format = cfg.LogFormat
	lc.Component = component
	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads a .env file for local development. A missing file is
// not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// exits the process when it is invalid.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// App is the set of services built on one database.
type App struct {
	Config *config.Config
	Prefs  prefs.Prefs
	Repo   *storage.SQLiteRepository
	Events *amqp.Client
	Caches *cache.Manager

	Notifier     *services.Notifier
	Recurring    *services.RecurringService
	Processor    *services.RecurringProcessor
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Reports      *services.ReportService
	Summary      *services.SummaryService
	Catalog      *services.CatalogService
}

// NewApp opens the database and wires the services. AMQP failures are
// logged and leave events disabled; everything else is fatal to the caller.
func NewApp(cfg *config.Config, logger *applog.Logger) (*App, error) {
	p, err := prefs.Load(cfg.PrefsPath)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.SQLiteDBPath, err)
	}

	app := &App{Config: cfg, Prefs: p, Repo: repo, Caches: cache.NewManager()}

	var publisher services.ChangePublisher
	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, data-changed events disabled", applog.FieldError, err)
		} else {
			app.Events = client
			publisher = client
		}
	}
	app.Notifier = services.NewNotifier(publisher)

	reportCache := cache.NewLRUCache[core.Report](cfg.ReportCacheSize, cfg.ReportCacheTTL)
	monthCache := cache.NewLRUCache[[]core.MonthTotals](cfg.ReportCacheSize, cfg.ReportCacheTTL)
	app.Caches.Register("reports", reportCache)
	app.Caches.Register("months", monthCache)
	app.Caches.StartCleanup(cleanupInterval(cfg.ReportCacheTTL))

	app.Reports = services.NewReportService(repo, services.ReportOptions{
		Reports:       reportCache,
		Months:        monthCache,
		DefaultPeriod: p.DefaultReportPeriod,
	})
	app.Notifier.Subscribe(app.Reports.HandleChange)

	app.Recurring = services.NewRecurringService(repo, app.Notifier, nil)
	app.Processor = services.NewRecurringProcessor(repo, app.Notifier, cfg.RecurringCatchUp)
	app.Transactions = services.NewTransactionService(repo, app.Notifier)
	app.Budgets = services.NewBudgetService(repo, repo, app.Notifier)
	app.Summary = services.NewSummaryService(repo)
	app.Catalog = services.NewCatalogService(repo, app.Notifier)
	return app, nil
}

// HandleRemoteChange applies a change announced by another process, such
// as the recurring worker entering transactions, to the local caches.
func (a *App) HandleRemoteChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	metrics.EventsConsumed.WithLabelValues(string(msg.Entity)).Inc()
	return a.Reports.HandleChange(ctx, msg)
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < time.Minute {
		return time.Minute
	}
	return ttl
}

// Close releases the broker connection, the cache janitor and the database.
func (a *App) Close() error {
	a.Caches.Stop()
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			applog.LogError(context.Background(), "Failed to close AMQP client", err, applog.ComponentAMQP, applog.OpShutdown)
		}
	}
	return a.Repo.Close()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// ShutdownContext bounds the time cleanup may take once ctx is done.
func ShutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
