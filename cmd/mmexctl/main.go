package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mmex/internal/cli"
	"mmex/internal/config"
	applog "mmex/internal/log"
	"mmex/internal/prefs"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mmexctl",
		Short:         "Manage an MMEX database from the command line",
		Long:          "mmexctl works directly on an MMEX SQLite database: recurring transactions, budgets, reports and preferences.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	viper.SetEnvPrefix("MMEX")
	viper.AutomaticEnv()

	root.PersistentFlags().String("db", "", "database path (default from SQLITE_DB_PATH)")
	root.PersistentFlags().String("prefs", "", "preferences file (default from PREFS_PATH)")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("db", root.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("prefs", root.PersistentFlags().Lookup("prefs"))
	_ = viper.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		nextOccurrenceCmd(),
		recurringCmd(),
		budgetCmd(),
		reportCmd(),
		summaryCmd(),
		prefsCmd(),
		settingsCmd(),
		migrateCmd(),
	)
	return root
}

func main() {
	cli.LoadEnvFile()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(1)
	}
}

// loadConfig applies flag and MMEX_* overrides on top of the environment
// configuration.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if v := viper.GetString("db"); v != "" {
		cfg.SQLiteDBPath = v
	}
	if v := viper.GetString("prefs"); v != "" {
		cfg.PrefsPath = v
	}
	if v := viper.GetString("log_level"); v != "" {
		cfg.LogLevel = v
	}
	if cfg.SQLiteDBPath == "" {
		return nil, fmt.Errorf("no database: pass --db or set MMEX_DB")
	}
	return cfg, nil
}

// openApp opens the database for one command and records it as the last
// database used.
func openApp() (*cli.App, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if app.Prefs.LastDatabase != cfg.SQLiteDBPath {
		app.Prefs.LastDatabase = cfg.SQLiteDBPath
		if err := prefs.Save(cfg.PrefsPath, app.Prefs); err != nil {
			logger.Warn("Could not record last database", applog.FieldError, err)
		}
	}
	closeFn := func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to close database", applog.FieldError, err)
		}
	}
	return app, closeFn, nil
}
