package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mmex/internal/cli"
	"mmex/internal/prefs"
	"mmex/internal/services"
	"mmex/internal/storage"
)

func summaryCmd() *cobra.Command {
	var open, favorites bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Account balances in the base currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			filter := services.SummaryFilter{
				OnlyOpen:      app.Prefs.OnlyOpenAccounts,
				OnlyFavorites: app.Prefs.OnlyFavoriteAccounts,
			}
			if cmd.Flags().Changed("open") {
				filter.OnlyOpen = open
			}
			if cmd.Flags().Changed("favorites") {
				filter.OnlyFavorites = favorites
			}
			sum, err := app.Summary.Summary(cmd.Context(), filter)
			if err != nil {
				return err
			}
			t := cli.NewTable(cmd.OutOrStdout(), "Account", "Status", "Balance", "Base")
			for _, a := range sum.Accounts {
				t.Row(a.Account.Name, a.Account.Status, cli.FormatMoney(a.Balance), cli.FormatMoney(a.BaseBalance))
			}
			t.Row("Total", "", "", cli.FormatMoney(sum.Total))
			return t.Flush()
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "only open accounts")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "only favorite accounts")
	return cmd
}

func prefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change preferences",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print every preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p, err := prefs.Load(cfg.PrefsPath)
			if err != nil {
				return err
			}
			t := cli.NewTable(cmd.OutOrStdout(), "Key", "Value")
			for _, key := range prefs.Keys {
				v, _ := p.Get(key)
				t.Row(key, v)
			}
			return t.Flush()
		},
	}, &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p, err := prefs.Load(cfg.PrefsPath)
			if err != nil {
				return err
			}
			if err := p.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := prefs.Save(cfg.PrefsPath, p); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(args[0]+" = "+args[1]))
			return nil
		},
	})
	return cmd
}

// settingsCmd edits the settings stored in the database itself, as opposed
// to prefs which live in a per-user file.
func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the settings stored in the database",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the database settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			s, err := app.Catalog.Settings(cmd.Context())
			if err != nil {
				return err
			}
			t := cli.NewTable(cmd.OutOrStdout(), "Key", "Value")
			t.Row("username", s.UserName)
			t.Row("date_format", s.DateFormat)
			t.Row("base_currency_id", s.BaseCurrencyID)
			return t.Flush()
		},
	}, &cobra.Command{
		Use:       "set KEY VALUE",
		Short:     "Change one database setting",
		Args:      cobra.ExactArgs(2),
		ValidArgs: services.SettingKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			if err := app.Catalog.SetSetting(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(args[0]+" = "+args[1]))
			return nil
		},
	})
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// Opening the repository applies pending migrations.
			repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			if err := repo.Close(); err != nil {
				return err
			}
			dsn := storage.DSN(cfg.SQLiteDBPath)
			version, dirty, err := storage.MigrationVersion(dsn)
			if err != nil {
				return err
			}
			msg := fmt.Sprintf("Schema at version %d", version)
			if dirty {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning(msg+" (dirty)"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(msg))
			return nil
		},
	}
}
