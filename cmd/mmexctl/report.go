package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mmex/internal/cli"
	"mmex/internal/config"
	"mmex/internal/core"
	"mmex/internal/export/sheets"
	"mmex/internal/services"
)

type reportFlags struct {
	period, from, to string
	export           bool
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.period, "period", "", "all_time, current_month, last_month, last_30_days, current_year, last_year or custom")
	cmd.Flags().StringVar(&f.from, "from", "", "start date for a custom period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "end date for a custom period (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&f.export, "export", false, "also write the report to the configured Google Sheet")
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summaries of income and expenses",
	}
	cmd.AddCommand(
		groupedReportCmd(services.ReportPayees, "Totals per payee"),
		groupedReportCmd(services.ReportCategories, "Totals per category"),
		incomeExpenseCmd(),
	)
	return cmd
}

func groupedReportCmd(kind, short string) *cobra.Command {
	var f reportFlags
	cmd := &cobra.Command{
		Use:   kind,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			rng, err := app.Reports.ResolveRange(f.period, f.from, f.to)
			if err != nil {
				return err
			}
			var report core.Report
			if kind == services.ReportPayees {
				report, err = app.Reports.ByPayee(cmd.Context(), rng)
			} else {
				report, err = app.Reports.ByCategory(cmd.Context(), rng)
			}
			if err != nil {
				return err
			}
			if err := printReport(cmd.OutOrStdout(), report, rng); err != nil {
				return err
			}
			if !f.export {
				return nil
			}
			exp, err := newExporter(cmd.Context(), app.Config)
			if err != nil {
				return err
			}
			if err := exp.ExportReport(cmd.Context(), report); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Exported to "+app.Config.GoogleSheetName))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func printReport(out io.Writer, r core.Report, rng core.DateRange) error {
	fmt.Fprintf(out, "%s %s\n", cli.FormatTitle(r.Kind), cli.SubtleStyle.Render(rng.String()))
	t := cli.NewTable(out, "Name", "Withdrawals", "Deposits", "Total", "Count")
	for _, row := range r.Rows {
		t.Row(row.Name, row.Withdrawals, row.Deposits, cli.FormatMoney(row.Total), row.Count)
	}
	t.Row("Total", "", "", cli.FormatMoney(r.Total), "")
	return t.Flush()
}

func incomeExpenseCmd() *cobra.Command {
	var f reportFlags
	cmd := &cobra.Command{
		Use:   services.ReportIncomeExpense,
		Short: "Income against expenses per month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, done, err := openApp()
			if err != nil {
				return err
			}
			defer done()

			rng, err := app.Reports.ResolveRange(f.period, f.from, f.to)
			if err != nil {
				return err
			}
			months, err := app.Reports.IncomeExpense(cmd.Context(), rng)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", cli.FormatTitle(services.ReportIncomeExpense), cli.SubtleStyle.Render(rng.String()))
			t := cli.NewTable(out, "Month", "Income", "Expenses", "Difference")
			for _, m := range months {
				t.Row(fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)), m.Income, m.Expenses, cli.FormatMoney(m.Difference))
			}
			if err := t.Flush(); err != nil {
				return err
			}
			if !f.export {
				return nil
			}
			exp, err := newExporter(cmd.Context(), app.Config)
			if err != nil {
				return err
			}
			return exp.ExportMonths(cmd.Context(), rng, months)
		},
	}
	f.register(cmd)
	return cmd
}

func newExporter(ctx context.Context, cfg *config.Config) (*sheets.Exporter, error) {
	if !cfg.SheetsEnabled() {
		return nil, fmt.Errorf("sheets export is not configured: set GOOGLE_SPREADSHEET_ID")
	}
	client, err := sheets.New(ctx, sheets.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	return sheets.NewExporter(client, cfg.GoogleSheetName), nil
}
