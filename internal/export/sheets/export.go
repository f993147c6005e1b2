package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mmex/internal/core"
)

// DefaultSheetName is the tab written when none is configured.
const DefaultSheetName = "Report"

// Exporter replaces a tab's contents with a rendered report.
type Exporter struct {
	writer ValueWriter
	sheet  string
	now    func() time.Time
}

func NewExporter(writer ValueWriter, sheet string) *Exporter {
	if sheet == "" {
		sheet = DefaultSheetName
	}
	return &Exporter{writer: writer, sheet: sheet, now: time.Now}
}

// ExportReport writes a payee or category report.
func (e *Exporter) ExportReport(ctx context.Context, r core.Report) error {
	return e.write(ctx, r.Kind, ReportRows(r, e.now()))
}

// ExportMonths writes an income/expense report.
func (e *Exporter) ExportMonths(ctx context.Context, rng core.DateRange, months []core.MonthTotals) error {
	return e.write(ctx, "income-expense", MonthRows(rng, months, e.now()))
}

func (e *Exporter) write(ctx context.Context, kind string, rows [][]any) error {
	rng := sheetRange(e.sheet)
	if err := e.writer.Clear(ctx, rng); err != nil {
		return fmt.Errorf("export %s: %w", kind, err)
	}
	if err := e.writer.Update(ctx, rng+"!A1", rows); err != nil {
		return fmt.Errorf("export %s: %w", kind, err)
	}
	slog.InfoContext(ctx, "Report exported to Google Sheets",
		"kind", kind,
		"sheet", e.sheet,
		"rows", len(rows))
	return nil
}

func heading(kind, from, to string, generated time.Time) [][]any {
	period := "all time"
	if from != "" {
		period = from + " .. " + to
	}
	return [][]any{
		{"Report", kind},
		{"Period", period},
		{"Generated", generated.Format(time.RFC3339)},
		{},
	}
}

// ReportRows renders a grouped report as sheet rows: a heading block, one
// line per group and a totals line. Amounts are numbers so the sheet can
// sum them.
func ReportRows(r core.Report, generated time.Time) [][]any {
	rows := heading(r.Kind, r.From, r.To, generated)
	rows = append(rows, []any{"Name", "Withdrawals", "Deposits", "Total", "Count"})

	count := 0
	withdrawals, deposits := core.Zero, core.Zero
	for _, row := range r.Rows {
		rows = append(rows, []any{row.Name, row.Withdrawals.Float64(), row.Deposits.Float64(), row.Total.Float64(), row.Count})
		count += row.Count
		withdrawals = withdrawals.Add(row.Withdrawals)
		deposits = deposits.Add(row.Deposits)
	}
	return append(rows, []any{"Total", withdrawals.Float64(), deposits.Float64(), r.Total.Float64(), count})
}

// MonthRows renders income against expenses, one line per month.
func MonthRows(rng core.DateRange, months []core.MonthTotals, generated time.Time) [][]any {
	from, to := "", ""
	if !rng.IsAll() {
		from, to = rng.Bounds()
	}
	rows := heading("income-expense", from, to, generated)
	rows = append(rows, []any{"Month", "Income", "Expenses", "Difference"})

	var income, expenses core.Money
	for _, m := range months {
		rows = append(rows, []any{
			fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)),
			m.Income.Float64(), m.Expenses.Float64(), m.Difference.Float64(),
		})
		income = income.Add(m.Income)
		expenses = expenses.Add(m.Expenses)
	}
	return append(rows, []any{"Total", income.Float64(), expenses.Float64(), income.Sub(expenses).Float64()})
}
