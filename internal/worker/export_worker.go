// Package worker keeps a Google Sheets copy of one report in step with the
// database.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"mmex/internal/amqp"
	"mmex/internal/core"
	"mmex/internal/services"
)

// Reports is the subset of the report service the worker renders.
type Reports interface {
	ResolveRange(period, from, to string) (core.DateRange, error)
	ByPayee(ctx context.Context, rng core.DateRange) (core.Report, error)
	ByCategory(ctx context.Context, rng core.DateRange) (core.Report, error)
	IncomeExpense(ctx context.Context, rng core.DateRange) ([]core.MonthTotals, error)
	HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// Exporter writes a rendered report to the spreadsheet.
type Exporter interface {
	ExportReport(ctx context.Context, r core.Report) error
	ExportMonths(ctx context.Context, rng core.DateRange, months []core.MonthTotals) error
}

// ExportWorker re-exports its report after data changes. Change messages
// only mark the sheet stale; the export itself runs on the next tick so a
// burst of changes costs one write.
type ExportWorker struct {
	reports  Reports
	exporter Exporter
	kind     string
	period   string

	stale atomic.Bool
}

func NewExportWorker(reports Reports, exporter Exporter, kind, period string) *ExportWorker {
	return &ExportWorker{reports: reports, exporter: exporter, kind: kind, period: period}
}

// HandleChangeMessage is the AMQP consumer callback.
func (w *ExportWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ChangeMessage) error {
	if !msg.AffectsReports() {
		return nil
	}
	if err := w.reports.HandleChange(ctx, msg); err != nil {
		return err
	}
	if !w.stale.Swap(true) {
		slog.DebugContext(ctx, "Sheet marked stale",
			"entity", msg.Entity,
			"action", msg.Action,
			"id", msg.ID)
	}
	return nil
}

// Stale reports whether a change arrived since the last export.
func (w *ExportWorker) Stale() bool { return w.stale.Load() }

// Export renders the report over the configured period and writes it.
func (w *ExportWorker) Export(ctx context.Context) error {
	rng, err := w.reports.ResolveRange(w.period, "", "")
	if err != nil {
		return fmt.Errorf("resolve export range: %w", err)
	}

	switch w.kind {
	case services.ReportIncomeExpense:
		months, err := w.reports.IncomeExpense(ctx, rng)
		if err != nil {
			return err
		}
		err = w.exporter.ExportMonths(ctx, rng, months)
		if err != nil {
			return err
		}
	case services.ReportPayees, services.ReportCategories:
		var report core.Report
		if w.kind == services.ReportPayees {
			report, err = w.reports.ByPayee(ctx, rng)
		} else {
			report, err = w.reports.ByCategory(ctx, rng)
		}
		if err != nil {
			return err
		}
		if err := w.exporter.ExportReport(ctx, report); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown report %q", w.kind)
	}

	slog.InfoContext(ctx, "Exported report", "report", w.kind, "range", rng.String())
	return nil
}

// ExportIfStale exports only when a change is pending. A failed export
// leaves the sheet marked stale for the next attempt.
func (w *ExportWorker) ExportIfStale(ctx context.Context) error {
	if !w.stale.Swap(false) {
		return nil
	}
	if err := w.Export(ctx); err != nil {
		w.stale.Store(true)
		return err
	}
	return nil
}

// Run exports once at startup, catching up on changes missed while the
// worker was down, then on every interval while changes are pending.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.Export(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup export failed", "error", err)
		w.stale.Store(true)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ExportIfStale(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic export failed", "error", err)
			}
		}
	}
}
