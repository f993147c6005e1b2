package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmex/internal/amqp"
	"mmex/internal/core"
	"mmex/internal/services"
)

type fakeReports struct {
	period  string
	purged  int
	payees  int
	cats    int
	months  int
	failing error
}

func (f *fakeReports) ResolveRange(period, _, _ string) (core.DateRange, error) {
	f.period = period
	return core.DateRange{}, f.failing
}

func (f *fakeReports) ByPayee(context.Context, core.DateRange) (core.Report, error) {
	f.payees++
	return core.Report{Kind: services.ReportPayees}, nil
}

func (f *fakeReports) ByCategory(context.Context, core.DateRange) (core.Report, error) {
	f.cats++
	return core.Report{Kind: services.ReportCategories}, nil
}

func (f *fakeReports) IncomeExpense(context.Context, core.DateRange) ([]core.MonthTotals, error) {
	f.months++
	return nil, nil
}

func (f *fakeReports) HandleChange(context.Context, *amqp.ChangeMessage) error {
	f.purged++
	return nil
}

type fakeExporter struct {
	reports []string
	months  int
	err     error
}

func (f *fakeExporter) ExportReport(_ context.Context, r core.Report) error {
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, r.Kind)
	return nil
}

func (f *fakeExporter) ExportMonths(context.Context, core.DateRange, []core.MonthTotals) error {
	if f.err != nil {
		return f.err
	}
	f.months++
	return nil
}

func TestExportWorker_Export(t *testing.T) {
	tests := []struct {
		kind        string
		wantReports []string
		wantMonths  int
		wantErr     bool
	}{
		{kind: services.ReportPayees, wantReports: []string{"payees"}},
		{kind: services.ReportCategories, wantReports: []string{"categories"}},
		{kind: services.ReportIncomeExpense, wantMonths: 1},
		{kind: "vendors", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			reports, exporter := &fakeReports{}, &fakeExporter{}
			w := NewExportWorker(reports, exporter, tt.kind, "current_year")

			err := w.Export(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "current_year", reports.period)
			assert.Equal(t, tt.wantReports, exporter.reports)
			assert.Equal(t, tt.wantMonths, exporter.months)
		})
	}
}

func TestExportWorker_ChangesMarkStale(t *testing.T) {
	ctx := context.Background()
	reports, exporter := &fakeReports{}, &fakeExporter{}
	w := NewExportWorker(reports, exporter, services.ReportCategories, "all_time")

	require.NoError(t, w.ExportIfStale(ctx))
	assert.Empty(t, exporter.reports, "nothing changed yet")

	require.NoError(t, w.HandleChangeMessage(ctx, amqp.NewChangeMessage(amqp.EntityBudget, amqp.ActionCreated, 1)))
	assert.False(t, w.Stale(), "budget changes do not affect reports")

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, w.HandleChangeMessage(ctx, amqp.NewChangeMessage(amqp.EntityTransaction, amqp.ActionCreated, i)))
	}
	assert.True(t, w.Stale())
	assert.Equal(t, 3, reports.purged)

	require.NoError(t, w.ExportIfStale(ctx))
	assert.Len(t, exporter.reports, 1, "a burst of changes is exported once")
	assert.False(t, w.Stale())
}

func TestExportWorker_FailedExportStaysStale(t *testing.T) {
	ctx := context.Background()
	exporter := &fakeExporter{err: errors.New("quota exceeded")}
	w := NewExportWorker(&fakeReports{}, exporter, services.ReportPayees, "all_time")

	require.NoError(t, w.HandleChangeMessage(ctx, amqp.NewChangeMessage(amqp.EntityTransaction, amqp.ActionDeleted, 7)))
	assert.Error(t, w.ExportIfStale(ctx))
	assert.True(t, w.Stale())

	exporter.err = nil
	require.NoError(t, w.ExportIfStale(ctx))
	assert.False(t, w.Stale())
}

func TestExportWorker_RunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exporter := &fakeExporter{}
	w := NewExportWorker(&fakeReports{}, exporter, services.ReportPayees, "all_time")

	cancel()
	err := w.Run(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"payees"}, exporter.reports, "startup export runs before the loop")
}
