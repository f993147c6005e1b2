package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmex/internal/core"
)

var generated = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

type fakeWriter struct {
	cleared  []string
	updated  map[string][][]any
	clearErr error
}

func (w *fakeWriter) Clear(_ context.Context, rng string) error {
	w.cleared = append(w.cleared, rng)
	return w.clearErr
}

func (w *fakeWriter) Update(_ context.Context, rng string, values [][]any) error {
	if w.updated == nil {
		w.updated = map[string][][]any{}
	}
	w.updated[rng] = values
	return nil
}

func TestReportRows(t *testing.T) {
	r := core.Report{
		Kind: "payees",
		From: "2024-03-01",
		To:   "2024-03-31",
		Rows: []core.ReportRow{
			{Name: "Grocer", Withdrawals: core.MustMoney("60"), Total: core.MustMoney("-60"), Count: 2},
			{Name: "Telecom", Withdrawals: core.MustMoney("30"), Deposits: core.MustMoney("5"), Total: core.MustMoney("-25"), Count: 2},
		},
		Total: core.MustMoney("-85"),
	}

	rows := ReportRows(r, generated)
	require.Len(t, rows, 8)
	assert.Equal(t, []any{"Period", "2024-03-01 .. 2024-03-31"}, rows[1])
	assert.Equal(t, []any{"Generated", "2024-03-15T10:00:00Z"}, rows[2])
	assert.Equal(t, []any{"Name", "Withdrawals", "Deposits", "Total", "Count"}, rows[4])
	assert.Equal(t, []any{"Telecom", 30.0, 5.0, -25.0, 2}, rows[6])
	assert.Equal(t, []any{"Total", 90.0, 5.0, -85.0, 4}, rows[7])
}

func TestMonthRows(t *testing.T) {
	months := []core.MonthTotals{
		{Year: 2024, Month: time.February, Expenses: core.MustMoney("40"), Difference: core.MustMoney("-40")},
		{Year: 2024, Month: time.March, Income: core.MustMoney("5"), Expenses: core.MustMoney("90"), Difference: core.MustMoney("-85")},
	}

	rows := MonthRows(core.DateRange{}, months, generated)
	assert.Equal(t, []any{"Period", "all time"}, rows[1])
	assert.Equal(t, []any{"2024-02", 0.0, 40.0, -40.0}, rows[5])
	assert.Equal(t, []any{"Total", 5.0, 130.0, -125.0}, rows[len(rows)-1])
}

func TestSheetRange(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Report", "'Report'"},
		{"Bob's report", "'Bob''s report'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sheetRange(tt.in))
	}
}

func TestExporter(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the tab", func(t *testing.T) {
		w := &fakeWriter{}
		e := NewExporter(w, "")
		e.now = func() time.Time { return generated }

		require.NoError(t, e.ExportReport(ctx, core.Report{Kind: "categories"}))
		assert.Equal(t, []string{"'Report'"}, w.cleared)
		require.Contains(t, w.updated, "'Report'!A1")
		assert.Equal(t, []any{"Report", "categories"}, w.updated["'Report'!A1"][0])
	})

	t.Run("clear failure aborts", func(t *testing.T) {
		w := &fakeWriter{clearErr: errors.New("quota exceeded")}
		err := NewExporter(w, "Monthly").ExportMonths(ctx, core.YearRange(2024), nil)
		assert.ErrorContains(t, err, "quota exceeded")
		assert.Empty(t, w.updated)
	})
}

func TestNew_RequiresConfiguration(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.ErrorContains(t, err, "spreadsheet id")

	_, err = New(context.Background(), Options{SpreadsheetID: "abc"})
	assert.ErrorContains(t, err, "credentials")
}
