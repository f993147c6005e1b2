package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmex/internal/amqp"
	"mmex/internal/config"
	"mmex/internal/core"
	applog "mmex/internal/log"
)

func TestTableAlignsColumns(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "ID", "Name", "Amount")
	tbl.Row(1, "Rent", "750.00")
	tbl.Row(12, "Phone")
	require.NoError(t, tbl.Flush())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Name")
	assert.Contains(t, lines[1], "────")
	assert.Contains(t, lines[2], "Rent")
	assert.Contains(t, lines[3], "Phone")
}

func TestFormatDue(t *testing.T) {
	tests := []struct {
		info core.DueInfo
		want string
	}{
		{core.DueInfo{Status: core.Overdue, Days: 2}, "2 days overdue!"},
		{core.DueInfo{Status: core.DueToday}, "due today"},
		{core.DueInfo{Status: core.Upcoming, Days: 1}, "1 day remaining"},
	}
	for _, tt := range tests {
		assert.Contains(t, FormatDue(tt.info), tt.want)
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Contains(t, FormatMoney(core.MustMoney("-12.5")), "-12.50")
	assert.Equal(t, "3.00", FormatMoney(core.MustMoney("3")))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Load()
	dir := t.TempDir()
	cfg.SQLiteDBPath = filepath.Join(dir, "mmex.db")
	cfg.PrefsPath = filepath.Join(dir, "prefs.toml")
	cfg.AMQPURL = ""
	return cfg
}

func TestNewAppWiresServices(t *testing.T) {
	cfg := testConfig(t)
	app, err := NewApp(cfg, applog.New(applog.DefaultConfig()))
	require.NoError(t, err)

	assert.Nil(t, app.Events)
	assert.Equal(t, core.PeriodCurrentMonth, app.Prefs.DefaultReportPeriod)
	for _, svc := range []any{app.Recurring, app.Processor, app.Transactions, app.Budgets, app.Reports, app.Summary, app.Catalog} {
		assert.NotNil(t, svc)
	}
	require.NoError(t, app.Repo.Ping(t.Context()))
	require.NoError(t, app.Close())
}

func TestNewAppRejectsBadPreferences(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, writeFile(cfg.PrefsPath, "default_report_period = \"fortnight\"\n"))

	_, err := NewApp(cfg, applog.New(applog.DefaultConfig()))
	assert.Error(t, err)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func TestHandleRemoteChangePurgesReports(t *testing.T) {
	app, err := NewApp(testConfig(t), applog.New(applog.DefaultConfig()))
	require.NoError(t, err)
	defer app.Close()

	ctx := t.Context()
	rng, err := app.Reports.ResolveRange("all_time", "", "")
	require.NoError(t, err)
	_, err = app.Reports.ByPayee(ctx, rng)
	require.NoError(t, err)

	msg := amqp.NewChangeMessage(amqp.EntityTransaction, amqp.ActionCreated, 1)
	require.NoError(t, app.HandleRemoteChange(ctx, msg))
}
