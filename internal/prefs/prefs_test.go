package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmex/internal/core"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), p)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.toml")
	want := Prefs{
		UserName:             "Ada",
		DateFormat:           "%d/%m/%Y",
		OnlyOpenAccounts:     true,
		OnlyFavoriteAccounts: true,
		DefaultReportPeriod:  core.PeriodLast30Days,
		LastDatabase:         "/data/mmex.db",
	}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	require.NoError(t, os.WriteFile(path, []byte("user_name = \"Grace\"\nunknown_key = 1\n"), 0600))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Grace", p.UserName)
	assert.Equal(t, core.DefaultDateFormat, p.DateFormat)
	assert.Equal(t, core.PeriodCurrentMonth, p.DefaultReportPeriod)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"syntax":        "user_name = ",
		"wrong type":    "only_open_accounts = \"yes\"",
		"custom period": "default_report_period = \"custom\"",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".toml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSetGet(t *testing.T) {
	p := Defaults()

	require.NoError(t, p.Set("only_favorite_accounts", "true"))
	require.NoError(t, p.Set("default_report_period", "last-year"))
	require.NoError(t, p.Set("user_name", "Ada"))

	v, err := p.Get("only_favorite_accounts")
	require.NoError(t, err)
	assert.Equal(t, "true", v)
	assert.Equal(t, core.PeriodLastYear, p.DefaultReportPeriod)

	assert.Error(t, p.Set("only_open_accounts", "perhaps"))
	assert.Error(t, p.Set("default_report_period", "custom"))
	assert.Error(t, p.Set("date_format", " "))
	assert.Error(t, p.Set("colour", "blue"))
	_, err = p.Get("colour")
	assert.Error(t, err)

	for _, k := range Keys {
		_, err := p.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestFormatDate(t *testing.T) {
	p := Defaults()
	p.DateFormat = "%d/%m/%Y"
	assert.Equal(t, "29/02/2024", p.FormatDate(core.NewDate(2024, 2, 29)))
}
