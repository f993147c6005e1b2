// Package prefs stores user preferences in a TOML file.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"mmex/internal/core"
)

type Prefs struct {
	UserName   string `toml:"user_name"`
	DateFormat string `toml:"date_format"`

	OnlyOpenAccounts     bool `toml:"only_open_accounts"`
	OnlyFavoriteAccounts bool `toml:"only_favorite_accounts"`

	DefaultReportPeriod core.Period `toml:"default_report_period"`
	LastDatabase        string      `toml:"last_database"`
}

func Defaults() Prefs {
	return Prefs{
		DateFormat:          core.DefaultDateFormat,
		DefaultReportPeriod: core.PeriodCurrentMonth,
	}
}

// Keys lists the names accepted by Set, in display order.
var Keys = []string{
	"user_name",
	"date_format",
	"only_open_accounts",
	"only_favorite_accounts",
	"default_report_period",
	"last_database",
}

// Load reads path. A missing file yields the defaults; unset keys keep
// their default value.
func Load(path string) (Prefs, error) {
	p := Defaults()
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return Defaults(), fmt.Errorf("read preferences %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		slog.Warn("Ignoring unknown preference keys", "path", path, "keys", fmt.Sprint(undecoded))
	}
	if err := p.Validate(); err != nil {
		return Defaults(), fmt.Errorf("preferences %s: %w", path, err)
	}
	return p, nil
}

// Save writes p to path through a temporary file so readers never see a
// partial file.
func Save(path string, p Prefs) error {
	if err := p.Validate(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create preferences directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("create temp preferences: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(p); err != nil {
		tmp.Close()
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}

func (p Prefs) Validate() error {
	if strings.TrimSpace(p.DateFormat) == "" {
		return fmt.Errorf("date format cannot be empty")
	}
	return validDefaultPeriod(p.DefaultReportPeriod)
}

// A custom range needs explicit dates, so it cannot be a default.
func validDefaultPeriod(period core.Period) error {
	parsed, err := core.ParsePeriod(string(period))
	if err != nil {
		return fmt.Errorf("default report period: %w", err)
	}
	if parsed == core.PeriodCustom {
		return fmt.Errorf("default report period: %w: custom needs explicit dates", core.ErrInvalidPeriod)
	}
	return nil
}

// Set changes the preference named key, parsing value for its type.
func (p *Prefs) Set(key, value string) error {
	switch key {
	case "user_name":
		p.UserName = value
	case "date_format":
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("date format cannot be empty")
		}
		p.DateFormat = value
	case "only_open_accounts", "only_favorite_accounts":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false, got %q", key, value)
		}
		if key == "only_open_accounts" {
			p.OnlyOpenAccounts = b
		} else {
			p.OnlyFavoriteAccounts = b
		}
	case "default_report_period":
		period, err := core.ParsePeriod(value)
		if err != nil {
			return err
		}
		if err := validDefaultPeriod(period); err != nil {
			return err
		}
		p.DefaultReportPeriod = period
	case "last_database":
		p.LastDatabase = value
	default:
		return fmt.Errorf("unknown preference %q (known: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// Get renders the preference named key.
func (p Prefs) Get(key string) (string, error) {
	switch key {
	case "user_name":
		return p.UserName, nil
	case "date_format":
		return p.DateFormat, nil
	case "only_open_accounts":
		return strconv.FormatBool(p.OnlyOpenAccounts), nil
	case "only_favorite_accounts":
		return strconv.FormatBool(p.OnlyFavoriteAccounts), nil
	case "default_report_period":
		return string(p.DefaultReportPeriod), nil
	case "last_database":
		return p.LastDatabase, nil
	}
	return "", fmt.Errorf("unknown preference %q", key)
}

// FormatDate renders t with the preferred MMEX date pattern.
func (p Prefs) FormatDate(t time.Time) string {
	return t.Format(core.GoLayout(p.DateFormat))
}
