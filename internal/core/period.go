package core

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage format for every date column.
const DateLayout = "2006-01-02"

// DateOf drops the time of day, returning midnight UTC of t's calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDate builds a UTC date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO yyyy-mm-dd date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected yyyy-mm-dd", s)
	}
	return t, nil
}

// FormatDate renders t as yyyy-mm-dd.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Period names a report date range relative to today.
type Period string

const (
	PeriodAllTime      Period = "all_time"
	PeriodCurrentMonth Period = "current_month"
	PeriodLastMonth    Period = "last_month"
	PeriodLast30Days   Period = "last_30_days"
	PeriodCurrentYear  Period = "current_year"
	PeriodLastYear     Period = "last_year"
	PeriodCustom       Period = "custom"
)

// Periods lists the named periods in menu order.
var Periods = []Period{
	PeriodAllTime,
	PeriodCurrentMonth,
	PeriodLastMonth,
	PeriodLast30Days,
	PeriodCurrentYear,
	PeriodLastYear,
	PeriodCustom,
}

// ParsePeriod accepts a period name, case-insensitively, with either
// underscores or dashes.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Range resolves the period against today. Custom periods carry their own
// bounds and must be built with NewDateRange.
func (p Period) Range(today time.Time) (DateRange, error) {
	today = DateOf(today)
	y, m, _ := today.Date()
	switch p {
	case PeriodAllTime:
		return DateRange{}, nil
	case PeriodCurrentMonth:
		return monthRange(y, m), nil
	case PeriodLastMonth:
		prev := NewDate(y, m-1, 1)
		return monthRange(prev.Year(), prev.Month()), nil
	case PeriodLast30Days:
		return DateRange{From: today.AddDate(0, 0, -30), To: today}, nil
	case PeriodCurrentYear:
		return yearRange(y), nil
	case PeriodLastYear:
		return yearRange(y - 1), nil
	case PeriodCustom:
		return DateRange{}, fmt.Errorf("%w: custom period needs explicit from and to dates", ErrInvalidPeriod)
	}
	return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, string(p))
}

func monthRange(year int, month time.Month) DateRange {
	return DateRange{
		From: NewDate(year, month, 1),
		To:   NewDate(year, month, DaysInMonth(year, month)),
	}
}

func yearRange(year int) DateRange {
	return DateRange{
		From: NewDate(year, time.January, 1),
		To:   NewDate(year, time.December, 31),
	}
}

// DateRange is an inclusive [From, To] filter on transaction dates. The
// zero value matches every date.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange validates a custom range.
func NewDateRange(from, to time.Time) (DateRange, error) {
	from, to = DateOf(from), DateOf(to)
	if from.After(to) {
		return DateRange{}, fmt.Errorf("%w: %s is after %s", ErrInvalidDateRange, FormatDate(from), FormatDate(to))
	}
	return DateRange{From: from, To: to}, nil
}

// MonthRange returns the range covering one calendar month.
func MonthRange(year int, month time.Month) DateRange {
	return monthRange(year, month)
}

// YearRange returns the range covering one calendar year.
func YearRange(year int) DateRange {
	return yearRange(year)
}

// IsAll reports whether the range applies no filter.
func (r DateRange) IsAll() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Contains reports whether t's calendar date falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if r.IsAll() {
		return true
	}
	d := DateOf(t)
	return !d.Before(r.From) && !d.After(r.To)
}

// Bounds returns the formatted from and to dates for a SQL filter.
func (r DateRange) Bounds() (string, string) {
	return FormatDate(r.From), FormatDate(r.To)
}

func (r DateRange) String() string {
	if r.IsAll() {
		return "all"
	}
	return FormatDate(r.From) + ".." + FormatDate(r.To)
}

// ResolveRange turns a period name plus optional explicit bounds into a
// range. Explicit from/to imply a custom period; an empty period with no
// bounds falls back to def.
func ResolveRange(period, from, to string, def Period, today time.Time) (DateRange, error) {
	if from != "" || to != "" {
		if from == "" || to == "" {
			return DateRange{}, fmt.Errorf("%w: both from and to are required", ErrInvalidDateRange)
		}
		f, err := ParseDate(from)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: %v", ErrInvalidDateRange, err)
		}
		t, err := ParseDate(to)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: %v", ErrInvalidDateRange, err)
		}
		return NewDateRange(f, t)
	}
	p := def
	if period != "" {
		var err error
		if p, err = ParsePeriod(period); err != nil {
			return DateRange{}, err
		}
	}
	return p.Range(today)
}
