// Package core holds the domain model: recurrence rules, money, report
// periods and the entities persisted by the storage layer.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Recurrence is the base frequency of a recurring transaction, the repeat
// code with any auto-execute offset removed.
type Recurrence int

const (
	Once Recurrence = iota
	Weekly
	BiWeekly
	Monthly
	BiMonthly
	Quarterly
	HalfYearly
	Yearly
	FourMonths
	FourWeeks
	Daily
	InXDays
	InXMonths
	EveryXDays
	EveryXMonths
)

var recurrenceNames = [...]string{
	Once:         "none",
	Weekly:       "weekly",
	BiWeekly:     "bi-weekly",
	Monthly:      "monthly",
	BiMonthly:    "bi-monthly",
	Quarterly:    "quarterly",
	HalfYearly:   "half-yearly",
	Yearly:       "yearly",
	FourMonths:   "four-months",
	FourWeeks:    "four-weeks",
	Daily:        "daily",
	InXDays:      "in-x-days",
	InXMonths:    "in-x-months",
	EveryXDays:   "every-x-days",
	EveryXMonths: "every-x-months",
}

func (r Recurrence) String() string {
	if !r.Valid() {
		return fmt.Sprintf("recurrence(%d)", int(r))
	}
	return recurrenceNames[r]
}

// Valid reports whether r is one of the known base codes (0-14).
func (r Recurrence) Valid() bool {
	return r >= Once && r <= EveryXMonths
}

// Supported reports whether the next occurrence of r can be computed.
func (r Recurrence) Supported() bool {
	_, ok := advancers[r]
	return ok
}

// ParseRecurrence accepts a frequency name ("monthly", "bi-weekly", ...) or
// its numeric base code.
func ParseRecurrence(s string) (Recurrence, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "_", "-")
	if name == "once" {
		return Once, nil
	}
	for i, n := range recurrenceNames {
		if n == name {
			return Recurrence(i), nil
		}
	}
	if code, err := strconv.Atoi(name); err == nil {
		if r := Recurrence(code); r.Valid() {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRepeatCode, s)
}

// AutoExecute is the execution flag carried in a repeat code as a numeric
// offset of 100 or 200.
type AutoExecute int

const (
	AutoExecuteNone   AutoExecute = 0
	AutoExecuteManual AutoExecute = 100 // enter on due date after user acknowledgement
	AutoExecuteSilent AutoExecute = 200 // enter on due date without asking
)

func (a AutoExecute) String() string {
	switch a {
	case AutoExecuteManual:
		return "manual"
	case AutoExecuteSilent:
		return "silent"
	default:
		return "none"
	}
}

// ParseAutoExecute maps "none", "manual" and "silent" to their offsets.
func ParseAutoExecute(s string) (AutoExecute, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return AutoExecuteNone, nil
	case "manual", "prompt":
		return AutoExecuteManual, nil
	case "silent", "auto":
		return AutoExecuteSilent, nil
	}
	return AutoExecuteNone, fmt.Errorf("invalid auto-execute mode %q", s)
}

// RepeatCode is the raw value stored with a recurring transaction: a base
// Recurrence optionally offset by an AutoExecute flag.
type RepeatCode int

// NewRepeatCode combines a base frequency and an execution flag.
func NewRepeatCode(r Recurrence, mode AutoExecute) RepeatCode {
	return RepeatCode(int(mode) + int(r))
}

func (c RepeatCode) split() (Recurrence, AutoExecute) {
	n := int(c)
	switch {
	case n >= int(AutoExecuteSilent):
		return Recurrence(n - int(AutoExecuteSilent)), AutoExecuteSilent
	case n >= int(AutoExecuteManual):
		return Recurrence(n - int(AutoExecuteManual)), AutoExecuteManual
	}
	return Recurrence(n), AutoExecuteNone
}

// Base strips the auto-execute offset.
func (c RepeatCode) Base() Recurrence {
	r, _ := c.split()
	return r
}

// Mode returns the auto-execute flag carried by the code.
func (c RepeatCode) Mode() AutoExecute {
	_, m := c.split()
	return m
}

// String returns the frequency name with the execution flag stripped.
func (c RepeatCode) String() string {
	return c.Base().String()
}

// Validate rejects codes whose base falls outside 0-14 and codes whose
// frequency cannot be advanced.
func (c RepeatCode) Validate() error {
	base := c.Base()
	if c < 0 || !base.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidRepeatCode, int(c))
	}
	if !base.Supported() {
		return fmt.Errorf("%w: %s", ErrUnsupportedRecurrence, base)
	}
	return nil
}

type advancer func(time.Time) time.Time

func days(n int) advancer {
	return func(t time.Time) time.Time { return t.AddDate(0, 0, n) }
}

func months(n int) advancer {
	return func(t time.Time) time.Time { return AddMonths(t, n) }
}

// advancers maps each supported base frequency to its calendar offset.
// The in-x / every-x codes are intentionally absent.
var advancers = map[Recurrence]advancer{
	Once:       func(t time.Time) time.Time { return t },
	Weekly:     days(7),
	BiWeekly:   days(14),
	Monthly:    months(1),
	BiMonthly:  months(2),
	Quarterly:  months(3),
	HalfYearly: months(6),
	Yearly:     months(12),
	FourMonths: months(4),
	FourWeeks:  days(28),
	Daily:      days(1),
}

// NextOccurrence returns date advanced by the offset the repeat code selects.
// The auto-execute offset (+100 or +200) is ignored. Month and year steps
// clamp to the last day of the target month, so Jan 31 + monthly is the
// last day of February.
func NextOccurrence(date time.Time, code RepeatCode) (time.Time, error) {
	if err := code.Validate(); err != nil {
		return time.Time{}, err
	}
	return advancers[code.Base()](date), nil
}

// Occurrences lists up to n dates starting at from, each advanced from the
// previous one. A one-off code yields a single date.
func Occurrences(from time.Time, code RepeatCode, n int) ([]time.Time, error) {
	if err := code.Validate(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	if code.Base() == Once {
		return []time.Time{from}, nil
	}
	out := make([]time.Time, 0, n)
	next := from
	for i := 0; i < n; i++ {
		out = append(out, next)
		next = advancers[code.Base()](next)
	}
	return out, nil
}

// AddMonths adds n calendar months to t, keeping the time of day and
// clamping the day of month to the length of the target month.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := DaysInMonth(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
