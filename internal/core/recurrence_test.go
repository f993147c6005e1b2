package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextOccurrence_BaseCodes(t *testing.T) {
	start := NewDate(2024, time.January, 15)

	tests := []struct {
		code RepeatCode
		want time.Time
	}{
		{0, NewDate(2024, 1, 15)},
		{1, NewDate(2024, 1, 22)},
		{2, NewDate(2024, 1, 29)},
		{3, NewDate(2024, 2, 15)},
		{4, NewDate(2024, 3, 15)},
		{5, NewDate(2024, 4, 15)},
		{6, NewDate(2024, 7, 15)},
		{7, NewDate(2025, 1, 15)},
		{8, NewDate(2024, 5, 15)},
		{9, NewDate(2024, 2, 12)},
		{10, NewDate(2024, 1, 16)},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			got, err := NextOccurrence(start, tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextOccurrence_AutoExecuteOffsetsIgnored(t *testing.T) {
	dates := []time.Time{
		NewDate(2024, 1, 31),
		NewDate(2024, 2, 29),
		NewDate(2023, 12, 31),
		NewDate(2024, 6, 1),
	}

	for _, d := range dates {
		for base := RepeatCode(0); base <= 10; base++ {
			plain, err := NextOccurrence(d, base)
			require.NoError(t, err)

			manual, err := NextOccurrence(d, base+100)
			require.NoError(t, err)
			assert.Equal(t, plain, manual, "code %d on %s", base+100, FormatDate(d))

			silent, err := NextOccurrence(d, base+200)
			require.NoError(t, err)
			assert.Equal(t, plain, silent, "code %d on %s", base+200, FormatDate(d))
		}
	}

	d := NewDate(2024, 3, 10)
	a, _ := NextOccurrence(d, 103)
	b, _ := NextOccurrence(d, 3)
	assert.Equal(t, b, a)
	a, _ = NextOccurrence(d, 207)
	b, _ = NextOccurrence(d, 7)
	assert.Equal(t, b, a)
}

func TestNextOccurrence_ClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		code RepeatCode
		want time.Time
	}{
		{"monthly from jan 31 in leap year", NewDate(2024, 1, 31), 3, NewDate(2024, 2, 29)},
		{"monthly from jan 31", NewDate(2023, 1, 31), 3, NewDate(2023, 2, 28)},
		{"monthly from mar 31", NewDate(2024, 3, 31), 3, NewDate(2024, 4, 30)},
		{"bi-monthly from dec 31", NewDate(2023, 12, 31), 4, NewDate(2024, 2, 29)},
		{"quarterly from nov 30", NewDate(2023, 11, 30), 5, NewDate(2024, 2, 29)},
		{"half-yearly from aug 31", NewDate(2024, 8, 31), 6, NewDate(2025, 2, 28)},
		{"yearly from leap day", NewDate(2024, 2, 29), 7, NewDate(2025, 2, 28)},
		{"four months from oct 31", NewDate(2024, 10, 31), 8, NewDate(2025, 2, 28)},
		{"monthly across year end", NewDate(2024, 12, 15), 3, NewDate(2025, 1, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOccurrence(tt.from, tt.code)
			require.NoError(t, err)
			assert.Equal(t, FormatDate(tt.want), FormatDate(got))
		})
	}
}

func TestNextOccurrence_NoneReturnsSameDate(t *testing.T) {
	d := time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)
	got, err := NextOccurrence(d, 0)
	require.NoError(t, err)
	assert.True(t, got.Equal(d))
}

func TestNextOccurrence_DoesNotModifyInput(t *testing.T) {
	d := NewDate(2024, 1, 31)
	orig := d
	_, err := NextOccurrence(d, 3)
	require.NoError(t, err)
	assert.Equal(t, orig, d)
}

func TestNextOccurrence_KeepsTimeOfDay(t *testing.T) {
	d := time.Date(2024, 1, 31, 14, 5, 0, 0, time.UTC)
	got, err := NextOccurrence(d, 3)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 14, 5, 0, 0, time.UTC), got)
}

func TestNextOccurrence_RejectsUnsupported(t *testing.T) {
	d := NewDate(2024, 1, 1)
	for _, code := range []RepeatCode{11, 12, 13, 14, 111, 214} {
		_, err := NextOccurrence(d, code)
		assert.ErrorIs(t, err, ErrUnsupportedRecurrence, "code %d", code)
	}
}

func TestNextOccurrence_RejectsInvalid(t *testing.T) {
	d := NewDate(2024, 1, 1)
	for _, code := range []RepeatCode{-1, 15, 99, 115, 199, 215, 300} {
		_, err := NextOccurrence(d, code)
		assert.ErrorIs(t, err, ErrInvalidRepeatCode, "code %d", code)
	}
}

func TestRepeatCode_Split(t *testing.T) {
	tests := []struct {
		code RepeatCode
		base Recurrence
		mode AutoExecute
	}{
		{0, Once, AutoExecuteNone},
		{3, Monthly, AutoExecuteNone},
		{103, Monthly, AutoExecuteManual},
		{207, Yearly, AutoExecuteSilent},
		{210, Daily, AutoExecuteSilent},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.base, tt.code.Base(), "base of %d", tt.code)
		assert.Equal(t, tt.mode, tt.code.Mode(), "mode of %d", tt.code)
		assert.Equal(t, tt.code, NewRepeatCode(tt.base, tt.mode))
	}
	assert.Equal(t, "monthly", RepeatCode(103).String())
}

func TestParseRecurrence(t *testing.T) {
	r, err := ParseRecurrence("Bi_Weekly")
	require.NoError(t, err)
	assert.Equal(t, BiWeekly, r)

	r, err = ParseRecurrence("9")
	require.NoError(t, err)
	assert.Equal(t, FourWeeks, r)

	r, err = ParseRecurrence("once")
	require.NoError(t, err)
	assert.Equal(t, Once, r)

	_, err = ParseRecurrence("fortnightly")
	assert.ErrorIs(t, err, ErrInvalidRepeatCode)
	_, err = ParseRecurrence("42")
	assert.ErrorIs(t, err, ErrInvalidRepeatCode)
}

func TestOccurrences(t *testing.T) {
	got, err := Occurrences(NewDate(2024, 1, 31), 3, 4)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "2024-01-31", FormatDate(got[0]))
	assert.Equal(t, "2024-02-29", FormatDate(got[1]))
	assert.Equal(t, "2024-03-29", FormatDate(got[2]))
	assert.Equal(t, "2024-04-29", FormatDate(got[3]))

	once, err := Occurrences(NewDate(2024, 1, 1), 0, 5)
	require.NoError(t, err)
	assert.Len(t, once, 1)

	_, err = Occurrences(NewDate(2024, 1, 1), 13, 5)
	assert.ErrorIs(t, err, ErrUnsupportedRecurrence)
}
