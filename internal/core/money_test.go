package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{".5", 50, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"1e3", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.cents, got.Cents())
		})
	}
}

func TestParseSignedMoney(t *testing.T) {
	m, err := ParseSignedMoney("-12,50")
	require.NoError(t, err)
	assert.Equal(t, "-12.50", m.String())

	m, err = ParseSignedMoney("0")
	require.NoError(t, err)
	assert.True(t, m.IsZero())

	for _, in := range []string{"-0,00", "0.", ".0", "+0"} {
		m, err = ParseSignedMoney(in)
		require.NoError(t, err, in)
		assert.True(t, m.IsZero(), in)
	}

	for _, in := range []string{"--1", "", "...", ",,", "-.", "+,.,", "0.0.0", "-"} {
		_, err = ParseSignedMoney(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustMoney("10.10")
	b := MustMoney("0.20")

	assert.Equal(t, "10.30", a.Add(b).String())
	assert.Equal(t, "9.90", a.Sub(b).String())
	assert.Equal(t, "-10.10", a.Neg().String())
	assert.Equal(t, "15.15", a.Mul(decimal.RequireFromString("1.5")).String())
	assert.Equal(t, "3.37", a.Div(3).String())
	assert.Equal(t, "10.30", Sum(a, b).String())
	assert.Equal(t, 1, a.Cmp(b))
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{MustMoney("42.5")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":42.50}`, string(b))

	var in struct {
		Amount Money `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"7.125"}`), &in))
	assert.Equal(t, "7.13", in.Amount.String())
}

func TestMoneyScan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("12.30"))
	assert.Equal(t, int64(1230), m.Cents())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	v, err := MustMoney("3").Value()
	require.NoError(t, err)
	assert.Equal(t, "3.00", v)
}
