package units

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSubunits(t *testing.T) {
	cases := []struct {
		name   string
		amount string
		unit   string
		want   int64
	}{
		{"whole base unit", "1", "btc", 100_000_000},
		{"fractional base unit", "0.5", "btc", 50_000_000},
		{"subunits pass through", "250000", "sat", 250_000},
		{"millisubunits", "250000000", "msat", 250_000},
		{"asset native units", "25", "asset", 2_500_000_000},
		{"hundredth of a base unit", "0.01", "btc", 1_000_000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToSubunits(decimal.RequireFromString(tc.amount), tc.unit)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToSubunits_Errors(t *testing.T) {
	cases := []struct {
		name   string
		amount string
		unit   string
		want   error
	}{
		{"unknown unit", "1", "ounces", ErrUnsupportedUnit},
		{"zero", "0", "sat", ErrNotPositive},
		{"negative", "-1", "btc", ErrNotPositive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ToSubunits(decimal.RequireFromString(tc.amount), tc.unit)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestToSubunits_RoundsToWholeSubunit(t *testing.T) {
	// 0.123456789 base units is 12,345,678.9 subunits; amounts resolve to
	// whole subunits.
	got, err := ToSubunits(decimal.RequireFromString("0.123456789"), "btc")
	require.NoError(t, err)
	assert.Equal(t, int64(12_345_679), got)
}

func TestToSubunits_NoSizeFloor(t *testing.T) {
	// Conversion alone accepts any positive amount; the trade size window is
	// a separate check on the base-unit leg.
	got, err := ToSubunits(decimal.NewFromInt(1), "sat")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestCheckTradeBounds(t *testing.T) {
	assert.NoError(t, CheckTradeBounds(MinTradeSubunits))
	assert.NoError(t, CheckTradeBounds(MaxTradeSubunits))
	assert.ErrorIs(t, CheckTradeBounds(MinTradeSubunits-1), ErrBelowMinimum)
	assert.ErrorIs(t, CheckTradeBounds(MaxTradeSubunits+1), ErrAboveMaximum)
}
