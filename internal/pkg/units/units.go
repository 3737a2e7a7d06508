// Package units converts request amounts in their declared unit into the
// integer subunit precision every balance is stored in.
package units

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Supported amount units. "asset" means native units of the asset being
// spent (8-decimal fixed point, same scale as the base unit).
const (
	UnitBase     = "btc"
	UnitSubunit  = "sat"
	UnitMilliSub = "msat"
	UnitAsset    = "asset"
)

// Trade size bounds, in subunits.
const (
	MinTradeSubunits int64 = 1_000
	MaxTradeSubunits int64 = 21_000_000 * 100_000_000
)

var (
	ErrUnsupportedUnit = errors.New("unsupported amount unit")
	ErrNotPositive     = errors.New("amount must be positive")
	ErrBelowMinimum    = errors.New("amount below minimum trade size")
	ErrAboveMaximum    = errors.New("amount above maximum trade size")
)

var (
	subunitsPerBase = decimal.NewFromInt(100_000_000)
	milliPerSubunit = decimal.NewFromInt(1_000)
)

// ToSubunits converts amount in the given unit to integer subunits, rounding
// to the nearest subunit. Trade size bounds are checked separately via
// CheckTradeBounds, on the base-unit leg.
func ToSubunits(amount decimal.Decimal, unit string) (int64, error) {
	if amount.Sign() <= 0 {
		return 0, ErrNotPositive
	}

	var scaled decimal.Decimal
	switch unit {
	case UnitBase, UnitAsset:
		scaled = amount.Mul(subunitsPerBase)
	case UnitSubunit:
		scaled = amount
	case UnitMilliSub:
		scaled = amount.Div(milliPerSubunit)
	default:
		return 0, ErrUnsupportedUnit
	}

	sub := scaled.Round(0)
	if !sub.BigInt().IsInt64() {
		return 0, ErrAboveMaximum
	}
	n := sub.IntPart()
	if n <= 0 {
		return 0, ErrNotPositive
	}
	return n, nil
}

// CheckTradeBounds enforces the trade size window. The bounds are
// denominated in base subunits, so callers pass the base-unit leg of the
// trade, never the raw source-asset amount.
func CheckTradeBounds(baseSubunits int64) error {
	if baseSubunits < MinTradeSubunits {
		return ErrBelowMinimum
	}
	if baseSubunits > MaxTradeSubunits {
		return ErrAboveMaximum
	}
	return nil
}
