package pricing

import (
	"errors"
	"fmt"

	"satfolio-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Sanity bands per asset class, USD. A fetched value outside its band is
// treated as a bad upstream response, not a price.
var sanityBands = map[string]struct{ min, max decimal.Decimal }{
	domain.ClassBase:      {decimal.NewFromInt(1_000), decimal.NewFromInt(10_000_000)},
	domain.ClassCommodity: {decimal.NewFromInt(1), decimal.NewFromInt(1_000_000)},
	domain.ClassEquity:    {decimal.RequireFromString("0.01"), decimal.NewFromInt(1_000_000)},
}

var errUnknownClass = errors.New("unknown asset class")

func validatePrice(class string, price decimal.Decimal) error {
	band, ok := sanityBands[class]
	if !ok {
		return errUnknownClass
	}
	if price.Sign() <= 0 {
		return fmt.Errorf("non-positive price %s", price)
	}
	if price.LessThan(band.min) || price.GreaterThan(band.max) {
		return fmt.Errorf("price %s outside sanity band for class %s", price, class)
	}
	return nil
}
