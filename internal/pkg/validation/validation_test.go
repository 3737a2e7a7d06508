package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidSymbol(t *testing.T) {
	valid := []string{"BTC", "XAU", "AAPL", "SPY", "BRK2", "A"}
	for _, s := range valid {
		assert.True(t, IsValidSymbol(s), s)
	}

	invalid := []string{"", "btc", "1INCH", "TOO-LONG", "A B", "../etc", "ABCDEFGHIJKLMNOPQ"}
	for _, s := range invalid {
		assert.False(t, IsValidSymbol(s), s)
	}
}
