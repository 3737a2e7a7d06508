package validation

import "regexp"

// Symbols: 1-16 uppercase letters or digits, letter first (registry format).
var symbolRe = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,15}$`)

func IsValidSymbol(symbol string) bool {
	return symbolRe.MatchString(symbol)
}
