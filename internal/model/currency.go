package model

import (
	"fmt"

	"golang.org/x/text/currency"
)

// Currency is one of the fixed set of currencies an entry can be recorded in.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyUZS Currency = "UZS"
)

// Currencies lists the supported currencies in keyboard order.
func Currencies() []Currency {
	return []Currency{CurrencyUSD, CurrencyUZS}
}

// ParseCurrency checks that a callback payload is a well-formed ISO 4217
// code and one of the supported currencies.
func ParseCurrency(s string) (Currency, error) {
	unit, err := currency.ParseISO(s)
	if err != nil {
		return "", fmt.Errorf("invalid currency %q: %w", s, err)
	}
	for _, c := range Currencies() {
		if string(c) == unit.String() {
			return c, nil
		}
	}
	return "", fmt.Errorf("unsupported currency %q", s)
}
