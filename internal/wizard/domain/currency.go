package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Currency is an ISO 4217 code from the closed set in currencyTable.
type Currency string

const (
	CurrencyGBP Currency = "GBP"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

const DefaultCurrency = CurrencyGBP

// currencyTable is the only place codes and symbols are declared, so the two
// cannot drift apart.
var currencyTable = []struct {
	code   Currency
	symbol string
}{
	{CurrencyGBP, "£"},
	{CurrencyUSD, "$"},
	{CurrencyEUR, "€"},
}

// Currencies lists the supported codes in declaration order.
func Currencies() []Currency {
	out := make([]Currency, 0, len(currencyTable))
	for _, entry := range currencyTable {
		out = append(out, entry.code)
	}
	return out
}

// ParseCurrency normalizes and validates a currency code.
func ParseCurrency(raw string) (Currency, error) {
	code := Currency(strings.ToUpper(strings.TrimSpace(raw)))
	if !code.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, raw)
	}
	return code, nil
}

func (c Currency) Valid() bool {
	_, ok := c.lookup()
	return ok
}

// Symbol returns the display symbol, or the code itself when unsupported.
func (c Currency) Symbol() string {
	if symbol, ok := c.lookup(); ok {
		return symbol
	}
	return string(c)
}

func (c Currency) lookup() (string, bool) {
	for _, entry := range currencyTable {
		if entry.code == c {
			return entry.symbol, true
		}
	}
	return "", false
}

func (c *Currency) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseCurrency(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
