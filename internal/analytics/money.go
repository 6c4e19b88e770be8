package analytics

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const currencyPrefix = "R$"

// FormatBRL renders a monetary value as "R$ 1234.56": two decimals, no
// thousands separator. ParseMoney is its exact inverse.
func FormatBRL(d decimal.Decimal) string {
	return currencyPrefix + " " + d.StringFixed(2)
}

// ParseMoney parses a monetary string with an optional "R$" prefix and
// optional "," thousands separators, rounding to cents.
func ParseMoney(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimSpace(strings.TrimPrefix(clean, currencyPrefix))
	clean = strings.ReplaceAll(clean, ",", "")
	if clean == "" {
		return decimal.Zero, fmt.Errorf("empty monetary value %q", s)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid monetary value %q: %w", s, err)
	}
	return d.Round(2), nil
}

// formatRatio renders ratios with a fixed number of places so encoded
// context stays byte-stable.
func formatRatio(d decimal.Decimal) string {
	return d.StringFixed(4)
}

// formatPercent renders a 0-1 ratio as a percentage with one decimal place.
func formatPercent(d decimal.Decimal) string {
	return d.Mul(hundred).StringFixed(1) + "%"
}
