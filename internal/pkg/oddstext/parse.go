// Package oddstext parses bookmaker odds strings ("5/2", "EVS", "3.50") into decimal odds.
package oddstext

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// ParseOdds converts fractional or decimal odds text to decimal odds. The result is always > 1.
func ParseOdds(s string) (float64, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// ParseDecimal is ParseOdds without the float conversion.
func ParseDecimal(s string) (decimal.Decimal, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	t = strings.TrimSuffix(t, ".")
	switch t {
	case "":
		return decimal.Zero, fmt.Errorf("empty odds")
	case "evs", "evens", "even", "ev":
		return decimal.NewFromInt(2), nil
	}

	if num, den, ok := strings.Cut(t, "/"); ok {
		n, err := decimal.NewFromString(strings.TrimSpace(num))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid fractional odds %q: %w", s, err)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(den))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid fractional odds %q: %w", s, err)
		}
		if !d.IsPositive() || !n.IsPositive() {
			return decimal.Zero, fmt.Errorf("invalid fractional odds %q", s)
		}
		return one.Add(n.Div(d)).Round(6), nil
	}

	v, err := decimal.NewFromString(t)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal odds %q: %w", s, err)
	}
	if v.LessThanOrEqual(one) {
		return decimal.Zero, fmt.Errorf("decimal odds %q must be greater than 1", s)
	}
	return v, nil
}
