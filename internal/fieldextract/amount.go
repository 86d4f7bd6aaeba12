package fieldextract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = regexp.MustCompile(`[€$£\s]`)

// ParseAmount normalizes a raw textual amount into a decimal, preserving the
// sign. Currency symbols and spaces are stripped first, then the separator
// locale rule applies: when both comma and period appear the rightmost one
// is the decimal mark; a lone comma is a decimal mark only when followed by
// at most two digits, otherwise it is a thousands separator; a lone period
// is always a decimal mark.
func ParseAmount(raw string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(raw)
	if standardized == "" {
		return decimal.Zero, fmt.Errorf("empty amount %q", raw)
	}
	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount %q: %w", raw, err)
	}
	return amount, nil
}

// StandardizeAmount rewrites a localized amount string into the plain form
// decimal.NewFromString accepts.
func StandardizeAmount(raw string) string {
	s := currencySymbols.ReplaceAllString(strings.TrimSpace(raw), "")

	hasComma := strings.Contains(s, ",")
	hasPeriod := strings.Contains(s, ".")
	switch {
	case hasComma && hasPeriod:
		if strings.LastIndex(s, ".") < strings.LastIndex(s, ",") {
			// European form 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			// Anglo form 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		parts := strings.Split(s, ",")
		if len(parts[len(parts)-1]) <= 2 {
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	// Apostrophes only ever group thousands (1'234.56).
	return strings.ReplaceAll(s, "'", "")
}
