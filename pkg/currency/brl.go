// Package currency parses and formats Brazilian real amounts as typed by
// operators or returned by document extraction ("R$ 1.234,56", "65,44").
package currency

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol is the currency symbol used by FormatBRL.
const Symbol = "R$"

// ErrInvalidAmount is returned when an amount string cannot be normalized.
var ErrInvalidAmount = errors.New("invalid currency amount")

// symbolPrefix matches "R$", "r$" and "R $" with any trailing spaces.
var symbolPrefix = regexp.MustCompile(`^[Rr]\s*\$\s*`)

// ParseBRL normalizes a localized amount into a decimal value.
//
// Accepted shapes:
//   - "1.234,56", "R$ 1.234,56", "R$1234,56": dots group thousands, comma is the decimal mark
//   - "1234.56", "1234.5": no comma and a single dot followed by one or two digits is a decimal point
//   - "1.234.567": no comma, dots group thousands
//   - ",50", "R$ ,50": a missing integer part reads as zero
//
// The symbol is matched case-insensitively and may be split from "$" by spaces
// ("r$ 10,00", "R $10,00"). An optional leading minus is kept. Anything else
// yields ErrInvalidAmount.
func ParseBRL(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(raw, "\u00a0", " ")
	s = symbolPrefix.ReplaceAllString(strings.TrimSpace(s), "")

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
		s = symbolPrefix.ReplaceAllString(s, "")
	}
	s = strings.ReplaceAll(s, " ", "")

	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	var clean string
	switch {
	case strings.Contains(s, ","):
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
		}
		intPart, fracPart, _ := strings.Cut(s, ",")
		if intPart == "" {
			intPart = "0"
		}
		if !validGrouping(intPart) || !allDigits(fracPart) || fracPart == "" {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
		}
		clean = strings.ReplaceAll(intPart, ".", "") + "." + fracPart
	case strings.Count(s, ".") == 1 && decimalPointSuffix(s):
		clean = s
	default:
		if !validGrouping(s) {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
		}
		clean = strings.ReplaceAll(s, ".", "")
	}

	if clean == "" || clean == "." {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	val, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if neg {
		val = val.Neg()
	}
	return val, nil
}

// FormatBRL renders a value as "R$ 1.300,00". Negative values are rendered as "-R$ 1,00".
func FormatBRL(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	fixed := d.StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	return fmt.Sprintf("%s%s %s,%s", sign, Symbol, groupThousands(intPart), fracPart)
}

// NormalizeBRL re-renders a raw amount in canonical form. Unparseable input is returned unchanged.
func NormalizeBRL(raw string) string {
	d, err := ParseBRL(raw)
	if err != nil {
		return raw
	}
	return FormatBRL(d)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// validGrouping accepts "1234", "1.234" and "12.345.678" but not "1.23" or "1..2".
func validGrouping(s string) bool {
	if s == "" {
		return false
	}
	if !strings.Contains(s, ".") {
		return allDigits(s)
	}
	groups := strings.Split(s, ".")
	if len(groups[0]) == 0 || len(groups[0]) > 3 || !allDigits(groups[0]) {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !allDigits(g) {
			return false
		}
	}
	return true
}

func decimalPointSuffix(s string) bool {
	intPart, fracPart, _ := strings.Cut(s, ".")
	return allDigits(intPart) && intPart != "" && len(fracPart) >= 1 && len(fracPart) <= 2 && allDigits(fracPart)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
