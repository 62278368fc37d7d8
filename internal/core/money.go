package core

import (
	"github.com/shopspring/decimal"
)

// MinorUnitPlaces is the number of decimal places kept for every amount.
const MinorUnitPlaces = 2

// Money is an amount rounded to two decimals, kept both as its fixed
// textual form and as integer cents.
type Money struct {
	Text  string
	Cents int64
}

// ParseMoney parses a decimal string and rounds it half away from zero to
// two places. Every amount entering the system, whether on CREATE or
// REFUND, goes through here so cents are derived one way only. A positive
// amount below half a cent rounds to 0.00.
func ParseMoney(raw string) (Money, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Money{}, Validation("Amount must be a positive number")
	}
	if !d.IsPositive() {
		return Money{}, Validation("Amount must be a positive number")
	}

	// Rounding rescales through a big.Int sized by the exponent, so the
	// magnitude is bounded from the digit count first.
	switch intDigits := d.NumDigits() + int(d.Exponent()); {
	case intDigits > maxIntDigits:
		return Money{}, Validation("Amount is too large")
	case intDigits < -MinorUnitPlaces:
		return Money{Text: FormatCents(0)}, nil
	}

	rounded := d.Round(MinorUnitPlaces)
	cents := rounded.Shift(MinorUnitPlaces)
	if !cents.IsInteger() || cents.GreaterThan(decimal.NewFromInt(maxCents)) {
		return Money{}, Validation("Amount is too large")
	}

	return Money{
		Text:  rounded.StringFixed(MinorUnitPlaces),
		Cents: cents.IntPart(),
	}, nil
}

const (
	// maxCents keeps cents inside int64 with room for comparisons.
	maxCents = int64(1) << 53
	// maxIntDigits is the widest integer part whose cents can fit maxCents.
	maxIntDigits = 14
)

// FormatCents renders integer cents as a fixed two-decimal string.
func FormatCents(cents int64) string {
	return decimal.New(cents, -MinorUnitPlaces).StringFixed(MinorUnitPlaces)
}
