package solprogram

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"blinks/apperr"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrAmountPrecision = errors.New("amount exceeds currency precision")
)

var maxUint64 = decimal.NewFromUint64(math.MaxUint64)

// ParseAmount parses a decimal amount without going through float64.
func ParseAmount(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, apperr.Validationf(field, ErrInvalidAmount, "Parameter %q must be a valid number", field)
	}
	return d, nil
}

// ScaleToBaseUnits multiplies amount by 10^decimals and returns the integer
// string. Amounts with more fractional digits than decimals are rejected
// instead of truncated.
func ScaleToBaseUnits(amount decimal.Decimal, decimals uint8) (string, error) {
	scaled := amount.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return "", apperr.Validationf("amount", ErrAmountPrecision,
			"Amount %s has more than %d decimal places", amount.String(), decimals)
	}
	return scaled.StringFixed(0), nil
}

// ScaleToUint64 is ScaleToBaseUnits for instruction arguments.
func ScaleToUint64(amount decimal.Decimal, decimals uint8) (uint64, error) {
	if amount.IsNegative() {
		return 0, apperr.Validationf("amount", ErrInvalidAmount, "Amount must not be negative")
	}
	s, err := ScaleToBaseUnits(amount, decimals)
	if err != nil {
		return 0, err
	}
	scaled := decimal.RequireFromString(s)
	if scaled.GreaterThan(maxUint64) {
		return 0, apperr.Validationf("amount", ErrInvalidAmount, "Amount %s is too large", amount.String())
	}
	return scaled.BigInt().Uint64(), nil
}
