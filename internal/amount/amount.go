// Package amount validates and converts decimal amount strings without
// float precision loss. All arithmetic is string/integer based.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

const (
	// StablecoinDecimals is the fraction-digit bound for the 6-decimal
	// stablecoin path (USDC base unit is micro).
	StablecoinDecimals = 6

	// EVMDecimals is the fraction-digit bound for the native 18-decimal
	// EVM unit (wei).
	EVMDecimals = 18
)

// ErrInvalidAmount is returned for non-positive, malformed, or
// over-precise amounts.
var ErrInvalidAmount = errors.New("invalid amount")

// Validate checks that s is a positive decimal with at most maxFrac
// fractional digits. Excess precision is rejected, never truncated.
func Validate(s string, maxFrac int) error {
	whole, frac, err := split(s, maxFrac)
	if err != nil {
		return err
	}
	if isZero(whole) && isZero(frac) {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	return nil
}

// ToBaseUnits converts a decimal string to an integer count of base units
// (10^-decimals). Used for the stablecoin path, where amounts fit in uint64.
func ToBaseUnits(s string, decimals int) (uint64, error) {
	whole, frac, err := split(s, decimals)
	if err != nil {
		return 0, err
	}
	frac += strings.Repeat("0", decimals-len(frac))

	v, err := strconv.ParseUint(whole+frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if v == 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	return v, nil
}

// ToBaseUnitsBig converts a decimal string to big.Int base units. Used for
// the 18-decimal EVM path, where values overflow uint64.
func ToBaseUnitsBig(s string, decimals int) (*big.Int, error) {
	whole, frac, err := split(s, decimals)
	if err != nil {
		return nil, err
	}
	frac += strings.Repeat("0", decimals-len(frac))

	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("%w: not a number", ErrInvalidAmount)
	}
	if v.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	return v, nil
}

// FromBaseUnits converts an integer count of base units back to a decimal
// string by inserting the decimal point.
// Example: FromBaseUnits(24981836, 6) = "24.981836"
func FromBaseUnits(value uint64, decimals int) string {
	s := strconv.FormatUint(value, 10)
	for len(s) <= decimals {
		s = "0" + s
	}
	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// split separates whole and fractional parts, validating digits and the
// fraction bound.
func split(s string, maxFrac int) (whole, frac string, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return "", "", fmt.Errorf("%w: sign not allowed", ErrInvalidAmount)
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return "", "", fmt.Errorf("%w: invalid decimal format", ErrInvalidAmount)
	}

	whole = parts[0]
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" && frac == "" {
		return "", "", fmt.Errorf("%w: invalid decimal format", ErrInvalidAmount)
	}
	if whole == "" {
		whole = "0"
	}

	if !digitsOnly(whole) || (frac != "" && !digitsOnly(frac)) {
		return "", "", fmt.Errorf("%w: not a number", ErrInvalidAmount)
	}
	if len(frac) > maxFrac {
		return "", "", fmt.Errorf("%w: at most %d fractional digits allowed", ErrInvalidAmount, maxFrac)
	}
	return whole, frac, nil
}

func digitsOnly(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isZero(s string) bool {
	for _, c := range s {
		if c != '0' {
			return false
		}
	}
	return true
}
