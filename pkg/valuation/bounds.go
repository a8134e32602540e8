package valuation

import (
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Every raw input figure must fit in MaxDigits significant digits with a
// decimal exponent within ±MaxExponent. Larger inputs expand into huge
// strings once formatted.
const (
	MaxDigits   = 34
	MaxExponent = 28
)

// A calibration multiplies by two factors with 6 fractional digits in total,
// so a calibrated value fed back into ProjectYield may carry that much more
// precision than a raw input.
const derivedHeadroom = 8

// CheckBounds returns ErrInvalidAmount if d has more than MaxDigits
// significant digits or an exponent outside ±MaxExponent.
func CheckBounds(d decimal.Decimal) error {
	return checkBounds(d, MaxDigits, MaxExponent, ErrInvalidAmount, "amount")
}

// CheckDerivedBounds is CheckBounds for figures that may come out of a
// previous calibration.
func CheckDerivedBounds(d decimal.Decimal) error {
	return checkBounds(d, MaxDigits+derivedHeadroom, MaxExponent+derivedHeadroom, ErrInvalidAmount, "amount")
}

func checkBounds(d decimal.Decimal, maxDigits int, maxExp int32, sentinel error, name string) error {
	if n := d.NumDigits(); n > maxDigits {
		return pkgerrors.Wrapf(sentinel, "%s has %d significant digits, at most %d are allowed", name, n, maxDigits)
	}
	if e := d.Exponent(); e > maxExp || e < -maxExp {
		return pkgerrors.Wrapf(sentinel, "%s exponent %d is out of range, must be within ±%d", name, e, maxExp)
	}
	return nil
}
