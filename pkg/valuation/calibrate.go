package valuation

import (
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// CalibrationInput is the input of Calibrate. PropertyMetadata is passed
// through untouched.
type CalibrationInput struct {
	BaseAmount       decimal.Decimal
	Region           Region
	PropertyMetadata map[string]any
}

// CalibrationResult holds every intermediate value of a calibration.
//
//	RegionalValue   = BaseValue * RegionalMultiplier
//	CalibratedValue = RegionalValue * UniversalFactor
type CalibrationResult struct {
	BaseValue          decimal.Decimal
	RegionalValue      decimal.Decimal
	CalibratedValue    decimal.Decimal
	RegionalMultiplier decimal.Decimal
	UniversalFactor    decimal.Decimal
	PropertyMetadata   map[string]any
}

// Calibrate scales the base amount by the regional multiplier and then by
// the universal factor.
func Calibrate(in CalibrationInput) (CalibrationResult, error) {
	if !in.BaseAmount.IsPositive() {
		return CalibrationResult{}, pkgerrors.Wrapf(ErrInvalidAmount, "base amount must be positive, got %s", in.BaseAmount)
	}
	if err := checkBounds(in.BaseAmount, MaxDigits, MaxExponent, ErrInvalidAmount, "base amount"); err != nil {
		return CalibrationResult{}, err
	}
	if err := checkRegion(in.Region); err != nil {
		return CalibrationResult{}, err
	}

	multiplier := in.Region.Multiplier()
	regional := in.BaseAmount.Mul(multiplier)

	return CalibrationResult{
		BaseValue:          in.BaseAmount,
		RegionalValue:      regional,
		CalibratedValue:    regional.Mul(universalFactor),
		RegionalMultiplier: multiplier,
		UniversalFactor:    universalFactor,
		PropertyMetadata:   in.PropertyMetadata,
	}, nil
}
