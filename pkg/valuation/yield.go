package valuation

import (
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	MinPeriodMonths = 1
	MaxPeriodMonths = 120
)

var (
	monthsPerYear = decimal.NewFromInt(12)
	maxAnnualRate = decimal.NewFromInt(1)
)

// YieldInput is the input of ProjectYield. AnnualRate is a fraction, e.g.
// 0.055 for 5.5%.
type YieldInput struct {
	CalibratedValue decimal.Decimal
	Region          Region
	AnnualRate      decimal.Decimal
	PeriodMonths    int
}

// YieldResult holds the projected yield at each stage.
type YieldResult struct {
	PeriodYield     decimal.Decimal
	CalibratedYield decimal.Decimal
	FinalYield      decimal.Decimal
	YieldBoost      decimal.Decimal
}

// ProjectYield projects the yield of a calibrated value over PeriodMonths,
// smooths it and applies the regional boost.
func ProjectYield(in YieldInput) (YieldResult, error) {
	if in.AnnualRate.IsNegative() || in.AnnualRate.GreaterThan(maxAnnualRate) {
		return YieldResult{}, pkgerrors.Wrapf(ErrInvalidRateOrPeriod, "annual rate must be between 0 and 1, got %s", in.AnnualRate)
	}
	if err := checkBounds(in.AnnualRate, MaxDigits, MaxExponent, ErrInvalidRateOrPeriod, "annual rate"); err != nil {
		return YieldResult{}, err
	}
	if in.PeriodMonths < MinPeriodMonths || in.PeriodMonths > MaxPeriodMonths {
		return YieldResult{}, pkgerrors.Wrapf(ErrInvalidRateOrPeriod, "period must be between %d and %d months, got %d", MinPeriodMonths, MaxPeriodMonths, in.PeriodMonths)
	}
	if !in.CalibratedValue.IsPositive() {
		return YieldResult{}, pkgerrors.Wrapf(ErrInvalidAmount, "calibrated value must be positive, got %s", in.CalibratedValue)
	}
	if err := checkBounds(in.CalibratedValue, MaxDigits+derivedHeadroom, MaxExponent+derivedHeadroom, ErrInvalidAmount, "calibrated value"); err != nil {
		return YieldResult{}, err
	}
	if err := checkRegion(in.Region); err != nil {
		return YieldResult{}, err
	}

	annual := in.CalibratedValue.Mul(in.AnnualRate)
	period := annual.Mul(decimal.NewFromInt(int64(in.PeriodMonths))).Div(monthsPerYear)
	smoothed := period.Mul(yieldSmoothing)
	boost := in.Region.YieldBoost()

	return YieldResult{
		PeriodYield:     period,
		CalibratedYield: smoothed,
		FinalYield:      smoothed.Mul(boost),
		YieldBoost:      boost,
	}, nil
}
