package valuation

import (
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const DefaultCurrency = "USD"

var zakatRate = decimal.RequireFromString("0.025")

// ZakatRate is the standard zakat rate on eligible wealth.
func ZakatRate() decimal.Decimal {
	return zakatRate
}

type ZakatInput struct {
	Wealth   decimal.Decimal
	Currency string
}

type ZakatResult struct {
	Wealth   decimal.Decimal
	Currency string
	Rate     decimal.Decimal
	Nisab    decimal.Decimal
	ZakatDue decimal.Decimal
	// Due is false when Wealth is below Nisab. ZakatDue is zero in that case.
	Due bool
}

// AssessZakat computes the zakat due on in.Wealth. Wealth below nisab owes
// nothing. A zero nisab makes every non-negative wealth liable.
func AssessZakat(in ZakatInput, nisab decimal.Decimal) (ZakatResult, error) {
	if in.Wealth.IsNegative() {
		return ZakatResult{}, pkgerrors.Wrapf(ErrInvalidAmount, "wealth must not be negative, got %s", in.Wealth)
	}
	if err := checkBounds(in.Wealth, MaxDigits, MaxExponent, ErrInvalidAmount, "wealth"); err != nil {
		return ZakatResult{}, err
	}
	if nisab.IsNegative() {
		return ZakatResult{}, pkgerrors.Wrapf(ErrInvalidAmount, "nisab must not be negative, got %s", nisab)
	}
	if err := checkBounds(nisab, MaxDigits, MaxExponent, ErrInvalidAmount, "nisab"); err != nil {
		return ZakatResult{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	res := ZakatResult{
		Wealth:   in.Wealth,
		Currency: currency,
		Rate:     zakatRate,
		Nisab:    nisab,
		ZakatDue: decimal.Zero,
		Due:      in.Wealth.GreaterThanOrEqual(nisab),
	}
	if res.Due {
		res.ZakatDue = in.Wealth.Mul(zakatRate)
	}

	return res, nil
}
