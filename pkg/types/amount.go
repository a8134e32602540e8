package types

import (
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/charlie0129/appraise/pkg/valuation"
)

// Amount is an exact decimal encoded as a bare JSON number. Numeric strings
// are accepted when decoding.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// ParseAmount parses a decimal string such as "112500.25".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, pkgerrors.Wrapf(valuation.ErrInvalidAmount, "%q is not a number", truncate(s))
	}
	if err := valuation.CheckDerivedBounds(d); err != nil {
		return Amount{}, err
	}
	return Amount{Decimal: d}, nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return pkgerrors.Wrapf(valuation.ErrInvalidAmount, "%s is not a number", truncate(string(b)))
	}
	if err := valuation.CheckDerivedBounds(d); err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

func (a Amount) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: a.String()}, nil
}

func truncate(s string) string {
	const limit = 32
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
