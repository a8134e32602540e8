package types

import (
	"github.com/charlie0129/appraise/pkg/valuation"
)

type CalibrateRequest struct {
	BaseAmount       Amount         `json:"baseAmount"`
	Region           string         `json:"region"`
	PropertyMetadata map[string]any `json:"propertyMetadata,omitempty"`
}

// Input validates the region name and converts r to a pipeline input.
func (r CalibrateRequest) Input() (valuation.CalibrationInput, error) {
	region, err := valuation.ParseRegion(r.Region)
	if err != nil {
		return valuation.CalibrationInput{}, err
	}
	return valuation.CalibrationInput{
		BaseAmount:       r.BaseAmount.Decimal,
		Region:           region,
		PropertyMetadata: r.PropertyMetadata,
	}, nil
}

type CalibrateResponse struct {
	BaseValue          Amount         `json:"baseValue" yaml:"baseValue"`
	RegionalValue      Amount         `json:"regionalValue" yaml:"regionalValue"`
	CalibratedValue    Amount         `json:"calibratedValue" yaml:"calibratedValue"`
	RegionalMultiplier Amount         `json:"regionalMultiplier" yaml:"regionalMultiplier"`
	UniversalFactor    Amount         `json:"universalFactor" yaml:"universalFactor"`
	PropertyMetadata   map[string]any `json:"propertyMetadata,omitempty" yaml:"propertyMetadata,omitempty"`
}

func NewCalibrateResponse(res valuation.CalibrationResult) CalibrateResponse {
	return CalibrateResponse{
		BaseValue:          NewAmount(res.BaseValue),
		RegionalValue:      NewAmount(res.RegionalValue),
		CalibratedValue:    NewAmount(res.CalibratedValue),
		RegionalMultiplier: NewAmount(res.RegionalMultiplier),
		UniversalFactor:    NewAmount(res.UniversalFactor),
		PropertyMetadata:   res.PropertyMetadata,
	}
}

type YieldRequest struct {
	CalibratedValue Amount `json:"calibratedValue"`
	Region          string `json:"region"`
	AnnualRate      Amount `json:"annualRate"`
	PeriodMonths    int    `json:"periodMonths"`
}

func (r YieldRequest) Input() (valuation.YieldInput, error) {
	region, err := valuation.ParseRegion(r.Region)
	if err != nil {
		return valuation.YieldInput{}, err
	}
	return valuation.YieldInput{
		CalibratedValue: r.CalibratedValue.Decimal,
		Region:          region,
		AnnualRate:      r.AnnualRate.Decimal,
		PeriodMonths:    r.PeriodMonths,
	}, nil
}

type YieldResponse struct {
	PeriodYield     Amount `json:"periodYield" yaml:"periodYield"`
	CalibratedYield Amount `json:"calibratedYield" yaml:"calibratedYield"`
	FinalYield      Amount `json:"finalYield" yaml:"finalYield"`
	YieldBoost      Amount `json:"yieldBoost" yaml:"yieldBoost"`
}

func NewYieldResponse(res valuation.YieldResult) YieldResponse {
	return YieldResponse{
		PeriodYield:     NewAmount(res.PeriodYield),
		CalibratedYield: NewAmount(res.CalibratedYield),
		FinalYield:      NewAmount(res.FinalYield),
		YieldBoost:      NewAmount(res.YieldBoost),
	}
}

type ZakatRequest struct {
	Wealth   Amount `json:"wealth"`
	Currency string `json:"currency,omitempty"`
}

func (r ZakatRequest) Input() valuation.ZakatInput {
	return valuation.ZakatInput{
		Wealth:   r.Wealth.Decimal,
		Currency: r.Currency,
	}
}

type ZakatResponse struct {
	Wealth   Amount `json:"wealth" yaml:"wealth"`
	Currency string `json:"currency" yaml:"currency"`
	Rate     Amount `json:"rate" yaml:"rate"`
	Nisab    Amount `json:"nisab" yaml:"nisab"`
	ZakatDue Amount `json:"zakatDue" yaml:"zakatDue"`
	Due      bool   `json:"due" yaml:"due"`
}

func NewZakatResponse(res valuation.ZakatResult) ZakatResponse {
	return ZakatResponse{
		Wealth:   NewAmount(res.Wealth),
		Currency: res.Currency,
		Rate:     NewAmount(res.Rate),
		Nisab:    NewAmount(res.Nisab),
		ZakatDue: NewAmount(res.ZakatDue),
		Due:      res.Due,
	}
}

type RegionConstants struct {
	Name       string `json:"name" yaml:"name"`
	Multiplier Amount `json:"multiplier" yaml:"multiplier"`
	YieldBoost Amount `json:"yieldBoost" yaml:"yieldBoost"`
}

// Constants is the fixed factor table used by the pipeline.
type Constants struct {
	UniversalFactor Amount            `json:"universalFactor" yaml:"universalFactor"`
	YieldSmoothing  Amount            `json:"yieldSmoothing" yaml:"yieldSmoothing"`
	ZakatRate       Amount            `json:"zakatRate" yaml:"zakatRate"`
	Regions         []RegionConstants `json:"regions" yaml:"regions"`
}

func CurrentConstants() Constants {
	c := Constants{
		UniversalFactor: NewAmount(valuation.UniversalFactor()),
		YieldSmoothing:  NewAmount(valuation.YieldSmoothing()),
		ZakatRate:       NewAmount(valuation.ZakatRate()),
	}
	for _, r := range valuation.Regions() {
		c.Regions = append(c.Regions, RegionConstants{
			Name:       r.String(),
			Multiplier: NewAmount(r.Multiplier()),
			YieldBoost: NewAmount(r.YieldBoost()),
		})
	}
	return c
}
