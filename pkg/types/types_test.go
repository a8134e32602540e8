package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/charlie0129/appraise/pkg/valuation"
)

func TestCalibrateResponseEncodesBareNumbers(t *testing.T) {
	var req CalibrateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"baseAmount": 112500, "region": "RegionA"}`), &req))

	in, err := req.Input()
	require.NoError(t, err)
	res, err := valuation.Calibrate(in)
	require.NoError(t, err)

	b, err := json.Marshal(NewCalibrateResponse(res))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"baseValue": 112500,
		"regionalValue": 151875,
		"calibratedValue": 161260.875,
		"regionalMultiplier": 1.35,
		"universalFactor": 1.0618
	}`, string(b))

	y, err := yaml.Marshal(NewCalibrateResponse(res))
	require.NoError(t, err)
	assert.Contains(t, string(y), "calibratedValue: 161260.875")
}

func TestAmountAcceptsNumericStrings(t *testing.T) {
	var req YieldRequest
	require.NoError(t, json.Unmarshal([]byte(`{"calibratedValue": "161260.875", "region": "RegionA", "annualRate": 0.055, "periodMonths": 12}`), &req))
	assert.Equal(t, "161260.875", req.CalibratedValue.String())
	assert.Equal(t, "0.055", req.AnnualRate.String())
}

func TestAmountRejectsNonNumeric(t *testing.T) {
	var req CalibrateRequest
	err := json.Unmarshal([]byte(`{"baseAmount": "lots", "region": "RegionA"}`), &req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, valuation.ErrInvalidAmount), "got %v", err)

	_, err = ParseAmount("12,5")
	assert.ErrorIs(t, err, valuation.ErrInvalidAmount)
}

func TestRequestInputRejectsUnsupportedRegion(t *testing.T) {
	_, err := CalibrateRequest{BaseAmount: NewAmount(valuation.UniversalFactor()), Region: "Unsupported"}.Input()
	require.ErrorIs(t, err, valuation.ErrInvalidRegion)

	resp := NewErrorResponse(err)
	assert.Equal(t, ErrKindInvalidRegion, resp.Error)
	assert.Equal(t, []string{"RegionA", "RegionB"}, resp.SupportedRegions)
	assert.Equal(t, valuation.ErrInvalidRegion, resp.Sentinel())
}

func TestCurrentConstants(t *testing.T) {
	c := CurrentConstants()
	require.Len(t, c.Regions, 2)
	assert.Equal(t, "RegionA", c.Regions[0].Name)
	assert.Equal(t, "1.35", c.Regions[0].Multiplier.String())
	assert.Equal(t, "1.0618", c.UniversalFactor.String())
	assert.Equal(t, "0.025", c.ZakatRate.String())
}

func TestAmountRejectsOversizedNumbers(t *testing.T) {
	for _, lit := range []string{"1e400", "1e-400", `"1e50000000"`, strings.Repeat("9", 10000)} {
		var req CalibrateRequest
		err := json.Unmarshal([]byte(`{"baseAmount": `+lit+`, "region": "RegionA"}`), &req)
		require.Error(t, err)
		assert.ErrorIs(t, err, valuation.ErrInvalidAmount)
		assert.Less(t, len(err.Error()), 200)

		_, err = ParseAmount(strings.Trim(lit, `"`))
		assert.ErrorIs(t, err, valuation.ErrInvalidAmount)
	}

	var a Amount
	require.NoError(t, json.Unmarshal([]byte(`1e28`), &a))
	assert.Equal(t, "10000000000000000000000000000", a.String())
}
