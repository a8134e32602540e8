package valuation

import (
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Region is a supported valuation region. The zero value is not a valid region.
type Region int

const (
	RegionA Region = iota + 1
	RegionB
)

var (
	universalFactor = decimal.RequireFromString("1.0618")
	yieldSmoothing  = decimal.RequireFromString("0.985")

	multiplierRegionA = decimal.RequireFromString("1.35")
	multiplierRegionB = decimal.RequireFromString("1.18")
	yieldBoostRegionA = decimal.RequireFromString("1.12")
	yieldBoostRegionB = decimal.RequireFromString("1.07")
)

// UniversalFactor is applied to every regional value.
func UniversalFactor() decimal.Decimal {
	return universalFactor
}

// YieldSmoothing is applied to every period yield before the regional boost.
func YieldSmoothing() decimal.Decimal {
	return yieldSmoothing
}

// Regions returns all supported regions in a stable order.
func Regions() []Region {
	return []Region{RegionA, RegionB}
}

// RegionNames returns the wire names of all supported regions.
func RegionNames() []string {
	regions := Regions()
	names := make([]string, 0, len(regions))
	for _, r := range regions {
		names = append(names, r.String())
	}
	return names
}

// ParseRegion parses a wire name such as "RegionA".
func ParseRegion(s string) (Region, error) {
	for _, r := range Regions() {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, pkgerrors.Wrapf(ErrInvalidRegion, "unsupported region %q, supported regions are %s", s, strings.Join(RegionNames(), ", "))
}

func (r Region) String() string {
	switch r {
	case RegionA:
		return "RegionA"
	case RegionB:
		return "RegionB"
	default:
		return "Unknown"
	}
}

// Valid reports whether r is one of Regions().
func (r Region) Valid() bool {
	switch r {
	case RegionA, RegionB:
		return true
	default:
		return false
	}
}

// Multiplier returns the regional multiplier. It is zero for an invalid region.
func (r Region) Multiplier() decimal.Decimal {
	switch r {
	case RegionA:
		return multiplierRegionA
	case RegionB:
		return multiplierRegionB
	default:
		return decimal.Zero
	}
}

// YieldBoost returns the regional yield boost. It is zero for an invalid region.
func (r Region) YieldBoost() decimal.Decimal {
	switch r {
	case RegionA:
		return yieldBoostRegionA
	case RegionB:
		return yieldBoostRegionB
	default:
		return decimal.Zero
	}
}

func checkRegion(r Region) error {
	if !r.Valid() {
		return pkgerrors.Wrapf(ErrInvalidRegion, "unsupported region %d, supported regions are %s", int(r), strings.Join(RegionNames(), ", "))
	}
	return nil
}
