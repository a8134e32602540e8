package valuation

import "errors"

var (
	// ErrInvalidRegion is returned when a region is not one of Regions().
	ErrInvalidRegion = errors.New("invalid region")

	// ErrInvalidAmount is returned for non-positive or non-numeric amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidRateOrPeriod is returned when a yield rate or period is out of bounds.
	ErrInvalidRateOrPeriod = errors.New("invalid rate or period")
)
