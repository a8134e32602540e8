package types

import (
	"errors"

	"github.com/charlie0129/appraise/pkg/valuation"
)

// Error kinds reported in ErrorResponse.Error.
const (
	ErrKindInvalidRegion       = "invalidRegion"
	ErrKindInvalidAmount       = "invalidAmount"
	ErrKindInvalidRateOrPeriod = "invalidRateOrPeriod"
	ErrKindBadRequest          = "badRequest"
	ErrKindRateLimited         = "rateLimited"
	ErrKindInternal            = "internal"
)

// ErrorResponse is the body of every non-2xx daemon response.
type ErrorResponse struct {
	Error            string   `json:"error"`
	Message          string   `json:"message"`
	SupportedRegions []string `json:"supportedRegions,omitempty"`
}

// NewErrorResponse classifies err into one of the error kinds.
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{
		Error:   ErrorKind(err),
		Message: err.Error(),
	}
	if resp.Error == ErrKindInvalidRegion {
		resp.SupportedRegions = valuation.RegionNames()
	}
	return resp
}

func ErrorKind(err error) string {
	switch {
	case errors.Is(err, valuation.ErrInvalidRegion):
		return ErrKindInvalidRegion
	case errors.Is(err, valuation.ErrInvalidAmount):
		return ErrKindInvalidAmount
	case errors.Is(err, valuation.ErrInvalidRateOrPeriod):
		return ErrKindInvalidRateOrPeriod
	default:
		return ErrKindBadRequest
	}
}

// Sentinel returns the valuation error matching the kind, or nil.
func (e ErrorResponse) Sentinel() error {
	switch e.Error {
	case ErrKindInvalidRegion:
		return valuation.ErrInvalidRegion
	case ErrKindInvalidAmount:
		return valuation.ErrInvalidAmount
	case ErrKindInvalidRateOrPeriod:
		return valuation.ErrInvalidRateOrPeriod
	default:
		return nil
	}
}
