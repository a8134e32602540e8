package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/charlie0129/appraise/pkg/types"
)

var (
	// ErrDaemonNotRunning is returned when the daemon is not running
	ErrDaemonNotRunning = errors.New("daemon not running")

	// ErrPermissionDenied is returned when the user does not have permission to perform the requested action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when 404 is returned from the daemon
	ErrNotFound = errors.New("404 not found")

	// ErrRateLimited is returned when the daemon answers 429
	ErrRateLimited = errors.New("rate limited")
)

// APIError is a non-2xx answer from the daemon. It unwraps to the matching
// valuation error, so errors.Is(err, valuation.ErrInvalidRegion) works on
// the client side too.
type APIError struct {
	StatusCode int
	Response   types.ErrorResponse
}

func (e *APIError) Error() string {
	if e.Response.Message == "" {
		return fmt.Sprintf("got %d", e.StatusCode)
	}
	return fmt.Sprintf("got %d: %s", e.StatusCode, e.Response.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return e.Response.Sentinel()
}
