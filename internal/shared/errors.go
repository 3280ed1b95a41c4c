package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTrackNotFound      = fmt.Errorf("track not found")
	ErrEmptyPlaylist      = fmt.Errorf("playlist has no tracks")

	// Chart errors
	ErrInvalidDate  = fmt.Errorf("invalid date")
	ErrNoValidChart = fmt.Errorf("no valid chart found")
	ErrNoMatches    = fmt.Errorf("no chart entries matched")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrCancelled       = fmt.Errorf("cancelled by user")
)

// IsSoft reports whether err is an expected, user-recoverable stop
// that should end the process normally.
func IsSoft(err error) bool {
	for _, target := range []error{ErrInvalidDate, ErrNoValidChart, ErrNoMatches, ErrCancelled, ErrNotImplemented} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
