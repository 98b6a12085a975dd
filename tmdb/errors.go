package tmdb

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid tmdb configuration")
	// ErrMissingToken indicates that no bearer token is configured
	ErrMissingToken = fmt.Errorf("%w: missing API bearer token", ErrInvalidConfig)
	// ErrEmptyQuery is returned when a search is attempted with a blank query
	ErrEmptyQuery = errors.New("empty search query")
	// ErrTransport indicates the request failed or returned a non-2xx status
	ErrTransport = errors.New("tmdb request failed")
	// ErrDecode indicates the response body did not match the expected shape
	ErrDecode = errors.New("tmdb response could not be decoded")
)

// APIError represents a non-2xx TMDB response
type APIError struct {
	StatusCode int
	// Code is TMDB's own status_code from the error body, 0 if absent
	Code    int
	Message string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("tmdb API error: status %d (code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("tmdb API error: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets callers match API errors with errors.Is(err, ErrTransport)
func (e *APIError) Unwrap() error {
	return ErrTransport
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsRateLimited checks if TMDB rejected the request for exceeding its rate limit
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// DecodeError is returned when a response body does not match the expected shape
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrDecode, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrDecode, e.Reason)
}

// Is reports ErrDecode so callers can use errors.Is
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
