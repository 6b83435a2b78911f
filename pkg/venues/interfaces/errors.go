package interfaces

import (
	"errors"
	"fmt"
)

// Common error variables that venue clients may return
var (
	// ErrAuthenticationFailed is returned when a venue rejects the
	// credentials on an authenticated call (HTTP 401). It is deliberately
	// distinct from transport and generic HTTP failures so callers can
	// tell "check your credentials" apart from "venue unavailable".
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrNoCredentials is returned when an authenticated endpoint is
	// called on a client constructed without any credential.
	ErrNoCredentials = errors.New("credentials required for authenticated endpoint")

	// ErrMissingKeyID is returned when request signing is attempted
	// without an access-key identifier.
	ErrMissingKeyID = errors.New("access key id required for request signing")

	// ErrMalformedPrivateKey is returned when the configured private key
	// cannot be parsed as a PEM-encoded RSA key.
	ErrMalformedPrivateKey = errors.New("malformed RSA private key")

	// ErrInvalidGranularity is returned when an unsupported candle
	// granularity is requested.
	ErrInvalidGranularity = errors.New("invalid candle granularity")

	// ErrInvalidTimeRange is returned when an invalid time range is
	// provided (e.g. end before start).
	ErrInvalidTimeRange = errors.New("invalid time range")

	// ErrNotConnected is returned when a stream operation is attempted on
	// a connector that hasn't been connected yet or lost its connection.
	ErrNotConnected = errors.New("stream connector not connected")
)

// VenueError represents a non-2xx HTTP response from a venue API that is
// not an authentication failure.
type VenueError struct {
	Venue      string
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *VenueError) Error() string {
	return fmt.Sprintf("%s API error: status %d: %s", e.Venue, e.StatusCode, e.Body)
}

// NewVenueError creates a venue-specific HTTP error
func NewVenueError(venue string, status int, body string) error {
	return &VenueError{Venue: venue, StatusCode: status, Body: body}
}
