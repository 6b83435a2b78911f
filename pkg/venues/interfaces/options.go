package interfaces

import "time"

// VenueOptions defines configuration options shared by venue clients.
type VenueOptions struct {
	// BaseURL overrides the venue's default REST host. Mainly useful for
	// pointing a client at a test server.
	BaseURL string

	// Credential selects the authentication scheme for endpoints that
	// require one. Leave zero for public-only access.
	Credential Credential

	// FallbackToken is an optional bearer token used when request signing
	// fails at call time. Matches the upstream behavior of degrading to
	// bearer auth rather than failing the request outright; a warning is
	// logged whenever the fallback engages.
	FallbackToken string

	// HTTPTimeout is the per-request timeout for REST calls.
	HTTPTimeout time.Duration

	// MaxRetries is the retry budget for rate-limited (429) and
	// server-error (5xx) responses.
	MaxRetries uint

	// RetryDelay is the base delay of the exponential backoff schedule.
	RetryDelay time.Duration

	// RequestsPerSecond paces outbound requests to the venue.
	RequestsPerSecond int

	// LogLevel controls the verbosity of client logging.
	// Common values: "debug", "info", "warn", "error".
	LogLevel string
}

// NewVenueOptions returns default options: 10 second HTTP timeout, 5
// retries with a 1 second backoff base, 10 requests per second.
func NewVenueOptions() *VenueOptions {
	return &VenueOptions{
		HTTPTimeout:       10 * time.Second,
		MaxRetries:        5,
		RetryDelay:        time.Second,
		RequestsPerSecond: 10,
		LogLevel:          "info",
	}
}

// WithCredential sets the credential and returns the options for chaining.
func (o *VenueOptions) WithCredential(c Credential) *VenueOptions {
	o.Credential = c
	return o
}

// WithFallbackToken sets the fallback bearer token and returns the
// options for chaining.
func (o *VenueOptions) WithFallbackToken(token string) *VenueOptions {
	o.FallbackToken = token
	return o
}
