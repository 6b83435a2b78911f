// Package kalshi implements a client for the Kalshi trade API.
//
// Public market-data endpoints (markets, events, series, candlesticks)
// need no credentials. Portfolio endpoints require authentication with
// one of two mutually exclusive schemes selected at construction: a
// bearer token, or RSA-PSS request signing with a key-id and private key.
// All requests go through a shared HTTP client that retries rate-limited
// and server-error responses with exponential backoff.
package kalshi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/predyx/market-connector/pkg/common"
	"github.com/predyx/market-connector/pkg/logging"
	"github.com/predyx/market-connector/pkg/ratelimit"
	"github.com/predyx/market-connector/pkg/venues/interfaces"
)

const (
	// DefaultBaseURL is the production REST host.
	DefaultBaseURL = "https://api.elections.kalshi.com"

	apiPrefix = "/trade-api/v2"

	venueName = "kalshi"
)

// Client is a Kalshi trade API client. Methods are synchronous blocking
// calls; the client is safe for sequential reuse.
type Client struct {
	options *interfaces.VenueOptions
	baseURL string
	http    common.HTTPClient
	logger  logging.Logger

	signerOnce sync.Once
	signer     *signer
	signerErr  error
}

// NewClient creates a Kalshi client with the given options. Nil options
// select the defaults (public-only access, production host).
func NewClient(options *interfaces.VenueOptions) *Client {
	if options == nil {
		options = interfaces.NewVenueOptions()
	}
	baseURL := DefaultBaseURL
	if options.BaseURL != "" {
		baseURL = options.BaseURL
	}

	logger := logging.NewZapLogger(logging.WithLogLevel(logging.ParseLevel(options.LogLevel)))

	httpClient := common.NewHTTPClient(&common.ClientConfig{
		Timeout: options.HTTPTimeout,
		RateLimit: ratelimit.Rate{
			Limit:    options.RequestsPerSecond,
			Interval: time.Second,
		},
		MaxRetries: options.MaxRetries,
		RetryDelay: options.RetryDelay,
		Logger:     logger,
	})

	return &Client{
		options: options,
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger,
	}
}

// getSigner lazily parses the RSA credential. Parsing happens at most
// once; the result (or error) is reused by every signed request.
func (c *Client) getSigner() (*signer, error) {
	c.signerOnce.Do(func() {
		cred := c.options.Credential
		c.signer, c.signerErr = newSigner(cred.KeyID(), cred.PEM())
	})
	return c.signer, c.signerErr
}

// authHeaders produces authentication headers for one request. With an
// RSA credential the request is signed; if signing fails and a fallback
// bearer token is configured, the client degrades to bearer auth for
// that request and logs a warning, otherwise the signing error is
// returned before any network call.
func (c *Client) authHeaders(method, path string) (http.Header, error) {
	switch c.options.Credential.Kind() {
	case interfaces.CredentialRSAKey:
		s, err := c.getSigner()
		if err == nil {
			var h http.Header
			h, err = s.requestHeaders(method, path)
			if err == nil {
				return h, nil
			}
		}
		if c.options.FallbackToken != "" {
			c.logger.Warn("request signing failed, falling back to bearer token",
				logging.String("path", path),
				logging.Error(err),
			)
			return bearerHeader(c.options.FallbackToken), nil
		}
		return nil, err

	case interfaces.CredentialBearer:
		return bearerHeader(c.options.Credential.Token()), nil

	default:
		if c.options.FallbackToken != "" {
			return bearerHeader(c.options.FallbackToken), nil
		}
		return nil, interfaces.ErrNoCredentials
	}
}

// get performs a GET against path, optionally attaching authentication
// headers, and decodes the JSON payload into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, authed bool, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", path, err)
	}

	if authed {
		headers, err := c.authHeaders(http.MethodGet, path)
		if err != nil {
			return err
		}
		for key, values := range headers {
			for _, v := range values {
				req.Header.Set(key, v)
			}
		}
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return err
	}
	return common.DecodeJSON(venueName, resp, out)
}
