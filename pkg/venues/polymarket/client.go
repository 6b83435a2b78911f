// Package polymarket implements a client for Polymarket's Gamma API.
// All Gamma market-data endpoints are public; no credentials are used.
package polymarket

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/predyx/market-connector/pkg/common"
	"github.com/predyx/market-connector/pkg/logging"
	"github.com/predyx/market-connector/pkg/ratelimit"
	"github.com/predyx/market-connector/pkg/venues/interfaces"
)

const (
	// DefaultBaseURL is the production Gamma API host.
	DefaultBaseURL = "https://gamma-api.polymarket.com"

	venueName = "polymarket"
)

// Client is a Gamma API client
type Client struct {
	baseURL string
	http    common.HTTPClient
	logger  logging.Logger
}

// NewClient creates a Polymarket client. Nil options select the
// defaults.
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
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger,
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", path, err)
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return err
	}
	return common.DecodeJSON(venueName, resp, out)
}

// GetMarkets fetches markets from the Gamma API. A positive limit caps
// the number of markets returned; zero fetches everything the endpoint
// serves.
func (c *Client) GetMarkets(ctx context.Context, limit int) ([]Market, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var markets []Market
	if err := c.get(ctx, "/markets", query, &markets); err != nil {
		return nil, err
	}
	if limit > 0 && len(markets) > limit {
		markets = markets[:limit]
	}
	return markets, nil
}

// GetActiveMarkets fetches markets that are not closed
func (c *Client) GetActiveMarkets(ctx context.Context) ([]Market, error) {
	markets, err := c.GetMarkets(ctx, 0)
	if err != nil {
		return nil, err
	}

	active := make([]Market, 0, len(markets))
	for _, m := range markets {
		if !m.Closed {
			active = append(active, m)
		}
	}

	c.logger.Info("fetched active markets",
		logging.Int("active", len(active)),
		logging.Int("total", len(markets)),
	)
	return active, nil
}

// GetMarketsByCategory fetches markets with the given category
func (c *Client) GetMarketsByCategory(ctx context.Context, category string) ([]Market, error) {
	markets, err := c.GetMarkets(ctx, 0)
	if err != nil {
		return nil, err
	}

	var matched []Market
	for _, m := range markets {
		if m.Category == category {
			matched = append(matched, m)
		}
	}
	return matched, nil
}

// GetMarketsByStatus fetches markets in the given lifecycle state. An
// unrecognized status returns every market.
func (c *Client) GetMarketsByStatus(ctx context.Context, status string) ([]Market, error) {
	markets, err := c.GetMarkets(ctx, 0)
	if err != nil {
		return nil, err
	}

	switch status {
	case StatusOpen:
		open := make([]Market, 0, len(markets))
		for _, m := range markets {
			if !m.Closed {
				open = append(open, m)
			}
		}
		return open, nil
	case StatusClosed:
		var closed []Market
		for _, m := range markets {
			if m.Closed {
				closed = append(closed, m)
			}
		}
		return closed, nil
	default:
		return markets, nil
	}
}

// GetHighVolumeMarkets fetches markets whose total volume meets the
// threshold
func (c *Client) GetHighVolumeMarkets(ctx context.Context, minVolume float64) ([]Market, error) {
	markets, err := c.GetMarkets(ctx, 0)
	if err != nil {
		return nil, err
	}

	var high []Market
	for _, m := range markets {
		if m.VolumeNum >= minVolume {
			high = append(high, m)
		}
	}
	return high, nil
}
