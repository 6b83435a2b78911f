package kalshi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// GetMarkets fetches one page of the markets listing.
func (c *Client) GetMarkets(ctx context.Context, params MarketsParams) (*MarketsPage, error) {
	q := url.Values{}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Status != "" {
		q.Set("status", params.Status)
	}
	if params.Cursor != "" {
		q.Set("cursor", params.Cursor)
	}
	for key, value := range params.Extra {
		q.Set(key, value)
	}

	var page MarketsPage
	if err := c.get(ctx, apiPrefix+"/markets", q, false, &page); err != nil {
		return nil, fmt.Errorf("fetching markets: %w", err)
	}
	return &page, nil
}

// GetAllMarkets follows the cursor through every page of the markets
// listing and returns the concatenation. All pages are accumulated
// before returning; there is no partial delivery.
func (c *Client) GetAllMarkets(ctx context.Context, params MarketsParams) ([]Market, error) {
	var all []Market
	for {
		page, err := c.GetMarkets(ctx, params)
		if err != nil {
			return nil, err
		}
		if len(page.Markets) == 0 {
			return all, nil
		}
		all = append(all, page.Markets...)
		if page.Cursor == "" {
			return all, nil
		}
		params.Cursor = page.Cursor
	}
}

// GetMarket fetches a single market by ticker.
func (c *Client) GetMarket(ctx context.Context, ticker string) (*Market, error) {
	var resp struct {
		Market Market `json:"market"`
	}
	if err := c.get(ctx, apiPrefix+"/markets/"+ticker, nil, false, &resp); err != nil {
		return nil, fmt.Errorf("fetching market %s: %w", ticker, err)
	}
	return &resp.Market, nil
}

// GetEvent fetches a single event by ticker.
func (c *Client) GetEvent(ctx context.Context, eventTicker string) (*Event, error) {
	var resp struct {
		Event Event `json:"event"`
	}
	if err := c.get(ctx, apiPrefix+"/events/"+eventTicker, nil, false, &resp); err != nil {
		return nil, fmt.Errorf("fetching event %s: %w", eventTicker, err)
	}
	return &resp.Event, nil
}

// GetEvents fetches one page of the events listing.
func (c *Client) GetEvents(ctx context.Context, params EventsParams) (*EventsPage, error) {
	q := url.Values{}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Cursor != "" {
		q.Set("cursor", params.Cursor)
	}
	if params.WithNestedMarkets {
		q.Set("with_nested_markets", "true")
	}

	var page EventsPage
	if err := c.get(ctx, apiPrefix+"/events", q, false, &page); err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}
	return &page, nil
}

// GetSeries fetches the series listing.
func (c *Client) GetSeries(ctx context.Context, params SeriesParams) ([]Series, error) {
	q := url.Values{}
	if params.Category != "" {
		q.Set("category", params.Category)
	}
	if params.IncludeProductMetadata {
		q.Set("include_product_metadata", "true")
	}

	var resp struct {
		Series []Series `json:"series"`
	}
	if err := c.get(ctx, apiPrefix+"/series", q, false, &resp); err != nil {
		return nil, fmt.Errorf("fetching series: %w", err)
	}
	return resp.Series, nil
}
