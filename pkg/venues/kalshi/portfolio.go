package kalshi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// GetBalance fetches the account balance. Requires authentication.
func (c *Client) GetBalance(ctx context.Context) (*Balance, error) {
	var balance Balance
	if err := c.get(ctx, apiPrefix+"/portfolio/balance", nil, true, &balance); err != nil {
		return nil, fmt.Errorf("fetching balance: %w", err)
	}
	return &balance, nil
}

// GetPositions fetches one page of open positions. Requires
// authentication.
func (c *Client) GetPositions(ctx context.Context, limit int, cursor string) (*PositionsPage, error) {
	q := pageQuery(limit, cursor)

	var page PositionsPage
	if err := c.get(ctx, apiPrefix+"/portfolio/positions", q, true, &page); err != nil {
		return nil, fmt.Errorf("fetching positions: %w", err)
	}
	return &page, nil
}

// GetOrders fetches one page of orders. Requires authentication.
func (c *Client) GetOrders(ctx context.Context, limit int, cursor string) (*OrdersPage, error) {
	q := pageQuery(limit, cursor)

	var page OrdersPage
	if err := c.get(ctx, apiPrefix+"/portfolio/orders", q, true, &page); err != nil {
		return nil, fmt.Errorf("fetching orders: %w", err)
	}
	return &page, nil
}

// GetFills fetches one page of executed trades. Requires authentication.
func (c *Client) GetFills(ctx context.Context, params FillsParams) (*FillsPage, error) {
	q := pageQuery(params.Limit, params.Cursor)
	if params.Ticker != "" {
		q.Set("ticker", params.Ticker)
	}
	if params.OrderID != "" {
		q.Set("order_id", params.OrderID)
	}
	if params.MinTs > 0 {
		q.Set("min_ts", strconv.FormatInt(params.MinTs, 10))
	}
	if params.MaxTs > 0 {
		q.Set("max_ts", strconv.FormatInt(params.MaxTs, 10))
	}
	if params.UseDollars {
		q.Set("use_dollars", "true")
	}

	var page FillsPage
	if err := c.get(ctx, apiPrefix+"/portfolio/fills", q, true, &page); err != nil {
		return nil, fmt.Errorf("fetching fills: %w", err)
	}
	return &page, nil
}

// GetAPIKeys lists the account's registered API keys. Requires
// authentication.
func (c *Client) GetAPIKeys(ctx context.Context) ([]APIKey, error) {
	var resp apiKeysResponse
	if err := c.get(ctx, apiPrefix+"/api_keys", nil, true, &resp); err != nil {
		return nil, fmt.Errorf("fetching api keys: %w", err)
	}
	return resp.APIKeys, nil
}

func pageQuery(limit int, cursor string) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	return q
}
