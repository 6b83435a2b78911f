package kalshi

import "time"

// Market is a single Kalshi market (the leaf of the series -> event ->
// market hierarchy). Prices are integer cents.
type Market struct {
	Ticker       string    `json:"ticker"`
	EventTicker  string    `json:"event_ticker"`
	Title        string    `json:"title"`
	Subtitle     string    `json:"subtitle"`
	YesSubTitle  string    `json:"yes_sub_title"`
	NoSubTitle   string    `json:"no_sub_title"`
	Status       string    `json:"status"`
	YesBid       int64     `json:"yes_bid"`
	YesAsk       int64     `json:"yes_ask"`
	NoBid        int64     `json:"no_bid"`
	NoAsk        int64     `json:"no_ask"`
	LastPrice    int64     `json:"last_price"`
	Volume       int64     `json:"volume"`
	Volume24H    int64     `json:"volume_24h"`
	OpenInterest int64     `json:"open_interest"`
	Liquidity    int64     `json:"liquidity"`
	OpenTime     time.Time `json:"open_time"`
	CloseTime    time.Time `json:"close_time"`
}

// MarketsPage is one page of the markets listing, with the cursor
// pointing at the next page (empty when exhausted).
type MarketsPage struct {
	Markets []Market `json:"markets"`
	Cursor  string   `json:"cursor"`
}

// MarketsParams filters the markets listing. Extra holds any additional
// query parameters the endpoint accepts (e.g. series_ticker).
type MarketsParams struct {
	Limit  int
	Status string
	Cursor string
	Extra  map[string]string
}

// Event groups one or more markets under a parent series.
type Event struct {
	EventTicker  string   `json:"event_ticker"`
	SeriesTicker string   `json:"series_ticker"`
	Title        string   `json:"title"`
	Category     string   `json:"category"`
	Markets      []Market `json:"markets,omitempty"`
}

// EventsPage is one page of the events listing.
type EventsPage struct {
	Events []Event `json:"events"`
	Cursor string  `json:"cursor"`
}

// EventsParams filters the events listing.
type EventsParams struct {
	Limit             int
	Cursor            string
	WithNestedMarkets bool
}

// Series is the top level of the market hierarchy.
type Series struct {
	Ticker    string `json:"ticker"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Frequency string `json:"frequency"`
}

// SeriesParams filters the series listing.
type SeriesParams struct {
	Category               string
	IncludeProductMetadata bool
}

// CandlePrice holds OHLC prices for one candle period, in cents.
type CandlePrice struct {
	Open  int64 `json:"open"`
	High  int64 `json:"high"`
	Low   int64 `json:"low"`
	Close int64 `json:"close"`
}

// Candlestick is a fixed-duration OHLC plus volume aggregate for a
// market. EndPeriodTs is the unix second at which the period closed.
type Candlestick struct {
	EndPeriodTs  int64       `json:"end_period_ts"`
	Price        CandlePrice `json:"price"`
	Volume       int64       `json:"volume"`
	OpenInterest int64       `json:"open_interest"`
}

type candlesticksResponse struct {
	Candlesticks []Candlestick `json:"candlesticks"`
}

// Balance is the account's available balance in cents.
type Balance struct {
	Balance int64 `json:"balance"`
}

// Position is an open position in a single market.
type Position struct {
	Ticker         string `json:"ticker"`
	Position       int64  `json:"position"`
	MarketExposure int64  `json:"market_exposure"`
	RealizedPnl    int64  `json:"realized_pnl"`
	TotalTraded    int64  `json:"total_traded"`
	RestingOrders  int64  `json:"resting_orders_count"`
}

// PositionsPage is one page of the portfolio positions listing.
type PositionsPage struct {
	MarketPositions []Position `json:"market_positions"`
	Cursor          string     `json:"cursor"`
}

// Order is a resting or historical order.
type Order struct {
	OrderID     string    `json:"order_id"`
	Ticker      string    `json:"ticker"`
	Side        string    `json:"side"`
	Action      string    `json:"action"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	YesPrice    int64     `json:"yes_price"`
	NoPrice     int64     `json:"no_price"`
	Count       int64     `json:"count"`
	CreatedTime time.Time `json:"created_time"`
}

// OrdersPage is one page of the portfolio orders listing.
type OrdersPage struct {
	Orders []Order `json:"orders"`
	Cursor string  `json:"cursor"`
}

// Fill is an executed trade.
type Fill struct {
	TradeID     string    `json:"trade_id"`
	OrderID     string    `json:"order_id"`
	Ticker      string    `json:"ticker"`
	Side        string    `json:"side"`
	Action      string    `json:"action"`
	Count       int64     `json:"count"`
	YesPrice    int64     `json:"yes_price"`
	NoPrice     int64     `json:"no_price"`
	IsTaker     bool      `json:"is_taker"`
	CreatedTime time.Time `json:"created_time"`
}

// FillsPage is one page of the portfolio fills listing.
type FillsPage struct {
	Fills  []Fill `json:"fills"`
	Cursor string `json:"cursor"`
}

// FillsParams filters the fills listing.
type FillsParams struct {
	Limit      int
	Cursor     string
	Ticker     string
	OrderID    string
	MinTs      int64
	MaxTs      int64
	UseDollars bool
}

// APIKey describes one of the account's registered API keys.
type APIKey struct {
	APIKeyID string `json:"api_key_id"`
	Name     string `json:"name"`
}

type apiKeysResponse struct {
	APIKeys []APIKey `json:"api_keys"`
}
