package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/predyx/market-connector/pkg/logging"
	"github.com/predyx/market-connector/pkg/websocket"
)

const wsPath = "/trade-api/ws/v2"

// TickerUpdate is one ticker channel message from the market-data stream.
type TickerUpdate struct {
	MarketTicker string `json:"market_ticker"`
	Price        int64  `json:"price"`
	YesBid       int64  `json:"yes_bid"`
	YesAsk       int64  `json:"yes_ask"`
	Volume       int64  `json:"volume"`
	OpenInterest int64  `json:"open_interest"`
	Ts           int64  `json:"ts"`
}

// TickerHandler receives ticker updates as they arrive
type TickerHandler func(update TickerUpdate)

type streamCommand struct {
	ID     int                `json:"id"`
	Cmd    string             `json:"cmd"`
	Params streamUpdateParams `json:"params"`
}

type streamUpdateParams struct {
	Channels      []string `json:"channels"`
	MarketTickers []string `json:"market_tickers,omitempty"`
}

type tickerEnvelope struct {
	Type string       `json:"type"`
	Sid  int          `json:"sid"`
	Msg  TickerUpdate `json:"msg"`
}

// Stream is a live market-data subscription over the trade API
// WebSocket. The handshake is authenticated with the same credential
// scheme the REST client uses.
type Stream struct {
	connector websocket.StreamConnector
	logger    logging.Logger
	nextID    atomic.Int64
}

// NewStream builds a stream for this client. The returned stream is not
// connected; call Connect before subscribing. Building the stream fails
// if authentication headers cannot be produced, since the handshake
// requires them.
func (c *Client) NewStream() (*Stream, error) {
	headers, err := c.authHeaders(http.MethodGet, wsPath)
	if err != nil {
		return nil, fmt.Errorf("preparing stream auth: %w", err)
	}

	config := websocket.Config{
		URL:               wsURLFromBase(c.baseURL) + wsPath,
		Header:            headers,
		HeartbeatInterval: 10 * time.Second,
		ReconnectInterval: time.Second,
		MaxRetries:        int(c.options.MaxRetries),
	}

	return &Stream{
		connector: websocket.NewConnector(config, c.logger),
		logger:    c.logger,
	}, nil
}

// wsURLFromBase maps the REST host scheme to its WebSocket equivalent
func wsURLFromBase(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	default:
		return baseURL
	}
}

// Connect establishes the WebSocket connection
func (s *Stream) Connect(ctx context.Context) error {
	return s.connector.Connect(ctx)
}

// Close closes the stream
func (s *Stream) Close() error {
	return s.connector.Close()
}

// SubscribeTicker subscribes to the ticker channel for the given
// markets. An empty ticker list subscribes to all markets. Updates are
// delivered to handler until the stream is closed; the subscription is
// replayed when the connection is reestablished after a drop.
func (s *Stream) SubscribeTicker(tickers []string, handler TickerHandler) error {
	err := s.connector.Subscribe("ticker", func(message []byte) {
		var envelope tickerEnvelope
		if err := json.Unmarshal(message, &envelope); err != nil {
			s.logger.Warn("malformed ticker message", logging.Error(err))
			return
		}
		handler(envelope.Msg)
	})
	if err != nil {
		return err
	}

	cmd := streamCommand{
		ID:  int(s.nextID.Add(1)),
		Cmd: "subscribe",
		Params: streamUpdateParams{
			Channels:      []string{"ticker"},
			MarketTickers: tickers,
		},
	}
	if err := s.connector.SendSubscription("ticker", cmd); err != nil {
		return fmt.Errorf("sending subscribe command: %w", err)
	}

	s.logger.Info("subscribed to ticker channel",
		logging.Int("markets", len(tickers)),
	)
	return nil
}

// UnsubscribeTicker stops delivery of ticker updates
func (s *Stream) UnsubscribeTicker() error {
	return s.connector.Unsubscribe("ticker")
}
