// Package websocket provides a reconnecting WebSocket connector used for
// venue market-data streams. Messages are routed to handlers by the
// "type" field of the JSON envelope, which is the framing the Kalshi
// stream uses for its channel messages.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/gorilla/websocket"
	"github.com/predyx/market-connector/pkg/logging"
	"github.com/predyx/market-connector/pkg/venues/interfaces"
)

// MessageHandler is a callback for incoming messages of one envelope type
type MessageHandler func(message []byte)

// StreamConnector defines the interface for managing a stream connection
type StreamConnector interface {
	// Connect establishes the WebSocket connection
	Connect(ctx context.Context) error

	// Close cleanly closes the WebSocket connection
	Close() error

	// Subscribe registers a handler for an envelope type
	Subscribe(msgType string, handler MessageHandler) error

	// Unsubscribe removes the handler for an envelope type and drops its
	// recorded subscription message
	Unsubscribe(msgType string) error

	// Send sends a message through the WebSocket connection
	Send(message interface{}) error

	// SendSubscription sends a subscription message and records it under
	// msgType so it is replayed after every successful reconnect
	SendSubscription(msgType string, message interface{}) error

	// IsConnected returns the current connection status
	IsConnected() bool
}

// Config holds WebSocket connection configuration. Header is attached to
// the handshake request; signed streams put their auth headers here.
type Config struct {
	URL               string
	Header            http.Header
	HeartbeatInterval time.Duration
	ReconnectInterval time.Duration
	MaxRetries        int
}

// Metrics holds connection and message statistics
type Metrics struct {
	ConnectedTime  time.Time
	MessageCount   int64
	ReconnectCount int64
	ErrorCount     int64
}

// connector implements the StreamConnector interface
type connector struct {
	config Config

	// conn, connected, sessionCtx and stopRequested are guarded by
	// stateMu. sessionCtx is the context of the most recent external
	// Connect; reconnected connections inherit it so their lifetime is
	// tied to the caller's context, not to a reconnect attempt.
	conn          *websocket.Conn
	connected     bool
	sessionCtx    context.Context
	stopRequested bool
	stateMu       sync.RWMutex

	handlers   map[string]MessageHandler
	handlersMu sync.RWMutex

	// subscriptions records the wire messages that established each
	// envelope-type subscription, replayed by resubscribe.
	subscriptions map[string]interface{}
	subsMu        sync.Mutex

	writeMu sync.Mutex

	done   chan struct{}
	doneMu sync.Mutex
	closed bool

	reconnectMu  sync.Mutex
	reconnecting bool

	metrics   Metrics
	metricsMu sync.RWMutex

	logger logging.Logger
}

// NewConnector creates a new stream connector with the given configuration
func NewConnector(config Config, logger logging.Logger) StreamConnector {
	if logger == nil {
		logger = logging.NewZapLogger()
	}
	return &connector{
		config:        config,
		handlers:      make(map[string]MessageHandler),
		subscriptions: make(map[string]interface{}),
		logger:        logger,
	}
}

// GetMetrics returns the current connection metrics
func (c *connector) GetMetrics() Metrics {
	c.metricsMu.RLock()
	defer c.metricsMu.RUnlock()
	return c.metrics
}

// Connect establishes the WebSocket connection and starts background routines
func (c *connector) Connect(ctx context.Context) error {
	c.reconnectMu.Lock()
	defer c.reconnectMu.Unlock()

	if c.IsConnected() {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("context already cancelled: %w", ctx.Err())
	}

	c.stateMu.Lock()
	c.sessionCtx = ctx
	c.stopRequested = false
	c.stateMu.Unlock()

	c.logger.Debug("attempting stream connection",
		logging.String("url", c.config.URL),
		logging.Duration("heartbeat", c.config.HeartbeatInterval),
		logging.Duration("reconnect", c.config.ReconnectInterval),
	)

	var lastErr error
	attempt := 0

	for {
		attempt++
		if attempt > c.config.MaxRetries {
			return fmt.Errorf("max retries exceeded: %w", lastErr)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		dialer := websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		}
		conn, _, err := dialer.DialContext(ctx, c.config.URL, c.config.Header)
		if err != nil {
			lastErr = err
			c.metricsMu.Lock()
			c.metrics.ErrorCount++
			c.metricsMu.Unlock()
			c.logger.Warn("connection attempt failed",
				logging.Int("attempt", attempt),
				logging.Error(err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.ReconnectInterval):
				continue
			}
		}

		c.stateMu.Lock()
		c.conn = conn
		c.connected = true
		c.stateMu.Unlock()

		c.metricsMu.Lock()
		c.metrics.ConnectedTime = time.Now()
		c.metricsMu.Unlock()

		done := make(chan struct{})
		c.doneMu.Lock()
		c.done = done
		c.closed = false
		c.doneMu.Unlock()

		go c.readPump(ctx, conn)
		go c.heartbeat(conn, done)

		go func() {
			select {
			case <-ctx.Done():
				c.logger.Info("context cancelled, closing stream")
				c.Close()
			case <-done:
				return
			}
		}()

		c.logger.Info("stream connected", logging.String("url", c.config.URL))

		if err := c.resubscribe(); err != nil {
			c.logger.Warn("failed to resubscribe", logging.Error(err))
		}

		return nil
	}
}

// readPump continuously reads messages from the WebSocket
func (c *connector) readPump(ctx context.Context, conn *websocket.Conn) {
	defer func() {
		c.stateMu.Lock()
		if c.conn == conn {
			c.connected = false
		}
		stopped := c.stopRequested
		c.stateMu.Unlock()

		_ = conn.Close()

		c.doneMu.Lock()
		if !c.closed {
			close(c.done)
			c.closed = true
		}
		c.doneMu.Unlock()

		c.reconnectMu.Lock()
		reconnecting := c.reconnecting
		c.reconnectMu.Unlock()

		if !reconnecting && !stopped && ctx.Err() == nil {
			go c.reconnect()
		}
	}()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.config.HeartbeatInterval * 3))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn.SetReadDeadline(time.Now().Add(c.config.HeartbeatInterval * 3))
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.logger.Warn("read error", logging.Error(err))
					c.metricsMu.Lock()
					c.metrics.ErrorCount++
					c.metricsMu.Unlock()
				}
				return
			}

			c.metricsMu.Lock()
			c.metrics.MessageCount++
			c.metricsMu.Unlock()

			c.dispatch(message)
		}
	}
}

// dispatch routes a message to the handler registered for its envelope
// type. Handlers run on their own goroutine so a slow consumer cannot
// stall the read pump.
func (c *connector) dispatch(message []byte) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(message, &envelope); err != nil {
		c.logger.Warn("failed to unmarshal stream message", logging.Error(err))
		return
	}

	c.handlersMu.RLock()
	handler, exists := c.handlers[envelope.Type]
	c.handlersMu.RUnlock()

	if !exists {
		return
	}

	go func(msgType string, data []byte, h MessageHandler) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("handler panic recovered",
					logging.String("type", msgType),
					logging.String("panic", fmt.Sprintf("%v", r)),
				)
			}
		}()
		h(data)
	}(envelope.Type, message, handler)
}

// heartbeat sends periodic ping messages to keep the connection alive
func (c *connector) heartbeat(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(c.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			if !c.IsConnected() {
				c.writeMu.Unlock()
				return
			}
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// reconnect attempts to reestablish a dropped connection. The new
// connection runs under the session context of the original Connect
// call, so a successful reconnect lives until the caller cancels or
// the connection drops again.
func (c *connector) reconnect() {
	c.reconnectMu.Lock()
	if c.reconnecting {
		c.reconnectMu.Unlock()
		return
	}
	c.reconnecting = true
	c.reconnectMu.Unlock()

	defer func() {
		c.reconnectMu.Lock()
		c.reconnecting = false
		c.reconnectMu.Unlock()
	}()

	c.stateMu.RLock()
	ctx := c.sessionCtx
	c.stateMu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}

	c.metricsMu.Lock()
	c.metrics.ReconnectCount++
	c.metricsMu.Unlock()

	err := retry.Do(
		func() error {
			if ctx.Err() != nil {
				return retry.Unrecoverable(ctx.Err())
			}
			return c.Connect(ctx)
		},
		retry.Attempts(uint(c.config.MaxRetries)),
		retry.Delay(c.config.ReconnectInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("reconnection attempt failed",
				logging.Int("attempt", int(n+1)),
				logging.Error(err))
		}),
	)

	if err != nil {
		c.logger.Error("reconnection failed", logging.Error(err))
		c.metricsMu.Lock()
		c.metrics.ErrorCount++
		c.metricsMu.Unlock()
		return
	}

	c.logger.Info("reconnection successful")
}

// resubscribe replays the recorded subscription messages on the current
// connection so server-side subscriptions survive a reconnect
func (c *connector) resubscribe() error {
	c.subsMu.Lock()
	msgs := make(map[string]interface{}, len(c.subscriptions))
	for msgType, msg := range c.subscriptions {
		msgs[msgType] = msg
	}
	c.subsMu.Unlock()

	var errs []error
	for msgType, msg := range msgs {
		if err := c.Send(msg); err != nil {
			c.logger.Error("failed to resubscribe",
				logging.String("type", msgType),
				logging.Error(err),
			)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to resubscribe to %d channels", len(errs))
	}
	return nil
}

// Subscribe implements StreamConnector interface
func (c *connector) Subscribe(msgType string, handler MessageHandler) error {
	if !c.IsConnected() {
		return interfaces.ErrNotConnected
	}

	c.handlersMu.Lock()
	c.handlers[msgType] = handler
	c.handlersMu.Unlock()
	return nil
}

// Unsubscribe implements StreamConnector interface
func (c *connector) Unsubscribe(msgType string) error {
	c.handlersMu.Lock()
	delete(c.handlers, msgType)
	c.handlersMu.Unlock()

	c.subsMu.Lock()
	delete(c.subscriptions, msgType)
	c.subsMu.Unlock()
	return nil
}

// Send implements StreamConnector interface
func (c *connector) Send(message interface{}) error {
	c.stateMu.RLock()
	conn, connected := c.conn, c.connected
	c.stateMu.RUnlock()

	if !connected || conn == nil {
		return interfaces.ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if data, ok := message.([]byte); ok {
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// SendSubscription implements StreamConnector interface
func (c *connector) SendSubscription(msgType string, message interface{}) error {
	c.subsMu.Lock()
	c.subscriptions[msgType] = message
	c.subsMu.Unlock()

	return c.Send(message)
}

// IsConnected implements StreamConnector interface
func (c *connector) IsConnected() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.connected
}

// Close implements StreamConnector interface
func (c *connector) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.doneMu.Lock()
	wasClosed := c.closed || c.done == nil
	if !c.closed && c.done != nil {
		close(c.done)
		c.closed = true
	}
	c.doneMu.Unlock()

	if wasClosed {
		return nil
	}

	c.stateMu.Lock()
	c.connected = false
	c.stopRequested = true
	conn := c.conn
	c.stateMu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closed connection"))

		// Give the close message a moment to flush
		time.Sleep(100 * time.Millisecond)

		err := conn.Close()
		if err != nil && !strings.Contains(err.Error(), "use of closed network connection") {
			return err
		}
	}

	return nil
}
