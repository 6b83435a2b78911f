package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predyx/market-connector/pkg/logging"
	"github.com/predyx/market-connector/pkg/venues/interfaces"
)

func testConfig(url string) Config {
	return Config{
		URL:               url,
		HeartbeatInterval: time.Second,
		ReconnectInterval: 100 * time.Millisecond,
		MaxRetries:        3,
	}
}

func TestConnectorLifecycle(t *testing.T) {
	mock, wsURL := setupMockServer(t)

	var connectCount int
	mock.OnConnect(func(conn *websocket.Conn) {
		connectCount++
	})

	connector := NewConnector(testConfig(wsURL), logging.NewLogger())

	ctx := context.Background()
	err := connector.Connect(ctx)
	require.NoError(t, err)
	assert.True(t, connector.IsConnected())

	// Idempotent connect
	err = connector.Connect(ctx)
	require.NoError(t, err)

	err = connector.Close()
	require.NoError(t, err)
	assert.False(t, connector.IsConnected())

	// Closing twice is a no-op
	err = connector.Close()
	require.NoError(t, err)
}

func TestConnectorCloseBeforeConnect(t *testing.T) {
	connector := NewConnector(testConfig("ws://localhost:1"), logging.NewLogger())
	err := connector.Close()
	require.NoError(t, err)
}

func TestConnectorDispatch(t *testing.T) {
	mock, wsURL := setupMockServer(t)

	connector := NewConnector(testConfig(wsURL), logging.NewLogger())
	require.NoError(t, connector.Connect(context.Background()))
	defer connector.Close()

	received := make(chan []byte, 4)
	require.NoError(t, connector.Subscribe("ticker", func(msg []byte) {
		received <- msg
	}))

	// Message with a matching envelope type reaches the handler
	tickerMsg := []byte(`{"type":"ticker","msg":{"market_ticker":"INXD-23DEC29","price":56}}`)
	mock.Broadcast(tickerMsg)

	select {
	case msg := <-received:
		var envelope struct {
			Type string          `json:"type"`
			Msg  json.RawMessage `json:"msg"`
		}
		require.NoError(t, json.Unmarshal(msg, &envelope))
		assert.Equal(t, "ticker", envelope.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for ticker message")
	}

	// Messages of other types are dropped silently
	mock.Broadcast([]byte(`{"type":"orderbook_delta","msg":{}}`))
	select {
	case <-received:
		t.Fatal("received message for unsubscribed type")
	case <-time.After(200 * time.Millisecond):
	}

	// After unsubscribing nothing is delivered
	require.NoError(t, connector.Unsubscribe("ticker"))
	mock.Broadcast(tickerMsg)
	select {
	case <-received:
		t.Fatal("received message after unsubscribe")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestConnectorSend(t *testing.T) {
	mock, wsURL := setupMockServer(t)

	connector := NewConnector(testConfig(wsURL), logging.NewLogger())
	require.NoError(t, connector.Connect(context.Background()))
	defer connector.Close()

	type command struct {
		ID  int    `json:"id"`
		Cmd string `json:"cmd"`
	}
	require.NoError(t, connector.Send(command{ID: 1, Cmd: "subscribe"}))
	require.NoError(t, connector.Send([]byte(`{"id":2,"cmd":"subscribe"}`)))

	require.Eventually(t, func() bool {
		return len(mock.GetMessageBuffer()) == 2
	}, 2*time.Second, 50*time.Millisecond)

	messages := mock.GetMessageBuffer()
	var first command
	require.NoError(t, json.Unmarshal(messages[0], &first))
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, "subscribe", first.Cmd)
}

func TestConnectorSendNotConnected(t *testing.T) {
	connector := NewConnector(testConfig("ws://localhost:1"), logging.NewLogger())
	err := connector.Send([]byte("hello"))
	require.ErrorIs(t, err, interfaces.ErrNotConnected)
}

func TestConnectorSubscribeNotConnected(t *testing.T) {
	connector := NewConnector(testConfig("ws://localhost:1"), logging.NewLogger())
	err := connector.Subscribe("ticker", func([]byte) {})
	require.ErrorIs(t, err, interfaces.ErrNotConnected)
}

func TestConnectorHandshakeHeader(t *testing.T) {
	mock, wsURL := setupMockServer(t)

	config := testConfig(wsURL)
	config.Header = http.Header{}
	config.Header.Set("KALSHI-ACCESS-KEY", "key-id")
	config.Header.Set("KALSHI-ACCESS-SIGNATURE", "sig")

	connector := NewConnector(config, logging.NewLogger())
	require.NoError(t, connector.Connect(context.Background()))
	defer connector.Close()

	header := mock.LastHandshakeHeader()
	require.NotNil(t, header)
	assert.Equal(t, "key-id", header.Get("KALSHI-ACCESS-KEY"))
	assert.Equal(t, "sig", header.Get("KALSHI-ACCESS-SIGNATURE"))
}

func TestConnectorRejectedConnection(t *testing.T) {
	mock, wsURL := setupMockServer(t)
	mock.SetRejectConnection(true)

	connector := NewConnector(testConfig(wsURL), logging.NewLogger())
	err := connector.Connect(context.Background())
	require.Error(t, err)
	assert.False(t, connector.IsConnected())
}

func TestConnectorContextCancelled(t *testing.T) {
	_, wsURL := setupMockServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	connector := NewConnector(testConfig(wsURL), logging.NewLogger())
	err := connector.Connect(ctx)
	require.Error(t, err)
}

func TestConnectorReconnect(t *testing.T) {
	mock, wsURL := setupMockServer(t)

	connector := NewConnector(testConfig(wsURL), logging.NewLogger())
	require.NoError(t, connector.Connect(context.Background()))
	defer connector.Close()

	// Drop every server-side connection to trigger the reconnect loop
	mock.DropConnections()

	require.Eventually(t, connector.IsConnected, 5*time.Second, 100*time.Millisecond)

	// The reestablished connection must stay up and remain usable
	time.Sleep(300 * time.Millisecond)
	assert.True(t, connector.IsConnected())
	require.NoError(t, connector.Send([]byte(`{"id":9,"cmd":"subscribe"}`)))
}

func TestConnectorResubscribeAfterReconnect(t *testing.T) {
	mock, wsURL := setupMockServer(t)

	connector := NewConnector(testConfig(wsURL), logging.NewLogger())
	require.NoError(t, connector.Connect(context.Background()))
	defer connector.Close()

	require.NoError(t, connector.Subscribe("ticker", func([]byte) {}))
	subscribeMsg := []byte(`{"id":1,"cmd":"subscribe","params":{"channels":["ticker"]}}`)
	require.NoError(t, connector.SendSubscription("ticker", subscribeMsg))

	require.Eventually(t, func() bool {
		return len(mock.GetMessageBuffer()) == 1
	}, 2*time.Second, 50*time.Millisecond)

	mock.DropConnections()
	require.Eventually(t, connector.IsConnected, 5*time.Second, 100*time.Millisecond)

	// The recorded subscription command is replayed on the new connection
	require.Eventually(t, func() bool {
		return len(mock.GetMessageBuffer()) >= 2
	}, 5*time.Second, 100*time.Millisecond)

	messages := mock.GetMessageBuffer()
	assert.Equal(t, string(subscribeMsg), string(messages[len(messages)-1]))
}

func TestConnectorUnsubscribeStopsReplay(t *testing.T) {
	mock, wsURL := setupMockServer(t)

	connector := NewConnector(testConfig(wsURL), logging.NewLogger())
	require.NoError(t, connector.Connect(context.Background()))
	defer connector.Close()

	require.NoError(t, connector.Subscribe("ticker", func([]byte) {}))
	require.NoError(t, connector.SendSubscription("ticker", []byte(`{"id":1,"cmd":"subscribe"}`)))
	require.Eventually(t, func() bool {
		return len(mock.GetMessageBuffer()) == 1
	}, 2*time.Second, 50*time.Millisecond)

	require.NoError(t, connector.Unsubscribe("ticker"))

	mock.DropConnections()
	require.Eventually(t, connector.IsConnected, 5*time.Second, 100*time.Millisecond)

	// Nothing left to replay after the unsubscribe
	time.Sleep(300 * time.Millisecond)
	assert.Len(t, mock.GetMessageBuffer(), 1)
}
