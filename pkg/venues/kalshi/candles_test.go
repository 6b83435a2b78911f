package kalshi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predyx/market-connector/pkg/venues/interfaces"
)

func TestPeriodMinutes(t *testing.T) {
	tests := []struct {
		granularity string
		want        int64
		wantErr     bool
	}{
		{"1m", 1, false},
		{"1h", 60, false},
		{"1d", 1440, false},
		{"5m", 0, true},
		{"1w", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.granularity, func(t *testing.T) {
			got, err := PeriodMinutes(tt.granularity)
			if tt.wantErr {
				require.ErrorIs(t, err, interfaces.ErrInvalidGranularity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// candleServer serves the market/event resolution endpoints plus a
// synthetic candlesticks endpoint producing one candle per 60-second
// period inside the requested window.
func candleServer(t *testing.T, candleCalls *atomic.Int64, serveCandles func(startTs, endTs int64) []Candlestick) *Client {
	t.Helper()
	handler := func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/trade-api/v2/markets/TICK":
			writeJSON(w, map[string]Market{"market": {Ticker: "TICK", EventTicker: "EV-TICK"}})
		case r.URL.Path == "/trade-api/v2/events/EV-TICK":
			writeJSON(w, map[string]Event{"event": {EventTicker: "EV-TICK", SeriesTicker: "SER"}})
		case strings.HasSuffix(r.URL.Path, "/candlesticks"):
			require.Equal(t, "/trade-api/v2/series/SER/markets/TICK/candlesticks", r.URL.Path)
			candleCalls.Add(1)
			startTs, err := strconv.ParseInt(r.URL.Query().Get("start_ts"), 10, 64)
			require.NoError(t, err)
			endTs, err := strconv.ParseInt(r.URL.Query().Get("end_ts"), 10, 64)
			require.NoError(t, err)
			writeJSON(w, candlesticksResponse{Candlesticks: serveCandles(startTs, endTs)})
		default:
			t.Errorf("unexpected request path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
	server := newServer(t, handler)
	return NewClient(testOptions(server.URL))
}

func syntheticCandles(startTs, endTs int64) []Candlestick {
	var candles []Candlestick
	for ts := startTs + 60; ts <= endTs; ts += 60 {
		candles = append(candles, Candlestick{
			EndPeriodTs: ts,
			Price:       CandlePrice{Open: 50, High: 51, Low: 49, Close: 50},
			Volume:      1,
		})
	}
	return candles
}

func TestGetCandlesticksChunked(t *testing.T) {
	var candleCalls atomic.Int64
	client := candleServer(t, &candleCalls, syntheticCandles)

	base := int64(1_756_000_000)
	chunkWidth := int64(60 * maxPeriodsPerRequest)
	endTs := base + 3*chunkWidth

	candles, err := client.GetCandlesticks(context.Background(), "TICK", "1m", base, endTs)
	require.NoError(t, err)

	// Three windows of 5000 periods each, the third shortened by the
	// two period-sized advances between chunks
	assert.Equal(t, int64(3), candleCalls.Load())
	require.Len(t, candles, 3*maxPeriodsPerRequest-2)

	assert.Equal(t, base+60, candles[0].EndPeriodTs)
	assert.Equal(t, endTs, candles[len(candles)-1].EndPeriodTs)
	for i := 1; i < len(candles); i++ {
		require.Greater(t, candles[i].EndPeriodTs, candles[i-1].EndPeriodTs,
			"end_period_ts must be strictly increasing at index %d", i)
	}
}

func TestGetCandlesticksSingleChunk(t *testing.T) {
	var candleCalls atomic.Int64
	client := candleServer(t, &candleCalls, syntheticCandles)

	base := int64(1_756_000_000)
	candles, err := client.GetCandlesticks(context.Background(), "TICK", "1m", base, base+600)
	require.NoError(t, err)
	assert.Equal(t, int64(1), candleCalls.Load())
	assert.Len(t, candles, 10)
}

func TestGetCandlesticksStopsOnEmptyBatch(t *testing.T) {
	var candleCalls atomic.Int64
	client := candleServer(t, &candleCalls, func(startTs, endTs int64) []Candlestick {
		if candleCalls.Load() > 1 {
			return nil
		}
		return syntheticCandles(startTs, endTs)
	})

	base := int64(1_756_000_000)
	chunkWidth := int64(60 * maxPeriodsPerRequest)

	candles, err := client.GetCandlesticks(context.Background(), "TICK", "1m", base, base+3*chunkWidth)
	require.NoError(t, err)

	// First chunk accumulated, empty second chunk ends the loop
	assert.Equal(t, int64(2), candleCalls.Load())
	assert.Len(t, candles, maxPeriodsPerRequest)
}

func TestGetCandlesticksStopsOnNonAdvancingTimestamp(t *testing.T) {
	base := int64(1_756_000_000)

	var candleCalls atomic.Int64
	client := candleServer(t, &candleCalls, func(startTs, endTs int64) []Candlestick {
		// A misbehaving server repeating the same stale candle
		return []Candlestick{{EndPeriodTs: base + 60}}
	})

	chunkWidth := int64(60 * maxPeriodsPerRequest)
	candles, err := client.GetCandlesticks(context.Background(), "TICK", "1m", base, base+3*chunkWidth)
	require.NoError(t, err)

	assert.Equal(t, int64(2), candleCalls.Load())
	assert.Len(t, candles, 2)
}

func TestGetCandlesticksInvalidGranularity(t *testing.T) {
	var calls atomic.Int64
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	client := NewClient(testOptions(server.URL))

	_, err := client.GetCandlesticks(context.Background(), "TICK", "5m", 0, 1000)
	require.ErrorIs(t, err, interfaces.ErrInvalidGranularity)
	assert.Zero(t, calls.Load(), "validation must happen before any network call")
}

func TestGetCandlesticksInvalidTimeRange(t *testing.T) {
	var calls atomic.Int64
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	client := NewClient(testOptions(server.URL))

	_, err := client.GetCandlesticks(context.Background(), "TICK", "1h", 2000, 1000)
	require.ErrorIs(t, err, interfaces.ErrInvalidTimeRange)
	assert.Zero(t, calls.Load())
}

func TestGetCandlesticksPeriodInterval(t *testing.T) {
	var gotInterval string
	handler := func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/trade-api/v2/markets/TICK":
			writeJSON(w, map[string]Market{"market": {Ticker: "TICK", EventTicker: "EV-TICK"}})
		case r.URL.Path == "/trade-api/v2/events/EV-TICK":
			writeJSON(w, map[string]Event{"event": {EventTicker: "EV-TICK", SeriesTicker: "SER"}})
		default:
			gotInterval = r.URL.Query().Get("period_interval")
			writeJSON(w, candlesticksResponse{})
		}
	}
	server := newServer(t, handler)
	client := NewClient(testOptions(server.URL))

	_, err := client.GetCandlesticks(context.Background(), "TICK", "1h", 0, 3600)
	require.NoError(t, err)
	assert.Equal(t, "60", gotInterval)
}
