package e2e

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/predyx/market-connector/pkg/venues/interfaces"
	"github.com/predyx/market-connector/pkg/venues/kalshi"
)

// TestKalshiClient_E2E exercises the client against the real Kalshi API.
// Public endpoints always run; portfolio endpoints need credentials:
//
//	KALSHI_API_KEY_ID=... KALSHI_PRIVATE_KEY_PATH=... go test -v ./test/e2e
func TestKalshiClient_E2E(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	keyID := os.Getenv("KALSHI_API_KEY_ID")
	keyPath := os.Getenv("KALSHI_PRIVATE_KEY_PATH")
	runningInCI := os.Getenv("CI") != ""

	options := interfaces.NewVenueOptions()
	options.LogLevel = "debug"
	if keyID != "" && keyPath != "" {
		options = options.WithCredential(interfaces.RSAKey(keyID, keyPath))
	}
	client := kalshi.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var ticker string

	t.Run("GetMarkets", func(t *testing.T) {
		page, err := client.GetMarkets(ctx, kalshi.MarketsParams{Limit: 100, Status: "open"})
		require.NoError(t, err, "failed to fetch markets")
		require.NotEmpty(t, page.Markets, "expected at least one open market")
		ticker = page.Markets[0].Ticker
	})

	t.Run("GetMarket", func(t *testing.T) {
		if ticker == "" {
			t.Skip("no market ticker from previous step")
		}
		market, err := client.GetMarket(ctx, ticker)
		require.NoError(t, err)
		require.Equal(t, ticker, market.Ticker)
		require.NotEmpty(t, market.EventTicker)
	})

	t.Run("GetSeries", func(t *testing.T) {
		series, err := client.GetSeries(ctx, kalshi.SeriesParams{})
		require.NoError(t, err)
		require.NotEmpty(t, series)
	})

	t.Run("GetCandlesticks", func(t *testing.T) {
		if ticker == "" {
			t.Skip("no market ticker from previous step")
		}
		end := time.Now().Unix()
		start := end - 24*3600
		candles, err := client.GetCandlesticks(ctx, ticker, "1h", start, end)
		require.NoError(t, err)
		for i := 1; i < len(candles); i++ {
			require.Greater(t, candles[i].EndPeriodTs, candles[i-1].EndPeriodTs)
		}
	})

	t.Run("GetBalance", func(t *testing.T) {
		if keyID == "" || keyPath == "" || runningInCI {
			t.Skip("skipping portfolio test - requires API credentials and not running in CI")
		}
		balance, err := client.GetBalance(ctx)
		require.NoError(t, err, "failed to fetch balance")
		require.GreaterOrEqual(t, balance.Balance, int64(0))
	})

	t.Run("UnauthenticatedPortfolio", func(t *testing.T) {
		if keyID != "" && keyPath != "" {
			t.Skip("credentials configured, nothing to verify")
		}
		_, err := client.GetBalance(ctx)
		require.Error(t, err)
		require.True(t, errors.Is(err, interfaces.ErrNoCredentials))
	})
}
