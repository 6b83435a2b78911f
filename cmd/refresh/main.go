package main

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/predyx/market-connector/pkg/config"
	"github.com/predyx/market-connector/pkg/logging"
	"github.com/predyx/market-connector/pkg/refresh"
	"github.com/predyx/market-connector/pkg/store"
	"github.com/predyx/market-connector/pkg/venues/kalshi"
	"github.com/predyx/market-connector/pkg/venues/polymarket"
)

func main() {
	// Load configuration (env > optional settings file)
	cfg, err := config.Load("settings.yaml")
	if err != nil {
		logging.NewLogger().Error("failed to load configuration", logging.Error(err))
		os.Exit(1)
	}

	logger := logging.NewZapLogger(logging.WithLogLevel(logging.ParseLevel(cfg.LogLevel)))

	dataStore, err := store.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open data store", logging.Error(err))
		os.Exit(1)
	}

	options := cfg.VenueOptions()
	kalshiClient := kalshi.NewClient(options)
	polymarketClient := polymarket.NewClient(nil)

	refresher := refresh.NewRefresher(kalshiClient, polymarketClient, dataStore, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stop cleanly on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", logging.String("signal", sig.String()))
		cancel()
	}()

	start := time.Now()
	logger.Info("starting cache refresh", logging.String("data_dir", dataStore.Dir()))

	markets, err := refresher.RefreshActiveMarkets(ctx, refresh.DefaultPageSize)
	if err != nil {
		logger.Error("active markets refresh failed", logging.Error(err))
		os.Exit(1)
	}

	if _, err := refresher.BuildSummary(); err != nil {
		logger.Error("summary build failed", logging.Error(err))
		os.Exit(1)
	}

	if _, err := refresher.SeriesVolumes(ctx, refresh.DefaultMinSeriesVolume); err != nil {
		logger.Error("series volumes refresh failed", logging.Error(err))
		os.Exit(1)
	}

	if _, err := refresher.RefreshPolymarket(ctx); err != nil {
		logger.Error("polymarket refresh failed", logging.Error(err))
		os.Exit(1)
	}

	// Warm hourly candles for the busiest markets
	sort.Slice(markets, func(i, j int) bool {
		return markets[i].Volume > markets[j].Volume
	})
	endTs := time.Now().Unix()
	startTs := endTs - 7*24*3600
	warmed := 0
	for _, m := range markets {
		if warmed >= 20 {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if _, err := refresher.RefreshCandles(ctx, m.Ticker, "1h", startTs, endTs); err != nil {
			logger.Warn("candle refresh failed",
				logging.String("ticker", m.Ticker),
				logging.Error(err),
			)
			continue
		}
		warmed++
	}

	logger.Info("cache refresh complete",
		logging.Int("markets", len(markets)),
		logging.Int("candle_files", warmed),
		logging.Duration("elapsed", time.Since(start)),
	)
}
