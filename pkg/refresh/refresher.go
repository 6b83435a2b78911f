// Package refresh populates the Parquet cache from the venue APIs.
package refresh

import (
	"context"
	"fmt"
	"sort"

	"github.com/predyx/market-connector/pkg/logging"
	"github.com/predyx/market-connector/pkg/store"
	"github.com/predyx/market-connector/pkg/venues/kalshi"
	"github.com/predyx/market-connector/pkg/venues/polymarket"
)

// KalshiClient is the slice of the Kalshi API the refresher uses
type KalshiClient interface {
	GetAllMarkets(ctx context.Context, params kalshi.MarketsParams) ([]kalshi.Market, error)
	GetEvents(ctx context.Context, params kalshi.EventsParams) (*kalshi.EventsPage, error)
	GetSeries(ctx context.Context, params kalshi.SeriesParams) ([]kalshi.Series, error)
	GetCandlesticks(ctx context.Context, ticker, granularity string, startTs, endTs int64) ([]kalshi.Candlestick, error)
}

// PolymarketClient is the slice of the Gamma API the refresher uses
type PolymarketClient interface {
	GetActiveMarkets(ctx context.Context) ([]polymarket.Market, error)
}

const (
	// DefaultPageSize is the markets page size used by refreshes
	DefaultPageSize = 1000

	eventsPageSize = 200

	// DefaultMinSeriesVolume is the 24h volume floor for series
	// aggregation
	DefaultMinSeriesVolume = 1000
)

// Refresher binds the venue clients to the Parquet store
type Refresher struct {
	kalshi     KalshiClient
	polymarket PolymarketClient
	store      *store.Store
	logger     logging.Logger
}

// NewRefresher creates a refresher. A nil logger selects the default.
func NewRefresher(k KalshiClient, p PolymarketClient, s *store.Store, logger logging.Logger) *Refresher {
	if logger == nil {
		logger = logging.NewZapLogger()
	}
	return &Refresher{kalshi: k, polymarket: p, store: s, logger: logger}
}

// RefreshActiveMarkets fetches all open markets, drops zero-volume
// rows and replaces the active markets file.
func (r *Refresher) RefreshActiveMarkets(ctx context.Context, pageSize int) ([]store.MarketRow, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	markets, err := r.kalshi.GetAllMarkets(ctx, kalshi.MarketsParams{
		Limit:  pageSize,
		Status: "open",
	})
	if err != nil {
		return nil, fmt.Errorf("fetching open markets: %w", err)
	}

	rows := make([]store.MarketRow, 0, len(markets))
	for _, m := range markets {
		if m.Volume <= 0 {
			continue
		}
		rows = append(rows, marketRow(m))
	}

	if err := r.store.WriteActiveMarkets(rows); err != nil {
		return nil, err
	}

	r.logger.Info("refreshed active markets",
		logging.Int("fetched", len(markets)),
		logging.Int("kept", len(rows)),
	)
	return rows, nil
}

func marketRow(m kalshi.Market) store.MarketRow {
	return store.MarketRow{
		Ticker:       m.Ticker,
		EventTicker:  m.EventTicker,
		Title:        m.Title,
		YesSubTitle:  m.YesSubTitle,
		NoSubTitle:   m.NoSubTitle,
		Status:       m.Status,
		YesBid:       m.YesBid,
		YesAsk:       m.YesAsk,
		NoBid:        m.NoBid,
		NoAsk:        m.NoAsk,
		LastPrice:    m.LastPrice,
		Volume:       m.Volume,
		Volume24h:    m.Volume24H,
		OpenInterest: m.OpenInterest,
		Liquidity:    m.Liquidity,
		OpenTime:     m.OpenTime.Unix(),
		CloseTime:    m.CloseTime.Unix(),
	}
}

// BuildSummary projects the cached active markets into the summary
// table, sorted by volume descending, and replaces the summary file.
func (r *Refresher) BuildSummary() ([]store.SummaryRow, error) {
	markets, err := r.store.ReadActiveMarkets()
	if err != nil {
		return nil, err
	}

	sort.Slice(markets, func(i, j int) bool {
		return markets[i].Volume > markets[j].Volume
	})

	rows := make([]store.SummaryRow, 0, len(markets))
	for _, m := range markets {
		rows = append(rows, store.SummaryRow{
			Title:       m.Title,
			YesSubTitle: m.YesSubTitle,
			NoSubTitle:  m.NoSubTitle,
			YesAsk:      m.YesAsk,
			NoAsk:       m.NoAsk,
			LastPrice:   m.LastPrice,
			Volume24h:   m.Volume,
			CloseTime:   m.CloseTime,
		})
	}

	if err := r.store.WriteSummary(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// EventSeriesMapping walks the events listing collecting the
// event -> series mapping for the needed event tickers, stopping early
// once every needed event has been resolved.
func (r *Refresher) EventSeriesMapping(ctx context.Context, needed map[string]bool) (map[string]string, error) {
	mapping := make(map[string]string, len(needed))
	if len(needed) == 0 {
		return mapping, nil
	}

	params := kalshi.EventsParams{Limit: eventsPageSize}
	for {
		page, err := r.kalshi.GetEvents(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("fetching events page: %w", err)
		}
		if page == nil || len(page.Events) == 0 {
			break
		}

		for _, event := range page.Events {
			if needed[event.EventTicker] {
				mapping[event.EventTicker] = event.SeriesTicker
			}
		}

		if page.Cursor == "" || len(mapping) >= len(needed) {
			break
		}
		params.Cursor = page.Cursor
	}

	r.logger.Debug("resolved event series mapping",
		logging.Int("needed", len(needed)),
		logging.Int("resolved", len(mapping)),
	)
	return mapping, nil
}

// SeriesVolumes aggregates the cached active-market volume by series
// for markets whose volume meets the floor, joins series titles and
// replaces the series volumes file. Missing titles become "Unknown".
func (r *Refresher) SeriesVolumes(ctx context.Context, minVolume int64) ([]store.SeriesVolumeRow, error) {
	markets, err := r.store.ReadActiveMarkets()
	if err != nil {
		return nil, err
	}

	needed := make(map[string]bool)
	for _, m := range markets {
		if m.Volume >= minVolume && m.EventTicker != "" {
			needed[m.EventTicker] = true
		}
	}

	mapping, err := r.EventSeriesMapping(ctx, needed)
	if err != nil {
		return nil, err
	}

	volumes := make(map[string]int64)
	for _, m := range markets {
		if m.Volume < minVolume {
			continue
		}
		series, ok := mapping[m.EventTicker]
		if !ok {
			continue
		}
		volumes[series] += m.Volume
	}

	seriesList, err := r.kalshi.GetSeries(ctx, kalshi.SeriesParams{})
	if err != nil {
		return nil, fmt.Errorf("fetching series: %w", err)
	}
	titles := make(map[string]string, len(seriesList))
	for _, s := range seriesList {
		titles[s.Ticker] = s.Title
	}

	rows := make([]store.SeriesVolumeRow, 0, len(volumes))
	for ticker, volume := range volumes {
		title, ok := titles[ticker]
		if !ok {
			title = "Unknown"
		}
		rows = append(rows, store.SeriesVolumeRow{
			SeriesTicker: ticker,
			Title:        title,
			Volume24h:    volume,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Volume24h > rows[j].Volume24h
	})

	if err := r.store.WriteSeriesVolumes(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// RefreshCandles fetches candles and replaces the per-ticker file
func (r *Refresher) RefreshCandles(ctx context.Context, ticker, granularity string, startTs, endTs int64) ([]store.CandleRow, error) {
	candles, err := r.kalshi.GetCandlesticks(ctx, ticker, granularity, startTs, endTs)
	if err != nil {
		return nil, fmt.Errorf("fetching candles for %s: %w", ticker, err)
	}

	rows := candleRows(candles)
	if err := r.store.WriteCandles(ticker, granularity, rows); err != nil {
		return nil, err
	}

	r.logger.Info("refreshed candles",
		logging.String("ticker", ticker),
		logging.String("granularity", granularity),
		logging.Int("rows", len(rows)),
	)
	return rows, nil
}

// LoadCandles reads cached candles, fetching live and populating the
// cache when no file exists yet. Daily candles always come from the
// cached hourly file.
func (r *Refresher) LoadCandles(ctx context.Context, ticker, granularity string, startTs, endTs int64) ([]store.CandleRow, error) {
	if granularity != "1d" && !r.store.HasCandles(ticker, granularity) {
		if _, err := r.RefreshCandles(ctx, ticker, granularity, startTs, endTs); err != nil {
			return nil, err
		}
	}
	return r.store.ReadCandles(ticker, granularity, startTs, endTs)
}

func candleRows(candles []kalshi.Candlestick) []store.CandleRow {
	rows := make([]store.CandleRow, 0, len(candles))
	for _, c := range candles {
		rows = append(rows, store.CandleRow{
			EndPeriodTs:  c.EndPeriodTs,
			Open:         c.Price.Open,
			High:         c.Price.High,
			Low:          c.Price.Low,
			Close:        c.Price.Close,
			Volume:       c.Volume,
			OpenInterest: c.OpenInterest,
		})
	}
	return rows
}

// RefreshPolymarket fetches active Gamma markets and replaces the
// Polymarket file.
func (r *Refresher) RefreshPolymarket(ctx context.Context) ([]store.PolymarketRow, error) {
	markets, err := r.polymarket.GetActiveMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching polymarket markets: %w", err)
	}

	rows := make([]store.PolymarketRow, 0, len(markets))
	for _, m := range markets {
		rows = append(rows, store.PolymarketRow{
			ID:          m.ID,
			Question:    m.Question,
			Category:    m.Category,
			Status:      m.Status(),
			LastPrice:   m.LastTradePrice,
			BestBid:     m.BestBid,
			BestAsk:     m.BestAsk,
			VolumeTotal: m.VolumeNum,
			Volume24h:   m.Volume24hr,
			Liquidity:   m.LiquidityNum,
			Closed:      m.Closed,
			EndDate:     m.EndDate.Unix(),
		})
	}

	if err := r.store.WritePolymarket(rows); err != nil {
		return nil, err
	}

	r.logger.Info("refreshed polymarket markets", logging.Int("rows", len(rows)))
	return rows, nil
}
