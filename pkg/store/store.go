// Package store is a Parquet-backed cache for market data. Each
// dataset lives in its own file under a data directory; candle files
// are per ticker and granularity. Helpers are independent, there is no
// cross-file consistency contract.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"
)

// Cache file names
const (
	activeMarketsFile     = "active_markets.parquet"
	summaryMarketsFile    = "summary_markets.parquet"
	seriesVolumesFile     = "series_volumes.parquet"
	polymarketMarketsFile = "polymarket_markets.parquet"

	candlesDir = "candles"
)

// MarketRow is one cached market
type MarketRow struct {
	Ticker       string `parquet:"ticker"`
	EventTicker  string `parquet:"event_ticker"`
	SeriesTicker string `parquet:"series_ticker,optional"`
	Title        string `parquet:"title"`
	YesSubTitle  string `parquet:"yes_sub_title,optional"`
	NoSubTitle   string `parquet:"no_sub_title,optional"`
	Status       string `parquet:"status"`
	YesBid       int64  `parquet:"yes_bid"`
	YesAsk       int64  `parquet:"yes_ask"`
	NoBid        int64  `parquet:"no_bid"`
	NoAsk        int64  `parquet:"no_ask"`
	LastPrice    int64  `parquet:"last_price"`
	Volume       int64  `parquet:"volume"`
	Volume24h    int64  `parquet:"volume_24h"`
	OpenInterest int64  `parquet:"open_interest"`
	Liquidity    int64  `parquet:"liquidity"`
	OpenTime     int64  `parquet:"open_time"`
	CloseTime    int64  `parquet:"close_time"`
}

// SummaryRow is the projected, volume-sorted view of active markets
type SummaryRow struct {
	Title       string `parquet:"title"`
	YesSubTitle string `parquet:"yes_sub_title,optional"`
	NoSubTitle  string `parquet:"no_sub_title,optional"`
	YesAsk      int64  `parquet:"yes_ask"`
	NoAsk       int64  `parquet:"no_ask"`
	LastPrice   int64  `parquet:"last_price"`
	Volume24h   int64  `parquet:"volume_24h"`
	CloseTime   int64  `parquet:"close_time"`
}

// SeriesVolumeRow is aggregated volume for one series
type SeriesVolumeRow struct {
	SeriesTicker string `parquet:"series_ticker"`
	Title        string `parquet:"title"`
	Volume24h    int64  `parquet:"volume_24h"`
}

// PolymarketRow is one cached Gamma market
type PolymarketRow struct {
	ID          string  `parquet:"id"`
	Question    string  `parquet:"question"`
	Category    string  `parquet:"category,optional"`
	Status      string  `parquet:"status"`
	LastPrice   float64 `parquet:"last_price"`
	BestBid     float64 `parquet:"best_bid"`
	BestAsk     float64 `parquet:"best_ask"`
	VolumeTotal float64 `parquet:"volume_total"`
	Volume24h   float64 `parquet:"volume_24h"`
	Liquidity   float64 `parquet:"liquidity"`
	Closed      bool    `parquet:"closed"`
	EndDate     int64   `parquet:"end_date"`
}

// CandleRow is one cached candlestick
type CandleRow struct {
	EndPeriodTs  int64 `parquet:"end_period_ts"`
	Open         int64 `parquet:"open"`
	High         int64 `parquet:"high"`
	Low          int64 `parquet:"low"`
	Close        int64 `parquet:"close"`
	Volume       int64 `parquet:"volume"`
	OpenInterest int64 `parquet:"open_interest"`
}

const secondsPerDay = 86400

// Store reads and writes Parquet cache files under a data directory
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating the directory tree
// if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, candlesDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory root
func (s *Store) Dir() string {
	return s.dir
}

func writeParquet[T any](path string, rows []T) error {
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readParquet[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// WriteActiveMarkets replaces the active markets file
func (s *Store) WriteActiveMarkets(rows []MarketRow) error {
	return writeParquet(filepath.Join(s.dir, activeMarketsFile), rows)
}

// ReadActiveMarkets reads the cached active markets
func (s *Store) ReadActiveMarkets() ([]MarketRow, error) {
	return readParquet[MarketRow](filepath.Join(s.dir, activeMarketsFile))
}

// WriteSummary replaces the summary file
func (s *Store) WriteSummary(rows []SummaryRow) error {
	return writeParquet(filepath.Join(s.dir, summaryMarketsFile), rows)
}

// ReadSummary reads the cached summary
func (s *Store) ReadSummary() ([]SummaryRow, error) {
	return readParquet[SummaryRow](filepath.Join(s.dir, summaryMarketsFile))
}

// WriteSeriesVolumes replaces the series volumes file
func (s *Store) WriteSeriesVolumes(rows []SeriesVolumeRow) error {
	return writeParquet(filepath.Join(s.dir, seriesVolumesFile), rows)
}

// ReadSeriesVolumes reads the cached series volumes
func (s *Store) ReadSeriesVolumes() ([]SeriesVolumeRow, error) {
	return readParquet[SeriesVolumeRow](filepath.Join(s.dir, seriesVolumesFile))
}

// WritePolymarket replaces the Polymarket markets file
func (s *Store) WritePolymarket(rows []PolymarketRow) error {
	return writeParquet(filepath.Join(s.dir, polymarketMarketsFile), rows)
}

// ReadPolymarket reads the cached Polymarket markets
func (s *Store) ReadPolymarket() ([]PolymarketRow, error) {
	return readParquet[PolymarketRow](filepath.Join(s.dir, polymarketMarketsFile))
}

func (s *Store) candlePath(ticker, granularity string) string {
	return filepath.Join(s.dir, candlesDir,
		fmt.Sprintf("candles_%s_%s.parquet", ticker, granularity))
}

// HasCandles reports whether a candle file exists for the ticker and
// granularity. Daily candles are derived from the hourly file.
func (s *Store) HasCandles(ticker, granularity string) bool {
	if granularity == "1d" {
		granularity = "1h"
	}
	_, err := os.Stat(s.candlePath(ticker, granularity))
	return err == nil
}

// WriteCandles replaces the candle file for the ticker and granularity
func (s *Store) WriteCandles(ticker, granularity string, rows []CandleRow) error {
	return writeParquet(s.candlePath(ticker, granularity), rows)
}

// ReadCandles reads cached candles with end_period_ts in [startTs,
// endTs], ordered by timestamp. Daily granularity is resampled from
// the cached hourly file; when no hourly file exists yet the result is
// empty rather than an error.
func (s *Store) ReadCandles(ticker, granularity string, startTs, endTs int64) ([]CandleRow, error) {
	if granularity == "1d" {
		if _, err := os.Stat(s.candlePath(ticker, "1h")); os.IsNotExist(err) {
			return nil, nil
		}
		hourly, err := s.readCandleFile(ticker, "1h", startTs, endTs)
		if err != nil {
			return nil, err
		}
		return resampleDaily(hourly), nil
	}
	return s.readCandleFile(ticker, granularity, startTs, endTs)
}

func (s *Store) readCandleFile(ticker, granularity string, startTs, endTs int64) ([]CandleRow, error) {
	rows, err := readParquet[CandleRow](s.candlePath(ticker, granularity))
	if err != nil {
		return nil, err
	}

	filtered := rows[:0:0]
	for _, row := range rows {
		if row.EndPeriodTs >= startTs && row.EndPeriodTs <= endTs {
			filtered = append(filtered, row)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].EndPeriodTs < filtered[j].EndPeriodTs
	})
	return filtered, nil
}

// resampleDaily aggregates hourly candles into daily buckets: first
// open, max high, min low, last close, summed volume. Input must be
// ordered by timestamp.
func resampleDaily(hourly []CandleRow) []CandleRow {
	if len(hourly) == 0 {
		return nil
	}

	var daily []CandleRow
	var current *CandleRow

	for _, row := range hourly {
		bucket := row.EndPeriodTs - row.EndPeriodTs%secondsPerDay
		if current == nil || current.EndPeriodTs != bucket {
			daily = append(daily, CandleRow{
				EndPeriodTs:  bucket,
				Open:         row.Open,
				High:         row.High,
				Low:          row.Low,
				Close:        row.Close,
				Volume:       row.Volume,
				OpenInterest: row.OpenInterest,
			})
			current = &daily[len(daily)-1]
			continue
		}
		if row.High > current.High {
			current.High = row.High
		}
		if row.Low < current.Low {
			current.Low = row.Low
		}
		current.Close = row.Close
		current.Volume += row.Volume
		current.OpenInterest = row.OpenInterest
	}
	return daily
}
