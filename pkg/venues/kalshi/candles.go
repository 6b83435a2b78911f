package kalshi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/predyx/market-connector/pkg/logging"
	"github.com/predyx/market-connector/pkg/venues/interfaces"
)

// granularityPeriods maps the supported granularity names to the
// period_interval value in minutes.
var granularityPeriods = map[string]int64{
	"1m": 1,
	"1h": 60,
	"1d": 1440,
}

// maxPeriodsPerRequest is the server-side cap on intervals returned per
// candlesticks call. Requests spanning more than this many periods are
// split into sequential chunks.
const maxPeriodsPerRequest = 5000

// PeriodMinutes returns the period size in minutes for a granularity
// name, or ErrInvalidGranularity for anything outside the supported set.
func PeriodMinutes(granularity string) (int64, error) {
	period, ok := granularityPeriods[granularity]
	if !ok {
		return 0, fmt.Errorf("%w: %q", interfaces.ErrInvalidGranularity, granularity)
	}
	return period, nil
}

// GetCandlesticks fetches the full candle history for a market between
// startTs and endTs (unix seconds) at the given granularity ("1m", "1h"
// or "1d").
//
// The candlesticks endpoint is keyed by the market's parent series, so
// the market and its parent event are resolved first. Ranges wider than
// the server's per-call cap are fetched in sequential chunks; each chunk
// advances strictly past the last returned period end, and the loop
// exits early (returning whatever was accumulated) if the server returns
// an empty batch or a non-advancing timestamp.
func (c *Client) GetCandlesticks(ctx context.Context, ticker, granularity string, startTs, endTs int64) ([]Candlestick, error) {
	period, err := PeriodMinutes(granularity)
	if err != nil {
		return nil, err
	}
	if endTs < startTs {
		return nil, fmt.Errorf("%w: start %d after end %d", interfaces.ErrInvalidTimeRange, startTs, endTs)
	}

	market, err := c.GetMarket(ctx, ticker)
	if err != nil {
		return nil, err
	}
	event, err := c.GetEvent(ctx, market.EventTicker)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%s/series/%s/markets/%s/candlesticks", apiPrefix, event.SeriesTicker, ticker)
	periodSecs := period * 60
	chunkWidth := periodSecs * maxPeriodsPerRequest

	var all []Candlestick
	chunkStart := startTs

	for chunkStart < endTs {
		chunkEnd := min(endTs, chunkStart+chunkWidth)

		q := url.Values{}
		q.Set("period_interval", strconv.FormatInt(period, 10))
		q.Set("start_ts", strconv.FormatInt(chunkStart, 10))
		q.Set("end_ts", strconv.FormatInt(chunkEnd, 10))

		var resp candlesticksResponse
		if err := c.get(ctx, path, q, false, &resp); err != nil {
			return nil, fmt.Errorf("fetching candlesticks for %s: %w", ticker, err)
		}

		if len(resp.Candlesticks) == 0 {
			break
		}
		all = append(all, resp.Candlesticks...)

		lastTs := resp.Candlesticks[len(resp.Candlesticks)-1].EndPeriodTs
		if lastTs <= chunkStart {
			c.logger.Warn("candlestick chunk did not advance, stopping",
				logging.String("ticker", ticker),
				logging.Int64("chunk_start", chunkStart),
				logging.Int64("last_ts", lastTs),
			)
			break
		}
		chunkStart = lastTs + periodSecs
	}

	return all, nil
}
