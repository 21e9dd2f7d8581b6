package ledger

import (
	"sort"

	"sui-launchpad/internal/domain"
)

const (
	// flatCandleThreshold marks a bucket as degenerate when its relative
	// price range is below 0.1%.
	flatCandleThreshold = 0.001

	// displayWidening is the synthetic ±0.05% applied around the midpoint
	// of a degenerate bucket. Presentation only: it feeds DisplayHigh and
	// DisplayLow, never High and Low.
	displayWidening = 0.0005
)

// BuildCandles buckets trades into fixed-width intervals and aggregates
// OHLC and volume per bucket. Trades must be pre-sorted in replay order;
// within a bucket open is the first trade price and close the last.
//
// A bucket is flagged HasSell if it contains at least one sell. This is
// a bucket-level flag used for volume-bar coloring, not a per-trade one.
func BuildCandles(trades []*domain.Trade, intervalSeconds int) []*domain.Candle {
	if len(trades) == 0 || intervalSeconds <= 0 {
		return nil
	}

	intervalMs := int64(intervalSeconds) * 1000

	// Map: tokenID -> intervalStart -> candle
	buckets := make(map[string]map[int64]*domain.Candle)

	for _, t := range trades {
		intervalStart := (t.TimestampMs / intervalMs) * intervalMs

		tokenBuckets, ok := buckets[t.TokenID]
		if !ok {
			tokenBuckets = make(map[int64]*domain.Candle)
			buckets[t.TokenID] = tokenBuckets
		}

		c, ok := tokenBuckets[intervalStart]
		if !ok {
			c = &domain.Candle{
				TokenID:         t.TokenID,
				IntervalStartMs: intervalStart,
				IntervalSeconds: intervalSeconds,
				Open:            t.Price,
				High:            t.Price,
				Low:             t.Price,
			}
			tokenBuckets[intervalStart] = c
		}

		if t.Price > c.High {
			c.High = t.Price
		}
		if t.Price < c.Low {
			c.Low = t.Price
		}
		c.Close = t.Price
		c.Volume += t.Amount
		c.TradeCount++
		if t.Side == domain.TradeSideSell {
			c.HasSell = true
		}
	}

	var result []*domain.Candle
	for _, tokenBuckets := range buckets {
		for _, c := range tokenBuckets {
			applyDisplayRange(c)
			result = append(result, c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TokenID != result[j].TokenID {
			return result[i].TokenID < result[j].TokenID
		}
		return result[i].IntervalStartMs < result[j].IntervalStartMs
	})

	return result
}

// applyDisplayRange fills DisplayHigh/DisplayLow. For a degenerate flat
// bucket they are widened around the midpoint so the wick stays visible;
// the true High/Low are left untouched.
func applyDisplayRange(c *domain.Candle) {
	c.DisplayHigh = c.High
	c.DisplayLow = c.Low

	if c.Low <= 0 {
		return
	}
	if (c.High-c.Low)/c.Low >= flatCandleThreshold {
		return
	}

	mid := (c.High + c.Low) / 2
	c.DisplayHigh = mid * (1 + displayWidening)
	c.DisplayLow = mid * (1 - displayWidening)
}
