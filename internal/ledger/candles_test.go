package ledger

import (
	"math"
	"testing"

	"sui-launchpad/internal/domain"
)

func testTrade(price, amount float64, tsMs int64, side string) *domain.Trade {
	return &domain.Trade{
		TokenID: testTokenID, Actor: "0xalice", Side: side,
		Amount: amount, Price: price, TimestampMs: tsMs,
	}
}

func TestBuildCandles_OHLCAggregation(t *testing.T) {
	base := int64(1_700_000_000_000)
	trades := []*domain.Trade{
		testTrade(0.0010, 100, base+1_000, domain.TradeSideBuy),
		testTrade(0.0014, 50, base+20_000, domain.TradeSideBuy),
		testTrade(0.0008, 75, base+40_000, domain.TradeSideSell),
		testTrade(0.0012, 25, base+59_000, domain.TradeSideBuy),
		// Next bucket.
		testTrade(0.0013, 10, base+61_000, domain.TradeSideBuy),
	}

	candles := BuildCandles(trades, 60)
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}

	c := candles[0]
	if c.Open != 0.0010 || c.Close != 0.0012 {
		t.Errorf("expected open 0.0010 close 0.0012, got %g/%g", c.Open, c.Close)
	}
	if c.High != 0.0014 || c.Low != 0.0008 {
		t.Errorf("expected high 0.0014 low 0.0008, got %g/%g", c.High, c.Low)
	}
	if c.Volume != 250 {
		t.Errorf("expected volume 250, got %g", c.Volume)
	}
	if c.TradeCount != 4 {
		t.Errorf("expected 4 trades, got %d", c.TradeCount)
	}
	if !c.HasSell {
		t.Error("bucket contains a sell and must be down-colored")
	}
	if candles[1].HasSell {
		t.Error("buy-only bucket must not be down-colored")
	}

	// Invariant: low <= min(open, close) <= max(open, close) <= high.
	if c.Low > math.Min(c.Open, c.Close) || c.High < math.Max(c.Open, c.Close) {
		t.Errorf("OHLC invariant violated: %+v", c)
	}
}

func TestBuildCandles_BucketAlignment(t *testing.T) {
	base := int64(1_700_000_000_000)
	trades := []*domain.Trade{
		testTrade(0.001, 1, base+30_000, domain.TradeSideBuy),
	}

	candles := BuildCandles(trades, 60)
	if len(candles) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(candles))
	}
	if candles[0].IntervalStartMs != base {
		t.Errorf("expected bucket aligned to %d, got %d", base, candles[0].IntervalStartMs)
	}
	if candles[0].IntervalSeconds != 60 {
		t.Errorf("expected interval 60s, got %d", candles[0].IntervalSeconds)
	}
}

func TestBuildCandles_FlatBucketWidensDisplayOnly(t *testing.T) {
	base := int64(1_700_000_000_000)
	price := 0.0010
	trades := []*domain.Trade{
		testTrade(price, 10, base+1_000, domain.TradeSideBuy),
		testTrade(price, 20, base+2_000, domain.TradeSideBuy),
	}

	candles := BuildCandles(trades, 60)
	c := candles[0]

	// True OHLC stays untouched.
	if c.High != price || c.Low != price {
		t.Errorf("true high/low must not be widened: %g/%g", c.High, c.Low)
	}

	// Display values are widened by ±0.05% around the midpoint.
	if math.Abs(c.DisplayHigh-price*1.0005) > 1e-12 {
		t.Errorf("expected display high %g, got %g", price*1.0005, c.DisplayHigh)
	}
	if math.Abs(c.DisplayLow-price*0.9995) > 1e-12 {
		t.Errorf("expected display low %g, got %g", price*0.9995, c.DisplayLow)
	}
}

func TestBuildCandles_NonDegenerateBucketKeepsDisplayRange(t *testing.T) {
	base := int64(1_700_000_000_000)
	trades := []*domain.Trade{
		testTrade(0.0010, 10, base+1_000, domain.TradeSideBuy),
		testTrade(0.0020, 10, base+2_000, domain.TradeSideBuy),
	}

	candles := BuildCandles(trades, 60)
	c := candles[0]

	if c.DisplayHigh != c.High || c.DisplayLow != c.Low {
		t.Errorf("non-degenerate bucket must not be widened: %g/%g vs %g/%g",
			c.DisplayHigh, c.DisplayLow, c.High, c.Low)
	}
}

func TestBuildCandles_EmptyAndInvalidInput(t *testing.T) {
	if got := BuildCandles(nil, 60); got != nil {
		t.Errorf("expected nil for empty trades, got %v", got)
	}
	trades := []*domain.Trade{testTrade(0.001, 1, 1_700_000_000_000, domain.TradeSideBuy)}
	if got := BuildCandles(trades, 0); got != nil {
		t.Errorf("expected nil for zero interval, got %v", got)
	}
}
