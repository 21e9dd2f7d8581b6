package domain

// Candle is one fixed-width OHLC bucket of trades. Recomputed on every
// ledger refresh, never persisted authoritatively.
//
// High and Low always carry the true price extrema. DisplayHigh and
// DisplayLow are the presentation values: for a degenerate flat bucket
// they are synthetically widened so the wick stays visible, and must
// never feed back into financial calculations.
type Candle struct {
	TokenID         string
	IntervalStartMs int64 // bucket start, aligned to interval
	IntervalSeconds int   // bucket width

	Open   float64 // first trade price in bucket
	High   float64 // true maximum trade price
	Low    float64 // true minimum trade price
	Close  float64 // last trade price in bucket
	Volume float64 // sum of trade amounts

	TradeCount int
	HasSell    bool // bucket-level flag: at least one sell in the bucket

	DisplayHigh float64 // High, or widened value for flat buckets
	DisplayLow  float64 // Low, or widened value for flat buckets
}

// Supported candle intervals (in seconds)
const (
	CandleInterval1Min  = 60
	CandleInterval5Min  = 300
	CandleInterval1Hour = 3600
)
