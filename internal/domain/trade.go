package domain

// Trade is a single executed buy or sell, derived from the event log.
// Trades are never stored authoritatively: the set of trades for a token
// is exactly the replay of that token's events.
type Trade struct {
	TokenID     string
	Actor       string  // wallet address of the trader
	Side        string  // "buy" | "sell"
	Amount      float64 // token units (positive for both sides)
	Price       float64 // unit price in effect before the trade executed
	Cost        float64 // Price * Amount, in quote currency (SUI)
	TimestampMs int64   // Unix timestamp in milliseconds
	TxDigest    string  // source transaction digest
	EventIndex  int     // index of the event within its transaction
	Phase       Phase   // phase the token was in when the trade executed
}

// Trade side constants
const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"
)
