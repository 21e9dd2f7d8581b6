package domain

// DefaultDecimals is the fixed-point scale used by launchpad coins.
const DefaultDecimals = 9

// Token represents one asset launched through the launchpad.
// Supply and timing fields mirror the on-chain launch object; the client
// never mutates them directly, only by replaying the token's event log.
type Token struct {
	ID       string // on-chain object ID (0x-prefixed hex)
	Name     string
	Symbol   string
	Decimals int // fixed-point scale, default 9

	TotalSupply       float64 // fixed at creation, must be > 0
	CirculatingSupply float64 // maintained by ledger replay only

	LaunchTimeMs         int64 // Unix timestamp in milliseconds
	EarlyPhaseDurationMs int64 // length of the LAUNCH window
	PhaseDurationMs      int64 // length of the PRIVATE window

	MaxBuyPerWallet float64 // per-wallet buy cap during PRIVATE, 0 = no cap
	TransfersLocked bool    // peer transfers disabled at the protocol level

	ImageURL string // advisory display metadata, cached off-chain

	// PriceChange24h is nil when no 24h-old reference price exists.
	// A missing value is surfaced as-is, never substituted.
	PriceChange24h *float64
}

// Phase is the time-delimited trading-permission regime of a token.
type Phase string

const (
	// PhaseLaunch covers [launch, launch+earlyPhaseDuration): no trading.
	PhaseLaunch Phase = "launch"
	// PhasePrivate covers the following phaseDuration window: trading
	// permitted under MaxBuyPerWallet, price/volume hidden in UI.
	PhasePrivate Phase = "private"
	// PhaseSettlement exists in the historical phase enumeration but is
	// never produced by the clock: PRIVATE transitions directly to OPEN.
	PhaseSettlement Phase = "settlement"
	// PhaseOpen is unrestricted trading with no buy cap, never exited.
	PhaseOpen Phase = "open"
)
