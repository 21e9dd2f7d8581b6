package launchpad

import "errors"

// Service errors. Trade pre-checks reject locally, before any network
// call.
var (
	// ErrUnknownToken is returned for token IDs not in the registry.
	ErrUnknownToken = errors.New("unknown token")

	// ErrTradingNotOpen is returned when a trade is attempted while the
	// token is still in its launch window.
	ErrTradingNotOpen = errors.New("trading not open yet")

	// ErrBuyCapExceeded is returned when a buy would push the wallet
	// past the per-wallet cap during the early phase.
	ErrBuyCapExceeded = errors.New("buy exceeds per-wallet cap for early phase")

	// ErrInsufficientBalance is returned when a sell exceeds the
	// wallet's token balance.
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// ErrInsufficientSupply is returned when a buy exceeds the
	// remaining supply on the curve.
	ErrInsufficientSupply = errors.New("buy exceeds remaining supply")

	// ErrInvalidTokenConfig is returned when token creation parameters
	// fail validation. Configuration errors are never retried.
	ErrInvalidTokenConfig = errors.New("invalid token configuration")

	// ErrSubmitFailed wraps an on-chain execution failure.
	ErrSubmitFailed = errors.New("transaction execution failed")
)
