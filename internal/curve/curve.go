// Package curve implements the launchpad bonding curve: a deterministic
// mapping from circulating supply to unit price. Price is never stored,
// always derived.
package curve

import "errors"

// Protocol constants.
const (
	// BasePrice is the unit price at zero circulating supply, in SUI.
	BasePrice = 0.0001
	// MaxMultiplier is the price multiplier at full circulation.
	MaxMultiplier = 100.0
)

var (
	// ErrInvalidSupply is returned when totalSupply is not positive.
	// This is a configuration error, never retried.
	ErrInvalidSupply = errors.New("total supply must be positive")

	// ErrSupplyOutOfRange is returned when circulating supply falls
	// outside [0, totalSupply].
	ErrSupplyOutOfRange = errors.New("circulating supply out of range")
)

// Price returns the unit price at the given supply state:
//
//	basePrice * (1 + (maxMultiplier-1) * circulating/total)
//
// Monotonic non-decreasing in circulating, equal to BasePrice at zero.
func Price(circulating, total float64) (float64, error) {
	if total <= 0 {
		return 0, ErrInvalidSupply
	}
	if circulating < 0 || circulating > total {
		return 0, ErrSupplyOutOfRange
	}
	return BasePrice * (1 + (MaxMultiplier-1)*circulating/total), nil
}

// CostForAmount quotes the cost of buying (or proceeds of selling)
// amount tokens at the pre-trade supply. The curve is discrete: the
// quote uses the single price in effect before the trade, not an
// integral over the trade size, so large single trades carry the
// protocol's own approximation error.
func CostForAmount(circulating, total, amount float64) (float64, error) {
	p, err := Price(circulating, total)
	if err != nil {
		return 0, err
	}
	return p * amount, nil
}

// AmountForCost is the inverse quote: how many tokens the given spend
// buys at the pre-trade price.
func AmountForCost(circulating, total, cost float64) (float64, error) {
	p, err := Price(circulating, total)
	if err != nil {
		return 0, err
	}
	return cost / p, nil
}

// MarketCap returns circulating supply valued at the current unit price.
func MarketCap(circulating, total float64) (float64, error) {
	p, err := Price(circulating, total)
	if err != nil {
		return 0, err
	}
	return p * circulating, nil
}
