package ledger

import (
	"fmt"

	"github.com/rs/zerolog"

	"sui-launchpad/internal/curve"
	"sui-launchpad/internal/domain"
	"sui-launchpad/internal/observability"
	"sui-launchpad/internal/phase"
)

// TokenParams is the immutable launch configuration needed to replay a
// token's events.
type TokenParams struct {
	TotalSupply          float64
	LaunchTimeMs         int64
	EarlyPhaseDurationMs int64
	PhaseDurationMs      int64
}

// ReplayOptions configures a replay pass.
type ReplayOptions struct {
	// Tokens maps token ID to its launch parameters. Events for tokens
	// not present here are skipped with a warning.
	Tokens map[string]TokenParams

	// SeedSupply sets the starting running supply per token. Used only
	// when reconstructing from a partial/live window; a full historical
	// replay leaves this empty so every token seeds at 0.
	SeedSupply map[string]float64

	Logger zerolog.Logger
}

// ReplayResult is the output of one replay pass.
type ReplayResult struct {
	// Trades per token, in replay order.
	Trades map[string][]*domain.Trade

	// RunningSupply is the post-replay circulating supply per token.
	RunningSupply map[string]float64

	// Balances maps actor -> token -> signed token balance.
	Balances map[string]map[string]float64

	// Skipped counts events dropped for unknown tokens or supply-bound
	// violations.
	Skipped int
}

// Replay processes events in strict deterministic order and rebuilds
// per-token trade lists, running supply and per-actor balances.
//
// Each trade is priced at the running supply BEFORE the event mutates
// it: that is the price actually in effect at trade time. Reversing the
// order would silently shift every historical price.
func Replay(events []*Event, opts ReplayOptions) (*ReplayResult, error) {
	for id, params := range opts.Tokens {
		if params.TotalSupply <= 0 {
			return nil, fmt.Errorf("token %s: %w", id, curve.ErrInvalidSupply)
		}
	}

	sorted := make([]*Event, len(events))
	copy(sorted, events)
	SortEvents(sorted)

	result := &ReplayResult{
		Trades:        make(map[string][]*domain.Trade),
		RunningSupply: make(map[string]float64),
		Balances:      make(map[string]map[string]float64),
	}

	for id := range opts.Tokens {
		result.RunningSupply[id] = opts.SeedSupply[id]
	}

	for _, e := range sorted {
		params, known := opts.Tokens[e.TokenID]
		if !known {
			result.Skipped++
			observability.RecordEventSkipped("unknown_token")
			opts.Logger.Warn().
				Str("token_id", e.TokenID).
				Str("tx_digest", e.TxDigest).
				Msg("skipping event for unknown token")
			continue
		}

		supply := result.RunningSupply[e.TokenID]

		// Price before mutate.
		price, err := curve.Price(supply, params.TotalSupply)
		if err != nil {
			return nil, fmt.Errorf("price token %s at supply %g: %w", e.TokenID, supply, err)
		}

		switch e.Kind {
		case KindBuy:
			if supply+e.Amount > params.TotalSupply {
				result.Skipped++
				observability.RecordEventSkipped("supply_bound")
				opts.Logger.Warn().
					Str("token_id", e.TokenID).
					Str("tx_digest", e.TxDigest).
					Float64("amount", e.Amount).
					Msg("skipping buy exceeding total supply")
				continue
			}
		case KindSell:
			if supply-e.Amount < 0 {
				result.Skipped++
				observability.RecordEventSkipped("supply_bound")
				opts.Logger.Warn().
					Str("token_id", e.TokenID).
					Str("tx_digest", e.TxDigest).
					Float64("amount", e.Amount).
					Msg("skipping sell exceeding running supply")
				continue
			}
		default:
			result.Skipped++
			continue
		}

		trade := &domain.Trade{
			TokenID:     e.TokenID,
			Actor:       e.Actor,
			Amount:      e.Amount,
			Price:       price,
			Cost:        price * e.Amount,
			TimestampMs: e.TimestampMs,
			TxDigest:    e.TxDigest,
			EventIndex:  e.EventIndex,
			Phase: phase.Current(
				params.LaunchTimeMs,
				params.EarlyPhaseDurationMs,
				params.PhaseDurationMs,
				e.TimestampMs,
			),
		}

		if e.Kind == KindBuy {
			trade.Side = domain.TradeSideBuy
			result.RunningSupply[e.TokenID] = supply + e.Amount
		} else {
			trade.Side = domain.TradeSideSell
			result.RunningSupply[e.TokenID] = supply - e.Amount
		}

		result.Trades[e.TokenID] = append(result.Trades[e.TokenID], trade)

		actorBalances, ok := result.Balances[e.Actor]
		if !ok {
			actorBalances = make(map[string]float64)
			result.Balances[e.Actor] = actorBalances
		}
		if e.Kind == KindBuy {
			actorBalances[e.TokenID] += e.Amount
		} else {
			actorBalances[e.TokenID] -= e.Amount
		}
	}

	return result, nil
}
