// Package portfolio computes cost-basis holdings and aggregate P&L from
// a user's trade lists. Everything is recomputed in full from the trades
// on each call; there is no incremental state that could drift from the
// event log.
package portfolio

import (
	"sort"

	"sui-launchpad/internal/domain"
)

// ComputeHoldings folds each token's trade list into a Holding valued
// at the given current price.
//
// TotalInvested sums buy costs only: sells never reduce it, so the view
// is cost-basis, not net-cash-flow. Tokens with a non-positive signed
// balance are omitted. Output is sorted by descending current value for
// display stability.
func ComputeHoldings(tradesByToken map[string][]*domain.Trade, currentPrices map[string]float64) []*domain.Holding {
	var holdings []*domain.Holding

	for tokenID, trades := range tradesByToken {
		if len(trades) == 0 {
			continue
		}

		var balance, totalInvested float64
		for _, t := range trades {
			switch t.Side {
			case domain.TradeSideBuy:
				balance += t.Amount
				totalInvested += t.Cost
			case domain.TradeSideSell:
				balance -= t.Amount
			}
		}

		if balance <= 0 {
			continue
		}

		currentPrice := currentPrices[tokenID]
		h := &domain.Holding{
			TokenID:       tokenID,
			Balance:       balance,
			TotalInvested: totalInvested,
			AveragePrice:  totalInvested / balance,
			CurrentPrice:  currentPrice,
			CurrentValue:  balance * currentPrice,
		}
		h.ProfitLoss = h.CurrentValue - h.TotalInvested
		if h.TotalInvested > 0 {
			h.ProfitLossPercent = h.ProfitLoss / h.TotalInvested * 100
		}

		holdings = append(holdings, h)
	}

	sort.Slice(holdings, func(i, j int) bool {
		if holdings[i].CurrentValue != holdings[j].CurrentValue {
			return holdings[i].CurrentValue > holdings[j].CurrentValue
		}
		return holdings[i].TokenID < holdings[j].TokenID
	})

	return holdings
}

// Summarize aggregates holdings into portfolio totals. Totals are
// straight sums across tokens; the percentage is recomputed from the
// sums, not averaged across holdings.
func Summarize(holdings []*domain.Holding) *domain.PortfolioSummary {
	s := &domain.PortfolioSummary{Holdings: holdings}

	for _, h := range holdings {
		s.TotalValue += h.CurrentValue
		s.TotalInvested += h.TotalInvested
		s.TotalProfitLoss += h.ProfitLoss
	}
	if s.TotalInvested > 0 {
		s.ProfitLossPercent = s.TotalProfitLoss / s.TotalInvested * 100
	}

	return s
}
