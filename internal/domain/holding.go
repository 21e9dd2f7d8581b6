package domain

// Holding is one (user, token) position, recomputed in full from the
// user's trade list on each refresh.
//
// TotalInvested sums buy costs only; sells never reduce it. This is a
// cost-basis view, not a net-cash-flow view.
type Holding struct {
	TokenID string
	Symbol  string

	Balance       float64 // sum of buy amounts minus sell amounts
	TotalInvested float64 // sum of buy costs, in quote currency (SUI)
	AveragePrice  float64 // TotalInvested / Balance

	CurrentPrice      float64
	CurrentValue      float64 // Balance * CurrentPrice
	ProfitLoss        float64 // CurrentValue - TotalInvested
	ProfitLossPercent float64 // ProfitLoss / TotalInvested * 100, 0 if nothing invested
}

// PortfolioSummary aggregates a user's holdings. Totals are straight
// sums across tokens, not balance-weighted averages of percentages.
type PortfolioSummary struct {
	Holdings []*Holding // sorted by CurrentValue descending

	TotalValue        float64
	TotalInvested     float64
	TotalProfitLoss   float64
	ProfitLossPercent float64
}
