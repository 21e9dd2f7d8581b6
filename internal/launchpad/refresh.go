package launchpad

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sui-launchpad/internal/domain"
	"sui-launchpad/internal/history"
	"sui-launchpad/internal/ledger"
	"sui-launchpad/internal/observability"
	"sui-launchpad/internal/portfolio"
	"sui-launchpad/internal/sui"
)

const (
	// ChartRefreshInterval is the polling cadence for chart state.
	ChartRefreshInterval = 10 * time.Second

	// PortfolioRefreshInterval is the polling cadence for portfolios.
	PortfolioRefreshInterval = 30 * time.Second

	// DefaultCandleIntervalSeconds is the bucket width used by the
	// refresh loop when building candles.
	DefaultCandleIntervalSeconds = 60

	buyEventSuffix  = "::launchpad::BuyEvent"
	sellEventSuffix = "::launchpad::SellEvent"
)

// RefreshChart fetches the token's full event log, replays it and
// swaps in the new chart view. Concurrent refreshes for the same token
// are generation-counted: only the most recently started one may apply
// its result, older ones discard theirs.
func (s *Service) RefreshChart(ctx context.Context, tokenID string) error {
	s.mu.Lock()
	token, ok := s.tokens[tokenID]
	if !ok {
		s.mu.Unlock()
		return ErrUnknownToken
	}
	params := ledger.TokenParams{
		TotalSupply:          token.TotalSupply,
		LaunchTimeMs:         token.LaunchTimeMs,
		EarlyPhaseDurationMs: token.EarlyPhaseDurationMs,
		PhaseDurationMs:      token.PhaseDurationMs,
	}
	s.chartGen[tokenID]++
	gen := s.chartGen[tokenID]
	s.mu.Unlock()

	start := time.Now()

	buys, sells, err := s.fetchTradeEvents(ctx)
	if err != nil {
		observability.RecordRefreshRun("chart", "error")
		return fmt.Errorf("fetch events: %w", err)
	}

	buyEvents, buySkipped := ledger.DecodeAll(buys, s.logger)
	sellEvents, sellSkipped := ledger.DecodeAll(sells, s.logger)
	merged := ledger.MergeEvents(buyEvents, sellEvents)

	// The query is package-wide but the view is per token. Trades of
	// other launches under the same package are dropped here so replay
	// does not count them as unknown-token skips on every poll.
	watched := make([]*ledger.Event, 0, len(merged))
	for _, e := range merged {
		if e.TokenID == tokenID {
			watched = append(watched, e)
		}
	}

	result, err := ledger.Replay(watched, ledger.ReplayOptions{
		Tokens: map[string]ledger.TokenParams{tokenID: params},
		Logger: s.logger,
	})
	if err != nil {
		observability.RecordRefreshRun("chart", "error")
		return fmt.Errorf("replay: %w", err)
	}

	trades := result.Trades[tokenID]
	candles := ledger.BuildCandles(trades, DefaultCandleIntervalSeconds)
	observability.RecordReplay(len(trades), time.Since(start).Seconds())
	observability.RecordCandlesBuilt(len(candles))

	view := &ChartView{
		TokenID:           tokenID,
		Trades:            trades,
		Candles:           candles,
		CirculatingSupply: result.RunningSupply[tokenID],
		Balances:          make(map[string]float64),
		UpdatedAtMs:       s.now().UnixMilli(),
	}
	for actor, byToken := range result.Balances {
		if b := byToken[tokenID]; b != 0 {
			view.Balances[actor] = b
		}
	}
	if len(trades) > 0 {
		view.CurrentPrice = trades[len(trades)-1].Price
	}

	s.persistHistory(ctx, tokenID, trades, candles)

	s.mu.Lock()
	if s.chartGen[tokenID] != gen {
		s.mu.Unlock()
		observability.RecordStaleDiscarded()
		observability.RecordRefreshRun("chart", "stale")
		s.logger.Debug().Str("token_id", tokenID).Uint64("generation", gen).Msg("discarding stale chart refresh")
		return nil
	}
	s.charts[tokenID] = view
	if t, ok := s.tokens[tokenID]; ok {
		t.CirculatingSupply = view.CirculatingSupply
	}
	s.mu.Unlock()

	observability.RecordRefreshRun("chart", "ok")
	observability.SetLastSuccessfulRefresh(float64(s.now().Unix()))
	s.logger.Debug().
		Str("token_id", tokenID).
		Int("trades", len(trades)).
		Int("candles", len(candles)).
		Int("skipped", buySkipped+sellSkipped+result.Skipped).
		Msg("chart refreshed")
	return nil
}

// RefreshPortfolio recomputes an actor's holdings from their persisted
// trades, priced from the latest chart views. Stale results are
// discarded under the same generation rule as charts.
func (s *Service) RefreshPortfolio(ctx context.Context, actor string) error {
	s.mu.Lock()
	s.portfolioGen[actor]++
	gen := s.portfolioGen[actor]
	s.mu.Unlock()

	trades, err := s.trades.GetByActor(ctx, actor)
	if err != nil {
		observability.RecordRefreshRun("portfolio", "error")
		return fmt.Errorf("load trades for %s: %w", actor, err)
	}

	tradesByToken := make(map[string][]*domain.Trade)
	for _, t := range trades {
		tradesByToken[t.TokenID] = append(tradesByToken[t.TokenID], t)
	}

	s.mu.Lock()
	prices := make(map[string]float64, len(tradesByToken))
	for tokenID := range tradesByToken {
		if view, ok := s.charts[tokenID]; ok {
			prices[tokenID] = view.CurrentPrice
		}
	}
	s.mu.Unlock()

	holdings := portfolio.ComputeHoldings(tradesByToken, prices)
	summary := portfolio.Summarize(holdings)

	s.mu.Lock()
	if s.portfolioGen[actor] != gen {
		s.mu.Unlock()
		observability.RecordStaleDiscarded()
		observability.RecordRefreshRun("portfolio", "stale")
		return nil
	}
	s.portfolios[actor] = summary
	s.mu.Unlock()

	observability.RecordRefreshRun("portfolio", "ok")
	return nil
}

// StartChartPolling refreshes the token's chart on a fixed cadence
// until the returned cancel func is called.
func (s *Service) StartChartPolling(tokenID string) func() {
	cancel := s.scheduler.Schedule(ChartRefreshInterval, func(ctx context.Context) {
		if err := s.RefreshChart(ctx, tokenID); err != nil {
			s.logger.Error().Err(err).Str("token_id", tokenID).Msg("chart refresh failed")
		}
	})
	return cancel
}

// StartPortfolioPolling refreshes the actor's portfolio on a fixed
// cadence until the returned cancel func is called.
func (s *Service) StartPortfolioPolling(actor string) func() {
	cancel := s.scheduler.Schedule(PortfolioRefreshInterval, func(ctx context.Context) {
		if err := s.RefreshPortfolio(ctx, actor); err != nil {
			s.logger.Error().Err(err).Str("actor", actor).Msg("portfolio refresh failed")
		}
	})
	return cancel
}

// fetchTradeEvents queries buy and sell event streams concurrently.
func (s *Service) fetchTradeEvents(ctx context.Context) (buys, sells []*sui.EventEnvelope, err error) {
	type fetch struct {
		envs []*sui.EventEnvelope
		err  error
	}

	run := func(suffix string, out chan<- fetch) {
		envs, err := s.client.QueryEvents(ctx, sui.EventFilter{EventType: s.packageID + suffix})
		if err != nil {
			out <- fetch{err: err}
			return
		}
		ptrs := make([]*sui.EventEnvelope, len(envs))
		for i := range envs {
			ptrs[i] = &envs[i]
		}
		out <- fetch{envs: ptrs}
	}

	buyCh := make(chan fetch, 1)
	sellCh := make(chan fetch, 1)
	go run(buyEventSuffix, buyCh)
	go run(sellEventSuffix, sellCh)

	buyRes, sellRes := <-buyCh, <-sellCh
	if buyRes.err != nil {
		return nil, nil, buyRes.err
	}
	if sellRes.err != nil {
		return nil, nil, sellRes.err
	}
	return buyRes.envs, sellRes.envs, nil
}

// persistHistory appends new trades and closed candles to the history
// stores. Persistence is best-effort: the in-memory view is the source
// of truth for the UI and a storage error must not fail the refresh.
func (s *Service) persistHistory(ctx context.Context, tokenID string, trades []*domain.Trade, candles []*domain.Candle) {
	existing, err := s.trades.GetByToken(ctx, tokenID)
	if err != nil {
		s.logger.Warn().Err(err).Str("token_id", tokenID).Msg("failed to load persisted trades")
		return
	}
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[fmt.Sprintf("%s:%d", t.TxDigest, t.EventIndex)] = struct{}{}
	}
	var newTrades []*domain.Trade
	for _, t := range trades {
		if _, ok := seen[fmt.Sprintf("%s:%d", t.TxDigest, t.EventIndex)]; !ok {
			newTrades = append(newTrades, t)
		}
	}
	if len(newTrades) > 0 {
		if err := s.trades.InsertBulk(ctx, newTrades); err != nil && !errors.Is(err, history.ErrDuplicateKey) {
			s.logger.Warn().Err(err).Str("token_id", tokenID).Msg("failed to persist trades")
		}
	}

	existingCandles, err := s.candles.GetByToken(ctx, tokenID, DefaultCandleIntervalSeconds)
	if err != nil {
		s.logger.Warn().Err(err).Str("token_id", tokenID).Msg("failed to load persisted candles")
		return
	}
	stored := make(map[int64]struct{}, len(existingCandles))
	for _, c := range existingCandles {
		stored[c.IntervalStartMs] = struct{}{}
	}
	// Only closed buckets are append-safe: the current bucket keeps
	// mutating until its interval elapses.
	cutoffMs := s.now().UnixMilli() / (DefaultCandleIntervalSeconds * 1000) * (DefaultCandleIntervalSeconds * 1000)
	var closed []*domain.Candle
	for _, c := range candles {
		if c.IntervalStartMs >= cutoffMs {
			continue
		}
		if _, ok := stored[c.IntervalStartMs]; ok {
			continue
		}
		closed = append(closed, c)
	}
	if len(closed) > 0 {
		if err := s.candles.InsertBulk(ctx, closed); err != nil && !errors.Is(err, history.ErrDuplicateKey) {
			s.logger.Warn().Err(err).Str("token_id", tokenID).Msg("failed to persist candles")
		}
	}
}
