package clickhouse

import (
	"context"
	"fmt"
	"time"

	"sui-launchpad/internal/domain"
	"sui-launchpad/internal/history"
	"sui-launchpad/internal/observability"
)

// CandleStore implements history.CandleStore using ClickHouse.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ history.CandleStore = (*CandleStore)(nil)

// InsertBulk adds multiple candles. Fails entire batch on duplicate
// (token_id, interval_seconds, interval_start_ms).
func (s *CandleStore) InsertBulk(ctx context.Context, candles []*domain.Candle) (err error) {
	if len(candles) == 0 {
		return nil
	}
	defer func(start time.Time) {
		observability.RecordDBQuery("clickhouse", "insert_candles", time.Since(start).Seconds(), err)
	}(time.Now())

	type key struct {
		tokenID         string
		intervalSeconds int
		intervalStartMs int64
	}
	seen := make(map[key]struct{})
	for _, c := range candles {
		if c == nil || c.TokenID == "" || c.IntervalSeconds <= 0 {
			return history.ErrInvalidInput
		}
		k := key{c.TokenID, c.IntervalSeconds, c.IntervalStartMs}
		if _, exists := seen[k]; exists {
			return history.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, c := range candles {
		exists, err := s.exists(ctx, c.TokenID, c.IntervalSeconds, c.IntervalStartMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return history.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			token_id, interval_start_ms, interval_seconds,
			open, high, low, close, volume, trade_count,
			has_sell, display_high, display_low
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range candles {
		err = batch.Append(
			c.TokenID, uint64(c.IntervalStartMs), uint32(c.IntervalSeconds),
			c.Open, c.High, c.Low, c.Close, c.Volume, uint32(c.TradeCount),
			c.HasSell, c.DisplayHigh, c.DisplayLow,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByToken retrieves all candles for a token at the given interval,
// ordered by bucket start ASC.
func (s *CandleStore) GetByToken(ctx context.Context, tokenID string, intervalSeconds int) (candles []*domain.Candle, err error) {
	defer func(begin time.Time) {
		observability.RecordDBQuery("clickhouse", "get_candles_by_token", time.Since(begin).Seconds(), err)
	}(time.Now())
	query := `
		SELECT token_id, interval_start_ms, interval_seconds,
			open, high, low, close, volume, trade_count,
			has_sell, display_high, display_low
		FROM candles
		WHERE token_id = ? AND interval_seconds = ?
		ORDER BY interval_start_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenID, uint32(intervalSeconds))
	if err != nil {
		return nil, fmt.Errorf("query by token: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// GetByTimeRange retrieves candles whose bucket start falls within
// [start, end] (inclusive), ordered by bucket start ASC.
func (s *CandleStore) GetByTimeRange(ctx context.Context, tokenID string, intervalSeconds int, start, end int64) (candles []*domain.Candle, err error) {
	defer func(begin time.Time) {
		observability.RecordDBQuery("clickhouse", "get_candles_by_range", time.Since(begin).Seconds(), err)
	}(time.Now())
	query := `
		SELECT token_id, interval_start_ms, interval_seconds,
			open, high, low, close, volume, trade_count,
			has_sell, display_high, display_low
		FROM candles
		WHERE token_id = ? AND interval_seconds = ?
			AND interval_start_ms >= ? AND interval_start_ms <= ?
		ORDER BY interval_start_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenID, uint32(intervalSeconds), uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// exists checks if a candle with the given key exists.
func (s *CandleStore) exists(ctx context.Context, tokenID string, intervalSeconds int, intervalStartMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM candles
		WHERE token_id = ? AND interval_seconds = ? AND interval_start_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, tokenID, uint32(intervalSeconds), uint64(intervalStartMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanCandles scans multiple rows.
func scanCandles(rows chRows) ([]*domain.Candle, error) {
	var candles []*domain.Candle

	for rows.Next() {
		var c domain.Candle
		var intervalStartMs uint64
		var intervalSeconds, tradeCount uint32

		err := rows.Scan(
			&c.TokenID, &intervalStartMs, &intervalSeconds,
			&c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &tradeCount,
			&c.HasSell, &c.DisplayHigh, &c.DisplayLow,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}

		c.IntervalStartMs = int64(intervalStartMs)
		c.IntervalSeconds = int(intervalSeconds)
		c.TradeCount = int(tradeCount)
		candles = append(candles, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}

	return candles, nil
}
