package clickhouse

import (
	"context"
	"fmt"
	"time"

	"sui-launchpad/internal/domain"
	"sui-launchpad/internal/history"
	"sui-launchpad/internal/observability"
)

// TradeStore implements history.TradeStore using ClickHouse.
type TradeStore struct {
	conn *Conn
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(conn *Conn) *TradeStore {
	return &TradeStore{conn: conn}
}

// Compile-time interface check.
var _ history.TradeStore = (*TradeStore)(nil)

// InsertBulk adds multiple trades. Fails entire batch on duplicate (tx_digest, event_index).
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) (err error) {
	if len(trades) == 0 {
		return nil
	}
	defer func(start time.Time) {
		observability.RecordDBQuery("clickhouse", "insert_trades", time.Since(start).Seconds(), err)
	}(time.Now())

	// Check for intra-batch duplicates
	type key struct {
		txDigest   string
		eventIndex int
	}
	seen := make(map[key]struct{})
	for _, t := range trades {
		if t == nil || t.TokenID == "" || t.TxDigest == "" {
			return history.ErrInvalidInput
		}
		k := key{t.TxDigest, t.EventIndex}
		if _, exists := seen[k]; exists {
			return history.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, t := range trades {
		exists, err := s.exists(ctx, t.TxDigest, t.EventIndex)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return history.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trades (
			token_id, actor, side, amount, price, cost,
			timestamp_ms, tx_digest, event_index, phase
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trades {
		err = batch.Append(
			t.TokenID, t.Actor, t.Side, t.Amount, t.Price, t.Cost,
			uint64(t.TimestampMs), t.TxDigest, uint32(t.EventIndex), string(t.Phase),
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

// GetByToken retrieves all trades for a token, ordered by timestamp ASC.
func (s *TradeStore) GetByToken(ctx context.Context, tokenID string) (trades []*domain.Trade, err error) {
	defer func(begin time.Time) {
		observability.RecordDBQuery("clickhouse", "get_trades_by_token", time.Since(begin).Seconds(), err)
	}(time.Now())
	query := `
		SELECT token_id, actor, side, amount, price, cost,
			timestamp_ms, tx_digest, event_index, phase
		FROM trades
		WHERE token_id = ?
		ORDER BY timestamp_ms ASC, tx_digest ASC, event_index ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenID)
	if err != nil {
		return nil, fmt.Errorf("query by token: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByActor retrieves all trades by an actor, ordered by timestamp ASC.
func (s *TradeStore) GetByActor(ctx context.Context, actor string) (trades []*domain.Trade, err error) {
	defer func(begin time.Time) {
		observability.RecordDBQuery("clickhouse", "get_trades_by_actor", time.Since(begin).Seconds(), err)
	}(time.Now())
	query := `
		SELECT token_id, actor, side, amount, price, cost,
			timestamp_ms, tx_digest, event_index, phase
		FROM trades
		WHERE actor = ?
		ORDER BY timestamp_ms ASC, tx_digest ASC, event_index ASC
	`

	rows, err := s.conn.Query(ctx, query, actor)
	if err != nil {
		return nil, fmt.Errorf("query by actor: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByTimeRange retrieves trades for a token within [start, end] (inclusive).
func (s *TradeStore) GetByTimeRange(ctx context.Context, tokenID string, start, end int64) (trades []*domain.Trade, err error) {
	defer func(begin time.Time) {
		observability.RecordDBQuery("clickhouse", "get_trades_by_range", time.Since(begin).Seconds(), err)
	}(time.Now())
	query := `
		SELECT token_id, actor, side, amount, price, cost,
			timestamp_ms, tx_digest, event_index, phase
		FROM trades
		WHERE token_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, tx_digest ASC, event_index ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// exists checks if a trade with the given key exists.
func (s *TradeStore) exists(ctx context.Context, txDigest string, eventIndex int) (bool, error) {
	query := `
		SELECT count(*) FROM trades
		WHERE tx_digest = ? AND event_index = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, txDigest, uint32(eventIndex)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanTrades scans multiple rows.
func scanTrades(rows chRows) ([]*domain.Trade, error) {
	var trades []*domain.Trade

	for rows.Next() {
		var t domain.Trade
		var timestampMs uint64
		var eventIndex uint32
		var phase string

		err := rows.Scan(
			&t.TokenID, &t.Actor, &t.Side, &t.Amount, &t.Price, &t.Cost,
			&timestampMs, &t.TxDigest, &eventIndex, &phase,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}

		t.Phase = domain.Phase(phase)
		t.TimestampMs = int64(timestampMs)
		t.EventIndex = int(eventIndex)
		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
