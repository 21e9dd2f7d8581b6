// Package history defines the append-only stores for replayed trades
// and aggregated candles, with in-memory and ClickHouse backends.
package history

import (
	"context"
	"errors"

	"sui-launchpad/internal/domain"
)

// Storage errors for append-only stores.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists. Append-only stores do not allow updates.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// TradeStore persists replayed trades. Keyed by (tx_digest, event_index).
type TradeStore interface {
	// InsertBulk adds multiple trades. Fails entire batch on duplicate key.
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// GetByToken retrieves all trades for a token, ordered by timestamp ASC.
	GetByToken(ctx context.Context, tokenID string) ([]*domain.Trade, error)

	// GetByActor retrieves all trades by an actor across tokens, ordered
	// by timestamp ASC.
	GetByActor(ctx context.Context, actor string) ([]*domain.Trade, error)

	// GetByTimeRange retrieves trades for a token within [start, end]
	// milliseconds (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, tokenID string, start, end int64) ([]*domain.Trade, error)
}

// CandleStore persists aggregated candles. Keyed by
// (token_id, interval_seconds, interval_start_ms).
type CandleStore interface {
	// InsertBulk adds multiple candles. Fails entire batch on duplicate key.
	InsertBulk(ctx context.Context, candles []*domain.Candle) error

	// GetByToken retrieves all candles for a token at the given interval,
	// ordered by bucket start ASC.
	GetByToken(ctx context.Context, tokenID string, intervalSeconds int) ([]*domain.Candle, error)

	// GetByTimeRange retrieves candles whose bucket start falls within
	// [start, end] milliseconds (inclusive), ordered by bucket start ASC.
	GetByTimeRange(ctx context.Context, tokenID string, intervalSeconds int, start, end int64) ([]*domain.Candle, error)
}
