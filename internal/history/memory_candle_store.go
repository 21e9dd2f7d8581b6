package history

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sui-launchpad/internal/domain"
)

// MemoryCandleStore is an in-memory implementation of CandleStore.
type MemoryCandleStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Candle // keyed by (token_id, interval_seconds, interval_start_ms)
}

// NewMemoryCandleStore creates a new in-memory candle store.
func NewMemoryCandleStore() *MemoryCandleStore {
	return &MemoryCandleStore{
		data: make(map[string]*domain.Candle),
	}
}

var _ CandleStore = (*MemoryCandleStore)(nil)

// candleKey generates a unique key for a candle.
func candleKey(tokenID string, intervalSeconds int, intervalStartMs int64) string {
	return fmt.Sprintf("%s|%d|%d", tokenID, intervalSeconds, intervalStartMs)
}

// InsertBulk adds multiple candles. Fails entire batch on duplicate.
func (s *MemoryCandleStore) InsertBulk(_ context.Context, candles []*domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(candles))

	for _, c := range candles {
		if c == nil || c.TokenID == "" || c.IntervalSeconds <= 0 {
			return ErrInvalidInput
		}
		key := candleKey(c.TokenID, c.IntervalSeconds, c.IntervalStartMs)

		if _, exists := s.data[key]; exists {
			return ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, c := range candles {
		candleCopy := *c
		s.data[candleKey(c.TokenID, c.IntervalSeconds, c.IntervalStartMs)] = &candleCopy
	}

	return nil
}

// GetByToken retrieves all candles for a token at the given interval,
// ordered by bucket start ASC.
func (s *MemoryCandleStore) GetByToken(_ context.Context, tokenID string, intervalSeconds int) ([]*domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Candle
	for _, c := range s.data {
		if c.TokenID == tokenID && c.IntervalSeconds == intervalSeconds {
			candleCopy := *c
			result = append(result, &candleCopy)
		}
	}

	sortCandles(result)
	return result, nil
}

// GetByTimeRange retrieves candles whose bucket start falls within
// [start, end] (inclusive), ordered by bucket start ASC.
func (s *MemoryCandleStore) GetByTimeRange(_ context.Context, tokenID string, intervalSeconds int, start, end int64) ([]*domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Candle
	for _, c := range s.data {
		if c.TokenID == tokenID && c.IntervalSeconds == intervalSeconds &&
			c.IntervalStartMs >= start && c.IntervalStartMs <= end {
			candleCopy := *c
			result = append(result, &candleCopy)
		}
	}

	sortCandles(result)
	return result, nil
}

func sortCandles(candles []*domain.Candle) {
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].IntervalStartMs < candles[j].IntervalStartMs
	})
}
