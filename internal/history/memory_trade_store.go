package history

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sui-launchpad/internal/domain"
)

// MemoryTradeStore is an in-memory implementation of TradeStore.
type MemoryTradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Trade // keyed by (tx_digest, event_index)
}

// NewMemoryTradeStore creates a new in-memory trade store.
func NewMemoryTradeStore() *MemoryTradeStore {
	return &MemoryTradeStore{
		data: make(map[string]*domain.Trade),
	}
}

var _ TradeStore = (*MemoryTradeStore)(nil)

// tradeKey generates a unique key for a trade.
func tradeKey(txDigest string, eventIndex int) string {
	return fmt.Sprintf("%s|%d", txDigest, eventIndex)
}

// InsertBulk adds multiple trades. Fails entire batch on duplicate.
func (s *MemoryTradeStore) InsertBulk(_ context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(trades))

	for _, t := range trades {
		if t == nil || t.TokenID == "" || t.TxDigest == "" {
			return ErrInvalidInput
		}
		key := tradeKey(t.TxDigest, t.EventIndex)

		if _, exists := s.data[key]; exists {
			return ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, t := range trades {
		tradeCopy := *t
		s.data[tradeKey(t.TxDigest, t.EventIndex)] = &tradeCopy
	}

	return nil
}

// GetByToken retrieves all trades for a token, ordered by timestamp ASC.
func (s *MemoryTradeStore) GetByToken(_ context.Context, tokenID string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if t.TokenID == tokenID {
			tradeCopy := *t
			result = append(result, &tradeCopy)
		}
	}

	sortTrades(result)
	return result, nil
}

// GetByActor retrieves all trades by an actor, ordered by timestamp ASC.
func (s *MemoryTradeStore) GetByActor(_ context.Context, actor string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if t.Actor == actor {
			tradeCopy := *t
			result = append(result, &tradeCopy)
		}
	}

	sortTrades(result)
	return result, nil
}

// GetByTimeRange retrieves trades for a token within [start, end] (inclusive).
func (s *MemoryTradeStore) GetByTimeRange(_ context.Context, tokenID string, start, end int64) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if t.TokenID == tokenID && t.TimestampMs >= start && t.TimestampMs <= end {
			tradeCopy := *t
			result = append(result, &tradeCopy)
		}
	}

	sortTrades(result)
	return result, nil
}

func sortTrades(trades []*domain.Trade) {
	sort.Slice(trades, func(i, j int) bool {
		if trades[i].TimestampMs != trades[j].TimestampMs {
			return trades[i].TimestampMs < trades[j].TimestampMs
		}
		if trades[i].TxDigest != trades[j].TxDigest {
			return trades[i].TxDigest < trades[j].TxDigest
		}
		return trades[i].EventIndex < trades[j].EventIndex
	})
}
