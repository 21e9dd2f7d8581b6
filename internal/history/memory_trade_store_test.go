package history

import (
	"context"
	"errors"
	"testing"

	"sui-launchpad/internal/domain"
)

func testTrade(tokenID, actor, digest string, eventIndex int, tsMs int64) *domain.Trade {
	return &domain.Trade{
		TokenID:     tokenID,
		Actor:       actor,
		Side:        domain.TradeSideBuy,
		Amount:      1000,
		Price:       0.0001,
		Cost:        0.1,
		TimestampMs: tsMs,
		TxDigest:    digest,
		EventIndex:  eventIndex,
		Phase:       domain.PhaseOpen,
	}
}

func TestTradeStore_InsertAndGetByToken(t *testing.T) {
	s := NewMemoryTradeStore()
	ctx := context.Background()

	trades := []*domain.Trade{
		testTrade("tok1", "alice", "d2", 0, 2000),
		testTrade("tok1", "bob", "d1", 0, 1000),
		testTrade("tok2", "alice", "d3", 0, 1500),
	}
	if err := s.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	got, err := s.GetByToken(ctx, "tok1")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(got))
	}
	if got[0].TxDigest != "d1" || got[1].TxDigest != "d2" {
		t.Errorf("trades not ordered by timestamp: %s, %s", got[0].TxDigest, got[1].TxDigest)
	}
}

func TestTradeStore_DuplicateKey(t *testing.T) {
	s := NewMemoryTradeStore()
	ctx := context.Background()

	if err := s.InsertBulk(ctx, []*domain.Trade{testTrade("tok1", "alice", "d1", 0, 1000)}); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	// Same digest and index, against existing data.
	err := s.InsertBulk(ctx, []*domain.Trade{testTrade("tok1", "alice", "d1", 0, 1000)})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	// Intra-batch duplicate fails the whole batch.
	err = s.InsertBulk(ctx, []*domain.Trade{
		testTrade("tok1", "alice", "d2", 0, 2000),
		testTrade("tok1", "bob", "d2", 0, 2000),
	})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}
	if got, _ := s.GetByToken(ctx, "tok1"); len(got) != 1 {
		t.Errorf("failed batch must not be partially applied, store has %d trades", len(got))
	}

	// Same digest, different event index is a distinct trade.
	if err := s.InsertBulk(ctx, []*domain.Trade{testTrade("tok1", "alice", "d1", 1, 1000)}); err != nil {
		t.Errorf("distinct event index rejected: %v", err)
	}
}

func TestTradeStore_InvalidInput(t *testing.T) {
	s := NewMemoryTradeStore()
	ctx := context.Background()

	err := s.InsertBulk(ctx, []*domain.Trade{{TokenID: "", TxDigest: "d1"}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty token, got %v", err)
	}
	err = s.InsertBulk(ctx, []*domain.Trade{nil})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil trade, got %v", err)
	}
}

func TestTradeStore_GetByActor(t *testing.T) {
	s := NewMemoryTradeStore()
	ctx := context.Background()

	trades := []*domain.Trade{
		testTrade("tok1", "alice", "d1", 0, 1000),
		testTrade("tok2", "alice", "d2", 0, 3000),
		testTrade("tok1", "bob", "d3", 0, 2000),
	}
	if err := s.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	got, err := s.GetByActor(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByActor: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 trades for alice, got %d", len(got))
	}
	if got[0].TokenID != "tok1" || got[1].TokenID != "tok2" {
		t.Errorf("trades not ordered by timestamp: %s, %s", got[0].TokenID, got[1].TokenID)
	}
}

func TestTradeStore_GetByTimeRange(t *testing.T) {
	s := NewMemoryTradeStore()
	ctx := context.Background()

	trades := []*domain.Trade{
		testTrade("tok1", "alice", "d1", 0, 1000),
		testTrade("tok1", "alice", "d2", 0, 2000),
		testTrade("tok1", "alice", "d3", 0, 3000),
	}
	if err := s.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	// Bounds are inclusive on both sides.
	got, err := s.GetByTimeRange(ctx, "tok1", 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 trades in [1000, 2000], got %d", len(got))
	}
}

func TestTradeStore_CopyOnRead(t *testing.T) {
	s := NewMemoryTradeStore()
	ctx := context.Background()

	if err := s.InsertBulk(ctx, []*domain.Trade{testTrade("tok1", "alice", "d1", 0, 1000)}); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	got, _ := s.GetByToken(ctx, "tok1")
	got[0].Amount = 999999

	again, _ := s.GetByToken(ctx, "tok1")
	if again[0].Amount != 1000 {
		t.Error("mutating a read result must not affect the store")
	}
}
