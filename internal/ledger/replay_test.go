package ledger

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"sui-launchpad/internal/curve"
	"sui-launchpad/internal/domain"
)

const (
	testTokenID     = "0xtoken"
	testTotalSupply = 1_000_000_000.0
	testLaunchMs    = int64(1_700_000_000_000)
)

func testOptions() ReplayOptions {
	return ReplayOptions{
		Tokens: map[string]TokenParams{
			testTokenID: {
				TotalSupply:          testTotalSupply,
				LaunchTimeMs:         testLaunchMs,
				EarlyPhaseDurationMs: 600_000,
				PhaseDurationMs:      1_800_000,
			},
		},
		Logger: zerolog.Nop(),
	}
}

func buyEvent(amount float64, tsMs int64, digest string) *Event {
	return &Event{
		Kind: KindBuy, TokenID: testTokenID, Actor: "0xalice",
		Amount: amount, TimestampMs: tsMs, TxDigest: digest,
	}
}

func TestReplay_PricesBeforeMutation(t *testing.T) {
	// First buy of 100M at zero circulation executes at the base price;
	// second buy of 100M executes at the 10%-circulation price.
	events := []*Event{
		buyEvent(100_000_000, testLaunchMs+700_000, "sig1"),
		buyEvent(100_000_000, testLaunchMs+800_000, "sig2"),
	}

	result, err := Replay(events, testOptions())
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	trades := result.Trades[testTokenID]
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}

	if trades[0].Price != 0.0001 {
		t.Errorf("first trade: expected price 0.0001, got %g", trades[0].Price)
	}
	// 0.0001 * (1 + 99*0.10) = 0.001090
	if math.Abs(trades[1].Price-0.001090) > 1e-12 {
		t.Errorf("second trade: expected price 0.001090, got %g", trades[1].Price)
	}

	if result.RunningSupply[testTokenID] != 200_000_000 {
		t.Errorf("expected running supply 200M, got %g", result.RunningSupply[testTokenID])
	}
}

func TestReplay_SellReducesSupplyAndBalance(t *testing.T) {
	events := []*Event{
		buyEvent(100_000_000, testLaunchMs+700_000, "sig1"),
		{
			Kind: KindSell, TokenID: testTokenID, Actor: "0xalice",
			Amount: 40_000_000, TimestampMs: testLaunchMs + 800_000, TxDigest: "sig2",
		},
	}

	result, err := Replay(events, testOptions())
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	if result.RunningSupply[testTokenID] != 60_000_000 {
		t.Errorf("expected running supply 60M, got %g", result.RunningSupply[testTokenID])
	}
	if got := result.Balances["0xalice"][testTokenID]; got != 60_000_000 {
		t.Errorf("expected balance 60M, got %g", got)
	}

	// The sell is priced at the pre-sell supply (10% of total).
	sell := result.Trades[testTokenID][1]
	if math.Abs(sell.Price-0.001090) > 1e-12 {
		t.Errorf("sell priced at %g, expected pre-trade price 0.001090", sell.Price)
	}
}

func TestReplay_Idempotent(t *testing.T) {
	// Replaying the same list twice yields identical results: no drift
	// accumulates across repeated refreshes.
	events := []*Event{
		buyEvent(50_000_000, testLaunchMs+700_000, "sig1"),
		buyEvent(25_000_000, testLaunchMs+710_000, "sig2"),
		{
			Kind: KindSell, TokenID: testTokenID, Actor: "0xalice",
			Amount: 10_000_000, TimestampMs: testLaunchMs + 720_000, TxDigest: "sig3",
		},
	}

	first, err := Replay(events, testOptions())
	if err != nil {
		t.Fatalf("first replay failed: %v", err)
	}
	second, err := Replay(events, testOptions())
	if err != nil {
		t.Fatalf("second replay failed: %v", err)
	}

	if first.RunningSupply[testTokenID] != second.RunningSupply[testTokenID] {
		t.Errorf("running supply drifted: %g != %g",
			first.RunningSupply[testTokenID], second.RunningSupply[testTokenID])
	}

	ft, st := first.Trades[testTokenID], second.Trades[testTokenID]
	if len(ft) != len(st) {
		t.Fatalf("trade counts differ: %d != %d", len(ft), len(st))
	}
	for i := range ft {
		if *ft[i] != *st[i] {
			t.Errorf("trade %d differs: %+v != %+v", i, ft[i], st[i])
		}
	}
}

func TestReplay_SeedSupplyForPartialWindow(t *testing.T) {
	// A live-window replay seeds at the token's current supply instead
	// of zero, so prices pick up where the full history left off.
	opts := testOptions()
	opts.SeedSupply = map[string]float64{testTokenID: 100_000_000}

	events := []*Event{buyEvent(1_000_000, testLaunchMs+900_000, "sig1")}

	result, err := Replay(events, opts)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	trade := result.Trades[testTokenID][0]
	if math.Abs(trade.Price-0.001090) > 1e-12 {
		t.Errorf("seeded replay priced at %g, expected 0.001090", trade.Price)
	}
}

func TestReplay_SkipsUnknownToken(t *testing.T) {
	events := []*Event{
		buyEvent(1_000_000, testLaunchMs+700_000, "sig1"),
		{
			Kind: KindBuy, TokenID: "0xother", Actor: "0xbob",
			Amount: 5, TimestampMs: testLaunchMs + 701_000, TxDigest: "sig2",
		},
	}

	result, err := Replay(events, testOptions())
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped event, got %d", result.Skipped)
	}
	if len(result.Trades[testTokenID]) != 1 {
		t.Errorf("expected 1 trade for known token, got %d", len(result.Trades[testTokenID]))
	}
}

func TestReplay_SkipsSupplyBoundViolations(t *testing.T) {
	events := []*Event{
		// Sell with nothing circulating.
		{
			Kind: KindSell, TokenID: testTokenID, Actor: "0xalice",
			Amount: 1, TimestampMs: testLaunchMs + 700_000, TxDigest: "sig1",
		},
		// Buy exceeding total supply.
		buyEvent(testTotalSupply+1, testLaunchMs+701_000, "sig2"),
	}

	result, err := Replay(events, testOptions())
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	if result.Skipped != 2 {
		t.Errorf("expected 2 skipped events, got %d", result.Skipped)
	}
	if len(result.Trades[testTokenID]) != 0 {
		t.Errorf("expected no trades, got %d", len(result.Trades[testTokenID]))
	}
	if result.RunningSupply[testTokenID] != 0 {
		t.Errorf("supply mutated by skipped events: %g", result.RunningSupply[testTokenID])
	}
}

func TestReplay_ZeroTotalSupplyIsFatal(t *testing.T) {
	opts := testOptions()
	opts.Tokens[testTokenID] = TokenParams{TotalSupply: 0}

	_, err := Replay(nil, opts)
	if !errors.Is(err, curve.ErrInvalidSupply) {
		t.Errorf("expected ErrInvalidSupply, got %v", err)
	}
}

func TestReplay_ClassifiesTradePhase(t *testing.T) {
	events := []*Event{
		buyEvent(1_000_000, testLaunchMs+700_000, "sig1"),   // inside PRIVATE
		buyEvent(1_000_000, testLaunchMs+3_000_000, "sig2"), // after OPEN
	}

	result, err := Replay(events, testOptions())
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	trades := result.Trades[testTokenID]
	if trades[0].Phase != domain.PhasePrivate {
		t.Errorf("expected first trade in private, got %s", trades[0].Phase)
	}
	if trades[1].Phase != domain.PhaseOpen {
		t.Errorf("expected second trade in open, got %s", trades[1].Phase)
	}
}

func TestReplay_SortsUnorderedInput(t *testing.T) {
	// Events arrive out of order (separate buy/sell queries give no
	// cross-query ordering guarantee); replay must re-sort.
	events := []*Event{
		buyEvent(100_000_000, testLaunchMs+800_000, "sig2"),
		buyEvent(100_000_000, testLaunchMs+700_000, "sig1"),
	}

	result, err := Replay(events, testOptions())
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	trades := result.Trades[testTokenID]
	if trades[0].TxDigest != "sig1" {
		t.Fatalf("events not re-sorted: first trade is %s", trades[0].TxDigest)
	}
	if trades[0].Price != 0.0001 {
		t.Errorf("earliest event must execute at base price, got %g", trades[0].Price)
	}
}
