package curve

import (
	"errors"
	"math"
	"testing"
)

const totalSupply = 1_000_000_000.0

func TestPrice_AtZeroSupply(t *testing.T) {
	p, err := Price(0, totalSupply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != BasePrice {
		t.Errorf("expected base price %g at zero supply, got %g", BasePrice, p)
	}
}

func TestPrice_AtTenPercentSupply(t *testing.T) {
	// 0.0001 * (1 + 99*0.10) = 0.001090
	p, err := Price(100_000_000, totalSupply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(p-0.001090) > 1e-12 {
		t.Errorf("expected 0.001090 at 10%% supply, got %g", p)
	}
}

func TestPrice_AtFullSupply(t *testing.T) {
	p, err := Price(totalSupply, totalSupply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := BasePrice * MaxMultiplier
	if math.Abs(p-want) > 1e-12 {
		t.Errorf("expected %g at full supply, got %g", want, p)
	}
}

func TestPrice_MonotonicNonDecreasing(t *testing.T) {
	prev := 0.0
	for supply := 0.0; supply <= totalSupply; supply += totalSupply / 1000 {
		p, err := Price(supply, totalSupply)
		if err != nil {
			t.Fatalf("unexpected error at supply %g: %v", supply, err)
		}
		if p < prev {
			t.Fatalf("price decreased at supply %g: %g < %g", supply, p, prev)
		}
		prev = p
	}
}

func TestPrice_InvalidTotalSupply(t *testing.T) {
	for _, total := range []float64{0, -1} {
		if _, err := Price(0, total); !errors.Is(err, ErrInvalidSupply) {
			t.Errorf("expected ErrInvalidSupply for total=%g, got %v", total, err)
		}
	}
}

func TestPrice_SupplyOutOfRange(t *testing.T) {
	if _, err := Price(-1, totalSupply); !errors.Is(err, ErrSupplyOutOfRange) {
		t.Errorf("expected ErrSupplyOutOfRange for negative supply, got %v", err)
	}
	if _, err := Price(totalSupply+1, totalSupply); !errors.Is(err, ErrSupplyOutOfRange) {
		t.Errorf("expected ErrSupplyOutOfRange above total, got %v", err)
	}
}

func TestCostForAmount_QuotesAtPreTradeSupply(t *testing.T) {
	// Quoting a buy of 100M tokens at zero circulation uses the base
	// price for the whole amount: the curve is discrete, not integrated.
	cost, err := CostForAmount(0, totalSupply, 100_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(cost-10_000) > 1e-6 {
		t.Errorf("expected cost 10000, got %g", cost)
	}
}

func TestAmountForCost_RoundTrip(t *testing.T) {
	circulating := 250_000_000.0
	amount := 1_000_000.0

	cost, err := CostForAmount(circulating, totalSupply, amount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := AmountForCost(circulating, totalSupply, cost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(back-amount) > 1e-6 {
		t.Errorf("round trip drifted: %g != %g", back, amount)
	}
}

func TestMarketCap(t *testing.T) {
	circulating := 100_000_000.0
	cap, err := MarketCap(circulating, totalSupply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(cap-0.001090*circulating) > 1e-6 {
		t.Errorf("expected market cap %g, got %g", 0.001090*circulating, cap)
	}
}
