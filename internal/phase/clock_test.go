package phase

import (
	"testing"

	"sui-launchpad/internal/domain"
)

const (
	testLaunchMs = int64(1_700_000_000_000)
	testEarlyMs  = int64(600_000)   // 10 minutes
	testPhaseMs  = int64(1_800_000) // 30 minutes
)

func TestCurrent_Boundaries(t *testing.T) {
	cases := []struct {
		name  string
		nowMs int64
		want  domain.Phase
	}{
		{"at launch", testLaunchMs, domain.PhaseLaunch},
		{"just before early end", testLaunchMs + testEarlyMs - 1, domain.PhaseLaunch},
		{"exactly at early end", testLaunchMs + testEarlyMs, domain.PhasePrivate},
		{"mid private", testLaunchMs + testEarlyMs + testPhaseMs/2, domain.PhasePrivate},
		{"just before open", testLaunchMs + testEarlyMs + testPhaseMs - 1, domain.PhasePrivate},
		{"exactly at open", testLaunchMs + testEarlyMs + testPhaseMs, domain.PhaseOpen},
		{"long after open", testLaunchMs + testEarlyMs + testPhaseMs + 86_400_000, domain.PhaseOpen},
	}

	for _, tc := range cases {
		got := Current(testLaunchMs, testEarlyMs, testPhaseMs, tc.nowMs)
		if got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestCurrent_MonotonicSequence(t *testing.T) {
	// Phase order is LAUNCH -> PRIVATE -> OPEN and never revisits a state
	// as now increases. SETTLEMENT must never appear.
	order := map[domain.Phase]int{
		domain.PhaseLaunch:  0,
		domain.PhasePrivate: 1,
		domain.PhaseOpen:    2,
	}

	prev := -1
	for nowMs := testLaunchMs; nowMs <= testLaunchMs+testEarlyMs+testPhaseMs+60_000; nowMs += 1000 {
		p := Current(testLaunchMs, testEarlyMs, testPhaseMs, nowMs)
		if p == domain.PhaseSettlement {
			t.Fatalf("clock produced settlement phase at now=%d", nowMs)
		}
		rank, ok := order[p]
		if !ok {
			t.Fatalf("unexpected phase %q at now=%d", p, nowMs)
		}
		if rank < prev {
			t.Fatalf("phase went backwards at now=%d: %s", nowMs, p)
		}
		prev = rank
	}
}

func TestTimeRemaining(t *testing.T) {
	// 10 minutes into LAUNCH minus 90s elapsed.
	got := TimeRemaining(testLaunchMs, testEarlyMs, testPhaseMs, testLaunchMs+90_000)
	if got != 510 {
		t.Errorf("expected 510s remaining in launch, got %d", got)
	}

	// One second into PRIVATE.
	got = TimeRemaining(testLaunchMs, testEarlyMs, testPhaseMs, testLaunchMs+testEarlyMs+1000)
	if got != (testPhaseMs-1000)/1000 {
		t.Errorf("expected %d remaining in private, got %d", (testPhaseMs-1000)/1000, got)
	}

	// Exactly at the boundary the next phase has begun.
	got = TimeRemaining(testLaunchMs, testEarlyMs, testPhaseMs, testLaunchMs+testEarlyMs+testPhaseMs)
	if got != 0 {
		t.Errorf("expected 0 at open boundary, got %d", got)
	}

	// OPEN never ends.
	got = TimeRemaining(testLaunchMs, testEarlyMs, testPhaseMs, testLaunchMs+testEarlyMs+testPhaseMs+999_999_000)
	if got != 0 {
		t.Errorf("expected 0 forever in open, got %d", got)
	}
}

func TestTradingPermissions(t *testing.T) {
	if CanTrade(domain.PhaseLaunch) {
		t.Error("no trading permitted during launch")
	}
	if !CanTrade(domain.PhasePrivate) || !CanTrade(domain.PhaseOpen) {
		t.Error("trading must be permitted in private and open")
	}
	if !BuyCapApplies(domain.PhasePrivate) {
		t.Error("buy cap applies in private")
	}
	if BuyCapApplies(domain.PhaseOpen) {
		t.Error("no buy cap in open")
	}
}
