// Package phase derives a token's trading phase from elapsed time since
// launch. All functions are pure over millisecond Unix timestamps.
package phase

import (
	"sui-launchpad/internal/domain"
)

// Current returns the phase a token is in at nowMs.
//
// LAUNCH   [launch, launch+earlyMs)
// PRIVATE  [launch+earlyMs, launch+earlyMs+phaseMs)
// OPEN     [launch+earlyMs+phaseMs, ∞)
//
// PRIVATE transitions directly to OPEN; domain.PhaseSettlement is kept in
// the enumeration for historical reasons but is never returned here.
func Current(launchTimeMs, earlyPhaseDurationMs, phaseDurationMs, nowMs int64) domain.Phase {
	elapsed := nowMs - launchTimeMs
	switch {
	case elapsed < earlyPhaseDurationMs:
		return domain.PhaseLaunch
	case elapsed < earlyPhaseDurationMs+phaseDurationMs:
		return domain.PhasePrivate
	default:
		return domain.PhaseOpen
	}
}

// ForToken returns the phase of t at nowMs.
func ForToken(t *domain.Token, nowMs int64) domain.Phase {
	return Current(t.LaunchTimeMs, t.EarlyPhaseDurationMs, t.PhaseDurationMs, nowMs)
}

// TimeRemaining returns whole seconds until the current phase ends,
// never negative. Once in OPEN there is no phase end and the result is
// 0 forever.
func TimeRemaining(launchTimeMs, earlyPhaseDurationMs, phaseDurationMs, nowMs int64) int64 {
	var endMs int64
	switch Current(launchTimeMs, earlyPhaseDurationMs, phaseDurationMs, nowMs) {
	case domain.PhaseLaunch:
		endMs = launchTimeMs + earlyPhaseDurationMs
	case domain.PhasePrivate:
		endMs = launchTimeMs + earlyPhaseDurationMs + phaseDurationMs
	default:
		return 0
	}
	remaining := (endMs - nowMs) / 1000
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanTrade reports whether any trading is permitted in p.
func CanTrade(p domain.Phase) bool {
	return p == domain.PhasePrivate || p == domain.PhaseOpen
}

// BuyCapApplies reports whether MaxBuyPerWallet is enforced in p.
func BuyCapApplies(p domain.Phase) bool {
	return p == domain.PhasePrivate
}
