package analytics

import "spendtrack/internal/core"

// DefaultHorizonMonths bounds projections when no horizon is given.
const DefaultHorizonMonths = 24

// ScanFirstBelow evaluates count for start+1 through start+horizon and
// returns the first month whose count is strictly below threshold.
//
// The scan stops at the first match even if later months climb back to
// or above the threshold. It always ends after horizon steps; false means
// no month in the horizon qualified.
func ScanFirstBelow(start core.Month, horizon, threshold int, count func(core.Month) int) (core.Month, bool) {
	if horizon <= 0 {
		horizon = DefaultHorizonMonths
	}
	for ahead := 1; ahead <= horizon; ahead++ {
		candidate := start.AddMonths(ahead)
		if count(candidate) < threshold {
			return candidate, true
		}
	}
	return core.Month{}, false
}

// FindFirstMonthBelow projects when the trailing width-month record count
// first drops below threshold, looking up to horizon months past start.
func FindFirstMonthBelow(records []core.Record, width, threshold int, start core.Month, horizon int) (core.Month, bool) {
	return ScanFirstBelow(start, horizon, threshold, func(m core.Month) int {
		return CountInWindow(records, m, width)
	})
}
