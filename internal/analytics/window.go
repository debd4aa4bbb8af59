// Package analytics holds the pure aggregation functions behind the
// dashboard: trailing-window counts, threshold projections, growth
// series and grouped summaries.
//
// Every function takes its inputs by value, never mutates them and keeps
// no state between calls, so the HTTP layer can call them on every
// request. Records with a missing date are skipped by anything that needs
// a month; records with a missing amount are skipped by anything that sums.
package analytics

import (
	"spendtrack/internal/core"

	"github.com/shopspring/decimal"
)

// inWindow reports whether month m lies in the width-month window that
// ends at (and includes) ref.
func inWindow(ref, m core.Month, width int) bool {
	diff := core.MonthDiff(ref, m)
	return diff >= 0 && diff < width
}

// CountInWindow counts the records whose month lies in [ref-width+1, ref].
// A record exactly width months before ref is outside the window.
func CountInWindow(records []core.Record, ref core.Month, width int) int {
	n := 0
	for _, r := range records {
		if r.Date.IsEmpty() {
			continue
		}
		if inWindow(ref, r.Date.Month(), width) {
			n++
		}
	}
	return n
}

// SumInWindow sums non-missing amounts over the same window as CountInWindow.
func SumInWindow(records []core.Record, ref core.Month, width int) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range records {
		if r.Date.IsEmpty() || !r.Amount.Valid {
			continue
		}
		if inWindow(ref, r.Date.Month(), width) {
			sum = sum.Add(r.Amount.Decimal)
		}
	}
	return sum
}
