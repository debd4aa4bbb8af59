package analytics

import (
	"testing"
	"time"

	"spendtrack/internal/core"

	"github.com/stretchr/testify/assert"
)

func TestScanFirstBelow(t *testing.T) {
	start := month(2024, time.January)
	counts := []int{5, 5, 5, 4, 5, 3}
	countAt := func(m core.Month) int {
		i := core.MonthDiff(m, start)
		if i < len(counts) {
			return counts[i]
		}
		return 0
	}

	got, ok := ScanFirstBelow(start, 24, 5, countAt)
	assert.True(t, ok)
	assert.Equal(t, month(2024, time.April), got)
}

func TestScanFirstBelowNotFound(t *testing.T) {
	calls := 0
	_, ok := ScanFirstBelow(month(2024, time.January), 6, 5, func(core.Month) int {
		calls++
		return 5
	})
	assert.False(t, ok)
	assert.Equal(t, 6, calls)
}

func TestScanFirstBelowDefaultHorizon(t *testing.T) {
	calls := 0
	_, ok := ScanFirstBelow(month(2024, time.January), 0, 1, func(core.Month) int {
		calls++
		return 1
	})
	assert.False(t, ok)
	assert.Equal(t, DefaultHorizonMonths, calls)
}

func TestScanFirstBelowSkipsStart(t *testing.T) {
	start := month(2024, time.January)
	got, ok := ScanFirstBelow(start, 3, 5, func(m core.Month) int {
		if m == start {
			return 0
		}
		return 3
	})
	assert.True(t, ok)
	assert.Equal(t, month(2024, time.February), got)
}

func TestFindFirstMonthBelow(t *testing.T) {
	// Five cards opened over 2023; the count drops under five once the
	// February 2023 card leaves the 24-month window.
	records := []core.Record{
		rec(2023, 2, 10, ""),
		rec(2023, 4, 1, ""),
		rec(2023, 6, 1, ""),
		rec(2023, 9, 1, ""),
		rec(2023, 11, 1, ""),
	}
	start := month(2024, time.June)
	assert.Equal(t, 5, CountInWindow(records, start, 24))

	got, ok := FindFirstMonthBelow(records, 24, 5, start, 24)
	assert.True(t, ok)
	assert.Equal(t, month(2025, time.February), got)

	_, ok = FindFirstMonthBelow(records, 24, 5, start, 6)
	assert.False(t, ok)
}
