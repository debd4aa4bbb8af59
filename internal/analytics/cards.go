package analytics

import (
	"spendtrack/internal/core"

	"github.com/shopspring/decimal"
)

const (
	// CardWindowMonths is the trailing window of the 5/24 rule.
	CardWindowMonths = 24
	// CardThreshold is the count the 5/24 rule must drop below.
	CardThreshold = 5
)

type (
	// WindowPoint is the trailing-window count as of one month.
	WindowPoint struct {
		Month core.Month `json:"month"`
		Count int        `json:"count"`
	}

	// CardSummary is the card history page model.
	CardSummary struct {
		Reference core.Month `json:"reference"`
		Total     int        `json:"total"`
		Open      int        `json:"open"`
		// Current is the number of cards opened in the trailing window.
		Current int `json:"current"`
		// Recorded is the sheet's own count from its last row, if any.
		Recorded *int `json:"recorded,omitempty"`
		// BelowBy is the first month the count drops under the threshold,
		// nil when Found is false.
		BelowBy           *core.Month         `json:"below_by,omitempty"`
		Found             bool                `json:"found"`
		AverageMonthsOpen decimal.NullDecimal `json:"average_months_open"`
		Schedule          []WindowPoint       `json:"schedule"`
	}
)

// OpenCards returns the cards without a closing date.
func OpenCards(cards []core.Card) []core.Card {
	out := make([]core.Card, 0, len(cards))
	for _, c := range cards {
		if c.IsOpen() {
			out = append(out, c)
		}
	}
	return out
}

// AverageMonthsOpen is the mean of Diff(ref, opening month) over the open
// cards that have an opening date.
func AverageMonthsOpen(cards []core.Card, ref core.Month) decimal.NullDecimal {
	total, n := 0, 0
	for _, c := range cards {
		if !c.IsOpen() || c.OpeningDate.IsEmpty() {
			continue
		}
		total += core.MonthDiff(ref, c.OpeningDate.Month())
		n++
	}
	if n == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromInt(int64(total)).Div(decimal.NewFromInt(int64(n))))
}

// WindowSchedule lists the trailing-window count for ref and each of the
// next horizon months.
func WindowSchedule(records []core.Record, ref core.Month, width, horizon int) []WindowPoint {
	if horizon <= 0 {
		horizon = DefaultHorizonMonths
	}
	out := make([]WindowPoint, 0, horizon+1)
	for ahead := 0; ahead <= horizon; ahead++ {
		m := ref.AddMonths(ahead)
		out = append(out, WindowPoint{Month: m, Count: CountInWindow(records, m, width)})
	}
	return out
}

// SummarizeCards computes the card page model as of ref.
func SummarizeCards(cards []core.Card, ref core.Month) CardSummary {
	records := core.CardRecords(cards)
	s := CardSummary{
		Reference:         ref,
		Total:             len(cards),
		Open:              len(OpenCards(cards)),
		Current:           CountInWindow(records, ref, CardWindowMonths),
		AverageMonthsOpen: AverageMonthsOpen(cards, ref),
		Schedule:          WindowSchedule(records, ref, CardWindowMonths, DefaultHorizonMonths),
	}
	if below, ok := FindFirstMonthBelow(records, CardWindowMonths, CardThreshold, ref, DefaultHorizonMonths); ok {
		s.BelowBy, s.Found = &below, true
	}
	if len(cards) > 0 {
		s.Recorded = cards[len(cards)-1].RecordedCount
	}
	return s
}

// BelowLabel renders the projection for display.
func (s CardSummary) BelowLabel() string {
	if !s.Found || s.BelowBy == nil {
		return "Beyond 24 months"
	}
	return s.BelowBy.String()
}
