package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"spendtrack/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(name string, opened, closed core.Date) core.Card {
	return core.Card{Name: name, Issuer: "bank", OpeningDate: opened, ClosingDate: closed}
}

func TestSummarizeCards(t *testing.T) {
	recorded := 4
	cards := []core.Card{
		card("old", core.NewDate(2019, 5, 1), core.Date{}),
		card("closed", core.NewDate(2023, 2, 10), core.NewDate(2024, 1, 1)),
		card("a", core.NewDate(2023, 4, 1), core.Date{}),
		card("b", core.NewDate(2023, 6, 1), core.Date{}),
		card("c", core.NewDate(2023, 9, 1), core.Date{}),
		card("d", core.NewDate(2023, 11, 1), core.Date{}),
	}
	cards[len(cards)-1].RecordedCount = &recorded

	ref := month(2024, time.June)
	s := SummarizeCards(cards, ref)
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 5, s.Open)
	assert.Equal(t, 5, s.Current)
	require.NotNil(t, s.Recorded)
	assert.Equal(t, 4, *s.Recorded)
	assert.True(t, s.Found)
	require.NotNil(t, s.BelowBy)
	assert.Equal(t, month(2025, time.February), *s.BelowBy)
	assert.Equal(t, "2025-02", s.BelowLabel())

	// Open cards have been open 61, 14, 12, 9 and 7 months.
	require.True(t, s.AverageMonthsOpen.Valid)
	assert.True(t, s.AverageMonthsOpen.Decimal.Equal(decimal.RequireFromString("20.6")), "got %s", s.AverageMonthsOpen.Decimal)

	require.Len(t, s.Schedule, DefaultHorizonMonths+1)
	assert.Equal(t, WindowPoint{Month: ref, Count: 5}, s.Schedule[0])
	assert.Equal(t, WindowPoint{Month: month(2025, time.February), Count: 4}, s.Schedule[8])
}

func TestSummarizeCardsSecondDropOff(t *testing.T) {
	var cards []core.Card
	for i := 1; i <= 6; i++ {
		cards = append(cards, card("n", core.NewDate(2024, i, 1), core.Date{}))
	}
	s := SummarizeCards(cards, month(2024, time.June))
	assert.Equal(t, 6, s.Current)
	assert.Nil(t, s.Recorded)
	// The January card leaves in 2026-01, which is 19 months out; the
	// count is still five until February 2026 takes the second card.
	assert.True(t, s.Found)
	require.NotNil(t, s.BelowBy)
	assert.Equal(t, month(2026, time.February), *s.BelowBy)

	s = SummarizeCards(nil, month(2024, time.June))
	assert.Zero(t, s.Current)
	assert.False(t, s.AverageMonthsOpen.Valid)
	assert.True(t, s.Found)
	require.NotNil(t, s.BelowBy)
	assert.Equal(t, month(2024, time.July), *s.BelowBy)
}

func TestCardSummaryNotFoundLabel(t *testing.T) {
	assert.Equal(t, "Beyond 24 months", CardSummary{}.BelowLabel())
}

func TestOpenCards(t *testing.T) {
	cards := []core.Card{
		card("a", core.NewDate(2024, 1, 1), core.Date{}),
		card("b", core.NewDate(2024, 1, 1), core.NewDate(2024, 2, 1)),
	}
	open := OpenCards(cards)
	require.Len(t, open, 1)
	assert.Equal(t, "a", open[0].Name)
}

func TestCardSummaryJSONBelowBy(t *testing.T) {
	var cards []core.Card
	for i := 1; i <= 6; i++ {
		cards = append(cards, card("n", core.NewDate(2024, i, 1), core.Date{}))
	}

	var out map[string]any
	b, err := json.Marshal(SummarizeCards(cards, month(2024, time.June)))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "2026-02", out["below_by"])
	assert.Equal(t, true, out["found"])

	notFound := CardSummary{Reference: month(2024, time.June)}
	b, err = json.Marshal(notFound)
	require.NoError(t, err)
	out = nil
	require.NoError(t, json.Unmarshal(b, &out))
	assert.NotContains(t, out, "below_by")
	assert.Equal(t, false, out["found"])
}
