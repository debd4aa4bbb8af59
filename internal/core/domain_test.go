package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValidate(t *testing.T) {
	assert.NoError(t, NewDate(2025, 1, 1).Validate())
	assert.Error(t, Date{}.Validate())
	assert.True(t, Date{}.IsEmpty())
	assert.Equal(t, "", Date{}.String())
	assert.Equal(t, "2025-12-31", NewDate(2025, 12, 31).String())
}

func TestDateOfTruncates(t *testing.T) {
	d := DateOf(time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, NewDate(2024, 2, 29), d)
	assert.True(t, DateOf(time.Time{}).IsEmpty())
}

func TestMonthArithmetic(t *testing.T) {
	m := Month{Year: 2024, Month: time.November}
	assert.Equal(t, Month{Year: 2025, Month: time.February}, m.AddMonths(3))
	assert.Equal(t, Month{Year: 2023, Month: time.December}, m.AddMonths(-11))
	assert.Equal(t, m, MonthFromIndex(m.Index()))
	assert.Equal(t, Month{Year: 2025, Month: time.January}, NewMonth(2024, 13))
	assert.Equal(t, Month{Year: 2023, Month: time.December}, NewMonth(2024, 0))

	// Calendar difference, not day count: Jan 31 and Feb 1 are one month apart.
	jan := NewDate(2024, 1, 31).Month()
	feb := NewDate(2024, 2, 1).Month()
	assert.Equal(t, 1, MonthDiff(feb, jan))
	assert.Equal(t, -1, MonthDiff(jan, feb))
	assert.Equal(t, 24, MonthDiff(Month{2026, time.March}, Month{2024, time.March}))
	assert.True(t, jan.Before(feb))
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-07")
	require.NoError(t, err)
	assert.Equal(t, Month{Year: 2024, Month: time.July}, m)
	assert.Equal(t, "2024-07", m.String())

	_, err = ParseMonth("2024-13")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestRecordProjections(t *testing.T) {
	open := Card{Name: "Sapphire", Issuer: "Chase", OpeningDate: NewDate(2023, 5, 2)}
	closed := open
	closed.ClosingDate = NewDate(2024, 1, 1)
	assert.True(t, open.IsOpen())
	assert.False(t, closed.IsOpen())

	recs := CardRecords([]Card{open, closed})
	require.Len(t, recs, 2)
	assert.Equal(t, open.OpeningDate, recs[0].Date)
	assert.False(t, recs[0].Amount.Valid)

	tx := Transaction{Date: NewDate(2024, 1, 2), Category: "식비", Amount: NullAmount("5,000")}
	rec := TransactionRecords([]Transaction{tx})[0]
	assert.Equal(t, "식비", rec.Category)
	assert.True(t, rec.Amount.Valid)
}
