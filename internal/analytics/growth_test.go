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

func point(y int, m time.Month, v int64) SeriesPoint {
	return SeriesPoint{Period: month(y, m), Value: decimal.NewFromInt(v)}
}

func TestGrowthSeries(t *testing.T) {
	points := []SeriesPoint{
		point(2024, time.January, 100),
		point(2024, time.February, 110),
		point(2024, time.March, 99),
	}
	got := GrowthSeries(points)
	require.Len(t, got, 3)

	assert.Equal(t, GrowthBaseline, got[0].Kind)
	assert.False(t, got[0].HasRate())
	assert.Equal(t, GrowthDefined, got[1].Kind)
	assert.True(t, got[1].Rate.Decimal.Equal(decimal.NewFromInt(10)), "got %s", got[1].Rate.Decimal)
	assert.True(t, got[2].Rate.Decimal.Equal(decimal.NewFromInt(-10)), "got %s", got[2].Rate.Decimal)

	total, err := TotalGrowth(points)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(-1)), "got %s", total)
}

func TestGrowthSeriesSortsCopy(t *testing.T) {
	points := []SeriesPoint{
		point(2024, time.March, 99),
		point(2024, time.January, 100),
		point(2024, time.February, 110),
	}
	got := GrowthSeries(points)
	require.Len(t, got, 3)
	assert.Equal(t, month(2024, time.January), got[0].Period)
	assert.Equal(t, month(2024, time.March), got[2].Period)
	assert.Equal(t, month(2024, time.March), points[0].Period)
}

func TestGrowthSeriesZeroPrevious(t *testing.T) {
	got := GrowthSeries([]SeriesPoint{
		point(2024, time.January, 0),
		point(2024, time.February, 50),
		point(2024, time.March, 25),
	})
	require.Len(t, got, 3)
	assert.Equal(t, GrowthUndefined, got[1].Kind)
	assert.False(t, got[1].HasRate())
	assert.False(t, got[1].Rate.Valid)
	assert.Equal(t, GrowthDefined, got[2].Kind)
	assert.True(t, got[2].Rate.Decimal.Equal(decimal.NewFromInt(-50)))
}

func TestGrowthSeriesEmpty(t *testing.T) {
	assert.Empty(t, GrowthSeries(nil))
}

func TestTotalGrowthErrors(t *testing.T) {
	_, err := TotalGrowth(nil)
	assert.ErrorIs(t, err, ErrEmptySeries)

	_, err = TotalGrowth([]SeriesPoint{point(2024, time.January, 0), point(2024, time.February, 10)})
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestSeriesByPeriod(t *testing.T) {
	records := []core.Record{
		rec(2024, 2, 3, "5"),
		rec(2024, 1, 30, "10"),
		rec(2024, 1, 2, "2.5"),
		rec(2024, 3, 1, ""),
		{Amount: decimal.NewNullDecimal(decimal.NewFromInt(99))},
	}
	got := SeriesByPeriod(records)
	require.Len(t, got, 2)
	assert.Equal(t, month(2024, time.January), got[0].Period)
	assert.True(t, got[0].Value.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, month(2024, time.February), got[1].Period)
}

func TestGrowthKindText(t *testing.T) {
	b, err := GrowthUndefined.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "undefined", string(b))
}

func TestGrowthPointJSON(t *testing.T) {
	got, err := json.Marshal(GrowthSeries([]SeriesPoint{
		point(2024, time.January, 0),
		point(2024, time.February, 0),
		point(2024, time.March, 10),
		point(2024, time.April, 11),
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"period":"2024-01","value":"0","kind":"baseline","rate":null},
		{"period":"2024-02","value":"0","kind":"undefined","rate":null},
		{"period":"2024-03","value":"10","kind":"undefined","rate":null},
		{"period":"2024-04","value":"11","kind":"defined","rate":"10"}
	]`, string(got))
}
