package analytics

import (
	"testing"

	"spendtrack/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cat(category, amount string) core.Record {
	r := rec(2024, 1, 1, amount)
	r.Category = category
	return r
}

func TestSumByKey(t *testing.T) {
	records := []core.Record{
		cat("food", "10"),
		cat("food", "5"),
		cat("", "7"),
		cat("  ", "3"),
		cat("rent", ""),
		cat("rent", "100"),
	}
	sums := SumByKey(records, ByCategory)
	require.Len(t, sums, 3)
	assert.True(t, sums["food"].Equal(decimal.NewFromInt(15)))
	assert.True(t, sums[UnknownKey].Equal(decimal.NewFromInt(10)))
	assert.True(t, sums["rent"].Equal(decimal.NewFromInt(100)))

	bucketTotal := decimal.Zero
	for _, v := range sums {
		bucketTotal = bucketTotal.Add(v)
	}
	assert.True(t, bucketTotal.Equal(Total(records)))
}

func TestSumByKeyAccount(t *testing.T) {
	a := rec(2024, 1, 1, "4")
	a.Account = "checking"
	sums := SumByKey([]core.Record{a, rec(2024, 1, 1, "1")}, ByAccount)
	assert.True(t, sums["checking"].Equal(decimal.NewFromInt(4)))
	assert.True(t, sums[UnknownKey].Equal(decimal.NewFromInt(1)))
}

func TestTopN(t *testing.T) {
	sums := map[string]decimal.Decimal{
		"C": decimal.NewFromInt(10),
		"B": decimal.NewFromInt(50),
		"A": decimal.NewFromInt(50),
	}
	cases := []struct {
		name string
		n    int
		want []string
	}{
		{"two with tie", 2, []string{"A", "B"}},
		{"one", 1, []string{"A"}},
		{"more than present", 10, []string{"A", "B", "C"}},
		{"zero means all", 0, []string{"A", "B", "C"}},
		{"negative means all", -1, []string{"A", "B", "C"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TopN(sums, tc.n)
			keys := make([]string, len(got))
			for i, ka := range got {
				keys[i] = ka.Key
			}
			assert.Equal(t, tc.want, keys)
		})
	}

	top := TopN(sums, 2)
	assert.True(t, top[0].Amount.Equal(decimal.NewFromInt(50)))
	assert.True(t, top[1].Amount.Equal(decimal.NewFromInt(50)))
}

func TestTopNEmpty(t *testing.T) {
	assert.Empty(t, TopN(nil, 3))
}
