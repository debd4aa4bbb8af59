package analytics

import (
	"sort"
	"strings"

	"spendtrack/internal/core"

	"github.com/shopspring/decimal"
)

// UnknownKey is the bucket for records whose grouping key is blank.
const UnknownKey = "unknown"

// KeySelector picks the grouping key of a record.
type KeySelector func(core.Record) string

// ByCategory groups by Record.Category.
func ByCategory(r core.Record) string { return r.Category }

// ByAccount groups by Record.Account.
func ByAccount(r core.Record) string { return r.Account }

// KeyAmount is one row of a ranked summary.
type KeyAmount struct {
	Key    string          `json:"key"`
	Amount decimal.Decimal `json:"amount"`
}

// SumByKey totals non-missing amounts per key. The values of the result
// add up to the sum of every non-missing amount in records.
func SumByKey(records []core.Record, key KeySelector) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, r := range records {
		if !r.Amount.Valid {
			continue
		}
		k := strings.TrimSpace(key(r))
		if k == "" {
			k = UnknownKey
		}
		sums[k] = sums[k].Add(r.Amount.Decimal)
	}
	return sums
}

// Rank orders sums by amount descending, ties broken by key ascending.
func Rank(sums map[string]decimal.Decimal) []KeyAmount {
	out := make([]KeyAmount, 0, len(sums))
	for k, v := range sums {
		out = append(out, KeyAmount{Key: k, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// TopN returns the n largest entries of Rank. n <= 0 returns all of them.
func TopN(sums map[string]decimal.Decimal, n int) []KeyAmount {
	ranked := Rank(sums)
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Total sums every non-missing amount.
func Total(records []core.Record) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range records {
		if r.Amount.Valid {
			sum = sum.Add(r.Amount.Decimal)
		}
	}
	return sum
}
