package analytics

import (
	"sort"
	"strings"

	"spendtrack/internal/core"

	"github.com/shopspring/decimal"
)

type (
	// AccountGrowth is the growth series of a single account.
	AccountGrowth struct {
		Account string        `json:"account"`
		Points  []GrowthPoint `json:"points"`
	}

	// AssetSummary is the asset page model.
	AssetSummary struct {
		Latest      SeriesPoint         `json:"latest"`
		HasLatest   bool                `json:"has_latest"`
		Growth      []GrowthPoint       `json:"growth"`
		TotalGrowth decimal.NullDecimal `json:"total_growth"`
		// TotalGrowthErr explains a missing TotalGrowth.
		TotalGrowthErr string          `json:"total_growth_error,omitempty"`
		Accounts       []AccountGrowth `json:"accounts"`
		Breakdown      []KeyAmount     `json:"breakdown"`
	}
)

// GrowthByAccount computes one growth series per account, sorted by name.
// Blank accounts share the UnknownKey series.
func GrowthByAccount(entries []core.AssetEntry) []AccountGrowth {
	grouped := map[string][]core.Record{}
	for _, e := range entries {
		acct := strings.TrimSpace(e.Account)
		if acct == "" {
			acct = UnknownKey
		}
		grouped[acct] = append(grouped[acct], e.Record())
	}
	names := make([]string, 0, len(grouped))
	for n := range grouped {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]AccountGrowth, 0, len(names))
	for _, n := range names {
		out = append(out, AccountGrowth{Account: n, Points: GrowthSeries(SeriesByPeriod(grouped[n]))})
	}
	return out
}

// SummarizeAssets computes the asset page model.
func SummarizeAssets(entries []core.AssetEntry) AssetSummary {
	records := core.AssetRecords(entries)
	series := SeriesByPeriod(records)
	s := AssetSummary{
		Growth:   GrowthSeries(series),
		Accounts: GrowthByAccount(entries),
	}

	if tg, err := TotalGrowth(series); err != nil {
		s.TotalGrowthErr = err.Error()
	} else {
		s.TotalGrowth = decimal.NewNullDecimal(tg)
	}

	if len(series) == 0 {
		return s
	}
	s.Latest, s.HasLatest = series[len(series)-1], true

	latest := make([]core.Record, 0, len(records))
	for _, r := range records {
		if !r.Date.IsEmpty() && r.Date.Month() == s.Latest.Period {
			latest = append(latest, r)
		}
	}
	s.Breakdown = TopN(SumByKey(latest, ByCategory), 0)
	return s
}
