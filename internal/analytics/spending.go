package analytics

import (
	"sort"

	"spendtrack/internal/core"

	"github.com/shopspring/decimal"
)

// DefaultHighlightCategory is the category whose daily average the
// insights call out.
const DefaultHighlightCategory = "식비"

type (
	// Overview is the headline numbers of a transaction list.
	Overview struct {
		Total decimal.Decimal `json:"total"`
		// Average is per transaction with an amount; invalid when none have one.
		Average decimal.NullDecimal `json:"average"`
		Count   int                 `json:"count"`
		// Missing counts transactions whose amount could not be read.
		Missing int `json:"missing"`
	}

	// DayPoint is the total spent on one day.
	DayPoint struct {
		Day   core.Date       `json:"day"`
		Value decimal.Decimal `json:"value"`
	}

	// WeekPoint is the total spent in one ISO week.
	WeekPoint struct {
		Year  int             `json:"year"`
		Week  int             `json:"week"`
		Value decimal.Decimal `json:"value"`
	}

	// CategoryRow is one category across the months of a CategoryTable.
	CategoryRow struct {
		Category string            `json:"category"`
		Values   []decimal.Decimal `json:"values"`
		Total    decimal.Decimal   `json:"total"`
	}

	// CategoryTable is the month by category matrix. Values[i] of every row
	// belongs to Months[i].
	CategoryTable struct {
		Months []core.Month  `json:"months"`
		Rows   []CategoryRow `json:"rows"`
	}

	// Insights are the call-outs shown above the spending charts.
	Insights struct {
		TopCategories  []KeyAmount         `json:"top_categories"`
		MostExpensive  *core.Transaction   `json:"most_expensive,omitempty"`
		AverageDaily   decimal.NullDecimal `json:"average_daily"`
		Highlight      string              `json:"highlight"`
		HighlightDaily decimal.NullDecimal `json:"highlight_daily"`
	}
)

// Summarize computes the Overview of txs.
func Summarize(txs []core.Transaction) Overview {
	o := Overview{Count: len(txs)}
	withAmount := 0
	for _, t := range txs {
		if !t.Amount.Valid {
			o.Missing++
			continue
		}
		withAmount++
		o.Total = o.Total.Add(t.Amount.Decimal)
	}
	if withAmount > 0 {
		o.Average = decimal.NewNullDecimal(o.Total.Div(decimal.NewFromInt(int64(withAmount))))
	}
	return o
}

// MonthlySeries totals spending per calendar month.
func MonthlySeries(txs []core.Transaction) []SeriesPoint {
	return SeriesByPeriod(core.TransactionRecords(txs))
}

// DailySeries totals spending per day, ascending.
func DailySeries(txs []core.Transaction) []DayPoint {
	sums := map[core.Date]decimal.Decimal{}
	for _, t := range txs {
		if t.Date.IsEmpty() || !t.Amount.Valid {
			continue
		}
		sums[t.Date] = sums[t.Date].Add(t.Amount.Decimal)
	}
	out := make([]DayPoint, 0, len(sums))
	for d, v := range sums {
		out = append(out, DayPoint{Day: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day.Time) })
	return out
}

// WeeklySeries totals spending per ISO year-week, ascending.
func WeeklySeries(txs []core.Transaction) []WeekPoint {
	type week struct{ year, week int }
	sums := map[week]decimal.Decimal{}
	for _, t := range txs {
		if t.Date.IsEmpty() || !t.Amount.Valid {
			continue
		}
		y, w := t.Date.ISOWeek()
		k := week{y, w}
		sums[k] = sums[k].Add(t.Amount.Decimal)
	}
	out := make([]WeekPoint, 0, len(sums))
	for k, v := range sums {
		out = append(out, WeekPoint{Year: k.year, Week: k.week, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Week < out[j].Week
	})
	return out
}

// MonthlyByCategory builds the month by category matrix. Months run
// contiguously from the first to the last month with data; rows are
// ordered by their total, largest first.
func MonthlyByCategory(txs []core.Transaction) CategoryTable {
	type cell struct {
		month    core.Month
		category string
	}
	sums := map[cell]decimal.Decimal{}
	totals := map[string]decimal.Decimal{}
	var first, last core.Month
	for _, t := range txs {
		if t.Date.IsEmpty() || !t.Amount.Valid {
			continue
		}
		m := t.Date.Month()
		cat := t.Category
		if cat == "" {
			cat = UnknownKey
		}
		sums[cell{m, cat}] = sums[cell{m, cat}].Add(t.Amount.Decimal)
		totals[cat] = totals[cat].Add(t.Amount.Decimal)
		if first.IsZero() || m.Before(first) {
			first = m
		}
		if last.IsZero() || last.Before(m) {
			last = m
		}
	}

	var table CategoryTable
	if len(totals) == 0 {
		return table
	}
	for m := first; !last.Before(m); m = m.AddMonths(1) {
		table.Months = append(table.Months, m)
	}
	for _, ka := range Rank(totals) {
		row := CategoryRow{Category: ka.Key, Total: ka.Amount, Values: make([]decimal.Decimal, len(table.Months))}
		for i, m := range table.Months {
			row.Values[i] = sums[cell{m, ka.Key}]
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// MostExpensive returns the transaction with the largest amount. Ties go
// to the earlier row. ok is false when no transaction has an amount.
func MostExpensive(txs []core.Transaction) (core.Transaction, bool) {
	var best core.Transaction
	found := false
	for _, t := range txs {
		if !t.Amount.Valid {
			continue
		}
		if !found || t.Amount.Decimal.GreaterThan(best.Amount.Decimal) {
			best, found = t, true
		}
	}
	return best, found
}

// AverageDaily is the mean of the per-day totals over days with spending.
func AverageDaily(txs []core.Transaction) decimal.NullDecimal {
	days := DailySeries(txs)
	if len(days) == 0 {
		return decimal.NullDecimal{}
	}
	sum := decimal.Zero
	for _, d := range days {
		sum = sum.Add(d.Value)
	}
	return decimal.NewNullDecimal(sum.Div(decimal.NewFromInt(int64(len(days)))))
}

// AverageDailyFor is AverageDaily restricted to one category.
func AverageDailyFor(txs []core.Transaction, category string) decimal.NullDecimal {
	return AverageDaily(Filter{Category: category}.Apply(txs))
}

// BuildInsights assembles the call-outs. An empty highlight falls back to
// DefaultHighlightCategory.
func BuildInsights(txs []core.Transaction, highlight string) Insights {
	if highlight == "" {
		highlight = DefaultHighlightCategory
	}
	in := Insights{
		TopCategories:  TopN(SumByKey(core.TransactionRecords(txs), ByCategory), 3),
		AverageDaily:   AverageDaily(txs),
		Highlight:      highlight,
		HighlightDaily: AverageDailyFor(txs, highlight),
	}
	if t, ok := MostExpensive(txs); ok {
		in.MostExpensive = &t
	}
	return in
}
