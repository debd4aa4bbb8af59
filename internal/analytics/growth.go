package analytics

import (
	"errors"
	"sort"

	"spendtrack/internal/core"

	"github.com/shopspring/decimal"
)

var (
	// ErrDivisionByZero is returned when a growth baseline is zero.
	ErrDivisionByZero = errors.New("growth baseline is zero")
	// ErrEmptySeries is returned when a growth total is asked of no points.
	ErrEmptySeries = errors.New("empty series")
)

var hundred = decimal.NewFromInt(100)

// SeriesPoint is the total for one period.
type SeriesPoint struct {
	Period core.Month      `json:"period"`
	Value  decimal.Decimal `json:"value"`
}

// GrowthKind tells whether a GrowthPoint carries a rate.
type GrowthKind int

const (
	// GrowthBaseline marks the first point, which has nothing to compare against.
	GrowthBaseline GrowthKind = iota
	// GrowthDefined marks a point with a computed rate.
	GrowthDefined
	// GrowthUndefined marks a point whose previous value was zero.
	GrowthUndefined
)

func (k GrowthKind) String() string {
	switch k {
	case GrowthBaseline:
		return "baseline"
	case GrowthDefined:
		return "defined"
	case GrowthUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// MarshalText lets JSON views carry the kind by name.
func (k GrowthKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// GrowthPoint is a period value with its change from the previous period.
// Rate is a percentage, valid only when Kind is GrowthDefined.
type GrowthPoint struct {
	Period core.Month          `json:"period"`
	Value  decimal.Decimal     `json:"value"`
	Kind   GrowthKind          `json:"kind"`
	Rate   decimal.NullDecimal `json:"rate"`
}

// HasRate reports whether the point carries a computed rate.
func (g GrowthPoint) HasRate() bool {
	return g.Kind == GrowthDefined
}

// sortedPoints returns a period-ascending copy.
func sortedPoints(points []SeriesPoint) []SeriesPoint {
	out := make([]SeriesPoint, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Period.Before(out[j].Period)
	})
	return out
}

// GrowthSeries computes period-over-period percentage change. Input order
// does not matter; the result is ascending by period.
func GrowthSeries(points []SeriesPoint) []GrowthPoint {
	sorted := sortedPoints(points)
	out := make([]GrowthPoint, len(sorted))
	for i, p := range sorted {
		out[i] = GrowthPoint{Period: p.Period, Value: p.Value, Kind: GrowthBaseline}
		if i == 0 {
			continue
		}
		prev := sorted[i-1].Value
		if prev.IsZero() {
			out[i].Kind = GrowthUndefined
			continue
		}
		out[i].Kind = GrowthDefined
		out[i].Rate = decimal.NewNullDecimal(p.Value.Sub(prev).Div(prev).Mul(hundred))
	}
	return out
}

// TotalGrowth returns (last/first - 1) * 100 over the period-sorted series.
func TotalGrowth(points []SeriesPoint) (decimal.Decimal, error) {
	if len(points) == 0 {
		return decimal.Zero, ErrEmptySeries
	}
	sorted := sortedPoints(points)
	first, last := sorted[0].Value, sorted[len(sorted)-1].Value
	if first.IsZero() {
		return decimal.Zero, ErrDivisionByZero
	}
	return last.Div(first).Sub(decimal.NewFromInt(1)).Mul(hundred), nil
}

// SeriesByPeriod groups records by calendar month and sums their amounts.
// Records without a date or amount are left out; the result is ascending.
func SeriesByPeriod(records []core.Record) []SeriesPoint {
	sums := map[core.Month]decimal.Decimal{}
	for _, r := range records {
		if r.Date.IsEmpty() || !r.Amount.Valid {
			continue
		}
		m := r.Date.Month()
		sums[m] = sums[m].Add(r.Amount.Decimal)
	}
	out := make([]SeriesPoint, 0, len(sums))
	for m, v := range sums {
		out = append(out, SeriesPoint{Period: m, Value: v})
	}
	return sortedPoints(out)
}
