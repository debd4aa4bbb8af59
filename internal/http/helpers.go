package http

import (
	"html/template"
	"net/url"
	"strings"

	"spendtrack/internal/analytics"
	"spendtrack/internal/core"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// numbers groups thousands with commas.
var numbers = message.NewPrinter(language.English)

// formatAmount renders d rounded to whole units with thousands
// separators, e.g. "$1,234" or "-$1,234".
func formatAmount(symbol string, d decimal.Decimal) string {
	r := d.Round(0)
	s := numbers.Sprintf("%d", r.Abs().IntPart())
	if r.IsNegative() {
		return "-" + symbol + s
	}
	return symbol + s
}

func formatNullAmount(symbol string, d decimal.NullDecimal) string {
	if !d.Valid {
		return "n/a"
	}
	return formatAmount(symbol, d.Decimal)
}

// formatRate renders a growth point's percentage change. The first
// period has none; a change from zero is undefined.
func formatRate(p analytics.GrowthPoint) string {
	switch p.Kind {
	case analytics.GrowthBaseline:
		return ""
	case analytics.GrowthUndefined:
		return "n/a"
	}
	return formatPercent(p.Rate.Decimal)
}

func formatPercent(d decimal.Decimal) string {
	s := d.StringFixed(2) + "%"
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

func formatNullPercent(d decimal.NullDecimal) string {
	if !d.Valid {
		return "n/a"
	}
	return formatPercent(d.Decimal)
}

func formatNull1(d decimal.NullDecimal) string {
	if !d.Valid {
		return "n/a"
	}
	return d.Decimal.StringFixed(1)
}

func formatDate(d core.Date) string {
	if d.IsEmpty() {
		return "n/a"
	}
	return d.String()
}

// barWidth scales v against top to a percentage for CSS bars. Tiny
// positive values stay visible.
func barWidth(v, top decimal.Decimal) int {
	if !top.IsPositive() || !v.IsPositive() {
		return 0
	}
	w := int(v.Mul(decimal.NewFromInt(100)).Div(top).Round(0).IntPart())
	if w < 2 {
		w = 2
	}
	if w > 100 {
		w = 100
	}
	return w
}

// bar is one row of a horizontal bar chart.
type bar struct {
	Label  string
	Amount string
	Share  string
	Extra  string
	Width  int
}

type labeled struct {
	label string
	value decimal.Decimal
	extra string
}

func buildBars(symbol string, items []labeled, withShare bool) []bar {
	top, total := decimal.Zero, decimal.Zero
	for _, it := range items {
		if it.value.GreaterThan(top) {
			top = it.value
		}
		total = total.Add(it.value)
	}
	out := make([]bar, 0, len(items))
	for _, it := range items {
		b := bar{Label: it.label, Amount: formatAmount(symbol, it.value), Extra: it.extra, Width: barWidth(it.value, top)}
		if withShare && total.IsPositive() {
			b.Share = it.value.Mul(decimal.NewFromInt(100)).Div(total).StringFixed(1) + "%"
		}
		out = append(out, b)
	}
	return out
}

// safeNext returns target when it is a local path, otherwise "/".
func safeNext(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return target
}

func templateFuncs(symbol string) template.FuncMap {
	return template.FuncMap{
		"money":     func(d decimal.Decimal) string { return formatAmount(symbol, d) },
		"nullMoney": func(d decimal.NullDecimal) string { return formatNullAmount(symbol, d) },
		"rate":      formatRate,
		"percent":   formatNullPercent,
		"oneDec":    formatNull1,
		"date":      formatDate,
		"inc":       func(i int) int { return i + 1 },
		"selected": func(a, b string) template.HTMLAttr {
			if a == b {
				return "selected"
			}
			return ""
		},
	}
}
