package http

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"spendtrack/internal/analytics"
	"spendtrack/internal/core"
)

const (
	filterDateLayout = "2006-01-02"
	maxSearchRunes   = 100
)

// ParseFilter reads the spending filter from query parameters.
// Unusable values are dropped; each drop or correction adds a note for
// the page to show.
func ParseFilter(query url.Values) (analytics.Filter, []string) {
	var notes []string
	f := analytics.Filter{Category: analytics.AllCategories}

	parse := func(key, label string) core.Date {
		v := strings.TrimSpace(query.Get(key))
		if v == "" {
			return core.Date{}
		}
		t, err := time.Parse(filterDateLayout, v)
		if err != nil {
			notes = append(notes, "Ignored invalid "+label+" date.")
			return core.Date{}
		}
		return core.DateOf(t)
	}
	f.From = parse("from", "start")
	f.To = parse("to", "end")

	if !f.From.IsEmpty() && !f.To.IsEmpty() && f.To.Before(f.From.Time) {
		f.From, f.To = f.To, f.From
		notes = append(notes, "Start and end dates were swapped.")
	}

	if c := sanitizeInput(query.Get("category")); c != "" {
		f.Category = c
	}
	f.Search = truncateRunes(sanitizeInput(query.Get("q")), maxSearchRunes)
	return f, notes
}

// filterQuery is the inverse of ParseFilter, used to keep the filter in
// links.
func filterQuery(f analytics.Filter) url.Values {
	q := url.Values{}
	if !f.From.IsEmpty() {
		q.Set("from", f.From.String())
	}
	if !f.To.IsEmpty() {
		q.Set("to", f.To.String())
	}
	if f.Category != "" && f.Category != analytics.AllCategories {
		q.Set("category", f.Category)
	}
	if f.Search != "" {
		q.Set("q", f.Search)
	}
	return q
}

// sanitizeInput trims s and removes control characters except tab,
// newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}
