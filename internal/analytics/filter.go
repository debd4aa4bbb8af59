package analytics

import (
	"sort"
	"strings"

	"spendtrack/internal/core"
)

// AllCategories is the category filter value that matches everything.
const AllCategories = "All"

// Filter narrows the transaction list shown on the spending page.
// Zero-valued fields match everything.
type Filter struct {
	From     core.Date `json:"from"`
	To       core.Date `json:"to"`
	Category string    `json:"category,omitempty"`
	Search   string    `json:"search,omitempty"`
}

// Active reports whether any field narrows the result.
func (f Filter) Active() bool {
	return !f.From.IsEmpty() || !f.To.IsEmpty() || f.category() != "" || strings.TrimSpace(f.Search) != ""
}

func (f Filter) category() string {
	c := strings.TrimSpace(f.Category)
	if c == AllCategories {
		return ""
	}
	return c
}

// Match reports whether t passes the filter. Bounds are inclusive; a
// transaction without a date fails any bounded range.
func (f Filter) Match(t core.Transaction) bool {
	if !f.From.IsEmpty() && (t.Date.IsEmpty() || t.Date.Before(f.From.Time)) {
		return false
	}
	if !f.To.IsEmpty() && (t.Date.IsEmpty() || t.Date.After(f.To.Time)) {
		return false
	}
	if c := f.category(); c != "" && t.Category != c {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		hay := strings.ToLower(t.Name + "\x00" + t.Category + "\x00" + t.Notes)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// Apply returns the matching transactions in their original order.
func (f Filter) Apply(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Categories lists the distinct non-blank categories, sorted.
func Categories(txs []core.Transaction) []string {
	seen := map[string]struct{}{}
	for _, t := range txs {
		if c := strings.TrimSpace(t.Category); c != "" {
			seen[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// DateRange returns the earliest and latest dates present.
func DateRange(txs []core.Transaction) (first, last core.Date) {
	for _, t := range txs {
		if t.Date.IsEmpty() {
			continue
		}
		if first.IsEmpty() || t.Date.Before(first.Time) {
			first = t.Date
		}
		if last.IsEmpty() || t.Date.After(last.Time) {
			last = t.Date
		}
	}
	return first, last
}
