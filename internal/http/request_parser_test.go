package http

import (
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"spendtrack/internal/analytics"
	"spendtrack/internal/core"

	"github.com/stretchr/testify/assert"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		want  analytics.Filter
		notes int
	}{
		{
			name:  "empty query",
			query: url.Values{},
			want:  analytics.Filter{Category: analytics.AllCategories},
		},
		{
			name:  "all fields",
			query: url.Values{"from": {"2024-01-01"}, "to": {"2024-01-31"}, "category": {"식비"}, "q": {"  lunch "}},
			want:  analytics.Filter{From: core.NewDate(2024, 1, 1), To: core.NewDate(2024, 1, 31), Category: "식비", Search: "lunch"},
		},
		{
			name:  "swapped range",
			query: url.Values{"from": {"2024-03-01"}, "to": {"2024-02-01"}},
			want:  analytics.Filter{From: core.NewDate(2024, 2, 1), To: core.NewDate(2024, 3, 1), Category: analytics.AllCategories},
			notes: 1,
		},
		{
			name:  "invalid dates dropped",
			query: url.Values{"from": {"yesterday"}, "to": {"2024-13-01"}},
			want:  analytics.Filter{Category: analytics.AllCategories},
			notes: 2,
		},
		{
			name:  "control characters removed",
			query: url.Values{"q": {"ca\x00fe\x07"}},
			want:  analytics.Filter{Category: analytics.AllCategories, Search: "cafe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, notes := ParseFilter(tt.query)
			assert.Equal(t, tt.want, got)
			assert.Len(t, notes, tt.notes)
		})
	}
}

func TestParseFilterCapsSearch(t *testing.T) {
	long := strings.Repeat("가", 150)
	got, _ := ParseFilter(url.Values{"q": {long}})
	assert.Equal(t, maxSearchRunes, utf8.RuneCountInString(got.Search))
}

func TestFilterQueryRoundTrip(t *testing.T) {
	f := analytics.Filter{From: core.NewDate(2024, 1, 1), Category: "카페", Search: "라떼"}
	got, notes := ParseFilter(filterQuery(f))
	assert.Empty(t, notes)
	assert.Equal(t, f, got)

	assert.Empty(t, filterQuery(analytics.Filter{Category: analytics.AllCategories}))
}
