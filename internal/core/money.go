// Package core provides amount and date parsing for spreadsheet cells.
//
// Spreadsheet exports are inconsistent: amounts arrive as plain numbers,
// with currency symbols and thousands separators, or in accounting
// parentheses; dates arrive in several textual layouts. The parsers here
// normalize the textual forms. Callers decide how a parse failure is
// reported, usually by treating the value as missing.
package core

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// currencyRunes are stripped from amount cells before parsing.
const currencyRunes = "$€£¥₩"

// ParseAmount converts a textual amount to a decimal.
//
// Accepted forms:
//
//	ParseAmount("12000")      -> 12000
//	ParseAmount("₩12,000")    -> 12000
//	ParseAmount("$1,234.50")  -> 1234.50
//	ParseAmount("(300)")      -> -300
//	ParseAmount("-7.5")       -> -7.5
//
// A comma followed by exactly one or two trailing digits is read as a
// decimal comma ("12,5" -> 12.5); otherwise commas are thousands separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(currencyRunes, r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSuffix(s, "원")

	if strings.HasPrefix(s, "-") {
		if neg {
			return decimal.Zero, ErrInvalidAmount
		}
		neg = true
		s = s[1:]
	} else {
		s = strings.TrimPrefix(s, "+")
	}

	s = normalizeSeparators(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return decimal.Zero, ErrInvalidAmount
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// NullAmount is ParseAmount with failures mapped to a missing value.
func NullAmount(s string) decimal.NullDecimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func normalizeSeparators(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	if strings.Contains(s, ".") {
		return strings.ReplaceAll(s, ",", "")
	}
	i := strings.LastIndex(s, ",")
	if tail := len(s) - i - 1; strings.Count(s, ",") == 1 && (tail == 1 || tail == 2) {
		return s[:i] + "." + s[i+1:]
	}
	return strings.ReplaceAll(s, ",", "")
}

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2006.01.02",
	"2006. 1. 2.",
	"2006. 1. 2",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"2006-01",
	"20060102",
}

// ParseDate parses the textual date forms seen in exported sheets.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
