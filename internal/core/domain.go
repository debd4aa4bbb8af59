package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Date is a calendar date. The zero value means the date is missing.
	Date struct {
		time.Time
	}

	// Month is a calendar year-month, the grouping key for periods and windows.
	Month struct {
		Year  int
		Month time.Month
	}

	// Record is the normalized row every aggregate works on.
	Record struct {
		Date     Date
		Amount   decimal.NullDecimal // invalid when missing or unparseable
		Category string
		Account  string
	}

	// Transaction is one row of the spending workbook.
	Transaction struct {
		Date     Date                `json:"date"`
		Name     string              `json:"name"`
		Category string              `json:"category"`
		Amount   decimal.NullDecimal `json:"amount"`
		Notes    string              `json:"notes,omitempty"`
	}

	// Card is one row of the credit-card history workbook.
	Card struct {
		Name        string `json:"name"`
		Issuer      string `json:"issuer"`
		OpeningDate Date   `json:"opening_date"`
		ClosingDate Date   `json:"closing_date"`
		// Closed is set when the closing cell is not blank, even when its
		// text is not a readable date.
		Closed bool `json:"closed"`
		// RecordedCount is the sheet's own "opened in the last 24 months"
		// column, nil when the column is absent or blank.
		RecordedCount *int `json:"recorded_count,omitempty"`
	}

	// AssetEntry is one balance snapshot from the asset workbook.
	AssetEntry struct {
		Date     Date                `json:"date"`
		Account  string              `json:"account"`
		Category string              `json:"category"`
		Amount   decimal.NullDecimal `json:"amount"`
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty reports whether the date is missing.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// Month returns the calendar month the date falls in.
func (d Date) Month() Month {
	return Month{Year: d.Time.Year(), Month: d.Time.Month()}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// NewMonth builds a Month, normalizing out-of-range months into the year.
func NewMonth(year int, month time.Month) Month {
	return MonthFromIndex(year*12 + int(month) - 1)
}

// MonthOf returns the calendar month of t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// MonthFromIndex is the inverse of Month.Index.
func MonthFromIndex(idx int) Month {
	year := idx / 12
	rem := idx % 12
	if rem < 0 {
		rem += 12
		year--
	}
	return Month{Year: year, Month: time.Month(rem + 1)}
}

// ParseMonth parses the YYYY-MM form.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthOf(t), nil
}

// Index is year*12 + (month-1); differences of indexes are calendar month differences.
func (m Month) Index() int {
	return m.Year*12 + int(m.Month) - 1
}

// AddMonths returns the month n months later (earlier for negative n).
func (m Month) AddMonths(n int) Month {
	return MonthFromIndex(m.Index() + n)
}

// Before reports whether m is strictly earlier than o.
func (m Month) Before(o Month) bool {
	return m.Index() < o.Index()
}

// First returns the first day of the month.
func (m Month) First() Date {
	return NewDate(m.Year, int(m.Month), 1)
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MonthDiff returns (a.year-b.year)*12 + (a.month-b.month).
func MonthDiff(a, b Month) int {
	return a.Index() - b.Index()
}

// Record projects the transaction onto the aggregate record shape.
func (t Transaction) Record() Record {
	return Record{Date: t.Date, Amount: t.Amount, Category: t.Category}
}

// IsOpen reports whether the card has neither a closing date nor a
// closing cell.
func (c Card) IsOpen() bool {
	return !c.Closed && c.ClosingDate.IsZero()
}

// Record keys the card by its opening date; cards carry no amount.
func (c Card) Record() Record {
	return Record{Date: c.OpeningDate, Category: c.Issuer, Account: c.Name}
}

func (a AssetEntry) Record() Record {
	return Record{Date: a.Date, Amount: a.Amount, Category: a.Category, Account: a.Account}
}

// TransactionRecords projects a slice of transactions.
func TransactionRecords(txs []Transaction) []Record {
	out := make([]Record, len(txs))
	for i, t := range txs {
		out[i] = t.Record()
	}
	return out
}

// CardRecords projects a slice of cards.
func CardRecords(cards []Card) []Record {
	out := make([]Record, len(cards))
	for i, c := range cards {
		out[i] = c.Record()
	}
	return out
}

// AssetRecords projects a slice of asset entries.
func AssetRecords(entries []AssetEntry) []Record {
	out := make([]Record, len(entries))
	for i, a := range entries {
		out[i] = a.Record()
	}
	return out
}

// MarshalJSON writes the date as YYYY-MM-DD, or null when missing.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// MarshalText writes the month as YYYY-MM.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText reads the YYYY-MM form.
func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
