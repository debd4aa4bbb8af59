// Package loader maps worksheet rows onto the core record types.
//
// Column names come from the configured layout. A cell that cannot be
// read becomes a missing value rather than an error, and the Report
// returned with every load counts how many of those there were.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"spendtrack/internal/config"
	"spendtrack/internal/core"
	"spendtrack/internal/log"
	"spendtrack/internal/sheets"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("missing required column")

// Report summarizes how cleanly a table was read.
type Report struct {
	Dataset        string `json:"dataset"`
	Source         string `json:"source"`
	Rows           int    `json:"rows"`
	MissingDates   int    `json:"missing_dates"`
	MissingAmounts int    `json:"missing_amounts"`
	// InvalidClosingDates counts closing cells with text that is not a
	// date. Those cards still count as closed.
	InvalidClosingDates int `json:"invalid_closing_dates,omitempty"`
}

// Loader reads the three datasets through a sheets.Reader.
type Loader struct {
	reader sheets.Reader
	layout config.Layout
	logger *log.Logger
}

func New(reader sheets.Reader, layout config.Layout, logger *log.Logger) *Loader {
	return &Loader{reader: reader, layout: layout, logger: log.OrDefault(logger, log.ComponentLoader)}
}

// Source names the underlying reader.
func (l *Loader) Source() string { return l.reader.Name() }

func (l *Loader) read(ctx context.Context, name string, d config.Dataset) (sheets.Table, error) {
	t, err := l.reader.Read(ctx, d.Ref(name))
	if err != nil {
		return sheets.Table{}, fmt.Errorf("load %s: %w", name, err)
	}
	return t, nil
}

func (l *Loader) logResult(ctx context.Context, r Report, err error) {
	if err != nil {
		l.logger.Failure(ctx, "Dataset decode failed", log.OpDecode, err,
			log.FieldDataset, r.Dataset,
			log.FieldSource, r.Source)
		return
	}
	l.logReport(ctx, r)
}

func (l *Loader) logReport(ctx context.Context, r Report) {
	level := l.logger.InfoContext
	if r.MissingDates > 0 || r.MissingAmounts > 0 || r.InvalidClosingDates > 0 {
		level = l.logger.WarnContext
	}
	level(ctx, "Dataset loaded",
		log.FieldDataset, r.Dataset,
		log.FieldRows, r.Rows,
		"missing_dates", r.MissingDates,
		"missing_amounts", r.MissingAmounts,
		"invalid_closing_dates", r.InvalidClosingDates)
}

// Transactions loads the spending workbook.
func (l *Loader) Transactions(ctx context.Context) ([]core.Transaction, Report, error) {
	t, err := l.read(ctx, sheets.DatasetTransactions, l.layout.Transactions)
	if err != nil {
		return nil, Report{}, err
	}
	txs, rep, err := ParseTransactions(t, l.layout.Transactions)
	rep.Source = l.reader.Name()
	l.logResult(ctx, rep, err)
	return txs, rep, err
}

// Cards loads the credit card history workbook.
func (l *Loader) Cards(ctx context.Context) ([]core.Card, Report, error) {
	t, err := l.read(ctx, sheets.DatasetCards, l.layout.Cards)
	if err != nil {
		return nil, Report{}, err
	}
	cards, rep, err := ParseCards(t, l.layout.Cards)
	rep.Source = l.reader.Name()
	l.logResult(ctx, rep, err)
	return cards, rep, err
}

// Assets loads the asset balance workbook.
func (l *Loader) Assets(ctx context.Context) ([]core.AssetEntry, Report, error) {
	t, err := l.read(ctx, sheets.DatasetAssets, l.layout.Assets)
	if err != nil {
		return nil, Report{}, err
	}
	entries, rep, err := ParseAssets(t, l.layout.Assets)
	rep.Source = l.reader.Name()
	l.logResult(ctx, rep, err)
	return entries, rep, err
}

// columns resolves logical column keys to header indexes. Optional
// columns that are absent map to -1.
type columns map[string]int

func resolveColumns(t sheets.Table, d config.Dataset, required, optional []string) (columns, error) {
	cols := columns{}
	var missing []string
	for _, key := range required {
		name := d.Columns[key]
		idx := t.Column(name)
		if name == "" || idx < 0 {
			missing = append(missing, fmt.Sprintf("%s (%q)", key, name))
			continue
		}
		cols[key] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	for _, key := range optional {
		cols[key] = -1
		if name := d.Columns[key]; name != "" {
			cols[key] = t.Column(name)
		}
	}
	return cols, nil
}

func (c columns) cell(row []string, key string) string {
	idx, ok := c[key]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// maxExcelSerial is 9999-12-31, the last date Excel can store.
const maxExcelSerial = 2958465

// ParseDate reads a date cell: an Excel serial number as stored in raw
// xlsx cells, or any layout core.ParseDate accepts. Numbers past the
// last Excel date are read as compact dates such as 20240115.
func ParseDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial <= maxExcelSerial {
		if serial <= 0 {
			return core.Date{}, fmt.Errorf("%w: serial %s", core.ErrInvalidDate, s)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return core.Date{}, fmt.Errorf("%w: %v", core.ErrInvalidDate, err)
		}
		return core.DateOf(t), nil
	}
	return core.ParseDate(s)
}

func nullDate(s string) core.Date {
	if s == "" {
		return core.Date{}
	}
	d, err := ParseDate(s)
	if err != nil {
		return core.Date{}
	}
	return d
}

// ParseTransactions maps the spending sheet. Date and amount are required.
func ParseTransactions(t sheets.Table, d config.Dataset) ([]core.Transaction, Report, error) {
	rep := Report{Dataset: sheets.DatasetTransactions}
	cols, err := resolveColumns(t, d,
		[]string{config.ColDate, config.ColAmount},
		[]string{config.ColCategory, config.ColName, config.ColNotes})
	if err != nil {
		return nil, rep, fmt.Errorf("transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(t.Rows))
	for _, row := range t.Rows {
		tx := core.Transaction{
			Date:     nullDate(cols.cell(row, config.ColDate)),
			Name:     cols.cell(row, config.ColName),
			Category: cols.cell(row, config.ColCategory),
			Amount:   core.NullAmount(cols.cell(row, config.ColAmount)),
			Notes:    cols.cell(row, config.ColNotes),
		}
		if tx.Date.IsEmpty() {
			rep.MissingDates++
		}
		if !tx.Amount.Valid {
			rep.MissingAmounts++
		}
		out = append(out, tx)
	}
	rep.Rows = len(out)
	return out, rep, nil
}

// ParseCards maps the card history sheet. Only the opening date is
// required; without a closing date column every card counts as open.
// Any text in the closing cell closes the card.
func ParseCards(t sheets.Table, d config.Dataset) ([]core.Card, Report, error) {
	rep := Report{Dataset: sheets.DatasetCards}
	cols, err := resolveColumns(t, d,
		[]string{config.ColOpeningDate},
		[]string{config.ColName, config.ColIssuer, config.ColClosingDate, config.ColRecordedCount})
	if err != nil {
		return nil, rep, fmt.Errorf("cards: %w", err)
	}

	out := make([]core.Card, 0, len(t.Rows))
	for _, row := range t.Rows {
		closing := cols.cell(row, config.ColClosingDate)
		c := core.Card{
			Name:        cols.cell(row, config.ColName),
			Issuer:      cols.cell(row, config.ColIssuer),
			OpeningDate: nullDate(cols.cell(row, config.ColOpeningDate)),
			ClosingDate: nullDate(closing),
			Closed:      closing != "",
		}
		if c.Closed && c.ClosingDate.IsEmpty() {
			rep.InvalidClosingDates++
		}
		if n, ok := parseCount(cols.cell(row, config.ColRecordedCount)); ok {
			c.RecordedCount = &n
		}
		if c.OpeningDate.IsEmpty() {
			rep.MissingDates++
		}
		out = append(out, c)
	}
	rep.Rows = len(out)
	return out, rep, nil
}

// ParseAssets maps the asset balance sheet. Date and amount are required.
func ParseAssets(t sheets.Table, d config.Dataset) ([]core.AssetEntry, Report, error) {
	rep := Report{Dataset: sheets.DatasetAssets}
	cols, err := resolveColumns(t, d,
		[]string{config.ColDate, config.ColAmount},
		[]string{config.ColAccount, config.ColCategory})
	if err != nil {
		return nil, rep, fmt.Errorf("assets: %w", err)
	}

	out := make([]core.AssetEntry, 0, len(t.Rows))
	for _, row := range t.Rows {
		e := core.AssetEntry{
			Date:     nullDate(cols.cell(row, config.ColDate)),
			Account:  cols.cell(row, config.ColAccount),
			Category: cols.cell(row, config.ColCategory),
			Amount:   core.NullAmount(cols.cell(row, config.ColAmount)),
		}
		if e.Date.IsEmpty() {
			rep.MissingDates++
		}
		if !e.Amount.Valid {
			rep.MissingAmounts++
		}
		out = append(out, e)
	}
	rep.Rows = len(out)
	return out, rep, nil
}

func parseCount(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	d, err := core.ParseAmount(s)
	if err != nil || d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return 0, false
	}
	if d.GreaterThan(decimal.NewFromInt(1 << 30)) {
		return 0, false
	}
	return int(d.IntPart()), true
}
