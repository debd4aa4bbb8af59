// Package sheets defines where workbook tables come from.
package sheets

import (
	"context"
	"errors"
	"strings"
)

// Dataset names.
const (
	DatasetTransactions = "transactions"
	DatasetCards        = "cards"
	DatasetAssets       = "assets"
)

// ErrNotFound is returned when a source has no workbook for the reference.
var ErrNotFound = errors.New("workbook not found")

type (
	// WorkbookRef identifies one dataset's workbook across every source.
	// Sources use the fields they understand and ignore the rest.
	WorkbookRef struct {
		Dataset   string // transactions, cards or assets
		FileID    string // explicit Drive file id
		Folder    string // Drive folder to look the file up in
		FileName  string // Drive file name
		LocalPath string // path under the local data directory
		Sheet     string // worksheet to read; blank means the first
	}

	// Table is a decoded worksheet. Header holds the first non-empty row;
	// Rows are padded or truncated to the header width.
	Table struct {
		Header []string
		Rows   [][]string
	}

	// Reader is the outbound port for loading a worksheet.
	Reader interface {
		// Name identifies the source in logs and errors.
		Name() string
		// Read returns the referenced worksheet.
		Read(ctx context.Context, ref WorkbookRef) (Table, error)
	}
)

// Column returns the index of the header named name, or -1. Matching
// ignores surrounding whitespace.
func (t Table) Column(name string) int {
	name = strings.TrimSpace(name)
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// NewTable builds a Table from raw rows: leading blank rows are skipped,
// the first remaining row becomes the header, fully blank data rows are
// dropped and the rest are fitted to the header width.
func NewTable(raw [][]string) Table {
	start := 0
	for start < len(raw) && blankRow(raw[start]) {
		start++
	}
	if start == len(raw) {
		return Table{}
	}
	header := make([]string, len(raw[start]))
	for i, h := range raw[start] {
		header[i] = strings.TrimSpace(h)
	}
	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}

	t := Table{Header: header}
	for _, row := range raw[start+1:] {
		if blankRow(row) {
			continue
		}
		fitted := make([]string, len(header))
		copy(fitted, row)
		t.Rows = append(t.Rows, fitted)
	}
	return t
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
