// Package xlsx converts workbook bytes to and from sheets.Table.
package xlsx

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"spendtrack/internal/sheets"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when the workbook has no sheet by that name.
var ErrSheetNotFound = errors.New("sheet not found")

const utf8BOM = "\ufeff"

// Decode reads the named sheet of an xlsx workbook, or the whole file when
// name ends in .csv. Cells are read raw, so dates stay Excel serials and
// numbers are unformatted. A blank sheet means the first one.
func Decode(name string, data []byte, sheet string) (sheets.Table, error) {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return decodeCSV(data)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return sheets.Table{}, fmt.Errorf("open workbook %s: %w", name, err)
	}
	defer f.Close()

	list := f.GetSheetList()
	if len(list) == 0 {
		return sheets.Table{}, fmt.Errorf("%s: %w", name, ErrSheetNotFound)
	}
	if sheet == "" {
		sheet = list[0]
	} else if !contains(list, sheet) {
		return sheets.Table{}, fmt.Errorf("%s in %s (have %s): %w", sheet, name, strings.Join(list, ", "), ErrSheetNotFound)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return sheets.Table{}, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return sheets.NewTable(rows), nil
}

func decodeCSV(data []byte) (sheets.Table, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte(utf8BOM))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return sheets.Table{}, fmt.Errorf("read csv: %w", err)
	}
	return sheets.NewTable(rows), nil
}

// Encode writes t as a single-sheet xlsx workbook.
func Encode(sheet string, t sheets.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return nil, fmt.Errorf("name sheet: %w", err)
		}
	}

	rows := append([][]string{t.Header}, t.Rows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
