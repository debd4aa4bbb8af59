package config

import (
	"fmt"
	"os"
	"strings"

	"dario.cat/mergo"
	"github.com/ghodss/yaml"

	"spendtrack/internal/sheets"
)

// Logical column keys. The layout maps each to the header text used in
// the workbook.
const (
	ColDate          = "date"
	ColAmount        = "amount"
	ColCategory      = "category"
	ColName          = "name"
	ColNotes         = "notes"
	ColIssuer        = "issuer"
	ColAccount       = "account"
	ColOpeningDate   = "opening_date"
	ColClosingDate   = "closing_date"
	ColRecordedCount = "recorded_count"
)

// DefaultFolder is the Drive folder the workbooks are looked up in.
const DefaultFolder = "FINANCE"

// Dataset describes where one workbook lives and how its columns are named.
type Dataset struct {
	Folder    string            `json:"folder,omitempty"`
	FileName  string            `json:"file_name,omitempty"`
	FileID    string            `json:"file_id,omitempty"`
	LocalPath string            `json:"local_path,omitempty"`
	Sheet     string            `json:"sheet,omitempty"`
	Columns   map[string]string `json:"columns,omitempty"`
}

// Layout is the workbook layout for the three datasets.
type Layout struct {
	Transactions Dataset `json:"transactions"`
	Cards        Dataset `json:"cards"`
	Assets       Dataset `json:"assets"`
}

// DefaultLayout matches the workbooks the dashboard was built around.
func DefaultLayout() Layout {
	return Layout{
		Transactions: Dataset{
			Folder:    DefaultFolder,
			FileName:  "가계부.xlsx",
			LocalPath: "transactions.xlsx",
			Sheet:     "변동비",
			Columns: map[string]string{
				ColDate:     "지출일",
				ColAmount:   "금액",
				ColCategory: "카테고리",
				ColName:     "이름",
				ColNotes:    "비고",
			},
		},
		Cards: Dataset{
			Folder:    DefaultFolder,
			FileName:  "크레딧카드_히스토리.xlsx",
			LocalPath: "크레딧카드_히스토리.xlsx",
			Sheet:     "크레딧카드히스토리_v1",
			Columns: map[string]string{
				ColName:          "Card Name",
				ColIssuer:        "Bank",
				ColOpeningDate:   "Opening Date",
				ColClosingDate:   "Closing Date",
				ColRecordedCount: "Number of Cards Opened 24 months prior",
			},
		},
		Assets: Dataset{
			Folder:    DefaultFolder,
			FileName:  "자산현황.xlsx",
			LocalPath: "assets.xlsx",
			Columns: map[string]string{
				ColDate:     "Date",
				ColAccount:  "Account",
				ColCategory: "Category",
				ColAmount:   "Amount",
			},
		},
	}
}

// LoadLayout reads the layout from LAYOUT_YAML or LAYOUT_FILE, fills
// anything they leave out from DefaultLayout and applies the per-dataset
// file id and folder overrides.
func (c *Config) LoadLayout() (Layout, error) {
	var raw []byte
	switch {
	case strings.TrimSpace(c.LayoutYAML) != "":
		raw = []byte(c.LayoutYAML)
	case c.LayoutFile != "":
		b, err := os.ReadFile(c.LayoutFile)
		if err != nil {
			return Layout{}, fmt.Errorf("read layout file: %w", err)
		}
		raw = b
	}

	var l Layout
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &l); err != nil {
			return Layout{}, fmt.Errorf("parse layout: %w", err)
		}
	}
	if err := mergo.Merge(&l, DefaultLayout()); err != nil {
		return Layout{}, fmt.Errorf("merge layout defaults: %w", err)
	}

	if c.DriveFolder != "" {
		l.Transactions.Folder = c.DriveFolder
		l.Cards.Folder = c.DriveFolder
		l.Assets.Folder = c.DriveFolder
	}
	if c.TransactionsFileID != "" {
		l.Transactions.FileID = c.TransactionsFileID
	}
	if c.CardsFileID != "" {
		l.Cards.FileID = c.CardsFileID
	}
	if c.AssetsFileID != "" {
		l.Assets.FileID = c.AssetsFileID
	}
	return l, nil
}

// Ref converts the dataset to the reference the sheet readers use.
func (d Dataset) Ref(name string) sheets.WorkbookRef {
	return sheets.WorkbookRef{
		Dataset:   name,
		FileID:    d.FileID,
		Folder:    d.Folder,
		FileName:  d.FileName,
		LocalPath: d.LocalPath,
		Sheet:     d.Sheet,
	}
}

// Refs returns the workbook references keyed by dataset name.
func (l Layout) Refs() map[string]sheets.WorkbookRef {
	return map[string]sheets.WorkbookRef{
		sheets.DatasetTransactions: l.Transactions.Ref(sheets.DatasetTransactions),
		sheets.DatasetCards:        l.Cards.Ref(sheets.DatasetCards),
		sheets.DatasetAssets:       l.Assets.Ref(sheets.DatasetAssets),
	}
}
