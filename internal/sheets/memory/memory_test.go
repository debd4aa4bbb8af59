package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"spendtrack/internal/sheets"
)

func TestStoreReadReturnsCopy(t *testing.T) {
	s := New(map[string]sheets.Table{
		"cards": {Header: []string{"Opening Date"}, Rows: [][]string{{"2024-01-01"}}},
	})
	got, err := s.Read(context.Background(), sheets.WorkbookRef{Dataset: "cards"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got.Rows[0][0] = "changed"

	again, _ := s.Read(context.Background(), sheets.WorkbookRef{Dataset: "cards"})
	if again.Rows[0][0] != "2024-01-01" {
		t.Fatalf("store was mutated through a returned table: %v", again.Rows)
	}
	if s.Reads() != 2 {
		t.Fatalf("expected 2 reads, got %d", s.Reads())
	}
}

func TestStoreMissingDataset(t *testing.T) {
	_, err := New(nil).Read(context.Background(), sheets.WorkbookRef{Dataset: "assets"})
	if !errors.Is(err, sheets.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreSet(t *testing.T) {
	s := New(nil)
	s.Set("assets", sheets.Table{Header: []string{"Date"}})
	got, err := s.Read(context.Background(), sheets.WorkbookRef{Dataset: "assets"})
	if err != nil || len(got.Header) != 1 {
		t.Fatalf("unexpected read: %v %v", got, err)
	}
}

func TestSampleTables(t *testing.T) {
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	tables := SampleTables(now)

	tx := tables[sheets.DatasetTransactions]
	if len(tx.Rows) != 6*11 {
		t.Fatalf("transactions: got %d rows", len(tx.Rows))
	}
	if tx.Rows[0][0] != "2023-10-01" {
		t.Fatalf("first transaction date: %s", tx.Rows[0][0])
	}

	cards := tables[sheets.DatasetCards]
	last := cards.Rows[len(cards.Rows)-1]
	if last[4] != "5" {
		t.Fatalf("recorded 5/24 count: %q", last[4])
	}
	if cards.Rows[1][3] == "" {
		t.Fatalf("expected the second card to be closed")
	}

	assets := tables[sheets.DatasetAssets]
	if len(assets.Rows) != 12*len(sampleAccounts) {
		t.Fatalf("assets: got %d rows", len(assets.Rows))
	}
	if assets.Rows[len(assets.Rows)-1][0] != "2024-03-31" {
		t.Fatalf("latest asset snapshot: %s", assets.Rows[len(assets.Rows)-1][0])
	}
}
