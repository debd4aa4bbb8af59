package loader

import (
	"context"
	"errors"
	"testing"
	"time"

	"spendtrack/internal/config"
	"spendtrack/internal/core"
	"spendtrack/internal/log"
	"spendtrack/internal/sheets"
	"spendtrack/internal/sheets/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

func TestLoaderSamples(t *testing.T) {
	l := New(memory.NewSample(now), config.DefaultLayout(), log.Discard())
	ctx := context.Background()

	txs, rep, err := l.Transactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 66)
	assert.Equal(t, Report{Dataset: sheets.DatasetTransactions, Source: "memory", Rows: 66}, rep)
	assert.Equal(t, core.NewDate(2024, 1, 1), txs[0].Date)
	assert.Equal(t, "주거", txs[0].Category)
	assert.True(t, txs[0].Amount.Decimal.Equal(decimal.NewFromInt(650000)))

	cards, rep, err := l.Cards(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 7)
	assert.Zero(t, rep.MissingDates)
	assert.Equal(t, "Chase", cards[0].Issuer)
	assert.False(t, cards[1].IsOpen())
	assert.Nil(t, cards[0].RecordedCount)
	require.NotNil(t, cards[6].RecordedCount)
	assert.Equal(t, 5, *cards[6].RecordedCount)

	assets, rep, err := l.Assets(ctx)
	require.NoError(t, err)
	assert.Len(t, assets, 36)
	assert.Equal(t, 36, rep.Rows)
	assert.Equal(t, core.NewDate(2024, 6, 30), assets[35].Date)
}

func TestParseTransactionsMissingValues(t *testing.T) {
	table := sheets.Table{
		Header: []string{"지출일", "금액", "카테고리"},
		Rows: [][]string{
			{"45292", "1,200", "식비"},
			{"", "300", "카페"},
			{"2024/01/03", "-", ""},
			{"someday", "5"},
		},
	}
	txs, rep, err := ParseTransactions(table, config.DefaultLayout().Transactions)
	require.NoError(t, err)
	require.Len(t, txs, 4)
	assert.Equal(t, core.NewDate(2024, 1, 1), txs[0].Date)
	assert.True(t, txs[0].Amount.Decimal.Equal(decimal.NewFromInt(1200)))
	assert.True(t, txs[1].Date.IsEmpty())
	assert.False(t, txs[2].Amount.Valid)
	assert.True(t, txs[3].Date.IsEmpty())
	assert.Empty(t, txs[3].Category)
	assert.Equal(t, 2, rep.MissingDates)
	assert.Equal(t, 1, rep.MissingAmounts)
}

func TestParseMissingRequiredColumn(t *testing.T) {
	table := sheets.Table{Header: []string{"지출일", "이름"}}
	_, _, err := ParseTransactions(table, config.DefaultLayout().Transactions)
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "amount")

	_, _, err = ParseCards(sheets.Table{Header: []string{"Card Name"}}, config.DefaultLayout().Cards)
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, _, err = ParseAssets(sheets.Table{Header: []string{"Amount"}}, config.DefaultLayout().Assets)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseCardsWithoutClosingColumn(t *testing.T) {
	d := config.Dataset{Columns: map[string]string{
		config.ColOpeningDate:   "opened",
		config.ColClosingDate:   "closed",
		config.ColRecordedCount: "count",
	}}
	table := sheets.Table{
		Header: []string{"opened", "count"},
		Rows:   [][]string{{"2024-01-05", "2.5"}, {"2024-02-05", "3"}},
	}
	cards, _, err := ParseCards(table, d)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.True(t, cards[0].IsOpen())
	assert.Nil(t, cards[0].RecordedCount)
	require.NotNil(t, cards[1].RecordedCount)
	assert.Equal(t, 3, *cards[1].RecordedCount)
}

func TestParseCardsClosingCell(t *testing.T) {
	table := sheets.Table{
		Header: []string{"Card Name", "Opening Date", "Closing Date"},
		Rows: [][]string{
			{"A", "2023-01-05", "closed"},
			{"B", "2023-02-05", ""},
			{"C", "2023-03-05", "2024-01-10"},
			{"D", "2023-04-05", "20240301"},
		},
	}
	cards, rep, err := ParseCards(table, config.DefaultLayout().Cards)
	require.NoError(t, err)
	require.Len(t, cards, 4)

	assert.False(t, cards[0].IsOpen())
	assert.True(t, cards[0].Closed)
	assert.True(t, cards[0].ClosingDate.IsEmpty())
	assert.True(t, cards[1].IsOpen())
	assert.False(t, cards[2].IsOpen())
	assert.Equal(t, core.NewDate(2024, 1, 10), cards[2].ClosingDate)
	assert.Equal(t, core.NewDate(2024, 3, 1), cards[3].ClosingDate)
	assert.Equal(t, 1, rep.InvalidClosingDates)
	assert.Zero(t, rep.MissingDates)
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want core.Date
	}{
		{"45292", core.NewDate(2024, 1, 1)},
		{"45292.5", core.NewDate(2024, 1, 1)},
		{"2024-03-09", core.NewDate(2024, 3, 9)},
		{" 2024.03.09 ", core.NewDate(2024, 3, 9)},
		{"20240115", core.NewDate(2024, 1, 15)},
		{"2958465", core.NewDate(9999, 12, 31)},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "0", "-3", "tomorrow", "2958466", "99999999"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, core.ErrInvalidDate, bad)
	}
}

type failingReader struct{}

func (failingReader) Name() string { return "failing" }
func (failingReader) Read(context.Context, sheets.WorkbookRef) (sheets.Table, error) {
	return sheets.Table{}, sheets.ErrNotFound
}

func TestLoaderReadError(t *testing.T) {
	l := New(failingReader{}, config.DefaultLayout(), nil)
	_, _, err := l.Cards(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sheets.ErrNotFound))
	assert.Contains(t, err.Error(), "load cards")
	assert.Equal(t, "failing", l.Source())
}
