package xlsx

import (
	"testing"

	"spendtrack/internal/sheets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := sheets.Table{
		Header: []string{"지출일", "금액", "카테고리"},
		Rows: [][]string{
			{"2024-01-01", "12000", "식비"},
			{"2024-01-02", "4500", ""},
		},
	}
	data, err := Encode("변동비", in)
	require.NoError(t, err)

	got, err := Decode("가계부.xlsx", data, "변동비")
	require.NoError(t, err)
	assert.Equal(t, in.Header, got.Header)
	assert.Equal(t, in.Rows, got.Rows)

	first, err := Decode("가계부.xlsx", data, "")
	require.NoError(t, err)
	assert.Equal(t, in.Header, first.Header)
}

func TestDecodeMissingSheet(t *testing.T) {
	data, err := Encode("Sheet1", sheets.Table{Header: []string{"a"}})
	require.NoError(t, err)
	_, err = Decode("book.xlsx", data, "nope")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestDecodeRawValues(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Opening Date", "Amount"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{45292, 1234.5}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	got, err := Decode("cards.xlsx", buf.Bytes(), "Sheet1")
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, []string{"45292", "1234.5"}, got.Rows[0])
}

func TestDecodeCSV(t *testing.T) {
	data := []byte("\ufeff지출일,금액\n2024-01-01, \"12,000\"\n\n2024-01-02,5\n")
	got, err := Decode("export.CSV", data, "ignored")
	require.NoError(t, err)
	assert.Equal(t, []string{"지출일", "금액"}, got.Header)
	assert.Equal(t, [][]string{{"2024-01-01", "12,000"}, {"2024-01-02", "5"}}, got.Rows)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode("book.xlsx", []byte("not a zip"), "")
	assert.Error(t, err)
}
