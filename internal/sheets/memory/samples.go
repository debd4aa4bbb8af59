package memory

import (
	"strconv"
	"time"

	"spendtrack/internal/sheets"
)

var sampleSpending = []struct {
	category string
	name     string
	base     int
}{
	{"식비", "점심", 9000},
	{"카페", "커피", 4500},
	{"교통", "지하철", 1450},
	{"쇼핑", "생활용품", 23000},
	{"식비", "저녁", 18000},
}

// sampleCard offsets are months relative to the current month.
type sampleCard struct {
	name, bank string
	opened     int
	closed     int // 0 while open
}

var sampleCardList = []sampleCard{
	{"Freedom", "Chase", -60, 0},
	{"Gold", "Amex", -30, -10},
	{"Venture", "Capital One", -22, 0},
	{"Sapphire", "Chase", -18, 0},
	{"Double Cash", "Citi", -12, 0},
	{"Blue Cash", "Amex", -7, 0},
	{"Custom Cash", "Citi", -3, 0},
}

var sampleAccounts = []struct {
	account, category string
	start, step       int
}{
	{"신한 입출금", "현금", 3200000, 150000},
	{"키움 증권", "주식", 12000000, 420000},
	{"청약 예금", "예금", 5000000, 100000},
}

// SampleTables returns a deterministic demo dataset set relative to now,
// using the default column names.
func SampleTables(now time.Time) map[string]sheets.Table {
	return map[string]sheets.Table{
		sheets.DatasetTransactions: sampleTransactions(now),
		sheets.DatasetCards:        sampleCards(now),
		sheets.DatasetAssets:       sampleAssets(now),
	}
}

// NewSample returns a store seeded with SampleTables(now).
func NewSample(now time.Time) *Store {
	return New(SampleTables(now))
}

func monthStart(now time.Time, offset int) time.Time {
	return time.Date(now.Year(), now.Month()+time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
}

func sampleTransactions(now time.Time) sheets.Table {
	t := sheets.Table{Header: []string{"지출일", "이름", "카테고리", "금액", "비고"}}
	n := 0
	for offset := -5; offset <= 0; offset++ {
		start := monthStart(now, offset)
		t.Rows = append(t.Rows, []string{start.Format("2006-01-02"), "월세", "주거", "650000", "자동이체"})
		for day := 1; day <= 28; day += 3 {
			s := sampleSpending[n%len(sampleSpending)]
			t.Rows = append(t.Rows, []string{
				start.AddDate(0, 0, day-1).Format("2006-01-02"),
				s.name,
				s.category,
				strconv.Itoa(s.base + (n%4)*500),
				"",
			})
			n++
		}
	}
	return t
}

func sampleCards(now time.Time) sheets.Table {
	t := sheets.Table{Header: []string{"Card Name", "Bank", "Opening Date", "Closing Date", "Number of Cards Opened 24 months prior"}}
	recent := 0
	for _, c := range sampleCardList {
		if c.opened > -24 {
			recent++
		}
	}
	for i, c := range sampleCardList {
		row := []string{c.name, c.bank, monthStart(now, c.opened).AddDate(0, 0, 9).Format("2006-01-02"), "", ""}
		if c.closed != 0 {
			row[3] = monthStart(now, c.closed).Format("2006-01-02")
		}
		if i == len(sampleCardList)-1 {
			row[4] = strconv.Itoa(recent)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func sampleAssets(now time.Time) sheets.Table {
	t := sheets.Table{Header: []string{"Date", "Account", "Category", "Amount"}}
	for offset := -11; offset <= 0; offset++ {
		day := monthStart(now, offset+1).AddDate(0, 0, -1).Format("2006-01-02")
		step := offset + 11
		for _, a := range sampleAccounts {
			t.Rows = append(t.Rows, []string{day, a.account, a.category, strconv.Itoa(a.start + step*a.step)})
		}
	}
	return t
}
