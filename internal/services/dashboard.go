// Package services assembles the page models of the dashboard from the
// loaded datasets.
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"spendtrack/internal/analytics"
	"spendtrack/internal/cache"
	"spendtrack/internal/core"
	"spendtrack/internal/loader"
	"spendtrack/internal/log"
	"spendtrack/internal/sheets"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultTTL is how long a loaded dataset is reused.
const DefaultTTL = 5 * time.Minute

// DataLoader reads the three datasets.
type DataLoader interface {
	Transactions(ctx context.Context) ([]core.Transaction, loader.Report, error)
	Cards(ctx context.Context) ([]core.Card, loader.Report, error)
	Assets(ctx context.Context) ([]core.AssetEntry, loader.Report, error)
	Source() string
}

// Loaded is a dataset together with how and when it was read.
type Loaded[T any] struct {
	Items    []T           `json:"-"`
	Report   loader.Report `json:"report"`
	LoadedAt time.Time     `json:"loaded_at"`
}

// Options tunes the dashboard.
type Options struct {
	TTL time.Duration
	// Highlight is the category whose daily average the insights show.
	Highlight string
	Now       func() time.Time
}

// Dashboard loads datasets on demand, memoizes them and derives the
// spending, card and asset page models.
type Dashboard struct {
	loader       DataLoader
	transactions *cache.Memo[Loaded[core.Transaction]]
	cards        *cache.Memo[Loaded[core.Card]]
	assets       *cache.Memo[Loaded[core.AssetEntry]]
	highlight    string
	now          func() time.Time
	logger       *log.Logger
}

func NewDashboard(l DataLoader, opts Options, logger *log.Logger) *Dashboard {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Highlight == "" {
		opts.Highlight = analytics.DefaultHighlightCategory
	}
	return &Dashboard{
		loader:       l,
		transactions: cache.NewMemo[Loaded[core.Transaction]](opts.TTL).WithClock(opts.Now),
		cards:        cache.NewMemo[Loaded[core.Card]](opts.TTL).WithClock(opts.Now),
		assets:       cache.NewMemo[Loaded[core.AssetEntry]](opts.TTL).WithClock(opts.Now),
		highlight:    opts.Highlight,
		now:          opts.Now,
		logger:       log.OrDefault(logger, log.ComponentDashboard),
	}
}

// Caches exposes the memo tables for periodic expiry.
func (d *Dashboard) Caches() []cache.Cleaner {
	return []cache.Cleaner{d.transactions, d.cards, d.assets}
}

// Source names where the data comes from.
func (d *Dashboard) Source() string { return d.loader.Source() }

func memoLoad[T any](d *Dashboard, fn func(context.Context) ([]T, loader.Report, error)) func(context.Context) (Loaded[T], error) {
	return func(ctx context.Context) (Loaded[T], error) {
		items, rep, err := fn(ctx)
		if err != nil {
			return Loaded[T]{}, err
		}
		return Loaded[T]{Items: items, Report: rep, LoadedAt: d.now()}, nil
	}
}

// Transactions returns the memoized spending records.
func (d *Dashboard) Transactions(ctx context.Context) (Loaded[core.Transaction], error) {
	return d.transactions.Get(ctx, sheets.DatasetTransactions, memoLoad(d, d.loader.Transactions))
}

// Cards returns the memoized card history.
func (d *Dashboard) Cards(ctx context.Context) (Loaded[core.Card], error) {
	return d.cards.Get(ctx, sheets.DatasetCards, memoLoad(d, d.loader.Cards))
}

// Assets returns the memoized asset balances.
func (d *Dashboard) Assets(ctx context.Context) (Loaded[core.AssetEntry], error) {
	return d.assets.Get(ctx, sheets.DatasetAssets, memoLoad(d, d.loader.Assets))
}

// Invalidate drops every memoized dataset.
func (d *Dashboard) Invalidate() {
	d.transactions.Invalidate()
	d.cards.Invalidate()
	d.assets.Invalidate()
}

// Refresh drops the memoized datasets and loads all three concurrently.
// Every dataset is attempted; the first failure is returned.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.Invalidate()
	return d.Warm(ctx)
}

// Warm loads any dataset that is not already memoized.
func (d *Dashboard) Warm(ctx context.Context) error {
	start := d.now()
	var g errgroup.Group
	g.Go(func() error { _, err := d.Transactions(ctx); return err })
	g.Go(func() error { _, err := d.Cards(ctx); return err })
	g.Go(func() error { _, err := d.Assets(ctx); return err })
	if err := g.Wait(); err != nil {
		d.logger.Failure(ctx, "Dataset refresh failed", log.OpRefresh, err)
		return fmt.Errorf("refresh datasets: %w", err)
	}
	d.logger.InfoContext(ctx, "Datasets refreshed",
		log.FieldSource, d.loader.Source(),
		log.FieldDuration, d.now().Sub(start).Milliseconds())
	return nil
}

// Status describes what is currently memoized.
type Status struct {
	Source   string          `json:"source"`
	Datasets []DatasetStatus `json:"datasets"`
}

// DatasetStatus is one row of Status.
type DatasetStatus struct {
	Name     string        `json:"name"`
	Cached   bool          `json:"cached"`
	Report   loader.Report `json:"report"`
	LoadedAt time.Time     `json:"loaded_at"`
}

func peekStatus[T any](name string, m *cache.Memo[Loaded[T]]) DatasetStatus {
	v, ok := m.Peek(name)
	return DatasetStatus{Name: name, Cached: ok, Report: v.Report, LoadedAt: v.LoadedAt}
}

// Status reports the memo state without loading.
func (d *Dashboard) Status() Status {
	return Status{
		Source: d.loader.Source(),
		Datasets: []DatasetStatus{
			peekStatus(sheets.DatasetTransactions, d.transactions),
			peekStatus(sheets.DatasetCards, d.cards),
			peekStatus(sheets.DatasetAssets, d.assets),
		},
	}
}

// TrailingMonths is the window of the spending page's recent total.
const TrailingMonths = 3

// TrailingTotal is the spending in the Months calendar months ending with
// Through, the month of the latest filtered transaction.
type TrailingTotal struct {
	Months  int             `json:"months"`
	Through core.Month      `json:"through"`
	Total   decimal.Decimal `json:"total"`
}

// SpendingView is the spending page model.
type SpendingView struct {
	Filter     analytics.Filter `json:"filter"`
	Categories []string         `json:"categories"`
	// First and Last bound the dates of the unfiltered data.
	First         core.Date               `json:"first"`
	Last          core.Date               `json:"last"`
	Records       []core.Transaction      `json:"records"`
	Overview      analytics.Overview      `json:"overview"`
	Trailing      *TrailingTotal          `json:"trailing,omitempty"`
	ByCategory    []analytics.KeyAmount   `json:"by_category"`
	Monthly       []analytics.SeriesPoint `json:"monthly"`
	MonthlyGrowth []analytics.GrowthPoint `json:"monthly_growth"`
	CategoryTable analytics.CategoryTable `json:"category_table"`
	Weekly        []analytics.WeekPoint   `json:"weekly"`
	Daily         []analytics.DayPoint    `json:"daily"`
	Insights      analytics.Insights      `json:"insights"`
	Report        loader.Report           `json:"report"`
	LoadedAt      time.Time               `json:"loaded_at"`
}

// Spending builds the spending page for the given filter.
func (d *Dashboard) Spending(ctx context.Context, f analytics.Filter) (SpendingView, error) {
	data, err := d.Transactions(ctx)
	if err != nil {
		return SpendingView{}, err
	}
	all := data.Items
	first, last := analytics.DateRange(all)
	txs := f.Apply(all)
	monthly := analytics.MonthlySeries(txs)

	var trailing *TrailingTotal
	if _, end := analytics.DateRange(txs); !end.IsEmpty() {
		through := end.Month()
		trailing = &TrailingTotal{
			Months:  TrailingMonths,
			Through: through,
			Total:   analytics.SumInWindow(core.TransactionRecords(txs), through, TrailingMonths),
		}
	}

	return SpendingView{
		Filter:        f,
		Categories:    analytics.Categories(all),
		First:         first,
		Last:          last,
		Records:       txs,
		Overview:      analytics.Summarize(txs),
		Trailing:      trailing,
		ByCategory:    analytics.Rank(analytics.SumByKey(core.TransactionRecords(txs), analytics.ByCategory)),
		Monthly:       monthly,
		MonthlyGrowth: analytics.GrowthSeries(monthly),
		CategoryTable: analytics.MonthlyByCategory(txs),
		Weekly:        analytics.WeeklySeries(txs),
		Daily:         analytics.DailySeries(txs),
		Insights:      analytics.BuildInsights(txs, d.highlight),
		Report:        data.Report,
		LoadedAt:      data.LoadedAt,
	}, nil
}

// CardRow is one card of the history table.
type CardRow struct {
	core.Card
	MonthsOpen int  `json:"months_open"`
	InWindow   bool `json:"in_window"`
}

// CardsView is the card history page model.
type CardsView struct {
	analytics.CardSummary
	Cards    []CardRow     `json:"cards"`
	Report   loader.Report `json:"report"`
	LoadedAt time.Time     `json:"loaded_at"`
}

// CardsPage builds the card history page as of the current month.
func (d *Dashboard) CardsPage(ctx context.Context) (CardsView, error) {
	data, err := d.Cards(ctx)
	if err != nil {
		return CardsView{}, err
	}
	ref := core.MonthOf(d.now())
	rows := make([]CardRow, 0, len(data.Items))
	for _, c := range data.Items {
		row := CardRow{Card: c}
		if !c.OpeningDate.IsEmpty() {
			diff := core.MonthDiff(ref, c.OpeningDate.Month())
			row.MonthsOpen = diff
			row.InWindow = diff >= 0 && diff < analytics.CardWindowMonths
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[j].OpeningDate.Before(rows[i].OpeningDate.Time)
	})
	return CardsView{
		CardSummary: analytics.SummarizeCards(data.Items, ref),
		Cards:       rows,
		Report:      data.Report,
		LoadedAt:    data.LoadedAt,
	}, nil
}

// AssetsView is the asset page model.
type AssetsView struct {
	analytics.AssetSummary
	Report   loader.Report `json:"report"`
	LoadedAt time.Time     `json:"loaded_at"`
}

// AssetsPage builds the asset page.
func (d *Dashboard) AssetsPage(ctx context.Context) (AssetsView, error) {
	data, err := d.Assets(ctx)
	if err != nil {
		return AssetsView{}, err
	}
	return AssetsView{
		AssetSummary: analytics.SummarizeAssets(data.Items),
		Report:       data.Report,
		LoadedAt:     data.LoadedAt,
	}, nil
}
