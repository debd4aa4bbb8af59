package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"spendtrack/internal/analytics"
	"spendtrack/internal/core"
	"spendtrack/internal/loader"
	"spendtrack/internal/log"
	"spendtrack/internal/services"
	"spendtrack/internal/sheets"

	"github.com/shopspring/decimal"
)

const (
	// maxRecordRows caps the transaction table; the API returns all rows.
	maxRecordRows = 500
	maxDailyBars  = 31
)

type spendingPage struct {
	page
	View         services.SpendingView
	From, To     string
	Category     string
	Search       string
	Notes        []string
	Records      []core.Transaction
	Hidden       int
	CategoryBars []bar
	MonthlyBars  []bar
	WeeklyBars   []bar
	DailyBars    []bar
	Query        string
	LoadedAt     string
}

type cardsPage struct {
	page
	View      services.CardsView
	Below     string
	Schedule  []bar
	Window    int
	Threshold int
	LoadedAt  string
}

type assetsPage struct {
	page
	View          services.AssetsView
	TotalGrowth   string
	PeriodBars    []bar
	BreakdownBars []bar
	LoadedAt      string
}

type errorPage struct {
	page
	Message string
}

func (s *Server) newPage(r *http.Request, title, nav string) page {
	return page{Title: title, Nav: nav, User: userFrom(r.Context())}
}

func (s *Server) handleSpending(w http.ResponseWriter, r *http.Request) {
	f, notes := ParseFilter(r.URL.Query())
	ctx, cancel := s.dataContext(r)
	defer cancel()

	view, err := s.dashboard.Spending(ctx, f)
	if err != nil {
		s.renderDataError(w, r, "spending", err)
		return
	}
	s.render(w, r, http.StatusOK, "spending", s.buildSpendingPage(r, view, notes))
}

func (s *Server) buildSpendingPage(r *http.Request, v services.SpendingView, notes []string) spendingPage {
	sym := s.opts.CurrencySymbol
	p := spendingPage{
		page:     s.newPage(r, "Spending", "spending"),
		View:     v,
		From:     v.Filter.From.String(),
		To:       v.Filter.To.String(),
		Category: v.Filter.Category,
		Search:   v.Filter.Search,
		Notes:    notes,
		Records:  v.Records,
		Query:    filterQuery(v.Filter).Encode(),
		LoadedAt: formatLoadedAt(v.LoadedAt),
	}
	if len(p.Records) > maxRecordRows {
		p.Hidden = len(p.Records) - maxRecordRows
		p.Records = p.Records[:maxRecordRows]
	}
	p.Notes = append(p.Notes, reportNotes(v.Report)...)

	cats := make([]labeled, 0, len(v.ByCategory))
	for _, ka := range v.ByCategory {
		cats = append(cats, labeled{label: ka.Key, value: ka.Amount})
	}
	p.CategoryBars = buildBars(sym, cats, true)

	months := make([]labeled, 0, len(v.MonthlyGrowth))
	for _, g := range v.MonthlyGrowth {
		months = append(months, labeled{label: g.Period.String(), value: g.Value, extra: formatRate(g)})
	}
	p.MonthlyBars = buildBars(sym, months, false)

	weeks := make([]labeled, 0, len(v.Weekly))
	for _, wk := range v.Weekly {
		weeks = append(weeks, labeled{label: fmt.Sprintf("%d-W%02d", wk.Year, wk.Week), value: wk.Value})
	}
	p.WeeklyBars = buildBars(sym, weeks, false)

	daily := v.Daily
	if len(daily) > maxDailyBars {
		daily = daily[len(daily)-maxDailyBars:]
	}
	days := make([]labeled, 0, len(daily))
	for _, d := range daily {
		days = append(days, labeled{label: d.Day.String(), value: d.Value})
	}
	p.DailyBars = buildBars(sym, days, false)
	return p
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.dataContext(r)
	defer cancel()

	view, err := s.dashboard.CardsPage(ctx)
	if err != nil {
		s.renderDataError(w, r, "cards", err)
		return
	}
	p := cardsPage{
		page:      s.newPage(r, "Credit cards", "cards"),
		View:      view,
		Below:     view.BelowLabel(),
		Window:    analytics.CardWindowMonths,
		Threshold: analytics.CardThreshold,
		LoadedAt:  formatLoadedAt(view.LoadedAt),
	}
	top := 0
	for _, pt := range view.Schedule {
		top = max(top, pt.Count)
	}
	for _, pt := range view.Schedule {
		b := bar{
			Label:  pt.Month.String(),
			Amount: strconv.Itoa(pt.Count),
			Width:  barWidth(decimal.NewFromInt(int64(pt.Count)), decimal.NewFromInt(int64(top))),
		}
		if pt.Count < analytics.CardThreshold {
			b.Extra = "below"
		}
		p.Schedule = append(p.Schedule, b)
	}
	s.render(w, r, http.StatusOK, "cards", p)
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.dataContext(r)
	defer cancel()

	view, err := s.dashboard.AssetsPage(ctx)
	if err != nil {
		s.renderDataError(w, r, "assets", err)
		return
	}
	sym := s.opts.CurrencySymbol
	p := assetsPage{
		page:     s.newPage(r, "Assets", "assets"),
		View:     view,
		LoadedAt: formatLoadedAt(view.LoadedAt),
	}
	if view.TotalGrowth.Valid {
		p.TotalGrowth = formatPercent(view.TotalGrowth.Decimal)
	} else {
		p.TotalGrowth = "n/a"
	}

	periods := make([]labeled, 0, len(view.Growth))
	for _, g := range view.Growth {
		periods = append(periods, labeled{label: g.Period.String(), value: g.Value, extra: formatRate(g)})
	}
	p.PeriodBars = buildBars(sym, periods, false)

	parts := make([]labeled, 0, len(view.Breakdown))
	for _, ka := range view.Breakdown {
		parts = append(parts, labeled{label: ka.Key, value: ka.Amount})
	}
	p.BreakdownBars = buildBars(sym, parts, true)
	s.render(w, r, http.StatusOK, "assets", p)
}

// spendingResponse adds the filter notes to the JSON spending view.
type spendingResponse struct {
	services.SpendingView
	Notes []string `json:"notes,omitempty"`
}

func (s *Server) handleAPISpending(w http.ResponseWriter, r *http.Request) {
	f, notes := ParseFilter(r.URL.Query())
	ctx, cancel := s.dataContext(r)
	defer cancel()

	view, err := s.dashboard.Spending(ctx, f)
	if err != nil {
		s.writeDataError(w, r, "spending", err)
		return
	}
	writeJSON(w, http.StatusOK, spendingResponse{SpendingView: view, Notes: notes})
}

func (s *Server) handleAPICards(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.dataContext(r)
	defer cancel()

	view, err := s.dashboard.CardsPage(ctx)
	if err != nil {
		s.writeDataError(w, r, "cards", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAPIAssets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.dataContext(r)
	defer cancel()

	view, err := s.dashboard.AssetsPage(ctx)
	if err != nil {
		s.writeDataError(w, r, "assets", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dashboard.Status())
}

// dataErrorStatus maps a data load failure to a response status.
func dataErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Loading the data took too long. Try again shortly."
	case errors.Is(err, sheets.ErrNotFound):
		return http.StatusServiceUnavailable, "The workbook could not be found in any configured source."
	case errors.Is(err, loader.ErrMissingColumn):
		return http.StatusUnprocessableEntity, "The workbook is missing a required column: " + err.Error()
	default:
		return http.StatusServiceUnavailable, "The data could not be loaded right now."
	}
}

func (s *Server) renderDataError(w http.ResponseWriter, r *http.Request, dataset string, err error) {
	status, msg := dataErrorStatus(err)
	s.requestLogger(r).Failure(r.Context(), "Page data load failed", log.OpLoad, err, log.FieldDataset, dataset)
	s.render(w, r, status, "error", errorPage{page: s.newPage(r, "Unavailable", dataset), Message: msg})
}

func (s *Server) writeDataError(w http.ResponseWriter, r *http.Request, dataset string, err error) {
	status, msg := dataErrorStatus(err)
	s.requestLogger(r).Failure(r.Context(), "API data load failed", log.OpLoad, err, log.FieldDataset, dataset)
	s.writeAPIError(w, r, status, msg)
}

// reportNotes turns skipped values into page notices.
func reportNotes(rep loader.Report) []string {
	var out []string
	if rep.MissingAmounts > 0 {
		out = append(out, fmt.Sprintf("%d rows have an unreadable amount and are left out of totals.", rep.MissingAmounts))
	}
	if rep.MissingDates > 0 {
		out = append(out, fmt.Sprintf("%d rows have an unreadable date and are left out of date-based views.", rep.MissingDates))
	}
	return out
}

func formatLoadedAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
