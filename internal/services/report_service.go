package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"mmex/internal/amqp"
	"mmex/internal/cache"
	"mmex/internal/core"
	"mmex/internal/metrics"
	"mmex/internal/storage"
)

// Report kinds, also used as cache key prefixes.
const (
	ReportPayees        = "payees"
	ReportCategories    = "categories"
	ReportIncomeExpense = "income-expense"
)

// UnassignedName labels rows for transactions without a payee or category.
const UnassignedName = "(none)"

// ReportService aggregates transactions into grouped reports. Results are
// cached per kind and date range until a data change purges them.
type ReportService struct {
	store         ReportStore
	reports       cache.Cache[core.Report]
	months        cache.Cache[[]core.MonthTotals]
	clock         Clock
	defaultPeriod core.Period

	// generation counts invalidations; a result read under an older
	// generation is returned but never cached.
	mu         sync.Mutex
	generation uint64
}

// ReportOptions configures a ReportService. Nil caches disable caching.
type ReportOptions struct {
	Reports       cache.Cache[core.Report]
	Months        cache.Cache[[]core.MonthTotals]
	Clock         Clock
	DefaultPeriod core.Period
}

func NewReportService(store ReportStore, opts ReportOptions) *ReportService {
	if opts.DefaultPeriod == "" {
		opts.DefaultPeriod = core.PeriodCurrentMonth
	}
	return &ReportService{
		store:         store,
		reports:       opts.Reports,
		months:        opts.Months,
		clock:         opts.Clock,
		defaultPeriod: opts.DefaultPeriod,
	}
}

// Overview bundles the three reports over one range.
type Overview struct {
	Payees        core.Report        `json:"payees"`
	Categories    core.Report        `json:"categories"`
	IncomeExpense []core.MonthTotals `json:"income_expense"`
}

// ResolveRange turns request parameters into a date range relative to
// today, falling back to the configured default period.
func (s *ReportService) ResolveRange(period, from, to string) (core.DateRange, error) {
	return core.ResolveRange(period, from, to, s.defaultPeriod, s.clock.today())
}

func (s *ReportService) ByPayee(ctx context.Context, rng core.DateRange) (core.Report, error) {
	return s.grouped(ctx, ReportPayees, rng, func(t storage.TransactionDetail) (int64, string) {
		return t.PayeeID, t.PayeeName
	})
}

func (s *ReportService) ByCategory(ctx context.Context, rng core.DateRange) (core.Report, error) {
	return s.grouped(ctx, ReportCategories, rng, func(t storage.TransactionDetail) (int64, string) {
		return t.CategoryID, t.CategoryName
	})
}

// IncomeExpense totals deposits against withdrawals per calendar month,
// oldest first.
func (s *ReportService) IncomeExpense(ctx context.Context, rng core.DateRange) ([]core.MonthTotals, error) {
	key := cacheKey(ReportIncomeExpense, rng)
	if s.months != nil {
		if cached, ok := s.months.Get(key); ok {
			metrics.ReportCache.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.ReportCache.WithLabelValues("miss").Inc()
	}

	gen := s.currentGeneration()
	txs, err := s.store.ListTransactionDetails(ctx, storage.TransactionFilter{Range: rng})
	if err != nil {
		return nil, fmt.Errorf("income/expense report: %w", err)
	}

	type ym struct {
		year  int
		month int
	}
	byMonth := map[ym]*core.MonthTotals{}
	for _, t := range txs {
		if t.IsTransfer() {
			continue
		}
		k := ym{t.Date.Year(), int(t.Date.Month())}
		m, ok := byMonth[k]
		if !ok {
			m = &core.MonthTotals{Year: k.year, Month: t.Date.Month()}
			byMonth[k] = m
		}
		if t.Code == core.Deposit {
			m.Income = m.Income.Add(t.Amount)
		} else {
			m.Expenses = m.Expenses.Add(t.Amount)
		}
	}

	out := make([]core.MonthTotals, 0, len(byMonth))
	for _, m := range byMonth {
		m.Difference = m.Income.Sub(m.Expenses)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})

	if s.months != nil {
		s.cacheIfCurrent(gen, func() { s.months.Set(key, out) })
	}
	return out, nil
}

// Overview computes every report over rng concurrently.
func (s *ReportService) Overview(ctx context.Context, rng core.DateRange) (Overview, error) {
	var ov Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.ByPayee(gctx, rng)
		ov.Payees = r
		return err
	})
	g.Go(func() error {
		r, err := s.ByCategory(gctx, rng)
		ov.Categories = r
		return err
	})
	g.Go(func() error {
		r, err := s.IncomeExpense(gctx, rng)
		ov.IncomeExpense = r
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return ov, nil
}

// Invalidate drops every cached report. Reports still being computed from
// data read before the call are not cached.
func (s *ReportService) Invalidate() {
	s.mu.Lock()
	s.generation++
	if s.reports != nil {
		s.reports.Purge()
	}
	if s.months != nil {
		s.months.Purge()
	}
	s.mu.Unlock()
	metrics.ReportCacheInvalidations.Inc()
}

func (s *ReportService) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *ReportService) cacheIfCurrent(gen uint64, set func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen {
		set()
	}
}

// HandleChange is a ChangeHandler purging the cache when a change can
// alter report totals.
func (s *ReportService) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	if !msg.AffectsReports() {
		return nil
	}
	s.Invalidate()
	slog.DebugContext(ctx, "Report cache invalidated",
		"entity", msg.Entity,
		"action", msg.Action,
		"id", msg.ID)
	return nil
}

func cacheKey(kind string, rng core.DateRange) string {
	return kind + "|" + rng.String()
}

type groupFunc func(storage.TransactionDetail) (id int64, name string)

// grouped sums withdrawals and deposits per group. Transfers only move money
// between accounts and are left out.
func (s *ReportService) grouped(ctx context.Context, kind string, rng core.DateRange, group groupFunc) (core.Report, error) {
	key := cacheKey(kind, rng)
	if s.reports != nil {
		if cached, ok := s.reports.Get(key); ok {
			metrics.ReportCache.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.ReportCache.WithLabelValues("miss").Inc()
	}

	gen := s.currentGeneration()
	txs, err := s.store.ListTransactionDetails(ctx, storage.TransactionFilter{Range: rng})
	if err != nil {
		return core.Report{}, fmt.Errorf("%s report: %w", kind, err)
	}

	rows := map[string]*core.ReportRow{}
	for _, t := range txs {
		if t.IsTransfer() {
			continue
		}
		id, name := group(t)
		if name == "" {
			id, name = 0, UnassignedName
		}
		row, ok := rows[name]
		if !ok {
			row = &core.ReportRow{ID: id, Name: name}
			rows[name] = row
		}
		if t.Code == core.Deposit {
			row.Deposits = row.Deposits.Add(t.Amount)
		} else {
			row.Withdrawals = row.Withdrawals.Add(t.Amount)
		}
		row.Count++
	}

	report := core.Report{Kind: kind, Rows: make([]core.ReportRow, 0, len(rows))}
	if !rng.IsAll() {
		report.From, report.To = rng.Bounds()
	}
	for _, row := range rows {
		row.Total = row.Deposits.Sub(row.Withdrawals)
		report.Total = report.Total.Add(row.Total)
		report.Rows = append(report.Rows, *row)
	}
	sort.Slice(report.Rows, func(i, j int) bool { return report.Rows[i].Name < report.Rows[j].Name })

	if s.reports != nil {
		s.cacheIfCurrent(gen, func() { s.reports.Set(key, report) })
	}
	return report, nil
}
