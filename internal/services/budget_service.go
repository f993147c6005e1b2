package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"mmex/internal/amqp"
	"mmex/internal/core"
	"mmex/internal/storage"
)

// BudgetService manages yearly and monthly budgets.
type BudgetService struct {
	store    BudgetStore
	reports  ReportStore
	notifier *Notifier
}

func NewBudgetService(store BudgetStore, reports ReportStore, notifier *Notifier) *BudgetService {
	return &BudgetService{store: store, reports: reports, notifier: notifier}
}

// List returns budgets ordered by name, which puts each year before its
// months.
func (s *BudgetService) List(ctx context.Context) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx)
}

// Create adds the budget for year, or for one month of it when month is
// between 1 and 12.
func (s *BudgetService) Create(ctx context.Context, year, month int) (core.Budget, error) {
	name, err := core.BudgetName(year, month)
	if err != nil {
		return core.Budget{}, err
	}
	id, err := s.store.CreateBudget(ctx, name)
	if err != nil {
		return core.Budget{}, err
	}
	s.notifier.changed(ctx, amqp.EntityBudget, amqp.ActionCreated, id)
	return core.Budget{ID: id, Name: name}, nil
}

func (s *BudgetService) Rename(ctx context.Context, id int64, name string) (core.Budget, error) {
	name, err := core.CanonicalBudgetName(name)
	if err != nil {
		return core.Budget{}, err
	}
	if err := s.store.RenameBudget(ctx, id, name); err != nil {
		return core.Budget{}, err
	}
	s.notifier.changed(ctx, amqp.EntityBudget, amqp.ActionUpdated, id)
	return core.Budget{ID: id, Name: name}, nil
}

func (s *BudgetService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteBudget(ctx, id); err != nil {
		return err
	}
	s.notifier.changed(ctx, amqp.EntityBudget, amqp.ActionDeleted, id)
	return nil
}

// Copy creates a budget named newName with every entry of the source.
func (s *BudgetService) Copy(ctx context.Context, sourceID int64, newName string) (core.Budget, error) {
	newName, err := core.CanonicalBudgetName(newName)
	if err != nil {
		return core.Budget{}, err
	}
	id, err := s.store.CopyBudget(ctx, sourceID, newName)
	if err != nil {
		return core.Budget{}, err
	}
	s.notifier.changed(ctx, amqp.EntityBudget, amqp.ActionCreated, id)
	return core.Budget{ID: id, Name: newName}, nil
}

func (s *BudgetService) SetEntry(ctx context.Context, e core.BudgetEntry) (core.BudgetEntry, error) {
	if err := e.Validate(); err != nil {
		return core.BudgetEntry{}, err
	}
	if _, err := s.store.GetBudget(ctx, e.BudgetID); err != nil {
		return core.BudgetEntry{}, err
	}
	id, err := s.store.SetBudgetEntry(ctx, e)
	if err != nil {
		return core.BudgetEntry{}, err
	}
	e.ID = id
	s.notifier.changed(ctx, amqp.EntityBudget, amqp.ActionUpdated, e.BudgetID)
	return e, nil
}

func (s *BudgetService) Entries(ctx context.Context, budgetID int64) ([]core.BudgetEntry, error) {
	if _, err := s.store.GetBudget(ctx, budgetID); err != nil {
		return nil, err
	}
	return s.store.ListBudgetEntries(ctx, budgetID)
}

// DeleteEntry removes one estimate from a budget. An entry belonging to
// another budget reads as not found.
func (s *BudgetService) DeleteEntry(ctx context.Context, budgetID, entryID int64) error {
	entries, err := s.Entries(ctx, budgetID)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(entries, func(e core.BudgetEntry) bool { return e.ID == entryID }) {
		return fmt.Errorf("budget %d entry %d: %w", budgetID, entryID, core.ErrNotFound)
	}
	if err := s.store.DeleteBudgetEntry(ctx, entryID); err != nil {
		return err
	}
	s.notifier.changed(ctx, amqp.EntityBudget, amqp.ActionUpdated, budgetID)
	return nil
}

type categoryKey struct{ cat, sub int64 }

// Performance compares each entry's estimate with the net amount
// (deposits minus withdrawals) actually booked to its category over the
// budget's year or month. Transfers are not counted.
func (s *BudgetService) Performance(ctx context.Context, budgetID int64) (core.BudgetPerformance, error) {
	budget, err := s.store.GetBudget(ctx, budgetID)
	if err != nil {
		return core.BudgetPerformance{}, err
	}
	rng, err := budget.Range()
	if err != nil {
		return core.BudgetPerformance{}, err
	}
	entries, err := s.store.ListBudgetEntries(ctx, budgetID)
	if err != nil {
		return core.BudgetPerformance{}, err
	}
	names, err := s.reports.CategoryNames(ctx)
	if err != nil {
		return core.BudgetPerformance{}, err
	}
	txs, err := s.reports.ListTransactionDetails(ctx, storage.TransactionFilter{Range: rng})
	if err != nil {
		return core.BudgetPerformance{}, err
	}

	actual := map[categoryKey]core.Money{}
	for _, t := range txs {
		if t.IsTransfer() || t.CategoryID == 0 {
			continue
		}
		k := categoryKey{t.CategoryID, t.SubcategoryID}
		amount := t.Amount
		if t.Code == core.Withdrawal {
			amount = amount.Neg()
		}
		actual[k] = actual[k].Add(amount)
	}

	from, to := rng.Bounds()
	perf := core.BudgetPerformance{Budget: budget, From: from, To: to, Lines: make([]core.BudgetLine, 0, len(entries))}
	monthly := budget.IsMonthly()
	for _, e := range entries {
		estimated := e.Estimate(monthly)
		spent := actual[categoryKey{e.CategoryID, e.SubcategoryID}]
		perf.Lines = append(perf.Lines, core.BudgetLine{
			CategoryID:    e.CategoryID,
			SubcategoryID: e.SubcategoryID,
			Name:          names.Name(e.CategoryID, e.SubcategoryID),
			Estimated:     estimated,
			Actual:        spent,
			Difference:    spent.Sub(estimated),
		})
	}

	slog.DebugContext(ctx, "Budget performance computed",
		"budget_id", budgetID,
		"range", fmt.Sprintf("%s..%s", from, to),
		"lines", len(perf.Lines))
	return perf, nil
}
