// Package services holds the MMEX business operations on top of storage.
package services

import (
	"context"
	"time"

	"mmex/internal/amqp"
	"mmex/internal/core"
	"mmex/internal/storage"
)

// RecurringStore persists recurring templates.
type RecurringStore interface {
	CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (int64, error)
	UpdateRecurring(ctx context.Context, rt core.RecurringTransaction) error
	GetRecurring(ctx context.Context, id int64) (core.RecurringTransaction, error)
	DeleteRecurring(ctx context.Context, id int64) error
	ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error)
	ListDueRecurring(ctx context.Context, today time.Time) ([]core.RecurringTransaction, error)
	CommitOccurrence(ctx context.Context, o storage.Occurrence) (int64, error)
}

type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error)
}

type BudgetStore interface {
	ListBudgets(ctx context.Context) ([]core.Budget, error)
	GetBudget(ctx context.Context, id int64) (core.Budget, error)
	CreateBudget(ctx context.Context, name string) (int64, error)
	RenameBudget(ctx context.Context, id int64, name string) error
	DeleteBudget(ctx context.Context, id int64) error
	CopyBudget(ctx context.Context, sourceID int64, newName string) (int64, error)
	SetBudgetEntry(ctx context.Context, e core.BudgetEntry) (int64, error)
	ListBudgetEntries(ctx context.Context, budgetID int64) ([]core.BudgetEntry, error)
	DeleteBudgetEntry(ctx context.Context, id int64) error
}

// ReportStore supplies the joined rows reports aggregate.
type ReportStore interface {
	ListTransactionDetails(ctx context.Context, f storage.TransactionFilter) ([]storage.TransactionDetail, error)
	CategoryNames(ctx context.Context) (storage.CategoryNames, error)
}

type AccountStore interface {
	AccountBalances(ctx context.Context, f storage.AccountFilter) ([]core.AccountBalance, error)
}

// ChangePublisher announces data changes. *amqp.Client implements it.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// Clock returns the current time; services take one so tests can pin today.
type Clock func() time.Time

func (c Clock) today() time.Time {
	if c == nil {
		return core.DateOf(time.Now())
	}
	return core.DateOf(c())
}

// CatalogStore holds accounts, payees, currencies, the category tree and
// the database-wide settings.
type CatalogStore interface {
	CreateAccount(ctx context.Context, a core.Account) (int64, error)
	GetAccount(ctx context.Context, id int64) (core.Account, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)
	SetAccountStatus(ctx context.Context, id int64, status core.AccountStatus) error
	CreatePayee(ctx context.Context, p core.Payee) (int64, error)
	GetPayee(ctx context.Context, id int64) (core.Payee, error)
	ListPayees(ctx context.Context) ([]core.Payee, error)
	CreateCategory(ctx context.Context, name string) (int64, error)
	CreateSubcategory(ctx context.Context, categoryID int64, name string) (int64, error)
	DeleteCategory(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCurrency(ctx context.Context, c core.Currency) (int64, error)
	ListCurrencies(ctx context.Context) ([]core.Currency, error)
	GetInfo(ctx context.Context, name, def string) (string, error)
	SetInfo(ctx context.Context, name, value string) error
}
