package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmex/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "mmex.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

type fixture struct {
	checking, savings int64
	payee             int64
	bills, phone      int64
}

func seed(t *testing.T, repo *SQLiteRepository) fixture {
	t.Helper()
	ctx := context.Background()
	var f fixture
	var err error

	f.checking, err = repo.CreateAccount(ctx, core.Account{Name: "Checking", Type: "Checking", Status: core.AccountOpen,
		Favorite: true, InitialBalance: core.MustMoney("100.00"), CurrencyID: 1})
	require.NoError(t, err)
	f.savings, err = repo.CreateAccount(ctx, core.Account{Name: "Savings", Type: "Checking", Status: core.AccountClosed,
		InitialBalance: core.MustMoney("50.00"), CurrencyID: 1})
	require.NoError(t, err)

	f.bills, err = repo.CreateCategory(ctx, "Utilities")
	require.NoError(t, err)
	f.phone, err = repo.CreateSubcategory(ctx, f.bills, "Phone")
	require.NoError(t, err)

	f.payee, err = repo.CreatePayee(ctx, core.Payee{Name: "Telecom", CategoryID: f.bills})
	require.NoError(t, err)
	return f
}

func TestNewSQLiteRepository_MigratesAndSeeds(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	version, dirty, err := MigrationVersion(DSN(repo.Path()))
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), version)

	currencies, err := repo.ListCurrencies(ctx)
	require.NoError(t, err)
	require.Len(t, currencies, 1)
	assert.Equal(t, "EUR", currencies[0].Symbol)

	cats, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, cats)

	format, err := repo.GetInfo(ctx, InfoDateFormat, "")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultDateFormat, format)
}

func TestNewSQLiteRepository_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mmex.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	_, err = repo.CreateCategory(context.Background(), "Pets")
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()
	names, err := repo.CategoryNames(context.Background())
	require.NoError(t, err)
	found := false
	for _, n := range names.Categories {
		if n == "Pets" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestInfo(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	v, err := repo.GetInfo(ctx, "MISSING", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)

	require.NoError(t, repo.SetInfo(ctx, InfoUserName, "Ada"))
	require.NoError(t, repo.SetInfo(ctx, InfoUserName, "Grace"))
	v, err = repo.GetInfo(ctx, InfoUserName, "")
	require.NoError(t, err)
	assert.Equal(t, "Grace", v)
}

func TestTaxonomy(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	f := seed(t, repo)

	_, err := repo.CreatePayee(ctx, core.Payee{Name: "Telecom"})
	assert.True(t, errors.Is(err, core.ErrDuplicate))

	p, err := repo.GetPayee(ctx, f.payee)
	require.NoError(t, err)
	assert.Equal(t, f.bills, p.CategoryID)
	assert.Zero(t, p.SubcategoryID)

	_, err = repo.GetPayee(ctx, 999)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	names, err := repo.CategoryNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Utilities:Phone", names.Name(f.bills, f.phone))
	assert.Equal(t, "Utilities", names.Name(f.bills, 0))
}

func TestTransactions_FilterAndDetails(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	f := seed(t, repo)

	txs := []core.Transaction{
		{AccountID: f.checking, PayeeID: f.payee, Code: core.Withdrawal, Amount: core.MustMoney("20"),
			CategoryID: f.bills, SubcategoryID: f.phone, Date: core.NewDate(2024, 2, 29)},
		{AccountID: f.checking, PayeeID: f.payee, Code: core.Deposit, Amount: core.MustMoney("5.50"),
			Date: core.NewDate(2024, 3, 1)},
		{AccountID: f.checking, PayeeID: f.payee, Code: core.Withdrawal, Amount: core.MustMoney("7"),
			Status: core.StatusVoid, Date: core.NewDate(2024, 3, 2)},
		{AccountID: f.checking, ToAccountID: f.savings, Code: core.Transfer, Amount: core.MustMoney("10"),
			ToAmount: core.MustMoney("10"), Date: core.NewDate(2024, 3, 31)},
	}
	for _, tx := range txs {
		_, err := repo.CreateTransaction(ctx, tx)
		require.NoError(t, err)
	}

	march := core.MonthRange(2024, time.March)
	got, err := repo.ListTransactions(ctx, TransactionFilter{Range: march})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, core.NewDate(2024, 3, 31), got[0].Date, "newest first")

	got, err = repo.ListTransactions(ctx, TransactionFilter{Range: march, IncludeVoid: true})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = repo.ListTransactions(ctx, TransactionFilter{AccountID: f.savings})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	details, err := repo.ListTransactionDetails(ctx, TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, details, 3)
	assert.Equal(t, "Telecom", details[0].PayeeName)
	assert.Equal(t, "Utilities:Phone", details[0].CategoryName)
	assert.Equal(t, "", details[2].PayeeName)
}

func TestAccountBalances(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	f := seed(t, repo)

	_, err := repo.CreateTransaction(ctx, core.Transaction{AccountID: f.checking, ToAccountID: f.savings,
		Code: core.Transfer, Amount: core.MustMoney("30"), ToAmount: core.MustMoney("30"), Date: core.NewDate(2024, 1, 1)})
	require.NoError(t, err)
	_, err = repo.CreateTransaction(ctx, core.Transaction{AccountID: f.checking, PayeeID: f.payee,
		Code: core.Withdrawal, Amount: core.MustMoney("12.25"), Date: core.NewDate(2024, 1, 2)})
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter AccountFilter
		want   map[string]string
	}{
		{"all", AccountFilter{}, map[string]string{"Checking": "57.75", "Savings": "80.00"}},
		{"open only", AccountFilter{OpenOnly: true}, map[string]string{"Checking": "57.75"}},
		{"favorite wins", AccountFilter{OpenOnly: true, FavoriteOnly: true}, map[string]string{"Checking": "57.75"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances, err := repo.AccountBalances(ctx, tt.filter)
			require.NoError(t, err)
			got := map[string]string{}
			for _, b := range balances {
				got[b.Account.Name] = b.BaseBalance.String()
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommitOccurrence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	f := seed(t, repo)

	rt := core.RecurringTransaction{
		AccountID: f.checking, PayeeID: f.payee, Code: core.Withdrawal, Amount: core.MustMoney("49.99"),
		CategoryID: f.bills, DueDate: core.NewDate(2024, 1, 31), PaymentDate: core.NewDate(2024, 1, 31),
		Repeats: core.NewRepeatCode(core.Monthly, core.AutoExecuteSilent), PaymentsLeft: 2,
	}
	id, err := repo.CreateRecurring(ctx, rt)
	require.NoError(t, err)

	current, err := repo.GetRecurring(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rt.Repeats, current.Repeats)

	next, finished, err := current.Advance()
	require.NoError(t, err)
	require.False(t, finished)
	tx := current.Instance()

	txID, err := repo.CommitOccurrence(ctx, Occurrence{Current: current, Next: next, Entered: &tx})
	require.NoError(t, err)
	assert.NotZero(t, txID)

	stored, err := repo.GetRecurring(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2024, 2, 29), stored.PaymentDate)
	assert.Equal(t, 1, stored.PaymentsLeft)

	t.Run("stale read conflicts", func(t *testing.T) {
		_, err := repo.CommitOccurrence(ctx, Occurrence{Current: current, Next: next, Entered: &tx})
		assert.True(t, errors.Is(err, core.ErrConflict))

		txs, err := repo.ListTransactions(ctx, TransactionFilter{})
		require.NoError(t, err)
		assert.Len(t, txs, 1, "conflict must roll back the insert")
	})

	t.Run("last payment removes template", func(t *testing.T) {
		_, finished, err := stored.Advance()
		require.NoError(t, err)
		require.True(t, finished)

		_, err = repo.CommitOccurrence(ctx, Occurrence{Current: stored, Finished: true})
		require.NoError(t, err)
		_, err = repo.GetRecurring(ctx, id)
		assert.True(t, errors.Is(err, core.ErrNotFound))
	})
}

func TestListDueRecurring(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	f := seed(t, repo)

	for _, d := range []time.Time{core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 15), core.NewDate(2024, 3, 16)} {
		_, err := repo.CreateRecurring(ctx, core.RecurringTransaction{AccountID: f.checking, PayeeID: f.payee,
			Code: core.Withdrawal, Amount: core.MustMoney("1"), DueDate: d, PaymentDate: d,
			Repeats: core.NewRepeatCode(core.Weekly, core.AutoExecuteNone), PaymentsLeft: core.UnlimitedPayments})
		require.NoError(t, err)
	}

	due, err := repo.ListDueRecurring(ctx, core.NewDate(2024, 3, 15))
	require.NoError(t, err)
	assert.Len(t, due, 2)

	all, err := repo.ListRecurring(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestBudgets(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	f := seed(t, repo)

	id, err := repo.CreateBudget(ctx, "2024")
	require.NoError(t, err)
	_, err = repo.CreateBudget(ctx, "2024")
	assert.True(t, errors.Is(err, core.ErrDuplicate))

	entry := core.BudgetEntry{BudgetID: id, CategoryID: f.bills, Frequency: core.BudgetMonthly, Amount: core.MustMoney("40")}
	first, err := repo.SetBudgetEntry(ctx, entry)
	require.NoError(t, err)
	entry.Amount = core.MustMoney("45")
	second, err := repo.SetBudgetEntry(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, first, second, "upsert keeps the row")

	copyID, err := repo.CopyBudget(ctx, id, "2025")
	require.NoError(t, err)
	entries, err := repo.ListBudgetEntries(ctx, copyID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "45.00", entries[0].Amount.String())
	assert.Equal(t, core.BudgetMonthly, entries[0].Frequency)

	_, err = repo.CopyBudget(ctx, 999, "2026")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	require.NoError(t, repo.RenameBudget(ctx, copyID, "2025-01"))
	budgets, err := repo.ListBudgets(ctx)
	require.NoError(t, err)
	require.Len(t, budgets, 2)
	assert.Equal(t, "2025-01", budgets[1].Name)

	require.NoError(t, repo.DeleteBudget(ctx, copyID))
	entries, err = repo.ListBudgetEntries(ctx, copyID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.True(t, errors.Is(repo.DeleteBudget(ctx, copyID), core.ErrNotFound))
}
