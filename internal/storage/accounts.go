package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"mmex/internal/core"
)

const accountColumns = `a.id, a.name, a.type, a.status, a.favorite, a.initial_balance, COALESCE(a.currency_id, 0)`

func scanAccount(s scanner) (core.Account, error) {
	var a core.Account
	var status string
	err := s.Scan(&a.ID, &a.Name, &a.Type, &status, &a.Favorite, &a.InitialBalance, &a.CurrencyID)
	a.Status = core.AccountStatus(status)
	return a, err
}

func (r *SQLiteRepository) CreateCurrency(ctx context.Context, c core.Currency) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO currencies (name, symbol, base_conv_rate) VALUES (?, ?, ?)`,
		c.Name, c.Symbol, c.BaseConvRate.String())
	if err != nil {
		return 0, translate(err, "create currency")
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListCurrencies(ctx context.Context) ([]core.Currency, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, symbol, base_conv_rate FROM currencies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	defer rows.Close()

	var out []core.Currency
	for rows.Next() {
		var c core.Currency
		if err := rows.Scan(&c.ID, &c.Name, &c.Symbol, &c.BaseConvRate); err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (name, type, status, favorite, initial_balance, currency_id) VALUES (?, ?, ?, ?, ?, ?)`,
		a.Name, a.Type, string(a.Status), a.Favorite, a.InitialBalance, nullID(a.CurrencyID))
	if err != nil {
		return 0, translate(err, "create account")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	slog.InfoContext(ctx, "Account saved", "id", id, "name", a.Name)
	return id, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts a WHERE a.id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, translate(err, fmt.Sprintf("get account %d", id))
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts a ORDER BY a.name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AccountFilter restricts the accounts included in a balance summary.
// FavoriteOnly takes precedence over OpenOnly.
type AccountFilter struct {
	OpenOnly     bool
	FavoriteOnly bool
}

// AccountBalances returns every account matching the filter with its
// initial balance plus the signed sum of its non-void transactions, and the
// base conversion rate of its currency.
func (r *SQLiteRepository) AccountBalances(ctx context.Context, f AccountFilter) ([]core.AccountBalance, error) {
	query := `SELECT ` + accountColumns + `, COALESCE(c.base_conv_rate, '1') FROM accounts a
		LEFT JOIN currencies c ON c.id = a.currency_id`
	switch {
	case f.FavoriteOnly:
		query += ` WHERE a.favorite = 1`
	case f.OpenOnly:
		query += ` WHERE LOWER(a.status) = 'open'`
	}
	query += ` ORDER BY a.name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list account balances: %w", err)
	}
	type accountRate struct {
		account core.Account
		rate    decimal.Decimal
	}
	var accounts []accountRate
	for rows.Next() {
		var a core.Account
		var status string
		var rate decimal.Decimal
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &status, &a.Favorite, &a.InitialBalance, &a.CurrencyID, &rate); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan account balance: %w", err)
		}
		a.Status = core.AccountStatus(status)
		accounts = append(accounts, accountRate{a, rate})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list account balances: %w", err)
	}

	out := make([]core.AccountBalance, 0, len(accounts))
	for _, ar := range accounts {
		balance, err := r.accountMovement(ctx, ar.account.ID)
		if err != nil {
			return nil, err
		}
		balance = balance.Add(ar.account.InitialBalance)
		out = append(out, core.AccountBalance{
			Account:     ar.account,
			Balance:     balance,
			BaseBalance: balance.Mul(ar.rate),
		})
	}
	return out, nil
}

func (r *SQLiteRepository) accountMovement(ctx context.Context, accountID int64) (core.Money, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions t
		WHERE (t.account_id = ? OR t.to_account_id = ?) AND t.status <> 'V'`, accountID, accountID)
	if err != nil {
		return core.Zero, fmt.Errorf("account %d movements: %w", accountID, err)
	}
	defer rows.Close()

	total := core.Zero
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return core.Zero, fmt.Errorf("scan movement: %w", err)
		}
		total = total.Add(t.Signed(accountID))
	}
	return total, rows.Err()
}

// SetAccountStatus opens or closes an account.
func (r *SQLiteRepository) SetAccountStatus(ctx context.Context, id int64, status core.AccountStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return translate(err, "update account status")
	}
	return requireAffected(res, fmt.Sprintf("update account %d", id))
}
