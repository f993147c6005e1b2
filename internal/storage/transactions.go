package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mmex/internal/core"
)

const transactionColumns = `t.id, t.account_id, COALESCE(t.to_account_id, 0), COALESCE(t.payee_id, 0), t.code,
	t.amount, t.to_amount, t.status, t.number, t.notes, COALESCE(t.category_id, 0), COALESCE(t.subcategory_id, 0), t.date`

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t            core.Transaction
		code, status string
		date         string
	)
	if err := s.Scan(&t.ID, &t.AccountID, &t.ToAccountID, &t.PayeeID, &code,
		&t.Amount, &t.ToAmount, &status, &t.Number, &t.Notes, &t.CategoryID, &t.SubcategoryID, &date); err != nil {
		return t, err
	}
	t.Code = core.TransactionCode(code)
	t.Status = core.TransactionStatus(status)
	var err error
	t.Date, err = parseDate(date)
	return t, err
}

func insertTransaction(ctx context.Context, ex execer, t core.Transaction) (int64, error) {
	res, err := ex.ExecContext(ctx, `INSERT INTO transactions
		(account_id, to_account_id, payee_id, code, amount, to_amount, status, number, notes, category_id, subcategory_id, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.AccountID, nullID(t.ToAccountID), nullID(t.PayeeID), string(t.Code),
		t.Amount, t.ToAmount, string(t.Status), t.Number, t.Notes,
		nullID(t.CategoryID), nullID(t.SubcategoryID), formatDate(t.Date))
	if err != nil {
		return 0, translate(err, "insert transaction")
	}
	return res.LastInsertId()
}

// CreateTransaction stores an entered transaction.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	id, err := insertTransaction(ctx, r.db, t)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"account_id", t.AccountID,
		"code", t.Code,
		"amount", t.Amount.String(),
		"date", formatDate(t.Date))
	return id, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions t WHERE t.id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, translate(err, fmt.Sprintf("get transaction %d", id))
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return translate(err, "delete transaction")
	}
	return requireAffected(res, fmt.Sprintf("delete transaction %d", id))
}

// TransactionFilter selects transactions for listings and reports. The
// zero value matches everything.
type TransactionFilter struct {
	Range       core.DateRange
	AccountID   int64
	IncludeVoid bool
	Limit       int
}

func (f TransactionFilter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if !f.Range.IsAll() {
		from, to := f.Range.Bounds()
		clauses = append(clauses, "t.date >= ? AND t.date <= ?")
		args = append(args, from, to)
	}
	if f.AccountID > 0 {
		clauses = append(clauses, "(t.account_id = ? OR t.to_account_id = ?)")
		args = append(args, f.AccountID, f.AccountID)
	}
	if !f.IncludeVoid {
		clauses = append(clauses, "t.status <> 'V'")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListTransactions returns matching transactions, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	where, args := f.where()
	query := `SELECT ` + transactionColumns + ` FROM transactions t` + where + ` ORDER BY t.date DESC, t.id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TransactionDetail is a transaction with the names reports group by.
type TransactionDetail struct {
	core.Transaction
	PayeeName    string
	CategoryName string
}

// ListTransactionDetails joins payee and category names onto the matching
// transactions, oldest first.
func (r *SQLiteRepository) ListTransactionDetails(ctx context.Context, f TransactionFilter) ([]TransactionDetail, error) {
	where, args := f.where()
	query := `SELECT ` + transactionColumns + `, COALESCE(p.name, ''),
		COALESCE(c.name, '') || CASE WHEN s.name IS NULL THEN '' ELSE ':' || s.name END
		FROM transactions t
		LEFT JOIN payees p ON p.id = t.payee_id
		LEFT JOIN categories c ON c.id = t.category_id
		LEFT JOIN subcategories s ON s.id = t.subcategory_id` + where + ` ORDER BY t.date, t.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transaction details: %w", err)
	}
	defer rows.Close()

	var out []TransactionDetail
	for rows.Next() {
		var (
			d            TransactionDetail
			code, status string
			date         string
		)
		if err := rows.Scan(&d.ID, &d.AccountID, &d.ToAccountID, &d.PayeeID, &code,
			&d.Amount, &d.ToAmount, &status, &d.Number, &d.Notes, &d.CategoryID, &d.SubcategoryID, &date,
			&d.PayeeName, &d.CategoryName); err != nil {
			return nil, fmt.Errorf("scan transaction detail: %w", err)
		}
		d.Code = core.TransactionCode(code)
		d.Status = core.TransactionStatus(status)
		if d.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
