package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"mmex/internal/core"
)

const recurringColumns = `id, account_id, COALESCE(to_account_id, 0), COALESCE(payee_id, 0), code,
	amount, to_amount, status, number, notes, COALESCE(category_id, 0), COALESCE(subcategory_id, 0),
	due_date, payment_date, repeats, payments_left`

func scanRecurring(s scanner) (core.RecurringTransaction, error) {
	var (
		rt               core.RecurringTransaction
		code, status     string
		dueDate, payDate string
		repeats          sql.NullInt64
	)
	if err := s.Scan(&rt.ID, &rt.AccountID, &rt.ToAccountID, &rt.PayeeID, &code,
		&rt.Amount, &rt.ToAmount, &status, &rt.Number, &rt.Notes, &rt.CategoryID, &rt.SubcategoryID,
		&dueDate, &payDate, &repeats, &rt.PaymentsLeft); err != nil {
		return rt, err
	}
	rt.Code = core.TransactionCode(code)
	rt.Status = core.TransactionStatus(status)
	// A missing repeat code means a one-off payment.
	rt.Repeats = core.RepeatCode(repeats.Int64)

	var err error
	if rt.DueDate, err = parseDate(dueDate); err != nil {
		return rt, err
	}
	if rt.PaymentDate, err = parseDate(payDate); err != nil {
		return rt, err
	}
	return rt, nil
}

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO recurring_transactions
		(account_id, to_account_id, payee_id, code, amount, to_amount, status, number, notes,
		 category_id, subcategory_id, due_date, payment_date, repeats, payments_left)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.AccountID, nullID(rt.ToAccountID), nullID(rt.PayeeID), string(rt.Code),
		rt.Amount, rt.ToAmount, string(rt.Status), rt.Number, rt.Notes,
		nullID(rt.CategoryID), nullID(rt.SubcategoryID),
		formatDate(rt.DueDate), formatDate(rt.PaymentDate), int(rt.Repeats), rt.PaymentsLeft)
	if err != nil {
		return 0, translate(err, "create recurring transaction")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create recurring transaction: %w", err)
	}
	slog.InfoContext(ctx, "Recurring transaction saved",
		"id", id,
		"repeats", int(rt.Repeats),
		"frequency", rt.Repeats.String(),
		"payment_date", formatDate(rt.PaymentDate))
	return id, nil
}

func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, rt core.RecurringTransaction) error {
	res, err := r.db.ExecContext(ctx, `UPDATE recurring_transactions SET
		account_id = ?, to_account_id = ?, payee_id = ?, code = ?, amount = ?, to_amount = ?,
		status = ?, number = ?, notes = ?, category_id = ?, subcategory_id = ?,
		due_date = ?, payment_date = ?, repeats = ?, payments_left = ?
		WHERE id = ?`,
		rt.AccountID, nullID(rt.ToAccountID), nullID(rt.PayeeID), string(rt.Code),
		rt.Amount, rt.ToAmount, string(rt.Status), rt.Number, rt.Notes,
		nullID(rt.CategoryID), nullID(rt.SubcategoryID),
		formatDate(rt.DueDate), formatDate(rt.PaymentDate), int(rt.Repeats), rt.PaymentsLeft,
		rt.ID)
	if err != nil {
		return translate(err, "update recurring transaction")
	}
	return requireAffected(res, fmt.Sprintf("update recurring transaction %d", rt.ID))
}

func (r *SQLiteRepository) GetRecurring(ctx context.Context, id int64) (core.RecurringTransaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recurringColumns+` FROM recurring_transactions WHERE id = ?`, id)
	rt, err := scanRecurring(row)
	if err != nil {
		return core.RecurringTransaction{}, translate(err, fmt.Sprintf("get recurring transaction %d", id))
	}
	return rt, nil
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = ?`, id)
	if err != nil {
		return translate(err, "delete recurring transaction")
	}
	return requireAffected(res, fmt.Sprintf("delete recurring transaction %d", id))
}

// ListRecurring returns every template ordered by payment date.
func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	return r.queryRecurring(ctx, `SELECT `+recurringColumns+` FROM recurring_transactions ORDER BY payment_date, id`)
}

// ListDueRecurring returns the templates whose payment date is on or
// before today.
func (r *SQLiteRepository) ListDueRecurring(ctx context.Context, today time.Time) ([]core.RecurringTransaction, error) {
	return r.queryRecurring(ctx, `SELECT `+recurringColumns+` FROM recurring_transactions
		WHERE payment_date <= ? ORDER BY payment_date, id`, formatDate(today))
}

func (r *SQLiteRepository) queryRecurring(ctx context.Context, query string, args ...any) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTransaction
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring transaction: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// Occurrence describes one step of a recurring template: the template as
// read, what it becomes, and the transaction to enter (nil when skipping).
type Occurrence struct {
	Current  core.RecurringTransaction
	Next     core.RecurringTransaction
	Finished bool
	Entered  *core.Transaction
}

// CommitOccurrence atomically enters the transaction (if any) and advances
// or removes the template. The template must still have the payment date
// it was read with, otherwise core.ErrConflict is returned and nothing is
// written.
func (r *SQLiteRepository) CommitOccurrence(ctx context.Context, o Occurrence) (int64, error) {
	var txID int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if o.Entered != nil {
			id, err := insertTransaction(ctx, tx, *o.Entered)
			if err != nil {
				return err
			}
			txID = id
		}

		var (
			res sql.Result
			err error
		)
		if o.Finished {
			res, err = tx.ExecContext(ctx,
				`DELETE FROM recurring_transactions WHERE id = ? AND payment_date = ?`,
				o.Current.ID, formatDate(o.Current.PaymentDate))
		} else {
			res, err = tx.ExecContext(ctx, `UPDATE recurring_transactions
				SET due_date = ?, payment_date = ?, payments_left = ?
				WHERE id = ? AND payment_date = ?`,
				formatDate(o.Next.DueDate), formatDate(o.Next.PaymentDate), o.Next.PaymentsLeft,
				o.Current.ID, formatDate(o.Current.PaymentDate))
		}
		if err != nil {
			return translate(err, "advance recurring transaction")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("advance recurring transaction: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("recurring transaction %d changed concurrently: %w", o.Current.ID, core.ErrConflict)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return txID, nil
}
