package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"mmex/internal/core"
)

// ListBudgets returns budgets ordered by name, which sorts them by period.
func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM budgets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	var b core.Budget
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM budgets WHERE id = ?`, id).Scan(&b.ID, &b.Name)
	if err != nil {
		return core.Budget{}, translate(err, fmt.Sprintf("get budget %d", id))
	}
	return b, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO budgets (name) VALUES (?)`, name)
	if err != nil {
		return 0, translate(err, fmt.Sprintf("create budget %q", name))
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) RenameBudget(ctx context.Context, id int64, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE budgets SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return translate(err, fmt.Sprintf("rename budget %d", id))
	}
	return requireAffected(res, fmt.Sprintf("rename budget %d", id))
}

// DeleteBudget removes the budget and, through the cascade, its entries.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return translate(err, fmt.Sprintf("delete budget %d", id))
	}
	return requireAffected(res, fmt.Sprintf("delete budget %d", id))
}

// CopyBudget creates a budget named newName holding a copy of every entry
// of the source budget.
func (r *SQLiteRepository) CopyBudget(ctx context.Context, sourceID int64, newName string) (int64, error) {
	var newID int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM budgets WHERE id = ?`, sourceID).Scan(&exists); err != nil {
			return fmt.Errorf("check budget %d: %w", sourceID, err)
		}
		if exists == 0 {
			return fmt.Errorf("copy budget %d: %w", sourceID, core.ErrNotFound)
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO budgets (name) VALUES (?)`, newName)
		if err != nil {
			return translate(err, fmt.Sprintf("create budget %q", newName))
		}
		if newID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("create budget %q: %w", newName, err)
		}

		res, err = tx.ExecContext(ctx, `INSERT INTO budget_entries (budget_id, category_id, subcategory_id, frequency, amount)
			SELECT ?, category_id, subcategory_id, frequency, amount FROM budget_entries WHERE budget_id = ?`,
			newID, sourceID)
		if err != nil {
			return translate(err, "copy budget entries")
		}
		copied, _ := res.RowsAffected()
		slog.InfoContext(ctx, "Budget copied",
			"source_id", sourceID,
			"budget_id", newID,
			"name", newName,
			"entries", copied)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newID, nil
}

// SetBudgetEntry inserts or replaces the estimate for a category.
func (r *SQLiteRepository) SetBudgetEntry(ctx context.Context, e core.BudgetEntry) (int64, error) {
	_, err := r.db.ExecContext(ctx, `INSERT INTO budget_entries (budget_id, category_id, subcategory_id, frequency, amount)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (budget_id, category_id, subcategory_id)
		DO UPDATE SET frequency = excluded.frequency, amount = excluded.amount`,
		e.BudgetID, e.CategoryID, e.SubcategoryID, string(e.Frequency), e.Amount)
	if err != nil {
		return 0, translate(err, "set budget entry")
	}
	var id int64
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM budget_entries WHERE budget_id = ? AND category_id = ? AND subcategory_id = ?`,
		e.BudgetID, e.CategoryID, e.SubcategoryID).Scan(&id)
	if err != nil {
		return 0, translate(err, "set budget entry")
	}
	return id, nil
}

func (r *SQLiteRepository) ListBudgetEntries(ctx context.Context, budgetID int64) ([]core.BudgetEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, budget_id, category_id, subcategory_id, frequency, amount
		FROM budget_entries WHERE budget_id = ? ORDER BY category_id, subcategory_id`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("list budget entries: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetEntry
	for rows.Next() {
		var (
			e    core.BudgetEntry
			freq string
		)
		if err := rows.Scan(&e.ID, &e.BudgetID, &e.CategoryID, &e.SubcategoryID, &freq, &e.Amount); err != nil {
			return nil, fmt.Errorf("scan budget entry: %w", err)
		}
		e.Frequency = core.BudgetFrequency(freq)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteBudgetEntry(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budget_entries WHERE id = ?`, id)
	if err != nil {
		return translate(err, "delete budget entry")
	}
	return requireAffected(res, fmt.Sprintf("delete budget entry %d", id))
}
