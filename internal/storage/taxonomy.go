package storage

import (
	"context"
	"fmt"

	"mmex/internal/core"
)

func (r *SQLiteRepository) CreatePayee(ctx context.Context, p core.Payee) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payees (name, category_id, subcategory_id) VALUES (?, ?, ?)`,
		p.Name, nullID(p.CategoryID), nullID(p.SubcategoryID))
	if err != nil {
		return 0, translate(err, "create payee")
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetPayee(ctx context.Context, id int64) (core.Payee, error) {
	var p core.Payee
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(category_id, 0), COALESCE(subcategory_id, 0) FROM payees WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.CategoryID, &p.SubcategoryID)
	if err != nil {
		return core.Payee{}, translate(err, fmt.Sprintf("get payee %d", id))
	}
	return p, nil
}

func (r *SQLiteRepository) ListPayees(ctx context.Context) ([]core.Payee, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(category_id, 0), COALESCE(subcategory_id, 0) FROM payees ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list payees: %w", err)
	}
	defer rows.Close()

	var out []core.Payee
	for rows.Next() {
		var p core.Payee
		if err := rows.Scan(&p.ID, &p.Name, &p.CategoryID, &p.SubcategoryID); err != nil {
			return nil, fmt.Errorf("scan payee: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return 0, translate(err, "create category")
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) CreateSubcategory(ctx context.Context, categoryID int64, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO subcategories (category_id, name) VALUES (?, ?)`, categoryID, name)
	if err != nil {
		return 0, translate(err, "create subcategory")
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return translate(err, "delete category")
	}
	return requireAffected(res, fmt.Sprintf("delete category %d", id))
}

// ListCategories returns categories with their subcategories nested.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT c.id, c.name, s.id, s.name
		FROM categories c
		LEFT JOIN subcategories s ON s.category_id = c.id
		ORDER BY c.name COLLATE NOCASE, s.name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	index := map[int64]int{}
	for rows.Next() {
		var (
			catID   int64
			catName string
			subID   *int64
			subName *string
		)
		if err := rows.Scan(&catID, &catName, &subID, &subName); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		i, ok := index[catID]
		if !ok {
			out = append(out, core.Category{ID: catID, Name: catName})
			i = len(out) - 1
			index[catID] = i
		}
		if subID != nil && subName != nil {
			out[i].Subcategories = append(out[i].Subcategories, core.Subcategory{ID: *subID, CategoryID: catID, Name: *subName})
		}
	}
	return out, rows.Err()
}

// CategoryNames maps category and subcategory ids to display names.
type CategoryNames struct {
	Categories    map[int64]string
	Subcategories map[int64]string
}

// Name renders "Category:Subcategory", or just the category name.
func (n CategoryNames) Name(categoryID, subcategoryID int64) string {
	name := n.Categories[categoryID]
	if sub, ok := n.Subcategories[subcategoryID]; ok && subcategoryID > 0 {
		return name + ":" + sub
	}
	return name
}

func (r *SQLiteRepository) CategoryNames(ctx context.Context) (CategoryNames, error) {
	cats, err := r.ListCategories(ctx)
	if err != nil {
		return CategoryNames{}, err
	}
	names := CategoryNames{Categories: map[int64]string{}, Subcategories: map[int64]string{}}
	for _, c := range cats {
		names.Categories[c.ID] = c.Name
		for _, s := range c.Subcategories {
			names.Subcategories[s.ID] = s.Name
		}
	}
	return names, nil
}
