package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Keys of the info table.
const (
	InfoUserName       = "USERNAME"
	InfoDateFormat     = "DATEFORMAT"
	InfoBaseCurrencyID = "BASECURRENCYID"
)

// GetInfo reads a setting from the info table. Missing keys return def.
func (r *SQLiteRepository) GetInfo(ctx context.Context, name, def string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM info WHERE name = ?`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return def, nil
		}
		return "", fmt.Errorf("get info %s: %w", name, err)
	}
	return value, nil
}

func (r *SQLiteRepository) SetInfo(ctx context.Context, name, value string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO info (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value`, name, value)
	if err != nil {
		return fmt.Errorf("set info %s: %w", name, err)
	}
	return nil
}
