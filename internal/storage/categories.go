package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

// ListCategories returns every category of an owner, name ascending.
func (r *SQLiteRepository) ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, color
		FROM categories WHERE owner_id = ?
		ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	return collectCategories(rows)
}

// SeedCategories inserts the given categories for an owner, skipping names
// that already exist. All inserts run in one SQL transaction.
func (r *SQLiteRepository) SeedCategories(ctx context.Context, ownerID int64, cats []core.Category) error {
	if len(cats) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin category seed: %w", err)
	}
	defer tx.Rollback()

	for _, c := range cats {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO categories (owner_id, name, color)
			VALUES (?, ?, ?)`, ownerID, c.Name, c.Color)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit category seed: %w", err)
	}
	return nil
}

// UpsertCategory saves a category; a duplicate name overwrites the color
// instead of failing.
func (r *SQLiteRepository) UpsertCategory(ctx context.Context, c core.Category) (core.Category, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (owner_id, name, color)
		VALUES (?, ?, ?)
		ON CONFLICT(owner_id, name) DO UPDATE SET
			color = excluded.color`,
		c.OwnerID, c.Name, c.Color)
	if err != nil {
		return core.Category{}, fmt.Errorf("upsert category: %w", err)
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, color
		FROM categories WHERE owner_id = ? AND name = ?`, c.OwnerID, c.Name)
	saved, err := scanCategory(row)
	if err != nil {
		return core.Category{}, fmt.Errorf("upsert category fetch: %w", err)
	}
	return saved, nil
}

// DeleteCategory removes an owner's category by name.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, ownerID int64, name string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM categories WHERE owner_id = ? AND name = ?`, ownerID, name)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category rows: %w", err)
	}
	if n == 0 {
		return core.NotFoundf("category not found")
	}
	return nil
}

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color)
	return c, err
}

func collectCategories(rows *sql.Rows) ([]core.Category, error) {
	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
