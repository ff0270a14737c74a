package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

// ListRules returns every smart rule of an owner, keyword ascending.
func (r *SQLiteRepository) ListRules(ctx context.Context, ownerID int64) ([]core.SmartRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, keyword, category, apply_to
		FROM smart_rules WHERE owner_id = ?
		ORDER BY keyword ASC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()
	return collectRules(rows)
}

// ListRulesFor returns the rules applicable to one direction, including
// rules that apply to both.
func (r *SQLiteRepository) ListRulesFor(ctx context.Context, ownerID int64, dir core.Direction) ([]core.SmartRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, keyword, category, apply_to
		FROM smart_rules
		WHERE owner_id = ? AND apply_to IN (?, ?)
		ORDER BY keyword ASC, id ASC`, ownerID, dir, core.ApplyBoth)
	if err != nil {
		return nil, fmt.Errorf("list rules for %s: %w", dir, err)
	}
	defer rows.Close()
	return collectRules(rows)
}

// UpsertRule saves a rule; a duplicate (keyword, applyTo) overwrites the
// category instead of failing.
func (r *SQLiteRepository) UpsertRule(ctx context.Context, rule core.SmartRule) (core.SmartRule, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO smart_rules (owner_id, keyword, category, apply_to)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(owner_id, keyword, apply_to) DO UPDATE SET
			category = excluded.category`,
		rule.OwnerID, rule.Keyword, rule.Category, rule.ApplyTo)
	if err != nil {
		return core.SmartRule{}, fmt.Errorf("upsert rule: %w", err)
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, keyword, category, apply_to
		FROM smart_rules WHERE owner_id = ? AND keyword = ? AND apply_to = ?`,
		rule.OwnerID, rule.Keyword, rule.ApplyTo)
	saved, err := scanRule(row)
	if err != nil {
		return core.SmartRule{}, fmt.Errorf("upsert rule fetch: %w", err)
	}
	return saved, nil
}

func (r *SQLiteRepository) DeleteRule(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM smart_rules WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rule rows: %w", err)
	}
	if n == 0 {
		return core.NotFoundf("rule not found")
	}
	return nil
}

func scanRule(row interface{ Scan(...any) error }) (core.SmartRule, error) {
	var rule core.SmartRule
	err := row.Scan(&rule.ID, &rule.OwnerID, &rule.Keyword, &rule.Category, &rule.ApplyTo)
	return rule, err
}

func collectRules(rows *sql.Rows) ([]core.SmartRule, error) {
	var out []core.SmartRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}
