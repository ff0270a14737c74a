package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const incomeCols = `id, owner_id, source, auto_key, amount_cents, date, note,
	description, is_recurring, recur_day`

func scanIncome(row interface{ Scan(...any) error }) (core.Income, error) {
	var (
		in      core.Income
		autoKey sql.NullString
	)
	err := row.Scan(&in.ID, &in.OwnerID, &in.Source, &autoKey, &in.Amount.Cents,
		&in.Date, &in.Note, &in.Description, &in.IsRecurring, &in.DayOfMonth)
	if err != nil {
		return core.Income{}, err
	}
	in.AutoKey = autoKey.String
	return in, nil
}

// CreateIncome inserts a manual income row.
func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO income (owner_id, source, auto_key, amount_cents, date, note,
			description, is_recurring, recur_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.OwnerID, in.Source, nullString(in.AutoKey), in.Amount.Cents, in.Date.UTC(),
		in.Note, in.Description, in.IsRecurring, maxInt(in.DayOfMonth, 1))
	if err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Income{}, fmt.Errorf("create income id: %w", err)
	}
	in.ID = id
	return in, nil
}

// CreateIncomeBatch inserts all rows inside a single SQL transaction.
// Either every row lands or none does.
func (r *SQLiteRepository) CreateIncomeBatch(ctx context.Context, list []core.Income) error {
	if len(list) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin income batch: %w", err)
	}
	defer tx.Rollback()

	for _, in := range list {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO income (owner_id, source, auto_key, amount_cents, date, note,
				description, is_recurring, recur_day)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.OwnerID, in.Source, nullString(in.AutoKey), in.Amount.Cents, in.Date.UTC(),
			in.Note, in.Description, in.IsRecurring, maxInt(in.DayOfMonth, 1))
		if err != nil {
			return fmt.Errorf("batch insert income: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit income batch: %w", err)
	}
	return nil
}

// InsertIncomeIfAbsent atomically creates a keyed income instance unless
// one already exists for (owner, auto key).
func (r *SQLiteRepository) InsertIncomeIfAbsent(ctx context.Context, in core.Income) (bool, error) {
	if in.AutoKey == "" {
		return false, fmt.Errorf("insert income instance: auto key required")
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO income (owner_id, source, auto_key, amount_cents, date,
			note, description, is_recurring, recur_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.OwnerID, in.Source, in.AutoKey, in.Amount.Cents, in.Date.UTC(),
		in.Note, in.Description, in.IsRecurring, maxInt(in.DayOfMonth, 1))
	if err != nil {
		return false, fmt.Errorf("insert income instance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert income instance rows: %w", err)
	}
	return n > 0, nil
}

// GetIncomeByAutoKey fetches the keyed instance for an owner, if any.
func (r *SQLiteRepository) GetIncomeByAutoKey(ctx context.Context, ownerID int64, autoKey string) (core.Income, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+incomeCols+` FROM income
		WHERE owner_id = ? AND auto_key = ?`, ownerID, autoKey)
	in, err := scanIncome(row)
	if err == sql.ErrNoRows {
		return core.Income{}, core.NotFoundf("income not found")
	}
	if err != nil {
		return core.Income{}, fmt.Errorf("get income by auto key: %w", err)
	}
	return in, nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, ownerID, id int64) (core.Income, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+incomeCols+` FROM income
		WHERE id = ? AND owner_id = ?`, id, ownerID)
	in, err := scanIncome(row)
	if err == sql.ErrNoRows {
		return core.Income{}, core.NotFoundf("income not found")
	}
	if err != nil {
		return core.Income{}, fmt.Errorf("get income: %w", err)
	}
	return in, nil
}

// ListIncome returns all income rows, newest first.
func (r *SQLiteRepository) ListIncome(ctx context.Context, ownerID int64) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+incomeCols+` FROM income
		WHERE owner_id = ?
		ORDER BY date DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	defer rows.Close()
	return collectIncome(rows)
}

// ListIncomeInRange returns income rows in [start, end), newest first.
func (r *SQLiteRepository) ListIncomeInRange(ctx context.Context, ownerID int64, start, end time.Time) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+incomeCols+` FROM income
		WHERE owner_id = ? AND date >= ? AND date < ?
		ORDER BY date DESC, id DESC`, ownerID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("list income in range: %w", err)
	}
	defer rows.Close()
	return collectIncome(rows)
}

// UpdateIncome overwrites the editable fields of an owned row.
func (r *SQLiteRepository) UpdateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE income
		SET amount_cents = ?, date = ?, note = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ?`,
		in.Amount.Cents, in.Date.UTC(), in.Note, in.Description, in.ID, in.OwnerID)
	if err != nil {
		return core.Income{}, fmt.Errorf("update income: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Income{}, fmt.Errorf("update income rows: %w", err)
	}
	if n == 0 {
		return core.Income{}, core.NotFoundf("income not found")
	}
	return r.GetIncome(ctx, in.OwnerID, in.ID)
}

// UpdateIncomeAmount overwrites only the amount of an owned row. Used by
// the per-month salary edit, which bypasses the stored default.
func (r *SQLiteRepository) UpdateIncomeAmount(ctx context.Context, ownerID, id, amountCents int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE income SET amount_cents = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ?`, amountCents, id, ownerID)
	if err != nil {
		return fmt.Errorf("update income amount: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update income amount rows: %w", err)
	}
	if n == 0 {
		return core.NotFoundf("income not found")
	}
	return nil
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM income WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete income rows: %w", err)
	}
	if n == 0 {
		return core.NotFoundf("income not found")
	}
	return nil
}

// GetSalarySettings returns the owner's salary settings, falling back to
// defaults (enabled, no salary, day 1) when none were saved yet.
func (r *SQLiteRepository) GetSalarySettings(ctx context.Context, ownerID int64) (core.SalarySettings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT enabled, default_salary_cents, day_of_month
		FROM salary_settings WHERE owner_id = ?`, ownerID)

	var s core.SalarySettings
	err := row.Scan(&s.Enabled, &s.DefaultSalary.Cents, &s.DayOfMonth)
	if err == sql.ErrNoRows {
		return core.SalarySettings{Enabled: true, DayOfMonth: 1}, nil
	}
	if err != nil {
		return core.SalarySettings{}, fmt.Errorf("get salary settings: %w", err)
	}
	return s, nil
}

// UpsertSalarySettings saves the owner's salary settings.
func (r *SQLiteRepository) UpsertSalarySettings(ctx context.Context, ownerID int64, s core.SalarySettings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO salary_settings (owner_id, enabled, default_salary_cents, day_of_month)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			enabled = excluded.enabled,
			default_salary_cents = excluded.default_salary_cents,
			day_of_month = excluded.day_of_month,
			updated_at = CURRENT_TIMESTAMP`,
		ownerID, s.Enabled, s.DefaultSalary.Cents, s.DayOfMonth)
	if err != nil {
		return fmt.Errorf("upsert salary settings: %w", err)
	}
	return nil
}

func collectIncome(rows *sql.Rows) ([]core.Income, error) {
	var out []core.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
