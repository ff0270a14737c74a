package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

// GetBudget returns the budget saved for a month; when none exists it
// returns an empty budget for that month rather than an error.
func (r *SQLiteRepository) GetBudget(ctx context.Context, ownerID int64, month core.MonthKey) (core.Budget, error) {
	b := core.Budget{OwnerID: ownerID, Month: month, PerCategory: map[string]core.Money{}}

	var budgetID int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, total_cents FROM budgets
		WHERE owner_id = ? AND month_key = ?`, ownerID, month).
		Scan(&budgetID, &b.Total.Cents)
	if err == sql.ErrNoRows {
		return b, nil
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT category, limit_cents FROM budget_limits
		WHERE budget_id = ?`, budgetID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget limits: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cat   string
			cents int64
		)
		if err := rows.Scan(&cat, &cents); err != nil {
			return core.Budget{}, fmt.Errorf("scan budget limit: %w", err)
		}
		b.PerCategory[cat] = core.Money{Cents: cents}
	}
	return b, rows.Err()
}

// UpsertBudget replaces the month's budget and its category limits in one
// transaction.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert budget begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO budgets (owner_id, month_key, total_cents)
		VALUES (?, ?, ?)
		ON CONFLICT(owner_id, month_key) DO UPDATE SET
			total_cents = excluded.total_cents,
			updated_at = CURRENT_TIMESTAMP`,
		b.OwnerID, b.Month, b.Total.Cents); err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}

	var budgetID int64
	if err := tx.QueryRowContext(ctx, `
		SELECT id FROM budgets WHERE owner_id = ? AND month_key = ?`,
		b.OwnerID, b.Month).Scan(&budgetID); err != nil {
		return fmt.Errorf("upsert budget id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM budget_limits WHERE budget_id = ?`, budgetID); err != nil {
		return fmt.Errorf("upsert budget clear limits: %w", err)
	}
	for cat, limit := range b.PerCategory {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO budget_limits (budget_id, category, limit_cents)
			VALUES (?, ?, ?)`, budgetID, cat, limit.Cents); err != nil {
			return fmt.Errorf("upsert budget limit %q: %w", cat, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert budget commit: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO savings_goals (owner_id, title, target_cents, current_cents, due_date)
		VALUES (?, ?, ?, ?, ?)`,
		g.OwnerID, g.Title, g.Target.Cents, g.Current.Cents, nullTime(g.DueDate))
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create savings goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create savings goal id: %w", err)
	}
	g.ID = id
	return g, nil
}

func (r *SQLiteRepository) GetSavingsGoal(ctx context.Context, ownerID, id int64) (core.SavingsGoal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, target_cents, current_cents, due_date
		FROM savings_goals WHERE id = ? AND owner_id = ?`, id, ownerID)
	g, err := scanSavingsGoal(row)
	if err == sql.ErrNoRows {
		return core.SavingsGoal{}, core.NotFoundf("savings goal not found")
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get savings goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListSavingsGoals(ctx context.Context, ownerID int64) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, title, target_cents, current_cents, due_date
		FROM savings_goals WHERE owner_id = ?
		ORDER BY id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	defer rows.Close()

	var out []core.SavingsGoal
	for rows.Next() {
		g, err := scanSavingsGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE savings_goals
		SET title = ?, target_cents = ?, current_cents = ?, due_date = ?
		WHERE id = ? AND owner_id = ?`,
		g.Title, g.Target.Cents, g.Current.Cents, nullTime(g.DueDate), g.ID, g.OwnerID)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update savings goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update savings goal rows: %w", err)
	}
	if n == 0 {
		return core.SavingsGoal{}, core.NotFoundf("savings goal not found")
	}
	return r.GetSavingsGoal(ctx, g.OwnerID, g.ID)
}

func (r *SQLiteRepository) DeleteSavingsGoal(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM savings_goals WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete savings goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete savings goal rows: %w", err)
	}
	if n == 0 {
		return core.NotFoundf("savings goal not found")
	}
	return nil
}

func scanSavingsGoal(row interface{ Scan(...any) error }) (core.SavingsGoal, error) {
	var (
		g   core.SavingsGoal
		due sql.NullTime
	)
	err := row.Scan(&g.ID, &g.OwnerID, &g.Title, &g.Target.Cents, &g.Current.Cents, &due)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	if due.Valid {
		g.DueDate = due.Time
	}
	return g, nil
}
