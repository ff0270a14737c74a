package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

func (r *SQLiteRepository) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO debts (owner_id, creditor, total_cents, remaining_cents, due_date)
		VALUES (?, ?, ?, ?, ?)`,
		d.OwnerID, d.Creditor, d.Total.Cents, d.Total.Cents, d.DueDate.UTC())
	if err != nil {
		return core.Debt{}, fmt.Errorf("create debt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Debt{}, fmt.Errorf("create debt id: %w", err)
	}
	d.ID = id
	d.Remaining = d.Total
	d.Payments = nil
	return d, nil
}

// GetDebt fetches a debt with its full payment history, oldest payment
// first.
func (r *SQLiteRepository) GetDebt(ctx context.Context, ownerID, id int64) (core.Debt, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, creditor, total_cents, remaining_cents, due_date
		FROM debts WHERE id = ? AND owner_id = ?`, id, ownerID)

	var d core.Debt
	err := row.Scan(&d.ID, &d.OwnerID, &d.Creditor, &d.Total.Cents, &d.Remaining.Cents, &d.DueDate)
	if err == sql.ErrNoRows {
		return core.Debt{}, core.NotFoundf("debt not found")
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("get debt: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount_cents, paid_at FROM debt_payments
		WHERE debt_id = ? ORDER BY paid_at ASC, id ASC`, id)
	if err != nil {
		return core.Debt{}, fmt.Errorf("get debt payments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p core.Payment
		if err := rows.Scan(&p.ID, &p.Amount.Cents, &p.Date); err != nil {
			return core.Debt{}, fmt.Errorf("scan debt payment: %w", err)
		}
		d.Payments = append(d.Payments, p)
	}
	return d, rows.Err()
}

// ListDebts returns the owner's debts ordered by due date ascending, without
// payment histories.
func (r *SQLiteRepository) ListDebts(ctx context.Context, ownerID int64) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, creditor, total_cents, remaining_cents, due_date
		FROM debts WHERE owner_id = ?
		ORDER BY due_date ASC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var out []core.Debt
	for rows.Next() {
		var d core.Debt
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Creditor, &d.Total.Cents, &d.Remaining.Cents, &d.DueDate); err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RecordPayment appends a payment and decrements the cached remaining
// amount in one transaction. The decrement is guarded so the remaining
// amount can never go negative, even under concurrent payments.
func (r *SQLiteRepository) RecordPayment(ctx context.Context, ownerID, debtID int64, amount core.Money, paidAt time.Time) (core.Debt, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Debt{}, fmt.Errorf("record payment begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE debts SET remaining_cents = remaining_cents - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ? AND remaining_cents >= ?`,
		amount.Cents, debtID, ownerID, amount.Cents)
	if err != nil {
		return core.Debt{}, fmt.Errorf("record payment update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Debt{}, fmt.Errorf("record payment rows: %w", err)
	}
	if n == 0 {
		// Distinguish a missing debt from an overpayment.
		var remaining int64
		err := tx.QueryRowContext(ctx, `
			SELECT remaining_cents FROM debts WHERE id = ? AND owner_id = ?`,
			debtID, ownerID).Scan(&remaining)
		if err == sql.ErrNoRows {
			return core.Debt{}, core.NotFoundf("debt not found")
		}
		if err != nil {
			return core.Debt{}, fmt.Errorf("record payment check: %w", err)
		}
		return core.Debt{}, core.Invariantf("payment of %s exceeds remaining amount %s",
			amount, core.Money{Cents: remaining})
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO debt_payments (debt_id, amount_cents, paid_at)
		VALUES (?, ?, ?)`, debtID, amount.Cents, paidAt.UTC()); err != nil {
		return core.Debt{}, fmt.Errorf("record payment insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Debt{}, fmt.Errorf("record payment commit: %w", err)
	}
	return r.GetDebt(ctx, ownerID, debtID)
}

// UpdateDebt overwrites creditor, total and due date. The cached remaining
// amount is rebased so remaining stays total minus payments; a new total
// below what was already paid is rejected.
func (r *SQLiteRepository) UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Debt{}, fmt.Errorf("update debt begin: %w", err)
	}
	defer tx.Rollback()

	var paid int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(p.amount_cents), 0)
		FROM debts d LEFT JOIN debt_payments p ON p.debt_id = d.id
		WHERE d.id = ? AND d.owner_id = ?
		GROUP BY d.id`, d.ID, d.OwnerID).Scan(&paid)
	if err == sql.ErrNoRows {
		return core.Debt{}, core.NotFoundf("debt not found")
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("update debt paid: %w", err)
	}
	if d.Total.Cents < paid {
		return core.Debt{}, core.Invariantf("total %s is below the %s already paid",
			d.Total, core.Money{Cents: paid})
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE debts
		SET creditor = ?, total_cents = ?, remaining_cents = ?, due_date = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ?`,
		d.Creditor, d.Total.Cents, d.Total.Cents-paid, d.DueDate.UTC(), d.ID, d.OwnerID); err != nil {
		return core.Debt{}, fmt.Errorf("update debt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Debt{}, fmt.Errorf("update debt commit: %w", err)
	}
	return r.GetDebt(ctx, d.OwnerID, d.ID)
}

// DeleteDebt removes a debt; its payments go with it via cascade.
func (r *SQLiteRepository) DeleteDebt(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM debts WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete debt rows: %w", err)
	}
	if n == 0 {
		return core.NotFoundf("debt not found")
	}
	return nil
}
