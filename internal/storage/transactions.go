package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

const transactionCols = `id, owner_id, category, amount_cents, date, description,
	is_recurring, is_template, template_id, auto_key, recur_freq, recur_day`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t          core.Transaction
		templateID sql.NullInt64
		autoKey    sql.NullString
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Category, &t.Amount.Cents, &t.Date,
		&t.Description, &t.IsRecurring, &t.IsTemplate, &templateID, &autoKey,
		&t.Rule.Freq, &t.Rule.DayOfMonth)
	if err != nil {
		return core.Transaction{}, err
	}
	t.TemplateID = templateID.Int64
	t.AutoKey = autoKey.String
	return t, nil
}

// CreateTransaction inserts an expense row (manual entry or template) and
// returns it with its assigned ID.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (owner_id, category, amount_cents, date, description,
			is_recurring, is_template, template_id, auto_key, recur_freq, recur_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.OwnerID, t.Category, t.Amount.Cents, t.Date.UTC(), t.Description,
		t.IsRecurring, t.IsTemplate, nullInt64(t.TemplateID), nullString(t.AutoKey),
		ruleFreq(t.Rule), ruleDay(t.Rule))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction id: %w", err)
	}
	t.ID = id
	return t, nil
}

// CreateTransactionsBatch inserts all rows inside a single SQL transaction.
// Either every row lands or none does; a failed row rolls the batch back.
func (r *SQLiteRepository) CreateTransactionsBatch(ctx context.Context, list []core.Transaction) error {
	if len(list) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	for _, t := range list {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (owner_id, category, amount_cents, date, description,
				is_recurring, is_template, template_id, auto_key, recur_freq, recur_day)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.OwnerID, t.Category, t.Amount.Cents, t.Date.UTC(), t.Description,
			t.IsRecurring, t.IsTemplate, nullInt64(t.TemplateID), nullString(t.AutoKey),
			ruleFreq(t.Rule), ruleDay(t.Rule))
		if err != nil {
			return fmt.Errorf("batch insert transaction: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// InsertInstanceIfAbsent atomically creates a materialized instance unless
// one with the same (owner, auto key) already exists. This is the
// conditional insert that makes repeated month queries race-safe; a plain
// read-then-write would let two concurrent callers both create the row.
func (r *SQLiteRepository) InsertInstanceIfAbsent(ctx context.Context, t core.Transaction) (bool, error) {
	if t.AutoKey == "" {
		return false, fmt.Errorf("insert instance: auto key required")
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO transactions (owner_id, category, amount_cents, date, description,
			is_recurring, is_template, template_id, auto_key, recur_freq, recur_day)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?)`,
		t.OwnerID, t.Category, t.Amount.Cents, t.Date.UTC(), t.Description,
		t.IsRecurring, nullInt64(t.TemplateID), t.AutoKey,
		ruleFreq(t.Rule), ruleDay(t.Rule))
	if err != nil {
		return false, fmt.Errorf("insert instance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert instance rows: %w", err)
	}
	if n > 0 {
		slog.DebugContext(ctx, "Materialized recurring instance",
			"owner_id", t.OwnerID, "auto_key", t.AutoKey, "amount_cents", t.Amount.Cents)
	}
	return n > 0, nil
}

// ListExpenseTemplates returns the owner's active monthly recurrence
// definitions.
func (r *SQLiteRepository) ListExpenseTemplates(ctx context.Context, ownerID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionCols+` FROM transactions
		WHERE owner_id = ? AND is_template = 1 AND is_recurring = 1 AND recur_freq = ?
		ORDER BY id`, ownerID, core.FreqMonthly)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// GetTransaction looks up an owned row. Absent and not-owned are
// indistinguishable on purpose.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+transactionCols+` FROM transactions
		WHERE id = ? AND owner_id = ?`, id, ownerID)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return core.Transaction{}, core.NotFoundf("expense not found")
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns all non-template expenses, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionCols+` FROM transactions
		WHERE owner_id = ? AND is_template = 0
		ORDER BY date DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListTransactionsInRange returns non-template expenses in [start, end),
// newest first.
func (r *SQLiteRepository) ListTransactionsInRange(ctx context.Context, ownerID int64, start, end time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionCols+` FROM transactions
		WHERE owner_id = ? AND is_template = 0 AND date >= ? AND date < ?
		ORDER BY date DESC, id DESC`, ownerID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// UpdateTransaction overwrites the editable fields of an owned row.
// Editing a template does not rewrite instances already materialized from
// it; those keep their generation-time snapshot.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET category = ?, amount_cents = ?, date = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ?`,
		t.Category, t.Amount.Cents, t.Date.UTC(), t.Description, t.ID, t.OwnerID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction rows: %w", err)
	}
	if n == 0 {
		return core.Transaction{}, core.NotFoundf("expense not found")
	}
	return r.GetTransaction(ctx, t.OwnerID, t.ID)
}

// DeleteTransaction hard-deletes an owned row.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows: %w", err)
	}
	if n == 0 {
		return core.NotFoundf("expense not found")
	}
	return nil
}

// OwnerMonth identifies one owner's month.
type OwnerMonth struct {
	OwnerID int64
	Month   core.MonthKey
}

// ListRecentlyChangedMonths returns the distinct (owner, month) pairs whose
// expenses were created or edited at or after the cutoff. The report worker
// uses it to re-mirror months whose change events may have been lost.
//
// The driver stores date as RFC3339 text, so the month key is sliced out
// with substr rather than strftime. updated_at comes from CURRENT_TIMESTAMP
// in a different text format; both sides go through datetime() so the
// comparison is on normalized values, not raw text.
func (r *SQLiteRepository) ListRecentlyChangedMonths(ctx context.Context, since time.Time) ([]OwnerMonth, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT owner_id, substr(date, 1, 7) FROM transactions
		WHERE is_template = 0 AND datetime(updated_at) >= datetime(?)
		ORDER BY owner_id, 2`, since.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, fmt.Errorf("list changed months: %w", err)
	}
	defer rows.Close()

	var out []OwnerMonth
	for rows.Next() {
		var om OwnerMonth
		if err := rows.Scan(&om.OwnerID, &om.Month); err != nil {
			return nil, fmt.Errorf("scan changed month: %w", err)
		}
		out = append(out, om)
	}
	return out, rows.Err()
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
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

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}

func ruleFreq(r core.RecurrenceRule) string {
	if r.Freq == "" {
		return core.FreqMonthly
	}
	return r.Freq
}

func ruleDay(r core.RecurrenceRule) int {
	if r.DayOfMonth == 0 {
		return 1
	}
	return r.DayOfMonth
}
