// Package recurrence materializes monthly recurring transactions on read.
// Querying a month lazily creates the instances that month should have;
// repeating the query never creates duplicates because every generated row
// carries a deterministic auto key the store enforces uniqueness on.
package recurrence

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
)

// ExpenseStore is the slice of the repository the engine needs for
// expense materialization.
type ExpenseStore interface {
	ListExpenseTemplates(ctx context.Context, ownerID int64) ([]core.Transaction, error)
	InsertInstanceIfAbsent(ctx context.Context, t core.Transaction) (bool, error)
}

// IncomeStore is the slice of the repository the engine needs for salary
// materialization.
type IncomeStore interface {
	InsertIncomeIfAbsent(ctx context.Context, in core.Income) (bool, error)
	GetIncomeByAutoKey(ctx context.Context, ownerID int64, autoKey string) (core.Income, error)
	UpdateIncomeAmount(ctx context.Context, ownerID, id, amountCents int64) error
}

// Engine generates the recurring expense and salary instances owed to a
// month. All methods are idempotent per (owner, month).
type Engine struct {
	expenses ExpenseStore
	income   IncomeStore
}

func NewEngine(expenses ExpenseStore, income IncomeStore) *Engine {
	return &Engine{expenses: expenses, income: income}
}

// EnsureExpenseInstances creates the missing instance of every monthly
// template for the given month and reports how many were created. Each
// instance snapshots the template's amount, category and description as
// they are now; later template edits never rewrite generated months.
func (e *Engine) EnsureExpenseInstances(ctx context.Context, ownerID int64, month core.MonthKey) (int, error) {
	templates, err := e.expenses.ListExpenseTemplates(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("list expense templates: %w", err)
	}

	created := 0
	for _, tmpl := range templates {
		day := month.ClampDay(tmpl.Rule.DayOfMonth)
		instance := core.Transaction{
			OwnerID:     ownerID,
			Category:    tmpl.Category,
			Amount:      tmpl.Amount,
			Date:        month.MiddayUTC(day),
			Description: tmpl.Description,
			IsRecurring: true,
			TemplateID:  tmpl.ID,
			AutoKey:     core.ExpenseAutoKey(tmpl.ID, month),
			Rule:        tmpl.Rule,
		}
		ok, err := e.expenses.InsertInstanceIfAbsent(ctx, instance)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to materialize recurring expense",
				"template_id", tmpl.ID,
				"month", month,
				"error", err)
			continue
		}
		if ok {
			created++
		}
	}

	if created > 0 {
		slog.InfoContext(ctx, "Materialized recurring expenses",
			"owner_id", ownerID,
			"month", month,
			"created", created,
			"templates", len(templates))
	}
	return created, nil
}

// EnsureSalary creates the month's salary income from the owner's salary
// settings unless one already exists. Disabled settings or a zero default
// salary materialize nothing.
func (e *Engine) EnsureSalary(ctx context.Context, ownerID int64, month core.MonthKey, settings core.SalarySettings) (bool, error) {
	if !settings.Enabled || settings.DefaultSalary.Cents <= 0 {
		return false, nil
	}

	day := core.ClampSalaryDay(settings.DayOfMonth)
	salary := core.Income{
		OwnerID:     ownerID,
		Source:      core.SourceSalary,
		AutoKey:     core.SalaryAutoKey(month),
		Amount:      settings.DefaultSalary,
		Date:        month.MiddayUTC(day),
		Description: "Monthly salary",
		IsRecurring: true,
		DayOfMonth:  day,
	}
	created, err := e.income.InsertIncomeIfAbsent(ctx, salary)
	if err != nil {
		return false, fmt.Errorf("materialize salary for %s: %w", month, err)
	}
	if created {
		slog.InfoContext(ctx, "Materialized salary",
			"owner_id", ownerID,
			"month", month,
			"amount_cents", salary.Amount.Cents)
	}
	return created, nil
}

// EditSalaryForMonth overrides the amount of a single month's salary
// instance without touching the stored default. The instance is
// materialized first when the month was never queried.
func (e *Engine) EditSalaryForMonth(ctx context.Context, ownerID int64, month core.MonthKey, settings core.SalarySettings, amount core.Money) (core.Income, error) {
	if err := amount.Validate(); err != nil {
		return core.Income{}, err
	}

	autoKey := core.SalaryAutoKey(month)
	if _, err := e.income.GetIncomeByAutoKey(ctx, ownerID, autoKey); err != nil {
		if !core.IsNotFound(err) {
			return core.Income{}, fmt.Errorf("find salary for %s: %w", month, err)
		}
		// The month has no salary instance yet. Materialize one even when
		// the default is unset so the override has a row to land on.
		day := core.ClampSalaryDay(settings.DayOfMonth)
		seed := core.Income{
			OwnerID:     ownerID,
			Source:      core.SourceSalary,
			AutoKey:     autoKey,
			Amount:      amount,
			Date:        month.MiddayUTC(day),
			Description: "Monthly salary",
			IsRecurring: true,
			DayOfMonth:  day,
		}
		if _, err := e.income.InsertIncomeIfAbsent(ctx, seed); err != nil {
			return core.Income{}, fmt.Errorf("materialize salary for %s: %w", month, err)
		}
	}

	existing, err := e.income.GetIncomeByAutoKey(ctx, ownerID, autoKey)
	if err != nil {
		return core.Income{}, fmt.Errorf("find salary for %s: %w", month, err)
	}
	if existing.Amount != amount {
		if err := e.income.UpdateIncomeAmount(ctx, ownerID, existing.ID, amount.Cents); err != nil {
			return core.Income{}, fmt.Errorf("update salary for %s: %w", month, err)
		}
		existing.Amount = amount
	}

	slog.InfoContext(ctx, "Salary overridden for month",
		"owner_id", ownerID,
		"month", month,
		"amount_cents", amount.Cents)
	return existing, nil
}
