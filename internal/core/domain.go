package core

import (
	"fmt"
	"strings"
	"time"
)

// Direction limits which kind of transaction a smart rule applies to.
const (
	ApplyExpense Direction = "expense"
	ApplyIncome  Direction = "income"
	ApplyBoth    Direction = "both"
)

// FreqMonthly is the only supported recurrence frequency.
const FreqMonthly = "monthly"

// SourceSalary marks income rows materialized from the salary setting.
const SourceSalary = "salary"

type (
	Direction string

	// RecurrenceRule defines when a monthly template fires. DayOfMonth is
	// stored as entered (1..31) and clamped per target month at
	// materialization time.
	RecurrenceRule struct {
		Freq       string
		DayOfMonth int
	}

	// Transaction is an expense row. Templates (IsTemplate) are recurrence
	// definitions and never ledger entries; instances derived from a
	// template carry TemplateID and an AutoKey so generation stays
	// idempotent per month.
	Transaction struct {
		ID          int64
		OwnerID     int64
		Category    string
		Amount      Money
		Date        time.Time
		Description string
		IsRecurring bool
		IsTemplate  bool
		TemplateID  int64  // 0 when not derived from a template
		AutoKey     string // "" for manual entries
		Rule        RecurrenceRule
	}

	// Income is an income row. Salary instances carry AutoKey
	// "salary:YYYY-MM" and Source "salary".
	Income struct {
		ID          int64
		OwnerID     int64
		Source      string
		AutoKey     string
		Amount      Money
		Date        time.Time
		Note        string
		Description string
		IsRecurring bool
		DayOfMonth  int
	}

	// SalarySettings is the per-user salary recurrence source, read on
	// every income-by-month query.
	SalarySettings struct {
		Enabled       bool
		DefaultSalary Money // zero means unset; nothing materializes
		DayOfMonth    int   // clamped to [1, SalaryMaxDay] on write
	}

	Payment struct {
		ID     int64
		Amount Money
		Date   time.Time
	}

	// Debt tracks an amount owed to a creditor. Remaining is cached but
	// must always equal Total minus the sum of payments.
	Debt struct {
		ID        int64
		OwnerID   int64
		Creditor  string
		Total     Money
		Remaining Money
		DueDate   time.Time
		Payments  []Payment
	}

	// SmartRule maps a keyword to a category; unique per
	// (owner, keyword, applyTo).
	SmartRule struct {
		ID       int64
		OwnerID  int64
		Keyword  string
		Category string
		ApplyTo  Direction
	}

	// Budget is the per (owner, month) spending target. Category limits
	// may name categories with no transactions; no integrity is enforced.
	Budget struct {
		OwnerID     int64
		Month       MonthKey
		Total       Money
		PerCategory map[string]Money
	}

	// SavingsGoal tracks progress toward a target. Current is user-edited,
	// never derived from transactions.
	SavingsGoal struct {
		ID      int64
		OwnerID int64
		Title   string
		Target  Money
		Current Money
		DueDate time.Time // zero means no due date
	}

	// Category is a per-user label with a display color; unique per
	// (owner, name). Transactions reference categories by name only.
	Category struct {
		ID      int64
		OwnerID int64
		Name    string
		Color   string
	}
)

// ExpenseAutoKey is the idempotency key for one template's instance in one
// month.
func ExpenseAutoKey(templateID int64, month MonthKey) string {
	return fmt.Sprintf("recur:%d:%s", templateID, month)
}

// SalaryAutoKey is the idempotency key for the salary instance of a month.
func SalaryAutoKey(month MonthKey) string {
	return "salary:" + string(month)
}

func (d Direction) Validate() error {
	switch d {
	case ApplyExpense, ApplyIncome, ApplyBoth:
		return nil
	}
	return Validationf("applyTo must be expense, income or both")
}

// Matches reports whether a rule with this applyTo covers the direction.
func (d Direction) Matches(dir Direction) bool {
	return d == ApplyBoth || d == dir
}

func (r RecurrenceRule) Validate() error {
	if r.Freq != FreqMonthly {
		return Validationf("only monthly recurrence is supported")
	}
	if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
		return Validationf("dayOfMonth must be between 1 and 31")
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Category) == "" {
		return Validationf("category is required")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return Validationf("a valid date is required")
	}
	if t.IsRecurring {
		if err := t.Rule.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (i Income) Validate() error {
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if i.Date.IsZero() {
		return Validationf("a valid date is required")
	}
	return nil
}

func (s SalarySettings) Validate() error {
	if s.DefaultSalary.Cents < 0 {
		return Validationf("default salary cannot be negative")
	}
	if s.DayOfMonth < 1 || s.DayOfMonth > SalaryMaxDay {
		return Validationf("salary day must be between 1 and %d", SalaryMaxDay)
	}
	return nil
}

// PaidSoFar sums recorded payments.
func (d Debt) PaidSoFar() Money {
	var cents int64
	for _, p := range d.Payments {
		cents += p.Amount.Cents
	}
	return Money{Cents: cents}
}

// CheckBalance verifies the cached remaining amount against the payment
// history.
func (d Debt) CheckBalance() error {
	if d.Remaining.Cents < 0 {
		return Invariantf("remaining amount is negative")
	}
	if d.Total.Cents-d.PaidSoFar().Cents != d.Remaining.Cents {
		return Invariantf("remaining amount does not match payment history")
	}
	return nil
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Creditor) == "" {
		return Validationf("creditor is required and must be a non-empty string")
	}
	if d.Total.Cents <= 0 {
		return Validationf("total amount is required and must be a positive number")
	}
	if d.DueDate.IsZero() {
		return Validationf("a valid due date is required")
	}
	return nil
}

func (r SmartRule) Validate() error {
	if strings.TrimSpace(r.Keyword) == "" {
		return Validationf("keyword is required")
	}
	if strings.TrimSpace(r.Category) == "" {
		return Validationf("category is required")
	}
	return r.ApplyTo.Validate()
}

func (b Budget) Validate() error {
	if _, err := ParseMonthKey(string(b.Month)); err != nil {
		return err
	}
	if b.Total.Cents < 0 {
		return Validationf("budget total cannot be negative")
	}
	for cat, limit := range b.PerCategory {
		if strings.TrimSpace(cat) == "" {
			return Validationf("budget category name cannot be blank")
		}
		if limit.Cents < 0 {
			return Validationf("budget limit for %q cannot be negative", cat)
		}
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Validationf("name is required")
	}
	if strings.TrimSpace(c.Color) == "" {
		return Validationf("color is required")
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return Validationf("title is required")
	}
	if g.Target.Cents <= 0 {
		return Validationf("target amount must be a positive number")
	}
	if g.Current.Cents < 0 {
		return Validationf("current amount cannot be negative")
	}
	return nil
}
