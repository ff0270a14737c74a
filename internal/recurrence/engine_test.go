package recurrence

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
)

type fakeStore struct {
	templates    []core.Transaction
	transactions map[string]core.Transaction
	income       map[string]core.Income
	nextID       int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		transactions: map[string]core.Transaction{},
		income:       map[string]core.Income{},
		nextID:       100,
	}
}

func (s *fakeStore) ListExpenseTemplates(_ context.Context, ownerID int64) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range s.templates {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) InsertInstanceIfAbsent(_ context.Context, t core.Transaction) (bool, error) {
	if _, ok := s.transactions[t.AutoKey]; ok {
		return false, nil
	}
	s.nextID++
	t.ID = s.nextID
	s.transactions[t.AutoKey] = t
	return true, nil
}

func (s *fakeStore) InsertIncomeIfAbsent(_ context.Context, in core.Income) (bool, error) {
	if _, ok := s.income[in.AutoKey]; ok {
		return false, nil
	}
	s.nextID++
	in.ID = s.nextID
	s.income[in.AutoKey] = in
	return true, nil
}

func (s *fakeStore) GetIncomeByAutoKey(_ context.Context, ownerID int64, autoKey string) (core.Income, error) {
	in, ok := s.income[autoKey]
	if !ok || in.OwnerID != ownerID {
		return core.Income{}, core.NotFoundf("income not found")
	}
	return in, nil
}

func (s *fakeStore) UpdateIncomeAmount(_ context.Context, ownerID, id, amountCents int64) error {
	for key, in := range s.income {
		if in.ID == id && in.OwnerID == ownerID {
			in.Amount = core.Money{Cents: amountCents}
			s.income[key] = in
			return nil
		}
	}
	return core.NotFoundf("income not found")
}

func TestEnsureExpenseInstances(t *testing.T) {
	store := newFakeStore()
	store.templates = []core.Transaction{
		{
			ID:          1,
			OwnerID:     1,
			Category:    "Rent",
			Amount:      core.Money{Cents: 120000},
			Description: "Apartment rent",
			IsRecurring: true,
			IsTemplate:  true,
			Rule:        core.RecurrenceRule{Freq: core.FreqMonthly, DayOfMonth: 1},
		},
		{
			ID:          2,
			OwnerID:     1,
			Category:    "Subscriptions",
			Amount:      core.Money{Cents: 1299},
			Description: "Streaming",
			IsRecurring: true,
			IsTemplate:  true,
			Rule:        core.RecurrenceRule{Freq: core.FreqMonthly, DayOfMonth: 31},
		},
	}
	engine := NewEngine(store, store)
	ctx := context.Background()
	month := core.MonthKey("2026-02")

	created, err := engine.EnsureExpenseInstances(ctx, 1, month)
	if err != nil {
		t.Fatalf("EnsureExpenseInstances() error = %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}

	// Second run is a no-op.
	created, err = engine.EnsureExpenseInstances(ctx, 1, month)
	if err != nil {
		t.Fatalf("EnsureExpenseInstances() second run error = %v", err)
	}
	if created != 0 {
		t.Fatalf("second run created = %d, want 0", created)
	}

	rent, ok := store.transactions[core.ExpenseAutoKey(1, month)]
	if !ok {
		t.Fatal("rent instance missing")
	}
	wantRent := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	if !rent.Date.Equal(wantRent) {
		t.Errorf("rent date = %v, want %v", rent.Date, wantRent)
	}
	if rent.TemplateID != 1 || !rent.IsRecurring || rent.IsTemplate {
		t.Errorf("rent instance flags = %+v", rent)
	}

	// Day 31 clamps to the end of February.
	sub, ok := store.transactions[core.ExpenseAutoKey(2, month)]
	if !ok {
		t.Fatal("subscription instance missing")
	}
	wantSub := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)
	if !sub.Date.Equal(wantSub) {
		t.Errorf("subscription date = %v, want %v", sub.Date, wantSub)
	}
}

func TestEnsureExpenseInstancesSnapshotsTemplate(t *testing.T) {
	store := newFakeStore()
	store.templates = []core.Transaction{{
		ID:          5,
		OwnerID:     1,
		Category:    "Utilities",
		Amount:      core.Money{Cents: 8000},
		IsRecurring: true,
		IsTemplate:  true,
		Rule:        core.RecurrenceRule{Freq: core.FreqMonthly, DayOfMonth: 15},
	}}
	engine := NewEngine(store, store)
	ctx := context.Background()

	if _, err := engine.EnsureExpenseInstances(ctx, 1, core.MonthKey("2026-01")); err != nil {
		t.Fatalf("EnsureExpenseInstances() error = %v", err)
	}

	// Raise the template amount, then generate a later month. The old
	// month keeps what it snapshotted; the new month gets the new amount.
	store.templates[0].Amount = core.Money{Cents: 9500}
	if _, err := engine.EnsureExpenseInstances(ctx, 1, core.MonthKey("2026-02")); err != nil {
		t.Fatalf("EnsureExpenseInstances() error = %v", err)
	}

	jan := store.transactions[core.ExpenseAutoKey(5, "2026-01")]
	feb := store.transactions[core.ExpenseAutoKey(5, "2026-02")]
	if jan.Amount.Cents != 8000 {
		t.Errorf("january amount = %d, want 8000", jan.Amount.Cents)
	}
	if feb.Amount.Cents != 9500 {
		t.Errorf("february amount = %d, want 9500", feb.Amount.Cents)
	}
}

func TestEnsureSalary(t *testing.T) {
	tests := []struct {
		name        string
		settings    core.SalarySettings
		wantCreated bool
		wantDay     int
	}{
		{
			name:        "enabled with default",
			settings:    core.SalarySettings{Enabled: true, DefaultSalary: core.Money{Cents: 250000}, DayOfMonth: 27},
			wantCreated: true,
			wantDay:     27,
		},
		{
			name:        "day above salary cap clamps to 28",
			settings:    core.SalarySettings{Enabled: true, DefaultSalary: core.Money{Cents: 250000}, DayOfMonth: 31},
			wantCreated: true,
			wantDay:     28,
		},
		{
			name:     "disabled",
			settings: core.SalarySettings{Enabled: false, DefaultSalary: core.Money{Cents: 250000}, DayOfMonth: 1},
		},
		{
			name:     "no default salary",
			settings: core.SalarySettings{Enabled: true, DayOfMonth: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			engine := NewEngine(store, store)
			month := core.MonthKey("2026-03")

			created, err := engine.EnsureSalary(context.Background(), 1, month, tt.settings)
			if err != nil {
				t.Fatalf("EnsureSalary() error = %v", err)
			}
			if created != tt.wantCreated {
				t.Fatalf("created = %v, want %v", created, tt.wantCreated)
			}
			if !tt.wantCreated {
				return
			}
			in := store.income[core.SalaryAutoKey(month)]
			if in.Date.Day() != tt.wantDay {
				t.Errorf("salary day = %d, want %d", in.Date.Day(), tt.wantDay)
			}
			if in.Source != core.SourceSalary {
				t.Errorf("source = %q, want %q", in.Source, core.SourceSalary)
			}
		})
	}
}

func TestEnsureSalaryIdempotent(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, store)
	settings := core.SalarySettings{Enabled: true, DefaultSalary: core.Money{Cents: 250000}, DayOfMonth: 1}
	month := core.MonthKey("2026-03")

	if _, err := engine.EnsureSalary(context.Background(), 1, month, settings); err != nil {
		t.Fatalf("EnsureSalary() error = %v", err)
	}
	created, err := engine.EnsureSalary(context.Background(), 1, month, settings)
	if err != nil {
		t.Fatalf("EnsureSalary() second run error = %v", err)
	}
	if created {
		t.Fatal("second run created a duplicate salary")
	}
	if len(store.income) != 1 {
		t.Fatalf("got %d income rows, want 1", len(store.income))
	}
}

func TestEditSalaryForMonth(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, store)
	ctx := context.Background()
	settings := core.SalarySettings{Enabled: true, DefaultSalary: core.Money{Cents: 250000}, DayOfMonth: 10}
	month := core.MonthKey("2026-04")

	if _, err := engine.EnsureSalary(ctx, 1, month, settings); err != nil {
		t.Fatalf("EnsureSalary() error = %v", err)
	}

	edited, err := engine.EditSalaryForMonth(ctx, 1, month, settings, core.Money{Cents: 310000})
	if err != nil {
		t.Fatalf("EditSalaryForMonth() error = %v", err)
	}
	if edited.Amount.Cents != 310000 {
		t.Errorf("edited amount = %d, want 310000", edited.Amount.Cents)
	}

	// The override touches only this month; a later month still uses the
	// stored default.
	next := core.MonthKey("2026-05")
	if _, err := engine.EnsureSalary(ctx, 1, next, settings); err != nil {
		t.Fatalf("EnsureSalary() for next month error = %v", err)
	}
	if got := store.income[core.SalaryAutoKey(next)].Amount.Cents; got != 250000 {
		t.Errorf("next month amount = %d, want 250000", got)
	}
}

func TestEditSalaryForMonthMaterializesMissingInstance(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, store)
	month := core.MonthKey("2026-07")

	edited, err := engine.EditSalaryForMonth(context.Background(), 1, month,
		core.SalarySettings{Enabled: true, DayOfMonth: 1}, core.Money{Cents: 99000})
	if err != nil {
		t.Fatalf("EditSalaryForMonth() error = %v", err)
	}
	if edited.Amount.Cents != 99000 {
		t.Errorf("amount = %d, want 99000", edited.Amount.Cents)
	}
	if _, ok := store.income[core.SalaryAutoKey(month)]; !ok {
		t.Fatal("salary instance was not materialized")
	}
}

func TestEditSalaryForMonthRejectsInvalidAmount(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, store)

	_, err := engine.EditSalaryForMonth(context.Background(), 1, core.MonthKey("2026-07"),
		core.SalarySettings{Enabled: true, DayOfMonth: 1}, core.Money{Cents: 0})
	if !core.IsValidation(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
}
