package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/recurrence"
	"fintrack/internal/storage"
)

func newTestServices(t *testing.T) (*TransactionService, *IncomeService, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack_test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	engine := recurrence.NewEngine(repo, repo)
	return NewTransactionService(repo, engine, nil),
		NewIncomeService(repo, engine, nil),
		repo
}

func TestCreateRecurringExpense(t *testing.T) {
	svc, _, repo := newTestServices(t)
	ctx := context.Background()

	template, err := svc.Create(ctx, core.Transaction{
		OwnerID:     1,
		Category:    "Rent",
		Amount:      core.Money{Cents: 120000},
		Date:        time.Date(2026, 3, 7, 18, 30, 0, 0, time.UTC),
		Description: "Apartment",
		IsRecurring: true,
		Rule:        core.RecurrenceRule{Freq: core.FreqMonthly, DayOfMonth: 1},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !template.IsTemplate {
		t.Fatal("recurring create did not return a template")
	}

	// The creation month got its instance immediately.
	month := core.MonthKey("2026-03")
	start, end := month.Bounds()
	instances, err := repo.ListTransactionsInRange(ctx, 1, start, end)
	if err != nil {
		t.Fatalf("ListTransactionsInRange() error = %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("got %d instances in creation month, want 1", len(instances))
	}
	got := instances[0]
	if got.TemplateID != template.ID {
		t.Errorf("template id = %d, want %d", got.TemplateID, template.ID)
	}
	if got.AutoKey != core.ExpenseAutoKey(template.ID, month) {
		t.Errorf("auto key = %q", got.AutoKey)
	}
	if got.IsTemplate {
		t.Error("instance is flagged as template")
	}
	// The instance lands on the rule's day, not the entry date.
	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if !got.Date.Equal(want) {
		t.Errorf("instance date = %v, want %v", got.Date, want)
	}
}

func TestListByMonthMaterializesAndCaches(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, core.Transaction{
		OwnerID:     1,
		Category:    "Subscriptions",
		Amount:      core.Money{Cents: 1299},
		Date:        time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC),
		IsRecurring: true,
		Rule:        core.RecurrenceRule{Freq: core.FreqMonthly, DayOfMonth: 31},
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// A later month materializes on first read, with the day clamped.
	list, err := svc.ListByMonth(ctx, 1, core.MonthKey("2026-02"))
	if err != nil {
		t.Fatalf("ListByMonth() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d instances, want 1", len(list))
	}
	if list[0].Date.Day() != 28 {
		t.Errorf("clamped day = %d, want 28", list[0].Date.Day())
	}

	again, err := svc.ListByMonth(ctx, 1, core.MonthKey("2026-02"))
	if err != nil {
		t.Fatalf("ListByMonth() second call error = %v", err)
	}
	if len(again) != 1 {
		t.Fatalf("second read returned %d instances, want 1", len(again))
	}
}

func TestDeleteInvalidatesMonthCache(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, core.Transaction{
		OwnerID:  1,
		Category: "Food",
		Amount:   core.Money{Cents: 2000},
		Date:     time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	month := core.MonthKey("2026-04")
	if list, _ := svc.ListByMonth(ctx, 1, month); len(list) != 1 {
		t.Fatalf("got %d transactions before delete", len(list))
	}
	if err := svc.Delete(ctx, 1, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	list, err := svc.ListByMonth(ctx, 1, month)
	if err != nil {
		t.Fatalf("ListByMonth() after delete error = %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("got %d transactions after delete, want 0 (stale cache?)", len(list))
	}
}

func TestImportCSV(t *testing.T) {
	svc, _, repo := newTestServices(t)
	ctx := context.Background()

	if _, err := repo.UpsertRule(ctx, core.SmartRule{
		OwnerID: 1, Keyword: "esselunga", Category: "Groceries", ApplyTo: core.ApplyExpense,
	}); err != nil {
		t.Fatalf("UpsertRule() error = %v", err)
	}

	csv := strings.Join([]string{
		"date,category,amount,description",
		"2026-05-02,Food,12.50,Lunch",
		"2026-05-03,,-31.80,ESSELUNGA Milano",
		"bad-date,Food,5,X",
	}, "\n")

	result, err := svc.ImportCSV(ctx, 1, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("imported = %d, want 2", result.Imported)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 4 {
		t.Fatalf("errors = %+v, want one error at row 4", result.Errors)
	}

	list, err := svc.ListByMonth(ctx, 1, core.MonthKey("2026-05"))
	if err != nil {
		t.Fatalf("ListByMonth() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d transactions, want 2", len(list))
	}
	var categories []string
	for _, tr := range list {
		categories = append(categories, tr.Category)
		if tr.Amount.Cents < 0 {
			t.Errorf("imported amount is negative: %d", tr.Amount.Cents)
		}
	}
	found := false
	for _, c := range categories {
		if c == "Groceries" {
			found = true
		}
	}
	if !found {
		t.Errorf("rule-matched category missing, got %v", categories)
	}
}

func TestIncomeListByMonthMaterializesSalary(t *testing.T) {
	_, incomes, repo := newTestServices(t)
	ctx := context.Background()

	if _, err := incomes.UpdateSalarySettings(ctx, 1, core.SalarySettings{
		Enabled:       true,
		DefaultSalary: core.Money{Cents: 250000},
		DayOfMonth:    31, // clamps to 28
	}); err != nil {
		t.Fatalf("UpdateSalarySettings() error = %v", err)
	}

	month := core.MonthKey("2026-07")
	list, err := incomes.ListByMonth(ctx, 1, month)
	if err != nil {
		t.Fatalf("ListByMonth() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d income rows, want 1", len(list))
	}
	salary := list[0]
	if salary.Source != core.SourceSalary || salary.AutoKey != core.SalaryAutoKey(month) {
		t.Errorf("salary row = %+v", salary)
	}
	if salary.Date.Day() != 28 {
		t.Errorf("salary day = %d, want 28", salary.Date.Day())
	}

	// An override for one month leaves the default and other months alone.
	if _, err := incomes.EditSalaryForMonth(ctx, 1, month, core.Money{Cents: 310000}, false); err != nil {
		t.Fatalf("EditSalaryForMonth() error = %v", err)
	}
	list, _ = incomes.ListByMonth(ctx, 1, month)
	if list[0].Amount.Cents != 310000 {
		t.Errorf("overridden amount = %d, want 310000", list[0].Amount.Cents)
	}
	next, err := incomes.ListByMonth(ctx, 1, core.MonthKey("2026-08"))
	if err != nil {
		t.Fatalf("ListByMonth() next month error = %v", err)
	}
	if next[0].Amount.Cents != 250000 {
		t.Errorf("next month amount = %d, want 250000", next[0].Amount.Cents)
	}

	got, err := repo.GetSalarySettings(ctx, 1)
	if err != nil {
		t.Fatalf("GetSalarySettings() error = %v", err)
	}
	if got.DefaultSalary.Cents != 250000 {
		t.Errorf("default salary changed to %d", got.DefaultSalary.Cents)
	}

	// applyToFuture raises the default; September (not yet materialized)
	// gets the new amount, August keeps its snapshot.
	if _, err := incomes.EditSalaryForMonth(ctx, 1, month, core.Money{Cents: 320000}, true); err != nil {
		t.Fatalf("EditSalaryForMonth(applyToFuture) error = %v", err)
	}
	got, _ = repo.GetSalarySettings(ctx, 1)
	if got.DefaultSalary.Cents != 320000 {
		t.Errorf("default salary = %d, want 320000", got.DefaultSalary.Cents)
	}
	sept, err := incomes.ListByMonth(ctx, 1, core.MonthKey("2026-09"))
	if err != nil {
		t.Fatalf("ListByMonth() september error = %v", err)
	}
	if sept[0].Amount.Cents != 320000 {
		t.Errorf("september amount = %d, want 320000", sept[0].Amount.Cents)
	}
	aug, _ := incomes.ListByMonth(ctx, 1, core.MonthKey("2026-08"))
	if aug[0].Amount.Cents != 250000 {
		t.Errorf("august amount = %d, want 250000 (snapshot)", aug[0].Amount.Cents)
	}
}

func TestEditSalaryForMonthAppliedToFutureEnablesSalary(t *testing.T) {
	_, incomes, repo := newTestServices(t)
	ctx := context.Background()

	if _, err := incomes.UpdateSalarySettings(ctx, 1, core.SalarySettings{
		Enabled:    false,
		DayOfMonth: 15,
	}); err != nil {
		t.Fatalf("UpdateSalarySettings() error = %v", err)
	}

	month := core.MonthKey("2026-07")
	if _, err := incomes.EditSalaryForMonth(ctx, 1, month, core.Money{Cents: 300000}, true); err != nil {
		t.Fatalf("EditSalaryForMonth() error = %v", err)
	}

	settings, err := repo.GetSalarySettings(ctx, 1)
	if err != nil {
		t.Fatalf("GetSalarySettings() error = %v", err)
	}
	if !settings.Enabled {
		t.Error("settings still disabled after applyToFuture")
	}
	if settings.DefaultSalary.Cents != 300000 {
		t.Errorf("default salary = %d, want 300000", settings.DefaultSalary.Cents)
	}

	// The next month materializes from the newly enabled default.
	next, err := incomes.ListByMonth(ctx, 1, core.MonthKey("2026-08"))
	if err != nil {
		t.Fatalf("ListByMonth() error = %v", err)
	}
	if len(next) != 1 {
		t.Fatalf("got %d income rows next month, want 1", len(next))
	}
	if next[0].Amount.Cents != 300000 {
		t.Errorf("next month salary = %d, want 300000", next[0].Amount.Cents)
	}
}

func TestImportCSVIncome(t *testing.T) {
	_, incomes, repo := newTestServices(t)
	ctx := context.Background()

	if _, err := repo.UpsertRule(ctx, core.SmartRule{
		OwnerID: 1, Keyword: "acme", Category: "Consulting", ApplyTo: core.ApplyIncome,
	}); err != nil {
		t.Fatalf("UpsertRule() error = %v", err)
	}

	csv := strings.Join([]string{
		"date,category,amount,description",
		"2026-05-10,Dividends,120.00,Broker payout",
		"2026-05-12,,800,ACME invoice",
	}, "\n")

	result, err := incomes.ImportCSV(ctx, 1, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("imported = %d, want 2", result.Imported)
	}

	list, err := repo.ListIncome(ctx, 1)
	if err != nil {
		t.Fatalf("ListIncome() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d income rows, want 2", len(list))
	}
	sources := map[string]bool{}
	for _, in := range list {
		sources[in.Source] = true
	}
	if !sources["Dividends"] || !sources["Consulting"] {
		t.Errorf("sources = %v, want Dividends and rule-matched Consulting", sources)
	}
}
