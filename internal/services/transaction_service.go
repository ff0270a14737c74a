package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/importer"
	"fintrack/internal/recurrence"
	"fintrack/internal/storage"
)

const (
	monthCacheSize = 512
	monthCacheTTL  = 5 * time.Minute
)

// TransactionService orchestrates expense operations: persistence,
// on-demand recurrence materialization, month caching and change events.
type TransactionService struct {
	storage *storage.SQLiteRepository
	engine  *recurrence.Engine
	events  *amqp.Client
	months  *cache.LRUCache[[]core.Transaction]
}

func NewTransactionService(repo *storage.SQLiteRepository, engine *recurrence.Engine, events *amqp.Client) *TransactionService {
	return &TransactionService{
		storage: repo,
		engine:  engine,
		events:  events,
		months:  cache.NewLRUCache[[]core.Transaction](monthCacheSize, monthCacheTTL),
	}
}

// Create saves an expense. A recurring expense becomes a template plus the
// materialized instance for the expense's own month; a plain expense is a
// single row.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.Date = middayUTC(t.Date)

	if !t.IsRecurring {
		t.IsTemplate = false
		t.TemplateID = 0
		t.AutoKey = ""
		saved, err := s.storage.CreateTransaction(ctx, t)
		if err != nil {
			return core.Transaction{}, err
		}
		s.monthChanged(ctx, t.OwnerID, core.MonthKeyOf(t.Date), amqp.KindExpense)
		return saved, nil
	}

	// Recurring: persist the template, then materialize this month's
	// instance from it.
	template := t
	template.IsTemplate = true
	template.TemplateID = 0
	template.AutoKey = ""
	template, err := s.storage.CreateTransaction(ctx, template)
	if err != nil {
		return core.Transaction{}, err
	}

	month := core.MonthKeyOf(t.Date)
	instance := core.Transaction{
		OwnerID:     t.OwnerID,
		Category:    t.Category,
		Amount:      t.Amount,
		Date:        month.MiddayUTC(month.ClampDay(t.Rule.DayOfMonth)),
		Description: t.Description,
		IsRecurring: true,
		TemplateID:  template.ID,
		AutoKey:     core.ExpenseAutoKey(template.ID, month),
		Rule:        t.Rule,
	}
	if _, err := s.storage.InsertInstanceIfAbsent(ctx, instance); err != nil {
		return core.Transaction{}, fmt.Errorf("materialize first instance: %w", err)
	}

	s.monthChanged(ctx, t.OwnerID, month, amqp.KindExpense)
	return template, nil
}

// ListByMonth returns the month's expense instances, materializing any the
// month is still owed first. Results are cached per (owner, month) until
// the next mutation.
func (s *TransactionService) ListByMonth(ctx context.Context, ownerID int64, month core.MonthKey) ([]core.Transaction, error) {
	key := monthCacheKey(ownerID, string(month))
	if cached, ok := s.months.Get(key); ok {
		return cached, nil
	}

	if _, err := s.engine.EnsureExpenseInstances(ctx, ownerID, month); err != nil {
		return nil, err
	}
	start, end := month.Bounds()
	list, err := s.storage.ListTransactionsInRange(ctx, ownerID, start, end)
	if err != nil {
		return nil, err
	}
	s.months.Set(key, list)
	return list, nil
}

func (s *TransactionService) Get(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, ownerID, id)
}

func (s *TransactionService) List(ctx context.Context, ownerID int64) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, ownerID)
}

// ListTemplates returns the owner's recurring expense templates.
func (s *TransactionService) ListTemplates(ctx context.Context, ownerID int64) ([]core.Transaction, error) {
	return s.storage.ListExpenseTemplates(ctx, ownerID)
}

// Update overwrites an owned row. Editing a template changes what future
// months generate; instances already materialized keep their snapshot.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.Date = middayUTC(t.Date)
	saved, err := s.storage.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.monthChanged(ctx, t.OwnerID, core.MonthKeyOf(saved.Date), amqp.KindExpense)
	return saved, nil
}

func (s *TransactionService) Delete(ctx context.Context, ownerID, id int64) error {
	t, err := s.storage.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteTransaction(ctx, ownerID, id); err != nil {
		return err
	}
	s.monthChanged(ctx, ownerID, core.MonthKeyOf(t.Date), amqp.KindExpense)
	return nil
}

// ImportCSV parses a CSV export and creates one expense per valid row.
// Rows without a category run through the owner's smart rules.
func (s *TransactionService) ImportCSV(ctx context.Context, ownerID int64, r io.Reader) (importer.Result, error) {
	ruleset, err := s.storage.ListRulesFor(ctx, ownerID, core.ApplyExpense)
	if err != nil {
		return importer.Result{}, fmt.Errorf("load rules: %w", err)
	}

	records, result, err := importer.NewParser(core.ApplyExpense, ruleset, 0).Parse(r)
	if err != nil {
		return importer.Result{}, err
	}

	batch := make([]core.Transaction, 0, len(records))
	for _, rec := range records {
		batch = append(batch, core.Transaction{
			OwnerID:     ownerID,
			Category:    rec.Category,
			Amount:      rec.Amount,
			Date:        rec.Date,
			Description: rec.Description,
		})
	}
	// One SQL transaction: a failed row must not leave a partial batch.
	if err := s.storage.CreateTransactionsBatch(ctx, batch); err != nil {
		return importer.Result{}, fmt.Errorf("save imported rows: %w", err)
	}

	slog.InfoContext(ctx, "Imported CSV expenses",
		"owner_id", ownerID,
		"batch_id", result.BatchID,
		"imported", result.Imported,
		"errors", len(result.Errors))

	s.invalidateMonths(ownerID)
	return result, nil
}

func (s *TransactionService) monthChanged(ctx context.Context, ownerID int64, month core.MonthKey, kind string) {
	s.invalidateMonths(ownerID)
	if s.events == nil {
		return
	}
	// Best effort: the mutation already succeeded locally.
	if err := s.events.PublishMonthChanged(ctx, ownerID, month, kind); err != nil {
		slog.ErrorContext(ctx, "Failed to publish month changed event",
			"owner_id", ownerID,
			"month", month,
			"error", err)
	}
}

func (s *TransactionService) invalidateMonths(ownerID int64) {
	s.months.DeletePrefix(fmt.Sprintf("%d:", ownerID))
}

func monthCacheKey(ownerID int64, month string) string {
	return fmt.Sprintf("%d:%s", ownerID, month)
}

func middayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
}
