package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/importer"
	"fintrack/internal/recurrence"
	"fintrack/internal/storage"
)

// IncomeService orchestrates income operations including on-demand salary
// materialization from the owner's salary settings.
type IncomeService struct {
	storage *storage.SQLiteRepository
	engine  *recurrence.Engine
	events  *amqp.Client
	months  *cache.LRUCache[[]core.Income]
}

func NewIncomeService(repo *storage.SQLiteRepository, engine *recurrence.Engine, events *amqp.Client) *IncomeService {
	return &IncomeService{
		storage: repo,
		engine:  engine,
		events:  events,
		months:  cache.NewLRUCache[[]core.Income](monthCacheSize, monthCacheTTL),
	}
}

func (s *IncomeService) Create(ctx context.Context, in core.Income) (core.Income, error) {
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	in.Date = middayUTC(in.Date)
	in.AutoKey = ""
	if in.Source == "" {
		in.Source = "income"
	}
	saved, err := s.storage.CreateIncome(ctx, in)
	if err != nil {
		return core.Income{}, err
	}
	s.monthChanged(ctx, in.OwnerID, core.MonthKeyOf(in.Date))
	return saved, nil
}

// ListByMonth returns the month's income, materializing the salary
// instance first when salary settings call for one.
func (s *IncomeService) ListByMonth(ctx context.Context, ownerID int64, month core.MonthKey) ([]core.Income, error) {
	key := monthCacheKey(ownerID, string(month))
	if cached, ok := s.months.Get(key); ok {
		return cached, nil
	}

	settings, err := s.storage.GetSalarySettings(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.engine.EnsureSalary(ctx, ownerID, month, settings); err != nil {
		return nil, err
	}

	start, end := month.Bounds()
	list, err := s.storage.ListIncomeInRange(ctx, ownerID, start, end)
	if err != nil {
		return nil, err
	}
	s.months.Set(key, list)
	return list, nil
}

func (s *IncomeService) Get(ctx context.Context, ownerID, id int64) (core.Income, error) {
	return s.storage.GetIncome(ctx, ownerID, id)
}

func (s *IncomeService) List(ctx context.Context, ownerID int64) ([]core.Income, error) {
	return s.storage.ListIncome(ctx, ownerID)
}

func (s *IncomeService) Update(ctx context.Context, in core.Income) (core.Income, error) {
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	in.Date = middayUTC(in.Date)
	saved, err := s.storage.UpdateIncome(ctx, in)
	if err != nil {
		return core.Income{}, err
	}
	s.monthChanged(ctx, in.OwnerID, core.MonthKeyOf(saved.Date))
	return saved, nil
}

func (s *IncomeService) Delete(ctx context.Context, ownerID, id int64) error {
	in, err := s.storage.GetIncome(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteIncome(ctx, ownerID, id); err != nil {
		return err
	}
	s.monthChanged(ctx, ownerID, core.MonthKeyOf(in.Date))
	return nil
}

// ImportCSV parses a CSV export and creates one income row per valid row.
// The category column maps to the income source; rows without one run
// through the owner's income-side smart rules.
func (s *IncomeService) ImportCSV(ctx context.Context, ownerID int64, r io.Reader) (importer.Result, error) {
	ruleset, err := s.storage.ListRulesFor(ctx, ownerID, core.ApplyIncome)
	if err != nil {
		return importer.Result{}, fmt.Errorf("load rules: %w", err)
	}

	records, result, err := importer.NewParser(core.ApplyIncome, ruleset, 0).Parse(r)
	if err != nil {
		return importer.Result{}, err
	}

	batch := make([]core.Income, 0, len(records))
	for _, rec := range records {
		batch = append(batch, core.Income{
			OwnerID:     ownerID,
			Source:      rec.Category,
			Amount:      rec.Amount,
			Date:        rec.Date,
			Description: rec.Description,
		})
	}
	// One SQL transaction: a failed row must not leave a partial batch.
	if err := s.storage.CreateIncomeBatch(ctx, batch); err != nil {
		return importer.Result{}, fmt.Errorf("save imported rows: %w", err)
	}

	slog.InfoContext(ctx, "Imported CSV income",
		"owner_id", ownerID,
		"batch_id", result.BatchID,
		"imported", result.Imported,
		"errors", len(result.Errors))

	s.months.DeletePrefix(fmt.Sprintf("%d:", ownerID))
	return result, nil
}

func (s *IncomeService) SalarySettings(ctx context.Context, ownerID int64) (core.SalarySettings, error) {
	return s.storage.GetSalarySettings(ctx, ownerID)
}

// UpdateSalarySettings saves new salary settings. The day of month is
// clamped on write so every future month materializes on a day that
// exists.
func (s *IncomeService) UpdateSalarySettings(ctx context.Context, ownerID int64, settings core.SalarySettings) (core.SalarySettings, error) {
	settings.DayOfMonth = core.ClampSalaryDay(settings.DayOfMonth)
	if err := settings.Validate(); err != nil {
		return core.SalarySettings{}, err
	}
	if err := s.storage.UpsertSalarySettings(ctx, ownerID, settings); err != nil {
		return core.SalarySettings{}, err
	}
	slog.InfoContext(ctx, "Salary settings updated",
		"owner_id", ownerID,
		"enabled", settings.Enabled,
		"day_of_month", settings.DayOfMonth)
	s.months.DeletePrefix(fmt.Sprintf("%d:", ownerID))
	return settings, nil
}

// EditSalaryForMonth overrides one month's salary amount. With
// applyToFuture the stored default is replaced and salary is switched on,
// so months not yet materialized pick up the new amount; months already
// generated keep their snapshot.
func (s *IncomeService) EditSalaryForMonth(ctx context.Context, ownerID int64, month core.MonthKey, amount core.Money, applyToFuture bool) (core.Income, error) {
	settings, err := s.storage.GetSalarySettings(ctx, ownerID)
	if err != nil {
		return core.Income{}, err
	}
	edited, err := s.engine.EditSalaryForMonth(ctx, ownerID, month, settings, amount)
	if err != nil {
		return core.Income{}, err
	}
	if applyToFuture {
		settings.DefaultSalary = amount
		settings.Enabled = true
		settings.DayOfMonth = core.ClampSalaryDay(settings.DayOfMonth)
		if err := s.storage.UpsertSalarySettings(ctx, ownerID, settings); err != nil {
			return core.Income{}, fmt.Errorf("update default salary: %w", err)
		}
	}
	s.monthChanged(ctx, ownerID, month)
	return edited, nil
}

func (s *IncomeService) monthChanged(ctx context.Context, ownerID int64, month core.MonthKey) {
	s.months.DeletePrefix(fmt.Sprintf("%d:", ownerID))
	if s.events == nil {
		return
	}
	if err := s.events.PublishMonthChanged(ctx, ownerID, month, amqp.KindIncome); err != nil {
		slog.ErrorContext(ctx, "Failed to publish month changed event",
			"owner_id", ownerID,
			"month", month,
			"error", err)
	}
}
