package services

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// BudgetService stores per-month budgets and reconciles them against the
// month's actual spending at read time.
type BudgetService struct {
	storage      *storage.SQLiteRepository
	transactions *TransactionService
}

func NewBudgetService(repo *storage.SQLiteRepository, transactions *TransactionService) *BudgetService {
	return &BudgetService{storage: repo, transactions: transactions}
}

// Get returns the month's budget, empty when none was saved.
func (s *BudgetService) Get(ctx context.Context, ownerID int64, month core.MonthKey) (core.Budget, error) {
	if _, err := core.ParseMonthKey(string(month)); err != nil {
		return core.Budget{}, err
	}
	return s.storage.GetBudget(ctx, ownerID, month)
}

// Put saves the month's budget, replacing any previous one.
func (s *BudgetService) Put(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.storage.UpsertBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}
	return s.storage.GetBudget(ctx, b.OwnerID, b.Month)
}

// Report reconciles the month's budget against its expenses. The month's
// recurring instances are materialized first so the report never misses
// spending the month is owed.
func (s *BudgetService) Report(ctx context.Context, ownerID int64, month core.MonthKey) (core.BudgetReport, error) {
	budget, err := s.Get(ctx, ownerID, month)
	if err != nil {
		return core.BudgetReport{}, err
	}
	expenses, err := s.transactions.ListByMonth(ctx, ownerID, month)
	if err != nil {
		return core.BudgetReport{}, err
	}
	return core.BuildBudgetReport(budget, expenses), nil
}

// Overview aggregates the month's spending by category.
func (s *BudgetService) Overview(ctx context.Context, ownerID int64, month core.MonthKey) (core.MonthOverview, error) {
	if _, err := core.ParseMonthKey(string(month)); err != nil {
		return core.MonthOverview{}, err
	}
	expenses, err := s.transactions.ListByMonth(ctx, ownerID, month)
	if err != nil {
		return core.MonthOverview{}, err
	}
	return core.BuildMonthOverview(month, expenses), nil
}
