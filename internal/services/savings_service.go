package services

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// SavingsService is plain CRUD over savings goals. Progress is whatever
// the user last set; it is never derived from transactions.
type SavingsService struct {
	storage *storage.SQLiteRepository
}

func NewSavingsService(repo *storage.SQLiteRepository) *SavingsService {
	return &SavingsService{storage: repo}
}

func (s *SavingsService) Create(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	return s.storage.CreateSavingsGoal(ctx, g)
}

func (s *SavingsService) Get(ctx context.Context, ownerID, id int64) (core.SavingsGoal, error) {
	return s.storage.GetSavingsGoal(ctx, ownerID, id)
}

func (s *SavingsService) List(ctx context.Context, ownerID int64) ([]core.SavingsGoal, error) {
	return s.storage.ListSavingsGoals(ctx, ownerID)
}

func (s *SavingsService) Update(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	return s.storage.UpdateSavingsGoal(ctx, g)
}

func (s *SavingsService) Delete(ctx context.Context, ownerID, id int64) error {
	return s.storage.DeleteSavingsGoal(ctx, ownerID, id)
}
