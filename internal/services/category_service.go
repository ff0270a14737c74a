package services

import (
	"context"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// defaultCategories are seeded for an owner whose category list is still
// empty, so a fresh account starts with something to pick from.
var defaultCategories = []core.Category{
	{Name: "Food", Color: "#f97316"},
	{Name: "Rent", Color: "#22c55e"},
	{Name: "Transport", Color: "#3b82f6"},
	{Name: "Bills", Color: "#a855f7"},
	{Name: "Shopping", Color: "#ef4444"},
	{Name: "Entertainment", Color: "#06b6d4"},
}

// CategoryService manages the per-user category palette. Transactions
// reference categories by name, so deleting one never touches expenses.
type CategoryService struct {
	storage *storage.SQLiteRepository
}

func NewCategoryService(repo *storage.SQLiteRepository) *CategoryService {
	return &CategoryService{storage: repo}
}

// List returns the owner's categories, seeding the defaults first when
// none exist yet.
func (s *CategoryService) List(ctx context.Context, ownerID int64) ([]core.Category, error) {
	cats, err := s.storage.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(cats) > 0 {
		return cats, nil
	}
	if err := s.storage.SeedCategories(ctx, ownerID, defaultCategories); err != nil {
		return nil, err
	}
	return s.storage.ListCategories(ctx, ownerID)
}

// Upsert saves a category; an existing name gets its color replaced.
func (s *CategoryService) Upsert(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Color = strings.TrimSpace(c.Color)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	return s.storage.UpsertCategory(ctx, c)
}

// Delete removes the owner's category by name.
func (s *CategoryService) Delete(ctx context.Context, ownerID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Validationf("name is required")
	}
	return s.storage.DeleteCategory(ctx, ownerID, name)
}
