package services

import (
	"context"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/rules"
	"fintrack/internal/storage"
)

// RulesService manages smart categorization rules.
type RulesService struct {
	storage *storage.SQLiteRepository
}

func NewRulesService(repo *storage.SQLiteRepository) *RulesService {
	return &RulesService{storage: repo}
}

func (s *RulesService) List(ctx context.Context, ownerID int64) ([]core.SmartRule, error) {
	return s.storage.ListRules(ctx, ownerID)
}

// Upsert saves a rule. Keywords are stored lowercase since matching is
// case-insensitive anyway; a duplicate (keyword, applyTo) overwrites the
// category.
func (s *RulesService) Upsert(ctx context.Context, rule core.SmartRule) (core.SmartRule, error) {
	rule.Keyword = strings.ToLower(strings.TrimSpace(rule.Keyword))
	rule.Category = strings.TrimSpace(rule.Category)
	if rule.ApplyTo == "" {
		rule.ApplyTo = core.ApplyExpense
	}
	if err := rule.Validate(); err != nil {
		return core.SmartRule{}, err
	}
	return s.storage.UpsertRule(ctx, rule)
}

func (s *RulesService) Delete(ctx context.Context, ownerID, id int64) error {
	return s.storage.DeleteRule(ctx, ownerID, id)
}

// Categorize resolves a category for one description in a direction, or
// "" when no rule matches. Exposed for previewing what an import would do.
func (s *RulesService) Categorize(ctx context.Context, ownerID int64, direction core.Direction, description string) (string, error) {
	if err := direction.Validate(); err != nil {
		return "", err
	}
	ruleset, err := s.storage.ListRulesFor(ctx, ownerID, direction)
	if err != nil {
		return "", err
	}
	return rules.Match(description, ruleset), nil
}
