package services

import (
	"context"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// DebtService wraps the debt ledger. The balance invariant lives in the
// storage layer's transactional updates; this layer validates input and
// logs.
type DebtService struct {
	storage *storage.SQLiteRepository
}

func NewDebtService(repo *storage.SQLiteRepository) *DebtService {
	return &DebtService{storage: repo}
}

func (s *DebtService) Create(ctx context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	saved, err := s.storage.CreateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, err
	}
	slog.InfoContext(ctx, "Debt created",
		"owner_id", saved.OwnerID,
		"debt_id", saved.ID,
		"total_cents", saved.Total.Cents)
	return saved, nil
}

func (s *DebtService) Get(ctx context.Context, ownerID, id int64) (core.Debt, error) {
	return s.storage.GetDebt(ctx, ownerID, id)
}

func (s *DebtService) List(ctx context.Context, ownerID int64) ([]core.Debt, error) {
	return s.storage.ListDebts(ctx, ownerID)
}

// RecordPayment applies a payment against a debt. Payments above the
// remaining amount are rejected with the debt unchanged.
func (s *DebtService) RecordPayment(ctx context.Context, ownerID, debtID int64, amount core.Money, paidAt time.Time) (core.Debt, error) {
	if err := amount.Validate(); err != nil {
		return core.Debt{}, err
	}
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	debt, err := s.storage.RecordPayment(ctx, ownerID, debtID, amount, paidAt)
	if err != nil {
		return core.Debt{}, err
	}
	slog.InfoContext(ctx, "Debt payment recorded",
		"owner_id", ownerID,
		"debt_id", debtID,
		"amount_cents", amount.Cents,
		"remaining_cents", debt.Remaining.Cents)
	return debt, nil
}

// Update overwrites creditor, total and due date. The total can be raised
// freely but never lowered below what was already paid.
func (s *DebtService) Update(ctx context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	return s.storage.UpdateDebt(ctx, d)
}

func (s *DebtService) Delete(ctx context.Context, ownerID, id int64) error {
	return s.storage.DeleteDebt(ctx, ownerID, id)
}
