package services

import (
	"context"
	"fmt"

	"budgetwatch/internal/core"
)

// BudgetService manages budget definitions and the active pointer.
type BudgetService struct {
	budgets BudgetStore
}

func NewBudgetService(budgets BudgetStore) *BudgetService {
	return &BudgetService{budgets: budgets}
}

// Upsert validates and stores a budget keyed by (period, type).
func (s *BudgetService) Upsert(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.budgets.UpsertBudget(ctx, b); err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

// Activate promotes a stored budget to active.
func (s *BudgetService) Activate(ctx context.Context, period string, btype core.BudgetType) error {
	if !btype.Valid() {
		return core.ErrInvalidType
	}
	return s.budgets.SetActiveBudget(ctx, period, btype)
}

// Active returns the currently active budget, nil when none is set.
func (s *BudgetService) Active(ctx context.Context) (*core.Budget, error) {
	return s.budgets.GetActiveBudget(ctx)
}

// List returns every stored budget.
func (s *BudgetService) List(ctx context.Context) ([]core.Budget, error) {
	return s.budgets.ListBudgets(ctx)
}

// Delete removes a budget; the store clears the active pointer when it
// referenced the deleted row.
func (s *BudgetService) Delete(ctx context.Context, period string, btype core.BudgetType) error {
	if !btype.Valid() {
		return core.ErrInvalidType
	}
	return s.budgets.DeleteBudget(ctx, period, btype)
}
