package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budgetwatch/internal/core"
	"budgetwatch/internal/log"
	"budgetwatch/internal/metrics"
)

// ExpenseService orchestrates expense persistence, budget evaluation and
// alert emission.
type ExpenseService struct {
	expenses      ExpenseStore
	notifications NotificationStore
	budgets       BudgetStore
	events        EventPublisher
	now           func() time.Time
}

func NewExpenseService(expenses ExpenseStore, notifications NotificationStore, budgets BudgetStore, events EventPublisher) *ExpenseService {
	return &ExpenseService{
		expenses:      expenses,
		notifications: notifications,
		budgets:       budgets,
		events:        events,
		now:           time.Now,
	}
}

// RecordExpenseAndAlert persists the expense, recomputes period totals
// over a fresh expense list and, when an active budget exists, runs the
// threshold evaluation. An emitted alert is appended to the notification
// store before the call returns; an append failure propagates so no alert
// is silently lost.
func (s *ExpenseService) RecordExpenseAndAlert(ctx context.Context, e core.Expense) (core.Expense, *core.Notification, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, nil, err
	}

	stored, err := s.expenses.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, nil, fmt.Errorf("save expense: %w", err)
	}
	metrics.ExpensesCreated.Inc()

	if s.events != nil {
		if err := s.events.PublishExpenseCreated(ctx, stored); err != nil {
			// Expense is saved; event delivery is best effort
			slog.ErrorContext(ctx, "Failed to publish expense event",
				log.FieldExpenseID, stored.ID,
				log.FieldError, err)
		}
	}

	list, err := s.expenses.ListExpenses(ctx, stored.OwnerID)
	if err != nil {
		return stored, nil, fmt.Errorf("list expenses: %w", err)
	}
	list = ensureIncluded(filterByOwner(list, stored.OwnerID), stored)

	active, err := s.budgets.GetActiveBudget(ctx)
	if err != nil {
		return stored, nil, fmt.Errorf("load active budget: %w", err)
	}
	if active == nil {
		return stored, nil, nil
	}

	now := s.now()
	totals := core.ComputeTotals(list, now)

	existing, err := s.notifications.ListNotifications(ctx)
	if err != nil {
		return stored, nil, fmt.Errorf("list notifications: %w", err)
	}

	alert := core.EvaluateBudget(totals.ScopeTotal(active.Type), active.Amount, active.Type, existing, now)
	if alert == nil {
		return stored, nil, nil
	}

	if err := s.notifications.AppendNotification(ctx, *alert); err != nil {
		return stored, nil, fmt.Errorf("append alert notification: %w", err)
	}
	metrics.BudgetAlerts.WithLabelValues(string(alert.BudgetType), string(alert.Threshold)).Inc()

	slog.InfoContext(ctx, "Budget alert emitted",
		log.FieldBudgetType, alert.BudgetType,
		log.FieldThreshold, alert.Threshold,
		log.FieldOwnerID, stored.OwnerID)

	if s.events != nil {
		if err := s.events.PublishAlert(ctx, *alert); err != nil {
			slog.ErrorContext(ctx, "Failed to publish alert event",
				log.FieldError, err)
		}
	}

	return stored, alert, nil
}

// PrecheckExpense runs the pre-expense budget gate against the owner's
// current spend in the active budget's scope. No storage is mutated and
// no notification is created.
func (s *ExpenseService) PrecheckExpense(ctx context.Context, ownerID string, candidate core.Money) (core.GateResult, error) {
	active, err := s.budgets.GetActiveBudget(ctx)
	if err != nil {
		return core.GateResult{}, fmt.Errorf("load active budget: %w", err)
	}
	if active == nil {
		return core.CheckBudgetGate(candidate, core.Money{}, nil), nil
	}

	list, err := s.expenses.ListExpenses(ctx, ownerID)
	if err != nil {
		return core.GateResult{}, fmt.Errorf("list expenses: %w", err)
	}

	totals := core.ComputeTotals(filterByOwner(list, ownerID), s.now())
	result := core.CheckBudgetGate(candidate, totals.ScopeTotal(active.Type), &active.Amount)
	if !result.Allowed {
		metrics.GateRejections.WithLabelValues(string(active.Type)).Inc()
	}
	return result, nil
}

// DeleteExpense removes the record. Rate-limit errors surface unchanged so
// the caller can present a retry hint instead of a generic failure.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id, ownerID string) error {
	if err := s.expenses.DeleteExpense(ctx, id, ownerID); err != nil {
		if errors.Is(err, core.ErrRateLimited) {
			slog.WarnContext(ctx, "Expense delete throttled", log.FieldExpenseID, id)
		}
		return err
	}
	metrics.ExpensesDeleted.Inc()
	return nil
}

// ListExpenses returns the owner's expense history.
func (s *ExpenseService) ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	list, err := s.expenses.ListExpenses(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return filterByOwner(list, ownerID), nil
}

// MonthSummary returns the statistics aggregate for a year+month.
func (s *ExpenseService) MonthSummary(ctx context.Context, ownerID string, year, month int) (core.MonthSummary, error) {
	return s.expenses.MonthSummary(ctx, ownerID, year, month)
}

// filterByOwner re-filters defensively; the store is responsible for the
// primary filter but unfiltered input is never trusted.
func filterByOwner(expenses []core.Expense, ownerID string) []core.Expense {
	if ownerID == "" {
		return expenses
	}
	filtered := expenses[:0:0]
	for _, e := range expenses {
		if e.OwnerID == ownerID {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// ensureIncluded guards against a store list that does not yet reflect the
// freshly created record; without it the just-added expense would not
// count toward the threshold check.
func ensureIncluded(expenses []core.Expense, stored core.Expense) []core.Expense {
	for _, e := range expenses {
		if e.ID == stored.ID {
			return expenses
		}
	}
	return append(expenses, stored)
}
