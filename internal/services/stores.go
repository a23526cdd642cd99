package services

import (
	"context"

	"budgetwatch/internal/core"
)

// ExpenseStore supplies and persists expense records. Implementations must
// fail with core.ErrUnauthenticated when no owner is resolvable, with
// core.ErrUnauthorized on foreign deletes, and with core.ErrRateLimited
// when the backing service throttles.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	ListExpenses(ctx context.Context, ownerID string) ([]core.Expense, error)
	DeleteExpense(ctx context.Context, id, ownerID string) error
	MonthSummary(ctx context.Context, ownerID string, year, month int) (core.MonthSummary, error)
}

// NotificationStore is a whole-collection read/append store; callers
// re-read the full list before mutating to avoid lost updates.
type NotificationStore interface {
	ListNotifications(ctx context.Context) ([]core.Notification, error)
	AppendNotification(ctx context.Context, n core.Notification) error
	MarkNotificationRead(ctx context.Context, id string) error
	DeleteNotification(ctx context.Context, id string) error
	UnreadNotificationCount(ctx context.Context) (int, error)
	ClearNotifications(ctx context.Context) error
}

// BudgetStore persists budget definitions and the active pointer.
type BudgetStore interface {
	GetActiveBudget(ctx context.Context) (*core.Budget, error)
	SetActiveBudget(ctx context.Context, period string, btype core.BudgetType) error
	ListBudgets(ctx context.Context) ([]core.Budget, error)
	UpsertBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, period string, btype core.BudgetType) error
}

// EventPublisher fans domain events out to interested consumers (the
// delivery worker). Publishing is best effort; a nil publisher disables it.
type EventPublisher interface {
	PublishAlert(ctx context.Context, n core.Notification) error
	PublishExpenseCreated(ctx context.Context, e core.Expense) error
}
