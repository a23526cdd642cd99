// Package worker processes budgetwatch events consumed from the broker
// and runs periodic notification housekeeping.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"budgetwatch/internal/amqp"
	"budgetwatch/internal/core"
	"budgetwatch/internal/log"
)

// NotificationStore is the slice of storage the worker needs.
type NotificationStore interface {
	ListNotifications(ctx context.Context) ([]core.Notification, error)
	DeleteNotification(ctx context.Context, id string) error
}

// AlertWorker delivers budget alerts pulled off the queue and sweeps
// old read notifications so the inbox stays small.
type AlertWorker struct {
	store     NotificationStore
	retention time.Duration
	now       func() time.Time
}

func NewAlertWorker(store NotificationStore, retention time.Duration) *AlertWorker {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &AlertWorker{
		store:     store,
		retention: retention,
		now:       time.Now,
	}
}

// HandleEvent dispatches a decoded queue event. Unknown kinds are an
// error so the delivery gets rejected instead of silently acked.
func (w *AlertWorker) HandleEvent(ctx context.Context, ev *amqp.Event) error {
	switch ev.Kind {
	case amqp.KindAlert:
		var msg amqp.AlertMessage
		if err := json.Unmarshal(ev.Payload, &msg); err != nil {
			return fmt.Errorf("decode alert payload: %w", err)
		}
		return w.handleAlert(ctx, &msg)
	case amqp.KindExpenseCreated:
		var msg amqp.ExpenseCreatedMessage
		if err := json.Unmarshal(ev.Payload, &msg); err != nil {
			return fmt.Errorf("decode expense payload: %w", err)
		}
		return w.handleExpenseCreated(ctx, &msg)
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

// handleAlert is the delivery hook for budget alerts. Push transports
// (APNs, email) plug in here; for now delivery is the structured log
// stream scraped by the ops stack.
func (w *AlertWorker) handleAlert(ctx context.Context, msg *amqp.AlertMessage) error {
	slog.InfoContext(ctx, "Delivering budget alert",
		log.FieldComponent, log.ComponentWorker,
		"notification_id", msg.NotificationID,
		log.FieldBudgetType, msg.BudgetType,
		log.FieldThreshold, msg.Threshold,
		"message", msg.Message)
	return nil
}

func (w *AlertWorker) handleExpenseCreated(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error {
	slog.InfoContext(ctx, "Expense recorded",
		log.FieldComponent, log.ComponentWorker,
		log.FieldExpenseID, msg.ExpenseID,
		log.FieldOwnerID, msg.OwnerID,
		log.FieldAmountCents, msg.AmountCents)
	return nil
}

// SweepReadNotifications deletes read notifications older than the
// retention window. Unread ones are kept regardless of age.
func (w *AlertWorker) SweepReadNotifications(ctx context.Context) (int, error) {
	list, err := w.store.ListNotifications(ctx)
	if err != nil {
		return 0, fmt.Errorf("list notifications: %w", err)
	}

	cutoff := w.now().Add(-w.retention)
	deleted := 0
	for _, n := range list {
		if !n.Read || n.CreatedAt.After(cutoff) {
			continue
		}
		if err := w.store.DeleteNotification(ctx, n.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to delete stale notification",
				"notification_id", n.ID, "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		slog.InfoContext(ctx, "Swept read notifications", "deleted", deleted)
	}
	return deleted, nil
}

// RunSweeper sweeps on a fixed interval until ctx is done.
func (w *AlertWorker) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.SweepReadNotifications(ctx); err != nil {
				slog.ErrorContext(ctx, "Notification sweep failed", "error", err)
			}
		}
	}
}
