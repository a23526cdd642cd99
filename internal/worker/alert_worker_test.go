package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"budgetwatch/internal/amqp"
	"budgetwatch/internal/core"
)

type fakeNotificationStore struct {
	notifications []core.Notification
	deleted       []string
}

func (f *fakeNotificationStore) ListNotifications(_ context.Context) ([]core.Notification, error) {
	return f.notifications, nil
}

func (f *fakeNotificationStore) DeleteNotification(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func mustEvent(t *testing.T, kind string, payload any) *amqp.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &amqp.Event{Kind: kind, Payload: raw}
}

func TestHandleEventDispatch(t *testing.T) {
	w := NewAlertWorker(&fakeNotificationStore{}, time.Hour)
	ctx := context.Background()

	ev := mustEvent(t, amqp.KindAlert, amqp.AlertMessage{
		NotificationID: "n1",
		Message:        "You have exceeded your monthly budget (105% used)",
		BudgetType:     "monthly",
		Threshold:      "exceeded",
	})
	if err := w.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("alert event: %v", err)
	}

	ev = mustEvent(t, amqp.KindExpenseCreated, amqp.ExpenseCreatedMessage{
		ExpenseID: "e1", OwnerID: "u1", AmountCents: 1200,
	})
	if err := w.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("expense event: %v", err)
	}
}

func TestHandleEventUnknownKind(t *testing.T) {
	w := NewAlertWorker(&fakeNotificationStore{}, time.Hour)
	if err := w.HandleEvent(context.Background(), &amqp.Event{Kind: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestHandleEventMalformedPayload(t *testing.T) {
	w := NewAlertWorker(&fakeNotificationStore{}, time.Hour)
	ev := &amqp.Event{Kind: amqp.KindAlert, Payload: json.RawMessage(`{not json`)}
	if err := w.HandleEvent(context.Background(), ev); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestSweepReadNotifications(t *testing.T) {
	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	store := &fakeNotificationStore{
		notifications: []core.Notification{
			{ID: "old-read", Read: true, CreatedAt: now.Add(-48 * time.Hour)},
			{ID: "old-unread", Read: false, CreatedAt: now.Add(-48 * time.Hour)},
			{ID: "fresh-read", Read: true, CreatedAt: now.Add(-time.Hour)},
		},
	}
	w := NewAlertWorker(store, 24*time.Hour)
	w.now = func() time.Time { return now }

	deleted, err := w.SweepReadNotifications(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "old-read" {
		t.Fatalf("deleted ids = %v", store.deleted)
	}
}
