package services

import (
	"context"

	"budgetwatch/internal/core"
)

// NotificationService exposes the notification inbox to the API layer.
type NotificationService struct {
	notifications NotificationStore
}

func NewNotificationService(notifications NotificationStore) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// List returns all notification records, newest first.
func (s *NotificationService) List(ctx context.Context) ([]core.Notification, error) {
	return s.notifications.ListNotifications(ctx)
}

// MarkRead flips the read flag on one record.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return s.notifications.MarkNotificationRead(ctx, id)
}

// Delete removes one record.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	return s.notifications.DeleteNotification(ctx, id)
}

// UnreadCount returns the number of unread records, shown as the badge
// count in the client.
func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	return s.notifications.UnreadNotificationCount(ctx)
}

// Clear removes every record.
func (s *NotificationService) Clear(ctx context.Context) error {
	return s.notifications.ClearNotifications(ctx)
}
