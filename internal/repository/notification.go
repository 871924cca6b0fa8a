package repository

import (
	"context"

	"carpool/internal/domain"
)

// NotificationRepository defines the persistence operations for notifications.
type NotificationRepository interface {
	// Create persists a new notification.
	Create(ctx context.Context, n *domain.Notification) error

	// ListByRecipient returns a user's notifications, newest first.
	ListByRecipient(ctx context.Context, userID string) ([]*domain.NotificationView, error)

	// MarkRead flags a notification as read if it belongs to userID.
	MarkRead(ctx context.Context, id, userID string) error

	// DeleteByJoinIDs removes notifications referencing the given joins.
	DeleteByJoinIDs(ctx context.Context, joinIDs []string) error
}
