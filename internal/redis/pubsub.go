package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"carpool/internal/domain"
)

const notificationChannelPrefix = "notifications:"

// notificationMessage is the payload published for live delivery.
type notificationMessage struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	JoinID    string `json:"join_id,omitempty"`
	TripID    string `json:"trip_id,omitempty"`
	OfferID   string `json:"offer_id,omitempty"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// NotificationPublisher fans persisted notifications out to per-user channels.
type NotificationPublisher struct {
	client *redis.Client
}

// NewNotificationPublisher creates a new NotificationPublisher.
func NewNotificationPublisher(client *redis.Client) *NotificationPublisher {
	return &NotificationPublisher{client: client}
}

// NotificationChannel returns the channel a user's notifications go to.
func NotificationChannel(userID string) string {
	return notificationChannelPrefix + userID
}

// Publish sends n to its recipient's channel.
func (p *NotificationPublisher) Publish(ctx context.Context, n *domain.Notification) error {
	data, err := json.Marshal(notificationMessage{
		ID:        n.ID,
		Type:      string(n.Type),
		JoinID:    n.JoinID,
		TripID:    n.TripID,
		OfferID:   n.OfferID,
		Message:   n.Message,
		CreatedAt: n.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, NotificationChannel(n.RecipientID), data).Err()
}
