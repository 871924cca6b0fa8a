package domain

import "time"

// NotificationType represents the event a notification was produced for.
type NotificationType string

const (
	NotificationJoinRequestedTrip  NotificationType = "JOIN_REQUESTED_TRIP"
	NotificationJoinRequestedOffer NotificationType = "JOIN_REQUESTED_OFFER"
	NotificationJoinAccepted       NotificationType = "JOIN_ACCEPTED"
	NotificationJoinRejected       NotificationType = "JOIN_REJECTED"
)

// Notification is a delivery record for a join request transition.
type Notification struct {
	ID          string
	Type        NotificationType
	RecipientID string
	JoinID      string
	TripID      string
	OfferID     string
	Message     string
	Read        bool
	CreatedAt   time.Time
}

// NotificationView is a notification together with the current status of its join.
type NotificationView struct {
	Notification
	JoinStatus JoinStatus // empty when the join is gone
}
