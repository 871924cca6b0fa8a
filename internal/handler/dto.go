package handler

import (
	"time"

	"carpool/internal/domain"
	"carpool/internal/geo"
)

// TripResponse is the HTTP representation of a trip.
type TripResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	People      int    `json:"people"`
	Pets        bool   `json:"pets"`
	Luggage     string `json:"luggage,omitempty"`
	Purpose     string `json:"purpose,omitempty"`
	Role        string `json:"role"`
	CreatedAt   string `json:"created_at"`
	JoinID      string `json:"join_id,omitempty"`
	JoinStatus  string `json:"join_status,omitempty"`
}

// OfferResponse is the HTTP representation of an offer.
type OfferResponse struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	Origin          string  `json:"origin"`
	Destination     string  `json:"destination"`
	Date            string  `json:"date"`
	Price           float64 `json:"price"`
	VehicleType     string  `json:"vehicle_type,omitempty"`
	SeatsAvailable  int     `json:"seats_available"`
	Pets            bool    `json:"pets"`
	Luggage         string  `json:"luggage,omitempty"`
	Notes           string  `json:"notes,omitempty"`
	ValidUntil      string  `json:"valid_until,omitempty"`
	CreatedAt       string  `json:"created_at"`
	PassengersCount *int    `json:"passengers_count,omitempty"`
	JoinID          string  `json:"join_id,omitempty"`
	JoinStatus      string  `json:"join_status,omitempty"`
}

// JoinResponse is the HTTP representation of a join request.
type JoinResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	TripID        string `json:"trip_id,omitempty"`
	OfferID       string `json:"offer_id,omitempty"`
	Target        string `json:"target"`
	Status        string `json:"status"`
	SeatsReserved int    `json:"seats_reserved"`
	CreatedAt     string `json:"created_at"`
}

// NotificationResponse is the HTTP representation of a notification.
type NotificationResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	JoinID     string `json:"join_id,omitempty"`
	TripID     string `json:"trip_id,omitempty"`
	OfferID    string `json:"offer_id,omitempty"`
	Message    string `json:"message"`
	Read       bool   `json:"read"`
	JoinStatus string `json:"join_status,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// distanceKm renders geo.Unknown as null.
func distanceKm(d float64) *float64 {
	if d == geo.Unknown {
		return nil
	}
	return &d
}

func toTripResponse(t *domain.Trip) TripResponse {
	return TripResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Origin:      t.Origin,
		Destination: t.Destination,
		Date:        formatDay(t.Date),
		People:      t.People,
		Pets:        t.Pets,
		Luggage:     t.Luggage,
		Purpose:     t.Purpose,
		Role:        string(t.Role),
		CreatedAt:   formatTime(t.CreatedAt),
	}
}

func toOfferResponse(o *domain.Offer) OfferResponse {
	return OfferResponse{
		ID:             o.ID,
		UserID:         o.UserID,
		Origin:         o.Origin,
		Destination:    o.Destination,
		Date:           formatDay(o.Date),
		Price:          o.Price,
		VehicleType:    o.VehicleType,
		SeatsAvailable: o.SeatsAvailable,
		Pets:           o.Pets,
		Luggage:        o.Luggage,
		Notes:          o.Notes,
		ValidUntil:     formatDay(o.ValidUntil),
		CreatedAt:      formatTime(o.CreatedAt),
	}
}

func toJoinResponse(j *domain.JoinRequest) JoinResponse {
	return JoinResponse{
		ID:            j.ID,
		UserID:        j.UserID,
		TripID:        j.TripID,
		OfferID:       j.OfferID,
		Target:        string(j.Target),
		Status:        string(j.Status),
		SeatsReserved: j.SeatsReserved,
		CreatedAt:     formatTime(j.CreatedAt),
	}
}

func toNotificationResponse(n *domain.NotificationView) NotificationResponse {
	return NotificationResponse{
		ID:         n.ID,
		Type:       string(n.Type),
		JoinID:     n.JoinID,
		TripID:     n.TripID,
		OfferID:    n.OfferID,
		Message:    n.Message,
		Read:       n.Read,
		JoinStatus: string(n.JoinStatus),
		CreatedAt:  formatTime(n.CreatedAt),
	}
}

// parseOptionalDay parses s with domain.ParseDay, treating "" as unset.
func parseOptionalDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return domain.ParseDay(s)
}
