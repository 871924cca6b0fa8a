package domain

import "time"

// TripRole tags what a trip represents. Only ride requests exist today.
type TripRole string

const (
	TripRoleRequest TripRole = "request"
)

// Trip is a rider's request to be transported on a given day.
type Trip struct {
	ID          string
	UserID      string
	Origin      string
	Destination string
	Date        time.Time // day granularity
	People      int       // party size
	Pets        bool
	Luggage     string
	Purpose     string
	Role        TripRole
	CreatedAt   time.Time
}

// Route returns the trip's origin, destination and day.
func (t *Trip) Route() Route {
	return Route{Origin: t.Origin, Destination: t.Destination, Date: t.Date}
}

// JoinedTrip is a trip seen from a user who has a join request on it.
type JoinedTrip struct {
	Trip
	JoinID     string
	JoinStatus JoinStatus
}
