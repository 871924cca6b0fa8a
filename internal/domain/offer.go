package domain

import "time"

// Offer is a driver's published capacity for a route on a given day.
type Offer struct {
	ID             string
	UserID         string
	Origin         string
	Destination    string
	Date           time.Time // day granularity
	Price          float64
	VehicleType    string
	SeatsAvailable int
	Pets           bool
	Luggage        string
	Notes          string
	ValidUntil     time.Time // zero means no expiry
	CreatedAt      time.Time
}

// Route returns the offer's origin, destination and day.
func (o *Offer) Route() Route {
	return Route{Origin: o.Origin, Destination: o.Destination, Date: o.Date}
}

// HasSeats reports whether the offer can take a party of n.
func (o *Offer) HasSeats(n int) bool {
	return o.SeatsAvailable >= n
}

// OwnedOffer is an offer listed for its owner together with its accepted passengers.
type OwnedOffer struct {
	Offer
	PassengersCount int
}

// JoinedOffer is an offer seen from a user who has a join request on it.
type JoinedOffer struct {
	Offer
	JoinID     string
	JoinStatus JoinStatus
}
