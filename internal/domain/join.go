package domain

import "time"

// JoinStatus represents the lifecycle state of a join request.
type JoinStatus string

const (
	JoinStatusPending  JoinStatus = "pending"
	JoinStatusAccepted JoinStatus = "accepted"
	JoinStatusRejected JoinStatus = "rejected"
)

// IsTerminal reports whether no further transitions are allowed.
func (s JoinStatus) IsTerminal() bool {
	return s == JoinStatusAccepted || s == JoinStatusRejected
}

// ParentType identifies whether a join was made against a trip or an offer.
type ParentType string

const (
	ParentTrip  ParentType = "trip"
	ParentOffer ParentType = "offer"
)

// Valid reports whether p is a known parent type.
func (p ParentType) Valid() bool {
	return p == ParentTrip || p == ParentOffer
}

// JoinRequest links a user to a trip and/or an offer.
// At least one of TripID and OfferID is always set; empty means unknown.
type JoinRequest struct {
	ID            string
	UserID        string // requester
	TripID        string
	OfferID       string
	Target        ParentType // what the requester acted on
	Status        JoinStatus
	SeatsReserved int // seats taken from the offer on acceptance
	CreatedAt     time.Time
}

// ParentID returns the id of the trip or offer the join was made against.
func (j *JoinRequest) ParentID() string {
	if j.Target == ParentOffer {
		return j.OfferID
	}
	return j.TripID
}

// IsLinked reports whether both sides of the join are known.
func (j *JoinRequest) IsLinked() bool {
	return j.TripID != "" && j.OfferID != ""
}
