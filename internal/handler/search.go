package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/service"
)

// SearchHandler handles candidate search requests.
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchOffersRequest is a rider's search for seats.
type SearchOffersRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	PartySize   int    `json:"party_size"`
	Pets        bool   `json:"pets"`
}

// SearchTripsRequest is a driver's search for riders.
type SearchTripsRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	Seats       int    `json:"seats"`
	Pets        bool   `json:"pets"`
}

// RankedOffer is an alternative offer with its distances in km.
// Distances are null when a place could not be located.
type RankedOffer struct {
	OfferResponse
	DistanceToOrigin      *float64 `json:"distance_to_origin_km"`
	DistanceToDestination *float64 `json:"distance_to_destination_km"`
}

// RankedTrip is an alternative trip with its distances in km.
type RankedTrip struct {
	TripResponse
	DistanceToOrigin      *float64 `json:"distance_to_origin_km"`
	DistanceToDestination *float64 `json:"distance_to_destination_km"`
}

// OfferSearchResponse lists exact matches and ranked alternatives.
type OfferSearchResponse struct {
	Exact        []OfferResponse `json:"exact"`
	Alternatives []RankedOffer   `json:"alternatives"`
}

// TripSearchResponse lists exact matches and ranked alternatives.
type TripSearchResponse struct {
	Exact        []TripResponse `json:"exact"`
	Alternatives []RankedTrip   `json:"alternatives"`
}

// SearchOffers handles POST /v1/search/offers
func (h *SearchHandler) SearchOffers(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}

	var req SearchOffersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "body", "must be a valid JSON object")
		return
	}
	date, err := parseOptionalDay(req.Date)
	if err != nil {
		respondBadRequest(c, "date", "must be a date in YYYY-MM-DD format")
		return
	}

	result, err := h.searchService.SearchOffers(c.Request.Context(), service.OfferSearchQuery{
		Origin:       req.Origin,
		Destination:  req.Destination,
		Date:         date,
		PartySize:    req.PartySize,
		PetsRequired: req.Pets,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := OfferSearchResponse{
		Exact:        make([]OfferResponse, 0, len(result.Exact)),
		Alternatives: make([]RankedOffer, 0, len(result.Alternatives)),
	}
	for _, o := range result.Exact {
		resp.Exact = append(resp.Exact, toOfferResponse(o))
	}
	for _, r := range result.Alternatives {
		resp.Alternatives = append(resp.Alternatives, RankedOffer{
			OfferResponse:         toOfferResponse(r.Item),
			DistanceToOrigin:      distanceKm(r.DistanceToOrigin),
			DistanceToDestination: distanceKm(r.DistanceToDestination),
		})
	}
	respondJSON(c, http.StatusOK, resp)
}

// SearchTrips handles POST /v1/search/trips
func (h *SearchHandler) SearchTrips(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req SearchTripsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "body", "must be a valid JSON object")
		return
	}
	date, err := parseOptionalDay(req.Date)
	if err != nil {
		respondBadRequest(c, "date", "must be a date in YYYY-MM-DD format")
		return
	}

	result, err := h.searchService.SearchTrips(c.Request.Context(), service.TripSearchQuery{
		ExcludeUserID: userID,
		Origin:        req.Origin,
		Destination:   req.Destination,
		Date:          date,
		Seats:         req.Seats,
		PetsRequired:  req.Pets,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := TripSearchResponse{
		Exact:        make([]TripResponse, 0, len(result.Exact)),
		Alternatives: make([]RankedTrip, 0, len(result.Alternatives)),
	}
	for _, t := range result.Exact {
		resp.Exact = append(resp.Exact, toTripResponse(t))
	}
	for _, r := range result.Alternatives {
		resp.Alternatives = append(resp.Alternatives, RankedTrip{
			TripResponse:          toTripResponse(r.Item),
			DistanceToOrigin:      distanceKm(r.DistanceToOrigin),
			DistanceToDestination: distanceKm(r.DistanceToDestination),
		})
	}
	respondJSON(c, http.StatusOK, resp)
}

