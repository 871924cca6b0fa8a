package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// TripRequest is the HTTP request body for creating or editing a trip.
type TripRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	People      int    `json:"people"`
	Pets        bool   `json:"pets"`
	Luggage     string `json:"luggage"`
	Purpose     string `json:"purpose"`
}

func (r TripRequest) toInput() (service.TripInput, bool) {
	date, err := parseOptionalDay(r.Date)
	if err != nil {
		return service.TripInput{}, false
	}
	return service.TripInput{
		Origin:      r.Origin,
		Destination: r.Destination,
		Date:        date,
		People:      r.People,
		Pets:        r.Pets,
		Luggage:     r.Luggage,
		Purpose:     r.Purpose,
	}, true
}

func bindTrip(c *gin.Context) (service.TripInput, bool) {
	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "body", "must be a valid JSON object")
		return service.TripInput{}, false
	}
	in, ok := req.toInput()
	if !ok {
		respondBadRequest(c, "date", "must be a date in YYYY-MM-DD format")
		return service.TripInput{}, false
	}
	return in, true
}

// Create handles POST /v1/trips
func (h *TripHandler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	in, ok := bindTrip(c)
	if !ok {
		return
	}

	trip, err := h.tripService.Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// ListMine handles GET /v1/trips
func (h *TripHandler) ListMine(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	trips, err := h.tripService.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		resp = append(resp, toTripResponse(t))
	}
	respondJSON(c, http.StatusOK, resp)
}

// Update handles PUT /v1/trips/:id
func (h *TripHandler) Update(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	in, ok := bindTrip(c)
	if !ok {
		return
	}

	trip, err := h.tripService.Update(c.Request.Context(), userID, c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Delete handles DELETE /v1/trips/:id
func (h *TripHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	if err := h.tripService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
