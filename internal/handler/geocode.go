package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carpool/internal/service"
)

// GeocodeHandler exposes place lookups used for ranking.
type GeocodeHandler struct {
	geocoder service.Geocoder
}

// NewGeocodeHandler creates a new GeocodeHandler.
func NewGeocodeHandler(geocoder service.Geocoder) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// GeocodeResponse is a located place.
type GeocodeResponse struct {
	Place string  `json:"place"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// Lookup handles GET /v1/geocode?place=
func (h *GeocodeHandler) Lookup(c *gin.Context) {
	place := strings.TrimSpace(c.Query("place"))
	if place == "" {
		respondBadRequest(c, "place", "is required")
		return
	}

	point := h.geocoder.Geocode(c.Request.Context(), place)
	if point == nil {
		respondJSON(c, http.StatusNotFound, ErrorResponse{Error: "place could not be located"})
		return
	}
	respondJSON(c, http.StatusOK, GeocodeResponse{Place: place, Lat: point.Lat, Lon: point.Lon})
}
