package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/service"
)

// OfferHandler handles HTTP requests for offers.
type OfferHandler struct {
	offerService *service.OfferService
}

// NewOfferHandler creates a new OfferHandler.
func NewOfferHandler(offerService *service.OfferService) *OfferHandler {
	return &OfferHandler{offerService: offerService}
}

// OfferRequest is the HTTP request body for creating or editing an offer.
type OfferRequest struct {
	Origin         string  `json:"origin"`
	Destination    string  `json:"destination"`
	Date           string  `json:"date"`
	Price          float64 `json:"price"`
	VehicleType    string  `json:"vehicle_type"`
	SeatsAvailable int     `json:"seats_available"`
	Pets           bool    `json:"pets"`
	Luggage        string  `json:"luggage"`
	Notes          string  `json:"notes"`
	ValidUntil     string  `json:"valid_until"`
}

func bindOffer(c *gin.Context) (service.OfferInput, bool) {
	var req OfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "body", "must be a valid JSON object")
		return service.OfferInput{}, false
	}

	date, err := parseOptionalDay(req.Date)
	if err != nil {
		respondBadRequest(c, "date", "must be a date in YYYY-MM-DD format")
		return service.OfferInput{}, false
	}
	validUntil, err := parseOptionalDay(req.ValidUntil)
	if err != nil {
		respondBadRequest(c, "valid_until", "must be a date in YYYY-MM-DD format")
		return service.OfferInput{}, false
	}

	return service.OfferInput{
		Origin:         req.Origin,
		Destination:    req.Destination,
		Date:           date,
		Price:          req.Price,
		VehicleType:    req.VehicleType,
		SeatsAvailable: req.SeatsAvailable,
		Pets:           req.Pets,
		Luggage:        req.Luggage,
		Notes:          req.Notes,
		ValidUntil:     validUntil,
	}, true
}

// Create handles POST /v1/offers
func (h *OfferHandler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	in, ok := bindOffer(c)
	if !ok {
		return
	}

	offer, err := h.offerService.Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toOfferResponse(offer))
}

// ListMine handles GET /v1/offers
func (h *OfferHandler) ListMine(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	offers, err := h.offerService.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]OfferResponse, 0, len(offers))
	for _, o := range offers {
		r := toOfferResponse(&o.Offer)
		count := o.PassengersCount
		r.PassengersCount = &count
		resp = append(resp, r)
	}
	respondJSON(c, http.StatusOK, resp)
}

// Update handles PUT /v1/offers/:id
func (h *OfferHandler) Update(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	in, ok := bindOffer(c)
	if !ok {
		return
	}

	offer, err := h.offerService.Update(c.Request.Context(), userID, c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toOfferResponse(offer))
}

// Delete handles DELETE /v1/offers/:id
func (h *OfferHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	if err := h.offerService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
