package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// JoinHandler handles HTTP requests for join requests.
type JoinHandler struct {
	joinService  *service.JoinService
	tripService  *service.TripService
	offerService *service.OfferService
}

// NewJoinHandler creates a new JoinHandler.
func NewJoinHandler(joinService *service.JoinService, tripService *service.TripService, offerService *service.OfferService) *JoinHandler {
	return &JoinHandler{
		joinService:  joinService,
		tripService:  tripService,
		offerService: offerService,
	}
}

// JoinOfferRequest optionally names the caller's trip a seat request is for.
type JoinOfferRequest struct {
	TripID string `json:"trip_id"`
}

// CreateJoinResponse is returned when a join request is created or found.
type CreateJoinResponse struct {
	JoinID  string `json:"join_id"`
	Created bool   `json:"created"`
}

func respondJoinResult(c *gin.Context, result *service.JoinResult) {
	code := http.StatusOK
	if result.Created {
		code = http.StatusCreated
	}
	respondJSON(c, code, CreateJoinResponse{JoinID: result.JoinID, Created: result.Created})
}

// JoinTrip handles POST /v1/trips/:id/join
func (h *JoinHandler) JoinTrip(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	result, err := h.joinService.CreateJoinOnTrip(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJoinResult(c, result)
}

// JoinOffer handles POST /v1/offers/:id/join
func (h *JoinHandler) JoinOffer(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req JoinOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBadRequest(c, "body", "must be a valid JSON object")
		return
	}

	result, err := h.joinService.CreateJoinOnOffer(c.Request.Context(), userID, c.Param("id"), req.TripID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJoinResult(c, result)
}

// Accept handles POST /v1/joins/:id/accept
func (h *JoinHandler) Accept(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	join, err := h.joinService.AcceptJoin(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toJoinResponse(join))
}

// Reject handles POST /v1/joins/:id/reject
func (h *JoinHandler) Reject(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	join, err := h.joinService.RejectJoin(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toJoinResponse(join))
}

// Leave handles DELETE /v1/joined/:type/:id
func (h *JoinHandler) Leave(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	parentType := domain.ParentType(c.Param("type"))
	if err := h.joinService.LeaveJoin(c.Request.Context(), userID, parentType, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// JoinedTrips handles GET /v1/joined/trips
func (h *JoinHandler) JoinedTrips(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	trips, err := h.tripService.ListJoined(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		r := toTripResponse(&t.Trip)
		r.JoinID = t.JoinID
		r.JoinStatus = string(t.JoinStatus)
		resp = append(resp, r)
	}
	respondJSON(c, http.StatusOK, resp)
}

// JoinedOffers handles GET /v1/joined/offers
func (h *JoinHandler) JoinedOffers(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	offers, err := h.offerService.ListJoined(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]OfferResponse, 0, len(offers))
	for _, o := range offers {
		r := toOfferResponse(&o.Offer)
		r.JoinID = o.JoinID
		r.JoinStatus = string(o.JoinStatus)
		resp = append(resp, r)
	}
	respondJSON(c, http.StatusOK, resp)
}
