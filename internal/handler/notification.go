package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/service"
)

// NotificationHandler handles HTTP requests for notifications.
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List handles GET /v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	notes, err := h.notificationService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]NotificationResponse, 0, len(notes))
	for _, n := range notes {
		resp = append(resp, toNotificationResponse(n))
	}
	respondJSON(c, http.StatusOK, resp)
}

// MarkRead handles PUT /v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
