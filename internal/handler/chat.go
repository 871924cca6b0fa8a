package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/service"
)

// ChatHandler resolves chat rooms for trips and offers.
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// RoomResponse names the chat room for a trip or offer.
type RoomResponse struct {
	Room string `json:"room"`
}

// Room handles GET /v1/chat/:type/:id/room
func (h *ChatHandler) Room(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}

	key, err := h.chatService.RoomKey(c.Request.Context(), domain.ParentType(c.Param("type")), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, RoomResponse{Room: key})
}
