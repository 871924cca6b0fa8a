package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/service"
)

// AdminHandler triggers maintenance passes on demand.
type AdminHandler struct {
	reconciler    *service.Reconciler
	expiryService *service.ExpiryService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(reconciler *service.Reconciler, expiryService *service.ExpiryService) *AdminHandler {
	return &AdminHandler{reconciler: reconciler, expiryService: expiryService}
}

// Reconcile handles POST /v1/admin/reconcile
func (h *AdminHandler) Reconcile(c *gin.Context) {
	result, err := h.reconciler.Sweep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, result)
}

// Expire handles POST /v1/admin/expire
func (h *AdminHandler) Expire(c *gin.Context) {
	result, err := h.expiryService.Sweep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, result)
}
