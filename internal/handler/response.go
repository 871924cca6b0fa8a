package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/middleware"
	"carpool/internal/repository"
	"carpool/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	resp := ErrorResponse{Error: err.Error()}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		resp.Error = service.ErrValidation.Error()
		resp.Fields = verr.Fields
	}
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		resp.Error = "internal error"
	}

	c.JSON(code, resp)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// respondBadRequest reports a malformed request body or query.
func respondBadRequest(c *gin.Context, field, msg string) {
	respondError(c, &service.ValidationError{Fields: map[string]string{field: msg}})
}

// callerID returns the authenticated caller or responds 401.
func callerID(c *gin.Context) (string, bool) {
	id := middleware.UserID(c)
	if id == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing " + middleware.UserIDHeader + " header"})
		return "", false
	}
	return id, true
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidParentType),
		errors.Is(err, service.ErrInvalidUserID):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrJoinNotPending),
		errors.Is(err, service.ErrTripAlreadyMatched),
		errors.Is(err, service.ErrTripLocked),
		errors.Is(err, service.ErrSeatsManaged):
		return http.StatusConflict

	// Forbidden errors
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
