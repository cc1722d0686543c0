package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learningcenter/marketing-site/internal/models"
)

// Gin context keys set by the middleware package
const (
	ContextKeyCorrelationID = "correlationID"
	ContextKeyVisitorID     = "visitorID"
	ContextKeyUserID        = "userID"
)

// SendErrorResponse sends an error JSON response
func SendErrorResponse(c *gin.Context, statusCode int, errCode, message, details string) {
	c.JSON(statusCode, models.NewErrorResponse(errCode, message, details))
}

// SendOKResponse sends a 200 OK response
func SendOKResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SendBadRequestError sends a 400 Bad Request error
func SendBadRequestError(c *gin.Context, message, details string) {
	SendErrorResponse(c, http.StatusBadRequest, models.ErrCodeBadRequest, message, details)
}

// SendNotFoundError sends a 404 Not Found error
func SendNotFoundError(c *gin.Context, message string) {
	SendErrorResponse(c, http.StatusNotFound, models.ErrCodeNotFound, message, "")
}

// SendNotSupportedError sends a 501 for operations the configured storage cannot serve
func SendNotSupportedError(c *gin.Context, message string) {
	SendErrorResponse(c, http.StatusNotImplemented, models.ErrCodeNotSupported, message, "")
}

// SendInternalServerError sends a 500 Internal Server Error
func SendInternalServerError(c *gin.Context, message, details string) {
	SendErrorResponse(c, http.StatusInternalServerError, models.ErrCodeInternalError, message, details)
}

// SendStorageError sends a 500 when the consent storage could not be reached
func SendStorageError(c *gin.Context, message string) {
	SendErrorResponse(c, http.StatusInternalServerError, models.ErrCodeStorageError, message, "")
}

// SendValidationError sends a validation error response
func SendValidationError(c *gin.Context, details string) {
	SendErrorResponse(c, http.StatusBadRequest, models.ErrCodeValidationError, "Validation failed", details)
}

// GetVisitorIDFromContext extracts the visitor ID from context
func GetVisitorIDFromContext(c *gin.Context) string {
	return c.GetString(ContextKeyVisitorID)
}

// GetUserIDFromContext extracts the authenticated user ID from context
func GetUserIDFromContext(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// GetCorrelationIDFromContext extracts correlation ID from context
func GetCorrelationIDFromContext(c *gin.Context) string {
	return c.GetString(ContextKeyCorrelationID)
}
