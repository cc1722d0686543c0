package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/learningcenter/marketing-site/internal/models"
	"github.com/learningcenter/marketing-site/internal/storage"
)

// HealthHandler reports process and storage health
type HealthHandler struct {
	backend storage.Backend
	logger  *logrus.Logger
}

// NewHealthHandler creates a new health handler instance
func NewHealthHandler(backend storage.Backend, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{backend: backend, logger: logger}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := models.HealthResponse{Status: "healthy", Storage: h.backend.Name()}

	if checker, ok := h.backend.Bind(c.Writer, c.Request).(storage.HealthChecker); ok {
		if err := checker.HealthCheck(c.Request.Context()); err != nil {
			h.logger.WithField("storage", h.backend.Name()).WithError(err).Warn("Storage health check failed")
			response.Status = "unhealthy"
			response.Details = err.Error()
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
	}

	c.JSON(http.StatusOK, response)
}
