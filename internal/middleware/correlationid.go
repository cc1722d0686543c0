package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/learningcenter/marketing-site/internal/utils"
)

// CorrelationIDHeader is echoed on every response
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationIDMiddleware reuses an incoming request id or generates one
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := extractCorrelationID(c)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		c.Set(utils.ContextKeyCorrelationID, correlationID)
		c.Header(CorrelationIDHeader, correlationID)
		c.Next()
	}
}

func extractCorrelationID(c *gin.Context) string {
	headers := []string{CorrelationIDHeader, "X-Request-ID", "X-Trace-ID"}
	for _, header := range headers {
		if id := c.GetHeader(header); id != "" && len(id) <= 128 {
			return id
		}
	}
	return ""
}
