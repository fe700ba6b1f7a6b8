package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wso2/xs2a-sca-engine/internal/system/constants"
)

// CorrelationIDKey is the gin context key holding the correlation id.
const CorrelationIDKey = "correlation_id"

// CorrelationIDMiddleware reuses the caller's correlation id or issues a new one and echoes
// it on the response.
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := extractCorrelationID(c)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		c.Set(CorrelationIDKey, correlationID)
		c.Header(constants.CorrelationIDHeaderName, correlationID)
		c.Header(constants.RequestIDHeaderName, correlationID)
		c.Next()
	}
}

func extractCorrelationID(c *gin.Context) string {
	headers := []string{constants.RequestIDHeaderName, constants.CorrelationIDHeaderName, "X-Trace-ID"}
	for _, header := range headers {
		if id := c.GetHeader(header); id != "" {
			return id
		}
	}
	return ""
}
