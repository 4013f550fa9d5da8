package handler

import (
	"convo-hub/auth"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

// RequestLogger logs one line per request once the handler chain returns.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(headerRequestID, requestID)

		c.Next()

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if session := auth.SessionFrom(c); session != nil {
			attrs = append(attrs, "user_id", session.UserID)
		}
		log.Info("Request served", attrs...)
	}
}
