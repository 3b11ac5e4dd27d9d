package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bookshelf/internal/auth"
)

const requestIDKey = "requestID"

// requestLogger tags each request with an id and logs it once it completes.
func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start),
			"request_id": requestID,
			"client_ip":  c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Warn("request")
			return
		}
		entry.Info("request")
	}
}

func requestIDOf(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// authMetadata exposes the Authorization header to the authorization gate.
func authMetadata() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader("Authorization"); raw != "" {
			c.Request = c.Request.WithContext(auth.WithToken(c.Request.Context(), raw))
		}
		c.Next()
	}
}
