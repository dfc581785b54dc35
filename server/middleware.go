package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"

	// AdminTokenHeader authenticates admin endpoints.
	AdminTokenHeader = "X-Admin-Token"

	requestIDKey = "request_id"
)

// RequestID assigns every request an ID, reusing the caller's when present,
// and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs one structured record per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		attrs := []any{
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		switch {
		case len(c.Errors) > 0:
			logger.Warn("request failed", append(attrs, "err", c.Errors.Last().Err)...)
		case path == "/healthz":
			logger.Debug("request", attrs...)
		default:
			logger.Info("request", attrs...)
		}
	}
}

// ErrorHandler renders the last handler error in the standard envelope.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		apiErr := toAPIError(c.Errors.Last().Err)
		c.AbortWithStatusJSON(apiErr.HTTPCode, ErrorResponse{Error: ErrorBody{
			Code:      apiErr.Code,
			Message:   apiErr.Message,
			RequestID: c.GetString(requestIDKey),
		}})
	}
}

// AdminAuth requires the admin token when one is configured.
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := c.GetHeader(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			_ = c.Error(newAPIError(CodeUnauthorized, "missing or invalid admin token", http.StatusUnauthorized, nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
