package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arklim/user-auth-service/internal/infra/logger"
)

const (
	requestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 128
)

// RequestID puts the correlation id on the request context, where logger.WithContext picks it up.
// A caller-supplied X-Request-ID is kept only when it is short and made of safe characters;
// otherwise the trace id from EnrichContext is reused, so one id follows the request through logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := acceptRequestID(c.GetHeader(requestIDHeader))
		if reqID == "" {
			reqID = GetTraceID(c)
		}
		if reqID == "" {
			reqID = uuid.NewString()
		}

		c.Header(requestIDHeader, reqID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.RequestIDKey{}, reqID))

		c.Next()
	}
}

func acceptRequestID(raw string) string {
	if raw == "" || len(raw) > maxRequestIDLength {
		return ""
	}
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return ""
		}
	}
	return raw
}
