package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/aevon-lab/telemetry-ingest/internal/core/requestid"
	"github.com/gin-gonic/gin"
)

// RequestMiddleware is the per-request chain shared by every route.
func RequestMiddleware(requestTimeout time.Duration) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		requestid.Middleware(),
		AccessLog(),
		Timeout(requestTimeout),
	}
}

// AccessLog writes one slog line per request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", requestid.Get(c),
		}
		switch {
		case status >= 500:
			slog.Error("[HTTP] Request completed", attrs...)
		case status >= 400:
			slog.Warn("[HTTP] Request completed", attrs...)
		default:
			slog.Info("[HTTP] Request completed", attrs...)
		}
	}
}

// Timeout bounds the request context; store and queue calls observe the deadline.
// A non-positive timeout leaves the context untouched.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
