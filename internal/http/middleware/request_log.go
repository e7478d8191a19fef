package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/accord-backend/internal/platform/ctxutil"
	"github.com/yungbote/accord-backend/internal/platform/logger"
)

// RequestLogger writes one line per request. Routes in quiet (health checks,
// scrapes) are only logged when they fail.
func RequestLogger(log *logger.Logger, quiet ...string) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	quietRoutes := make(map[string]bool, len(quiet))
	for _, q := range quiet {
		quietRoutes[q] = true
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if quietRoutes[route] && status < 400 {
			return
		}
		if route == "" {
			route = c.Request.URL.Path
		}

		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		ctx := c.Request.Context()
		if td, ok := ctxutil.TraceDataFrom(ctx); ok {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if rd := ctxutil.GetRequestData(ctx); rd != nil {
			fields = append(fields, "workspace_id", rd.WorkspaceID, "user_id", rd.UserID)
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields = append(fields, "errors", errs.String())
		}

		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request served", fields...)
		}
	}
}
