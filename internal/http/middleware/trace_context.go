package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/accord-backend/internal/platform/ctxutil"
)

const (
	HeaderTraceID   = "X-Trace-Id"
	HeaderRequestID = "X-Request-Id"

	maxCorrelationIDLen = 128
)

// AttachTraceContext gives every request a request id and a trace id and
// echoes both on the response. A live otel span wins over a caller supplied
// trace header. Caller ids that are too long or contain anything but
// [A-Za-z0-9._:-] are replaced.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := correlationID(c.GetHeader(HeaderRequestID))
		if reqID == "" {
			reqID = uuid.NewString()
		}

		var traceID string
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		} else if traceID = correlationID(c.GetHeader(HeaderTraceID)); traceID == "" {
			traceID = uuid.NewString()
		}

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		}))
		c.Writer.Header().Set(HeaderTraceID, traceID)
		c.Writer.Header().Set(HeaderRequestID, reqID)
		c.Next()
	}
}

func correlationID(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" || len(v) > maxCorrelationIDLen {
		return ""
	}
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return ""
		}
	}
	return v
}
