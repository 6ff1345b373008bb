package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/instrument-catalog/internal/pkg/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// AttachTraceContext assigns request and trace ids, echoes them in response
// headers, and once the handlers ran stamps the route and the caller onto the
// active span.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		traceID := strings.TrimSpace(c.GetHeader(headerTraceID))
		if traceID == "" {
			spanCtx := trace.SpanContextFromContext(c.Request.Context())
			if spanCtx.HasTraceID() {
				traceID = spanCtx.TraceID().String()
			}
		}
		if traceID == "" {
			traceID = uuid.New().String()
		}
		ctx := ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set("trace_id", traceID)
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()

		annotateSpan(c, reqID)
	}
}

func annotateSpan(c *gin.Context, reqID string) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	attrs := []attribute.KeyValue{
		attribute.String("catalog.request_id", reqID),
		attribute.String("catalog.route", route),
	}
	// Auth middleware replaces c.Request, so identity is visible after c.Next.
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd.Authenticated() {
		attrs = append(attrs,
			attribute.Int("catalog.user_id", rd.UserID),
			attribute.String("catalog.token_kind", rd.TokenKind),
		)
	}
	span.SetAttributes(attrs...)
}
