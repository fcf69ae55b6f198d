package middleware

import (
	"time"

	"github.com/annel0/voxel-pathing/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// RequestIDHeader заголовок с идентификатором запроса
const RequestIDHeader = "X-Request-ID"

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи.
type RequestLogger struct {
	logger *logging.Logger
}

// NewRequestLogger создаёт middleware. Если logger == nil, пишет в глобальный лог.
func NewRequestLogger(logger *logging.Logger) *RequestLogger {
	return &RequestLogger{logger: logger}
}

func (rl *RequestLogger) logf(format string, args ...interface{}) {
	if rl.logger != nil {
		rl.logger.Info(format, args...)
		return
	}
	logging.Info(format, args...)
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Приоритет: заголовок клиента -> trace-id OpenTelemetry -> новый UUID
		traceID := c.GetHeader(RequestIDHeader)
		if traceID == "" {
			if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().IsValid() {
				traceID = span.SpanContext().TraceID().String()
			} else {
				traceID = uuid.NewString()
			}
		}
		c.Set("trace_id", traceID)
		c.Header(RequestIDHeader, traceID)

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		rl.logf("[HTTP] %s %s %d %s ip=%s trace=%s",
			method, path, c.Writer.Status(), time.Since(start), c.ClientIP(), traceID)
	}
}
