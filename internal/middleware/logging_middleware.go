package middleware

import (
	"time"

	"github.com/annel0/voxel-terrain/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи.
// Без явного логгера пишет через глобальный logging пакет.
type RequestLogger struct {
	logger *logging.Logger
}

func NewRequestLogger() *RequestLogger { return &RequestLogger{} }

// WithLogger направляет логи запросов в l
func (rl *RequestLogger) WithLogger(l *logging.Logger) *RequestLogger {
	rl.logger = l
	return rl
}

func (rl *RequestLogger) infof(format string, args ...interface{}) {
	if rl.logger != nil {
		rl.logger.Info(format, args...)
		return
	}
	logging.Info(format, args...)
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Пытаемся извлечь trace-id из OpenTelemetry, если уже создан.
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set("trace_id", traceID)
		c.Header("X-Trace-Id", traceID)

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		clientIP := c.ClientIP()

		rl.infof("[HTTP] ▶ %s %s ip=%s trace=%s", method, path, clientIP, traceID)

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		rl.infof("[HTTP] ◀ %s %s %d %s trace=%s", method, path, status, latency, traceID)
	}
}
