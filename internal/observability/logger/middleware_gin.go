package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/comercia/internal/observability/context"
	"go.uber.org/zap"
)

// MiddlewareConfig controls request logging behavior.
type MiddlewareConfig struct {
	Debug           bool
	ErrorClassifier func(err error) (string, string)
}

// GinMiddleware assigns a request ID and emits one structured line per
// request. Health and metrics scrapes log at debug so they do not drown
// out traffic.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := requestID(c)

		c.Request = c.Request.WithContext(obscontext.WithRequestID(c.Request.Context(), reqID))
		c.Next()

		route := strings.TrimSpace(c.FullPath())
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Int64("bytes_in", max64(c.Request.ContentLength, 0)),
			zap.Int("bytes_out", maxInt(c.Writer.Size(), 0)),
		}
		if last := c.Errors.Last(); last != nil {
			var errType, errCode string
			if cfg.ErrorClassifier != nil {
				errType, errCode = cfg.ErrorClassifier(last.Err)
			}
			fields = append(fields,
				zap.String("error_type", errType),
				zap.String("error_code", errCode),
			)
			if cfg.Debug {
				fields = append(fields, zap.Stack("stack"))
			}
		}

		log := FromContext(c.Request.Context())
		switch {
		case route == "/metrics" || route == "/health":
			log.Debug("http_request", fields...)
		case status >= http.StatusInternalServerError:
			log.Error("http_request", fields...)
		default:
			log.Info("http_request", fields...)
		}
	}
}

// requestID honors an inbound X-Request-Id so traces can be stitched across
// services, and mints one otherwise.
func requestID(c *gin.Context) string {
	id := strings.TrimSpace(c.GetHeader("X-Request-Id"))
	if id == "" {
		id = uuid.NewString()
	}
	c.Set("request_id", id)
	c.Header("X-Request-Id", id)
	return id
}

func max64(v, floor int64) int64 {
	if v < floor {
		return floor
	}
	return v
}

func maxInt(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}
