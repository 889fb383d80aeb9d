package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/proposalpilot-backend/internal/platform/ctxutil"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
)

// RequestLogger writes one line per request. It reads identity after c.Next
// so fields attached by RequireAuth are included.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, "proposal_id", id)
		}
		if qid := c.Param("qid"); qid != "" {
			fields = append(fields, "question_id", qid)
		}
		fields = append(fields, ctxutil.LogFields(c.Request.Context())...)
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
