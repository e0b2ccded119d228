package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/brokerdesk-backend/internal/platform/ctxutil"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

// healthRoutes are polled by orchestrators and logged at debug only.
var healthRoutes = map[string]bool{
	"/healthcheck": true,
	"/readyz":      true,
	"/metrics":     true,
}

// routeLabel is the matched route template, so /api/projects/:id collapses to one series.
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := routeLabel(c)
		status := c.Writer.Status()
		fields := append([]interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
		}, ctxutil.TraceFields(c.Request.Context())...)
		if id := c.Param("id"); id != "" {
			fields = append(fields, "resource_id", id)
		}
		if who := c.Query("designation"); who != "" {
			fields = append(fields, "designation", who)
		}
		if last := c.Errors.Last(); last != nil {
			fields = append(fields, "error", last.Error())
		}

		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		case healthRoutes[route]:
			log.Debug("health check", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
