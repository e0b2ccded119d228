package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/brokerdesk-backend/internal/http"
	"github.com/yungbote/brokerdesk-backend/internal/observability"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:               log,
		ServiceName:       cfg.Otel.ServiceName,
		TracingEnabled:    cfg.Otel.Enabled,
		CORSOrigins:       cfg.CORSOrigins,
		RequestTimeout:    cfg.RequestTimeout,
		Metrics:           metrics,
		HealthHandler:     handlers.Health,
		ProjectHandler:    handlers.Project,
		ChecklistHandler:  handlers.Checklist,
		GroupHandler:      handlers.Group,
		CompletionHandler: handlers.Completion,
	})
}
