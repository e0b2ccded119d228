package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/brokerdesk-backend/internal/http/handlers"
	httpMW "github.com/yungbote/brokerdesk-backend/internal/http/middleware"
	"github.com/yungbote/brokerdesk-backend/internal/observability"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string
	RequestTimeout time.Duration
	Metrics        *observability.Metrics

	HealthHandler     *httpH.HealthHandler
	ProjectHandler    *httpH.ProjectHandler
	ChecklistHandler  *httpH.ChecklistHandler
	GroupHandler      *httpH.GroupHandler
	CompletionHandler *httpH.CompletionHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.RequestTimeout(cfg.RequestTimeout))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Projects
		if cfg.ProjectHandler != nil {
			api.POST("/brokerages", cfg.ProjectHandler.CreateBrokerage)
			api.POST("/projects", cfg.ProjectHandler.CreateProject)
			api.GET("/projects/:id", cfg.ProjectHandler.GetProject)
			api.POST("/projects/:id/documents", cfg.ProjectHandler.RegisterDocument)
			api.DELETE("/projects/:id/participants/:designation", cfg.ProjectHandler.RemoveParticipant)
		}

		// Checklist
		if cfg.ChecklistHandler != nil {
			api.POST("/projects/:id/checklist/generate", cfg.ChecklistHandler.Generate)
			api.GET("/projects/:id/checklist", cfg.ChecklistHandler.List)
			api.PUT("/projects/:id/checklist/items/:itemId", cfg.ChecklistHandler.SaveAnswer)
			api.POST("/projects/:id/categories/:categoryId/answers", cfg.ChecklistHandler.SubmitCategory)
			api.POST("/categories/:id/evaluate", cfg.ChecklistHandler.Evaluate)
			api.GET("/categories/:id/items", cfg.ChecklistHandler.CategoryItems)
		}

		// Repeatable groups
		if cfg.GroupHandler != nil {
			api.GET("/projects/:id/groups/:table", cfg.GroupHandler.List)
			api.POST("/projects/:id/groups/:table", cfg.GroupHandler.Create)
			api.GET("/projects/:id/groups/:table/next-index", cfg.GroupHandler.NextIndex)
			api.POST("/projects/:id/groups/:table/cleanup", cfg.GroupHandler.Cleanup)
			api.PUT("/projects/:id/groups/:table/:index/answers", cfg.GroupHandler.SaveAnswer)
			api.DELETE("/projects/:id/groups/:table/:index", cfg.GroupHandler.Delete)
		}

		// Completion
		if cfg.CompletionHandler != nil {
			api.GET("/projects/:id/completion", cfg.CompletionHandler.Get)
		}
	}

	return r
}
