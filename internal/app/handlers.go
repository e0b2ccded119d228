package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/brokerdesk-backend/internal/http/handlers"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Project    *httpH.ProjectHandler
	Checklist  *httpH.ChecklistHandler
	Group      *httpH.GroupHandler
	Completion *httpH.CompletionHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Project:    httpH.NewProjectHandler(services.Projects, services.Answers),
		Checklist:  httpH.NewChecklistHandler(services.Generator, services.Answers, services.Evaluator, services.Catalog),
		Group:      httpH.NewGroupHandler(services.Groups),
		Completion: httpH.NewCompletionHandler(services.Completion),
	}
}
