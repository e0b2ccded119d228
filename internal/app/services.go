package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
	"github.com/yungbote/brokerdesk-backend/internal/services"
)

type Services struct {
	Catalog    services.CatalogService
	Importer   services.CatalogImporter
	Generator  services.ChecklistGenerator
	Evaluator  services.ConditionalLogicEvaluator
	Answers    services.ChecklistAnswerService
	Groups     services.RepeatableGroupManager
	Completion services.CompletionAggregator
	Projects   services.ProjectService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")

	fanOut := checklist.DefaultFanOutPolicy()
	if len(cfg.ThreeOrMoreDesignations) > 0 {
		fanOut = fanOut.WithThreeOrMore(cfg.ThreeOrMoreDesignations)
	}

	catalog := services.NewCatalogService(db, log, repos.Category, repos.RequiredItem, clients.CatalogCache)
	generator := services.NewChecklistGenerator(db, log, repos.Tx, repos.Project, repos.ChecklistItem, catalog, fanOut)
	evaluator := services.NewConditionalLogicEvaluator(log, catalog)

	return Services{
		Catalog:   catalog,
		Importer:  services.NewCatalogImporter(db, log, repos.Tx, repos.Category, repos.RequiredItem, catalog),
		Generator: generator,
		Evaluator: evaluator,
		Answers: services.NewChecklistAnswerService(
			db, log, repos.Project, repos.RequiredItem, repos.ChecklistItem, catalog, evaluator, generator, fanOut,
		),
		Groups: services.NewRepeatableGroupManager(
			db, log, repos.Tx, repos.Project, repos.RequiredItem, repos.GroupItem, catalog, fanOut, cfg.GroupCreateMaxAttempts,
		),
		Completion: services.NewCompletionAggregator(
			db, log, repos.Project, repos.ChecklistItem, repos.ProjectDocument, repos.Completion, catalog, fanOut, cfg.CompletionFallbackConcurrency,
		),
		Projects: services.NewProjectService(db, log, repos.Brokerage, repos.Project, repos.RequiredItem, repos.ProjectDocument, fanOut),
	}
}
