package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/brokerdesk-backend/internal/data/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/data/repos"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

type Repos struct {
	Tx aggregates.TxRunner

	Brokerage       repos.BrokerageRepo
	Project         repos.ProjectRepo
	Category        repos.CategoryRepo
	RequiredItem    repos.RequiredItemRepo
	ChecklistItem   repos.ChecklistItemRepo
	ProjectDocument repos.ProjectDocumentRepo
	GroupItem       repos.GroupItemRepo
	Completion      repos.CompletionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger, cfg Config) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Tx: aggregates.NewGormTxRunner(db, aggregates.WithRetries(cfg.TxRetryAttempts, cfg.TxRetryBackoff)),

		Brokerage:       repos.NewBrokerageRepo(db, log),
		Project:         repos.NewProjectRepo(db, log),
		Category:        repos.NewCategoryRepo(db, log),
		RequiredItem:    repos.NewRequiredItemRepo(db, log),
		ChecklistItem:   repos.NewChecklistItemRepo(db, log),
		ProjectDocument: repos.NewProjectDocumentRepo(db, log),
		GroupItem:       repos.NewGroupItemRepo(db, log),
		Completion:      repos.NewCompletionRepo(db, log),
	}
}
