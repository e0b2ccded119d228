package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/brokerdesk-backend/internal/data/repos/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

type BrokerageRepo = checklist.BrokerageRepo
type ProjectRepo = checklist.ProjectRepo

type CategoryRepo = checklist.CategoryRepo
type RequiredItemRepo = checklist.RequiredItemRepo

type ChecklistItemRepo = checklist.ChecklistItemRepo
type ProjectDocumentRepo = checklist.ProjectDocumentRepo
type GroupItemRepo = checklist.GroupItemRepo
type CompletionRepo = checklist.CompletionRepo

type ItemFlags = checklist.ItemFlags

func NewBrokerageRepo(db *gorm.DB, baseLog *logger.Logger) BrokerageRepo {
	return checklist.NewBrokerageRepo(db, baseLog)
}
func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return checklist.NewProjectRepo(db, baseLog)
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return checklist.NewCategoryRepo(db, baseLog)
}
func NewRequiredItemRepo(db *gorm.DB, baseLog *logger.Logger) RequiredItemRepo {
	return checklist.NewRequiredItemRepo(db, baseLog)
}

func NewChecklistItemRepo(db *gorm.DB, baseLog *logger.Logger) ChecklistItemRepo {
	return checklist.NewChecklistItemRepo(db, baseLog)
}
func NewProjectDocumentRepo(db *gorm.DB, baseLog *logger.Logger) ProjectDocumentRepo {
	return checklist.NewProjectDocumentRepo(db, baseLog)
}
func NewGroupItemRepo(db *gorm.DB, baseLog *logger.Logger) GroupItemRepo {
	return checklist.NewGroupItemRepo(db, baseLog)
}
func NewCompletionRepo(db *gorm.DB, baseLog *logger.Logger) CompletionRepo {
	return checklist.NewCompletionRepo(db, baseLog)
}
