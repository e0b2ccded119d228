package checklist

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

type ProjectDocumentRepo interface {
	Create(dbc dbctx.Context, row *domain.ProjectDocument) (*domain.ProjectDocument, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*domain.ProjectDocument, error)
	ExistsForScope(dbc dbctx.Context, projectID, itemID uuid.UUID, scope domain.ItemScope, who domain.Designation, statuses []domain.ItemStatus) (bool, error)
}

type projectDocumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectDocumentRepo(db *gorm.DB, baseLog *logger.Logger) ProjectDocumentRepo {
	return &projectDocumentRepo{db: db, log: baseLog.With("repo", "ProjectDocumentRepo")}
}

func (r *projectDocumentRepo) Create(dbc dbctx.Context, row *domain.ProjectDocument) (*domain.ProjectDocument, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row.Status == "" {
		row.Status = domain.StatusSubmitted
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *projectDocumentRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*domain.ProjectDocument, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.ProjectDocument
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectDocumentRepo) ExistsForScope(dbc dbctx.Context, projectID, itemID uuid.UUID, scope domain.ItemScope, who domain.Designation, statuses []domain.ItemStatus) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).
		Model(&domain.ProjectDocument{}).
		Where("project_id = ? AND item_id = ?", projectID, itemID)
	q = whereScope(q, scope, who)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var n int64
	if err := q.Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
