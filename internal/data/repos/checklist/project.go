package checklist

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

type BrokerageRepo interface {
	Create(dbc dbctx.Context, row *domain.Brokerage) (*domain.Brokerage, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Brokerage, error)
}

type brokerageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBrokerageRepo(db *gorm.DB, baseLog *logger.Logger) BrokerageRepo {
	return &brokerageRepo{db: db, log: baseLog.With("repo", "BrokerageRepo")}
}

func (r *brokerageRepo) Create(dbc dbctx.Context, row *domain.Brokerage) (*domain.Brokerage, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *brokerageRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Brokerage, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.Brokerage
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

type ProjectRepo interface {
	Create(dbc dbctx.Context, row *domain.Project) (*domain.Project, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Project, error)
	SetChecklistGeneratedAt(dbc dbctx.Context, id uuid.UUID, at *time.Time) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (r *projectRepo) Create(dbc dbctx.Context, row *domain.Project) (*domain.Project, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *projectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Project, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.Project
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// SetChecklistGeneratedAt stamps (or clears, with nil) the generation marker.
func (r *projectRepo) SetChecklistGeneratedAt(dbc dbctx.Context, id uuid.UUID, at *time.Time) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&domain.Project{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"checklist_generated_at": at,
			"updated_at":             time.Now().UTC(),
		}).Error
}
