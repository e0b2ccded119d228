package checklist

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

type CategoryRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Category) ([]*domain.Category, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Category, error)
	GetByName(dbc dbctx.Context, name string) (*domain.Category, error)
	List(dbc dbctx.Context) ([]*domain.Category, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return &categoryRepo{db: db, log: baseLog.With("repo", "CategoryRepo")}
}

func (r *categoryRepo) Create(dbc dbctx.Context, rows []*domain.Category) ([]*domain.Category, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.Category{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *categoryRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Category, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Category
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *categoryRepo) GetByName(dbc dbctx.Context, name string) (*domain.Category, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row domain.Category
	err := t.WithContext(dbc.Ctx).Where("name = ?", name).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *categoryRepo) List(dbc dbctx.Context) ([]*domain.Category, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Category
	if err := t.WithContext(dbc.Ctx).Order("priority ASC, name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *categoryRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).Model(&domain.Category{}).Where("id = ?", id).Updates(updates).Error
}
