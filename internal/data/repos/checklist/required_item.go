package checklist

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

type RequiredItemRepo interface {
	Create(dbc dbctx.Context, rows []*domain.RequiredItem) ([]*domain.RequiredItem, error)

	ListAll(dbc dbctx.Context) ([]*domain.RequiredItem, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.RequiredItem, error)
	GetByCategoryIDs(dbc dbctx.Context, categoryIDs []uuid.UUID) ([]*domain.RequiredItem, error)
	GetWithRulesByCategory(dbc dbctx.Context, categoryID uuid.UUID) ([]*domain.RequiredItem, error)
	GetBySubcategory(dbc dbctx.Context, subcategory string) ([]*domain.RequiredItem, error)
	GetByCategoryAndName(dbc dbctx.Context, categoryID uuid.UUID, name string) (*domain.RequiredItem, error)

	Update(dbc dbctx.Context, row *domain.RequiredItem) error
}

type requiredItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRequiredItemRepo(db *gorm.DB, baseLog *logger.Logger) RequiredItemRepo {
	return &requiredItemRepo{db: db, log: baseLog.With("repo", "RequiredItemRepo")}
}

const catalogOrder = "priority ASC, created_at ASC, id ASC"

func (r *requiredItemRepo) Create(dbc dbctx.Context, rows []*domain.RequiredItem) ([]*domain.RequiredItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.RequiredItem{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *requiredItemRepo) ListAll(dbc dbctx.Context) ([]*domain.RequiredItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.RequiredItem
	if err := t.WithContext(dbc.Ctx).Order(catalogOrder).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requiredItemRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.RequiredItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.RequiredItem
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *requiredItemRepo) GetByCategoryIDs(dbc dbctx.Context, categoryIDs []uuid.UUID) ([]*domain.RequiredItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.RequiredItem
	if len(categoryIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("category_id IN ?", categoryIDs).
		Order(catalogOrder).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requiredItemRepo) GetWithRulesByCategory(dbc dbctx.Context, categoryID uuid.UUID) ([]*domain.RequiredItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.RequiredItem
	if categoryID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("category_id = ? AND validation_rules IS NOT NULL", categoryID).
		Order(catalogOrder).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requiredItemRepo) GetBySubcategory(dbc dbctx.Context, subcategory string) ([]*domain.RequiredItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.RequiredItem
	if subcategory == "" {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("subcategory = ?", subcategory).
		Order(catalogOrder).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requiredItemRepo) GetByCategoryAndName(dbc dbctx.Context, categoryID uuid.UUID, name string) (*domain.RequiredItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row domain.RequiredItem
	err := t.WithContext(dbc.Ctx).
		Where("category_id = ? AND item_name = ?", categoryID, name).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *requiredItemRepo) Update(dbc dbctx.Context, row *domain.RequiredItem) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	row.UpdatedAt = time.Now().UTC()
	return t.WithContext(dbc.Ctx).Save(row).Error
}
