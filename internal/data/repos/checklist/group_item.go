package checklist

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

// GroupItemRepo reads and writes repeatable group rows. Every call names its target table
// through the GroupScope.
type GroupItemRepo interface {
	ListIndices(dbc dbctx.Context, scope domain.GroupScope) ([]int, error)
	ListByScope(dbc dbctx.Context, scope domain.GroupScope) ([]*domain.RepeatableGroupItem, error)
	ListByIndex(dbc dbctx.Context, scope domain.GroupScope, groupIndex int) ([]*domain.RepeatableGroupItem, error)

	CreateBatch(dbc dbctx.Context, scope domain.GroupScope, rows []*domain.RepeatableGroupItem) error

	// UpdateAnswer writes the typed value for one (item, group index) slot and returns the
	// number of rows touched.
	UpdateAnswer(dbc dbctx.Context, scope domain.GroupScope, itemID uuid.UUID, groupIndex int, value domain.TypedValue, status domain.ItemStatus) (int64, error)

	DeleteGroup(dbc dbctx.Context, scope domain.GroupScope, groupIndex int) (int64, error)
	HasValue(dbc dbctx.Context, scope domain.GroupScope, groupIndex int) (bool, error)
}

type groupItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGroupItemRepo(db *gorm.DB, baseLog *logger.Logger) GroupItemRepo {
	return &groupItemRepo{db: db, log: baseLog.With("repo", "GroupItemRepo")}
}

const anyTypedValue = `(text_value IS NOT NULL OR numeric_value IS NOT NULL OR boolean_value IS NOT NULL
	OR date_value IS NOT NULL OR json_value IS NOT NULL OR document_reference_id IS NOT NULL)`

func (r *groupItemRepo) scoped(dbc dbctx.Context, scope domain.GroupScope) (*gorm.DB, error) {
	if !scope.Table.Valid() {
		return nil, fmt.Errorf("unknown repeatable group table %q", scope.Table)
	}
	if scope.ProjectID == uuid.Nil {
		return nil, fmt.Errorf("missing project id")
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Table(string(scope.Table)).
		Where("project_id = ? AND participant_designation = ?", scope.ProjectID, scope.Designation), nil
}

func (r *groupItemRepo) ListIndices(dbc dbctx.Context, scope domain.GroupScope) ([]int, error) {
	q, err := r.scoped(dbc, scope)
	if err != nil {
		return nil, err
	}
	var out []int
	if err := q.Distinct("group_index").Order("group_index ASC").Pluck("group_index", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *groupItemRepo) ListByScope(dbc dbctx.Context, scope domain.GroupScope) ([]*domain.RepeatableGroupItem, error) {
	q, err := r.scoped(dbc, scope)
	if err != nil {
		return nil, err
	}
	var out []*domain.RepeatableGroupItem
	if err := q.Order("group_index ASC, created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *groupItemRepo) ListByIndex(dbc dbctx.Context, scope domain.GroupScope, groupIndex int) ([]*domain.RepeatableGroupItem, error) {
	q, err := r.scoped(dbc, scope)
	if err != nil {
		return nil, err
	}
	var out []*domain.RepeatableGroupItem
	if err := q.Where("group_index = ?", groupIndex).Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *groupItemRepo) CreateBatch(dbc dbctx.Context, scope domain.GroupScope, rows []*domain.RepeatableGroupItem) error {
	if !scope.Table.Valid() {
		return fmt.Errorf("unknown repeatable group table %q", scope.Table)
	}
	if len(rows) == 0 {
		return nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	for _, row := range rows {
		row.ProjectID = scope.ProjectID
		row.ParticipantDesignation = scope.Designation
		if row.Status == "" {
			row.Status = domain.StatusPending
		}
	}
	return t.WithContext(dbc.Ctx).Table(string(scope.Table)).Create(&rows).Error
}

func (r *groupItemRepo) UpdateAnswer(dbc dbctx.Context, scope domain.GroupScope, itemID uuid.UUID, groupIndex int, value domain.TypedValue, status domain.ItemStatus) (int64, error) {
	q, err := r.scoped(dbc, scope)
	if err != nil {
		return 0, err
	}
	updates := value.Columns()
	updates["status"] = status
	updates["updated_at"] = time.Now().UTC()
	res := q.Where("item_id = ? AND group_index = ?", itemID, groupIndex).Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *groupItemRepo) DeleteGroup(dbc dbctx.Context, scope domain.GroupScope, groupIndex int) (int64, error) {
	q, err := r.scoped(dbc, scope)
	if err != nil {
		return 0, err
	}
	res := q.Where("group_index = ?", groupIndex).Delete(&domain.RepeatableGroupItem{})
	return res.RowsAffected, res.Error
}

func (r *groupItemRepo) HasValue(dbc dbctx.Context, scope domain.GroupScope, groupIndex int) (bool, error) {
	q, err := r.scoped(dbc, scope)
	if err != nil {
		return false, err
	}
	var n int64
	if err := q.Where("group_index = ?", groupIndex).Where(anyTypedValue).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
