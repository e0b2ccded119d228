package checklist

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

type ChecklistItemRepo interface {
	// Create inserts a single row. Duplicate keys surface as gorm.ErrDuplicatedKey so callers
	// can count them as already materialized.
	Create(dbc dbctx.Context, row *domain.ChecklistItem) (*domain.ChecklistItem, error)

	ListByProject(dbc dbctx.Context, projectID uuid.UUID, who domain.Designation) ([]*domain.ChecklistItem, error)
	Get(dbc dbctx.Context, projectID, itemID uuid.UUID, who domain.Designation) (*domain.ChecklistItem, error)
	ExistsForScope(dbc dbctx.Context, projectID, itemID uuid.UUID, scope domain.ItemScope, who domain.Designation, statuses []domain.ItemStatus) (bool, error)

	// UpsertAnswer writes the typed value and status keyed by (project, item, designation).
	UpsertAnswer(dbc dbctx.Context, row *domain.ChecklistItem) error

	DeleteByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
	DeleteByParticipant(dbc dbctx.Context, projectID uuid.UUID, who domain.Designation) (int64, error)
}

type checklistItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChecklistItemRepo(db *gorm.DB, baseLog *logger.Logger) ChecklistItemRepo {
	return &checklistItemRepo{db: db, log: baseLog.With("repo", "ChecklistItemRepo")}
}

func (r *checklistItemRepo) Create(dbc dbctx.Context, row *domain.ChecklistItem) (*domain.ChecklistItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row.Status == "" {
		row.Status = domain.StatusPending
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// ListByProject lists materialized rows. An empty designation lists every scope.
func (r *checklistItemRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID, who domain.Designation) ([]*domain.ChecklistItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.ChecklistItem
	if projectID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).Where("project_id = ?", projectID)
	if who != domain.DesignationNone {
		q = q.Where("participant_designation IN ?", []domain.Designation{domain.DesignationNone, who})
	}
	if err := q.Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *checklistItemRepo) Get(dbc dbctx.Context, projectID, itemID uuid.UUID, who domain.Designation) (*domain.ChecklistItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row domain.ChecklistItem
	err := t.WithContext(dbc.Ctx).
		Where("project_id = ? AND item_id = ? AND participant_designation = ?", projectID, itemID, who).
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

func (r *checklistItemRepo) ExistsForScope(dbc dbctx.Context, projectID, itemID uuid.UUID, scope domain.ItemScope, who domain.Designation, statuses []domain.ItemStatus) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).
		Model(&domain.ChecklistItem{}).
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

func (r *checklistItemRepo) UpsertAnswer(dbc dbctx.Context, row *domain.ChecklistItem) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	if row.Status == "" {
		row.Status = domain.StatusSubmitted
	}
	now := time.Now().UTC()
	row.UpdatedAt = now
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	updates := row.TypedValue.Columns()
	updates["status"] = row.Status
	updates["updated_at"] = now
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "project_id"},
				{Name: "item_id"},
				{Name: "participant_designation"},
			},
			DoUpdates: clause.Assignments(updates),
		}).
		Create(row).Error
}

func (r *checklistItemRepo) DeleteByProject(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if projectID == uuid.Nil {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).Where("project_id = ?", projectID).Delete(&domain.ChecklistItem{})
	return res.RowsAffected, res.Error
}

// DeleteByParticipant removes a participant's rows when they leave the project.
func (r *checklistItemRepo) DeleteByParticipant(dbc dbctx.Context, projectID uuid.UUID, who domain.Designation) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if projectID == uuid.Nil || who == domain.DesignationNone {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).
		Where("project_id = ? AND participant_designation = ?", projectID, who).
		Delete(&domain.ChecklistItem{})
	return res.RowsAffected, res.Error
}
