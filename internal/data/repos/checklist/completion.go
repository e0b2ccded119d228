package checklist

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

// ItemFlags is the per-item state the completion fold needs.
type ItemFlags struct {
	ItemID       uuid.UUID `gorm:"column:item_id"`
	CategoryID   uuid.UUID `gorm:"column:category_id"`
	Materialized bool      `gorm:"column:materialized"`
	Answered     bool      `gorm:"column:answered"`
	Documented   bool      `gorm:"column:documented"`
}

// Satisfied: a submitted or approved answer or document exists for the scope.
func (f ItemFlags) Satisfied() bool { return f.Answered || f.Documented }

type CompletionRepo interface {
	// BatchItemFlags returns flags for every catalog item in the categories in one round trip.
	BatchItemFlags(dbc dbctx.Context, projectID uuid.UUID, categoryIDs []uuid.UUID, who domain.Designation) ([]ItemFlags, error)
}

type completionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompletionRepo(db *gorm.DB, baseLog *logger.Logger) CompletionRepo {
	return &completionRepo{db: db, log: baseLog.With("repo", "CompletionRepo")}
}

// scopeSQL matches a row alias against the item's scope; see whereScope.
func scopeSQL(alias string, who domain.Designation) (string, []interface{}) {
	project := "(ri.scope = ? AND " + alias + ".participant_designation = ?)"
	if who != domain.DesignationNone {
		return "(" + project + " OR (ri.scope = ? AND " + alias + ".participant_designation = ?))",
			[]interface{}{domain.ScopeProject, domain.DesignationNone, domain.ScopeParticipant, who}
	}
	return "(" + project + " OR (ri.scope = ? AND " + alias + ".participant_designation <> ?))",
		[]interface{}{domain.ScopeProject, domain.DesignationNone, domain.ScopeParticipant, domain.DesignationNone}
}

func (r *completionRepo) BatchItemFlags(dbc dbctx.Context, projectID uuid.UUID, categoryIDs []uuid.UUID, who domain.Designation) ([]ItemFlags, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []ItemFlags
	if projectID == uuid.Nil || len(categoryIDs) == 0 {
		return out, nil
	}

	ciScope, ciArgs := scopeSQL("ci", who)
	pdScope, pdArgs := scopeSQL("pd", who)

	sql := `
		SELECT
			ri.id AS item_id,
			ri.category_id AS category_id,
			EXISTS (
				SELECT 1 FROM checklist_item ci
				WHERE ci.project_id = ? AND ci.item_id = ri.id AND ` + ciScope + `
			) AS materialized,
			EXISTS (
				SELECT 1 FROM checklist_item ci
				WHERE ci.project_id = ? AND ci.item_id = ri.id AND ci.status IN ? AND ` + ciScope + `
			) AS answered,
			EXISTS (
				SELECT 1 FROM project_document pd
				WHERE pd.project_id = ? AND pd.item_id = ri.id AND pd.status IN ? AND ` + pdScope + `
			) AS documented
		FROM required_item ri
		WHERE ri.category_id IN ? AND ri.deleted_at IS NULL
		ORDER BY ri.priority ASC, ri.created_at ASC, ri.id ASC
	`
	args := []interface{}{projectID}
	args = append(args, ciArgs...)
	args = append(args, projectID, domain.SatisfiedStatuses)
	args = append(args, ciArgs...)
	args = append(args, projectID, domain.SatisfiedStatuses)
	args = append(args, pdArgs...)
	args = append(args, categoryIDs)

	if err := t.WithContext(dbc.Ctx).Raw(sql, args...).Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
