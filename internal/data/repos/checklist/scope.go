package checklist

import (
	"gorm.io/gorm"

	domain "github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
)

// whereScope narrows rows to the ones that answer an item for a designation. PROJECT items
// match the project row; PARTICIPANT items match the designation, or any participant row
// when the designation is empty.
func whereScope(q *gorm.DB, scope domain.ItemScope, who domain.Designation) *gorm.DB {
	switch {
	case scope == domain.ScopeProject:
		return q.Where("participant_designation = ?", domain.DesignationNone)
	case who != domain.DesignationNone:
		return q.Where("participant_designation = ?", who)
	default:
		return q.Where("participant_designation <> ?", domain.DesignationNone)
	}
}
