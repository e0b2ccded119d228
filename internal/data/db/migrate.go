package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// =========================
		// Tenancy
		// =========================
		&checklist.Brokerage{},
		&checklist.Project{},

		// =========================
		// Item catalog
		// =========================
		&checklist.Category{},
		&checklist.RequiredItem{},

		// =========================
		// Materialized checklist + documents
		// =========================
		&checklist.ChecklistItem{},
		&checklist.ProjectDocument{},
	); err != nil {
		return err
	}

	// Repeatable groups share one row shape across three tables.
	for _, table := range checklist.GroupTables {
		if err := db.Table(string(table)).AutoMigrate(&checklist.RepeatableGroupItem{}); err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
	}
	return nil
}

// EnsureChecklistIndexes creates the indexes gorm tags cannot express per table.
func EnsureChecklistIndexes(db *gorm.DB) error {
	for _, table := range checklist.GroupTables {
		stmt := fmt.Sprintf(`
			CREATE UNIQUE INDEX IF NOT EXISTS idx_%[1]s_slot
			ON %[1]s (project_id, item_id, group_index, participant_designation);
		`, table)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create idx_%s_slot: %w", table, err)
		}
		stmt = fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS idx_%[1]s_scope
			ON %[1]s (project_id, participant_designation, group_index);
		`, table)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create idx_%s_scope: %w", table, err)
		}
	}

	// Completion lookups filter by project + status.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_checklist_item_project_status
		ON checklist_item (project_id, status);
	`).Error; err != nil {
		return fmt.Errorf("create idx_checklist_item_project_status: %w", err)
	}
	return nil
}
