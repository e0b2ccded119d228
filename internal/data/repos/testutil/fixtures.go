package testutil

import (
	"testing"

	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"gorm.io/gorm"
)

func SeedBrokerage(tb testing.TB, tx *gorm.DB) *checklist.Brokerage {
	tb.Helper()
	b := &checklist.Brokerage{Name: "brokerage"}
	if err := tx.Create(b).Error; err != nil {
		tb.Fatalf("seed brokerage: %v", err)
	}
	return b
}

func SeedProject(tb testing.TB, tx *gorm.DB, projectType string, count checklist.ApplicantCount) *checklist.Project {
	tb.Helper()
	b := SeedBrokerage(tb, tx)
	p := &checklist.Project{
		BrokerageID:    b.ID,
		Name:           "project",
		ProjectType:    projectType,
		ApplicantCount: count,
	}
	if err := tx.Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedCategory(tb testing.TB, tx *gorm.DB, name string) *checklist.Category {
	tb.Helper()
	c := &checklist.Category{Name: name}
	if err := tx.Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

// SeedItem inserts item, defaulting its type and scope.
func SeedItem(tb testing.TB, tx *gorm.DB, item *checklist.RequiredItem) *checklist.RequiredItem {
	tb.Helper()
	if item.ItemType == "" {
		item.ItemType = checklist.ItemTypeText
	}
	if item.Scope == "" {
		item.Scope = checklist.ScopeProject
	}
	if item.ItemName == "" {
		item.ItemName = "item"
	}
	if err := tx.Create(item).Error; err != nil {
		tb.Fatalf("seed required item: %v", err)
	}
	return item
}

func Ptr[T any](v T) *T { return &v }
