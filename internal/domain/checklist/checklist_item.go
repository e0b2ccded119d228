package checklist

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ItemStatus string

const (
	StatusPending   ItemStatus = "pending"
	StatusSubmitted ItemStatus = "submitted"
	StatusApproved  ItemStatus = "approved"
)

// SatisfiedStatuses are the statuses that count toward completion.
var SatisfiedStatuses = []ItemStatus{StatusSubmitted, StatusApproved}

func (s ItemStatus) Satisfied() bool { return s == StatusSubmitted || s == StatusApproved }

// TypedValue holds the answer slots. Exactly one is active, chosen by the item type.
type TypedValue struct {
	TextValue           *string        `gorm:"column:text_value;type:text" json:"text_value,omitempty"`
	NumericValue        *float64       `gorm:"column:numeric_value" json:"numeric_value,omitempty"`
	BooleanValue        *bool          `gorm:"column:boolean_value" json:"boolean_value,omitempty"`
	DateValue           *time.Time     `gorm:"column:date_value" json:"date_value,omitempty"`
	JSONValue           datatypes.JSON `gorm:"column:json_value" json:"json_value,omitempty"`
	DocumentReferenceID *uuid.UUID     `gorm:"type:uuid;column:document_reference_id" json:"document_reference_id,omitempty"`
}

func (v TypedValue) HasValue() bool {
	return v.TextValue != nil ||
		v.NumericValue != nil ||
		v.BooleanValue != nil ||
		v.DateValue != nil ||
		len(v.JSONValue) > 0 ||
		v.DocumentReferenceID != nil
}

// Columns renders every slot so an update clears the inactive ones.
func (v TypedValue) Columns() map[string]interface{} {
	var jsonVal interface{}
	if len(v.JSONValue) > 0 {
		jsonVal = v.JSONValue
	}
	return map[string]interface{}{
		"text_value":            v.TextValue,
		"numeric_value":         v.NumericValue,
		"boolean_value":         v.BooleanValue,
		"date_value":            v.DateValue,
		"json_value":            jsonVal,
		"document_reference_id": v.DocumentReferenceID,
	}
}

// ChecklistItem is a materialized catalog item for one project scope.
type ChecklistItem struct {
	ID                     uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID              uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_checklist_item_scope,priority:1" json:"project_id"`
	ItemID                 uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_checklist_item_scope,priority:2;index" json:"item_id"`
	ParticipantDesignation Designation `gorm:"column:participant_designation;not null;default:'';uniqueIndex:idx_checklist_item_scope,priority:3" json:"participant_designation"`
	Status                 ItemStatus  `gorm:"column:status;not null;default:'pending'" json:"status"`

	TypedValue

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ChecklistItem) TableName() string { return "checklist_item" }

func (c *ChecklistItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *ChecklistItem) Scope() Scope { return ScopeFromDesignation(c.ParticipantDesignation) }

// RepeatableGroupItem is one answer inside a user-created group. The same shape backs the
// secondary income, dependent and debt tables; callers always select the table explicitly.
type RepeatableGroupItem struct {
	ID                     uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID              uuid.UUID   `gorm:"type:uuid;not null" json:"project_id"`
	ItemID                 uuid.UUID   `gorm:"type:uuid;not null" json:"item_id"`
	GroupIndex             int         `gorm:"column:group_index;not null" json:"group_index"`
	ParticipantDesignation Designation `gorm:"column:participant_designation;not null;default:''" json:"participant_designation"`
	Status                 ItemStatus  `gorm:"column:status;not null;default:'pending'" json:"status"`

	TypedValue

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (g *RepeatableGroupItem) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// Answered: a non-null typed value with a submitted or approved status.
func (g *RepeatableGroupItem) Answered() bool {
	return g != nil && g.HasValue() && g.Status.Satisfied()
}

// ProjectDocument records an uploaded document against a catalog item. The upload itself
// lives in external storage; StorageReference points at it.
type ProjectDocument struct {
	ID                     uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID              uuid.UUID   `gorm:"type:uuid;not null;index:idx_project_document_lookup,priority:1" json:"project_id"`
	ItemID                 uuid.UUID   `gorm:"type:uuid;not null;index:idx_project_document_lookup,priority:2" json:"item_id"`
	ParticipantDesignation Designation `gorm:"column:participant_designation;not null;default:'';index:idx_project_document_lookup,priority:3" json:"participant_designation"`
	Status                 ItemStatus  `gorm:"column:status;not null;default:'submitted'" json:"status"`
	StorageReference       string      `gorm:"column:storage_reference;not null;default:''" json:"storage_reference"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ProjectDocument) TableName() string { return "project_document" }

func (d *ProjectDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
