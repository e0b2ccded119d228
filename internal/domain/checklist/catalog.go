package checklist

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ItemType string

const (
	ItemTypeText                   ItemType = "text"
	ItemTypeNumber                 ItemType = "number"
	ItemTypeDate                   ItemType = "date"
	ItemTypeSingleChoiceDropdown   ItemType = "single_choice_dropdown"
	ItemTypeMultipleChoiceCheckbox ItemType = "multiple_choice_checkbox"
	ItemTypeYesNo                  ItemType = "yes_no"
	ItemTypeDocumentUpload         ItemType = "document_upload"
	ItemTypeRepeatableGroup        ItemType = "repeatable_group"
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeText, ItemTypeNumber, ItemTypeDate, ItemTypeSingleChoiceDropdown,
		ItemTypeMultipleChoiceCheckbox, ItemTypeYesNo, ItemTypeDocumentUpload, ItemTypeRepeatableGroup:
		return true
	default:
		return false
	}
}

// ItemScope says whether an item is answered once per project or once per participant.
type ItemScope string

const (
	ScopeProject     ItemScope = "PROJECT"
	ScopeParticipant ItemScope = "PARTICIPANT"
)

func (s ItemScope) Valid() bool { return s == ScopeProject || s == ScopeParticipant }

// TargetTable names the typed answer table a repeatable group writes to.
type TargetTable string

const (
	TableSecondaryIncome TargetTable = "secondary_income_item"
	TableDependent       TargetTable = "dependent_item"
	TableDebt            TargetTable = "debt_item"
)

// GroupTables lists every repeatable group table, in migration order.
var GroupTables = []TargetTable{TableSecondaryIncome, TableDependent, TableDebt}

func (t TargetTable) Valid() bool {
	switch t {
	case TableSecondaryIncome, TableDependent, TableDebt:
		return true
	default:
		return false
	}
}

type Category struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Priority  int            `gorm:"column:priority;not null;default:0" json:"priority"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Category) TableName() string { return "category" }

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// RequiredItem is a catalog question. Subcategory slots 1..5 name the subcategories the
// item relates to; slot 1 is the subcategory the item itself belongs to, and an initiator
// flag on slot N means answering this item can unlock the slot N subcategory.
type RequiredItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index" json:"category_id"`
	ItemName   string    `gorm:"column:item_name;not null" json:"item_name"`
	ItemType   ItemType  `gorm:"column:item_type;not null;default:'text'" json:"item_type"`
	Scope      ItemScope `gorm:"column:scope;not null;default:'PROJECT'" json:"scope"`

	Subcategory  *string `gorm:"column:subcategory;index" json:"subcategory,omitempty"`
	Subcategory2 *string `gorm:"column:subcategory2" json:"subcategory2,omitempty"`
	Subcategory3 *string `gorm:"column:subcategory3" json:"subcategory3,omitempty"`
	Subcategory4 *string `gorm:"column:subcategory4" json:"subcategory4,omitempty"`
	Subcategory5 *string `gorm:"column:subcategory5" json:"subcategory5,omitempty"`

	Subcategory1Initiator bool `gorm:"column:subcategory1_initiator;not null;default:false" json:"subcategory1_initiator"`
	Subcategory2Initiator bool `gorm:"column:subcategory2_initiator;not null;default:false" json:"subcategory2_initiator"`
	Subcategory3Initiator bool `gorm:"column:subcategory3_initiator;not null;default:false" json:"subcategory3_initiator"`
	Subcategory4Initiator bool `gorm:"column:subcategory4_initiator;not null;default:false" json:"subcategory4_initiator"`
	Subcategory5Initiator bool `gorm:"column:subcategory5_initiator;not null;default:false" json:"subcategory5_initiator"`

	// Empty means the item applies to every project type.
	ProjectTypesApplicable datatypes.JSONSlice[string] `gorm:"column:project_types_applicable" json:"project_types_applicable,omitempty"`
	// Raw rules document; see ParseValidationRules.
	ValidationRules datatypes.JSON `gorm:"column:validation_rules" json:"validation_rules,omitempty"`

	Priority                   int          `gorm:"column:priority;not null;default:0;index" json:"priority"`
	RepeatableGroupTargetTable *TargetTable `gorm:"column:repeatable_group_target_table" json:"repeatable_group_target_table,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (RequiredItem) TableName() string { return "required_item" }

func (i *RequiredItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *RequiredItem) slots() [5]*string {
	return [5]*string{i.Subcategory, i.Subcategory2, i.Subcategory3, i.Subcategory4, i.Subcategory5}
}

func (i *RequiredItem) initiators() [5]bool {
	return [5]bool{
		i.Subcategory1Initiator,
		i.Subcategory2Initiator,
		i.Subcategory3Initiator,
		i.Subcategory4Initiator,
		i.Subcategory5Initiator,
	}
}

// SubcategoryName is the subcategory the item belongs to, or "".
func (i *RequiredItem) SubcategoryName() string {
	if i == nil || i.Subcategory == nil {
		return ""
	}
	return strings.TrimSpace(*i.Subcategory)
}

// HasSubcategory reports whether any subcategory slot is set.
func (i *RequiredItem) HasSubcategory() bool {
	if i == nil {
		return false
	}
	for _, s := range i.slots() {
		if s != nil && strings.TrimSpace(*s) != "" {
			return true
		}
	}
	return false
}

// IsMain: no subcategory at all.
func (i *RequiredItem) IsMain() bool { return i != nil && !i.HasSubcategory() }

// IsInitiator: at least one initiator flag set.
func (i *RequiredItem) IsInitiator() bool {
	if i == nil {
		return false
	}
	for _, on := range i.initiators() {
		if on {
			return true
		}
	}
	return false
}

// IsConditional: belongs to a subcategory without initiating one. Materialized on unlock only.
func (i *RequiredItem) IsConditional() bool {
	return i != nil && i.HasSubcategory() && !i.IsInitiator()
}

// GeneratedUpFront reports whether the generator materializes the item immediately.
func (i *RequiredItem) GeneratedUpFront() bool { return i.IsMain() || i.IsInitiator() }

// InitiatedSubcategories lists the subcategory names this item can unlock.
func (i *RequiredItem) InitiatedSubcategories() []string {
	if i == nil {
		return nil
	}
	slots := i.slots()
	flags := i.initiators()
	var out []string
	for n := range slots {
		if flags[n] && slots[n] != nil && strings.TrimSpace(*slots[n]) != "" {
			out = append(out, strings.TrimSpace(*slots[n]))
		}
	}
	return out
}

func (i *RequiredItem) BelongsTo(subcategory string) bool {
	name := i.SubcategoryName()
	return name != "" && name == strings.TrimSpace(subcategory)
}

func (i *RequiredItem) AppliesToProjectType(projectType string) bool {
	if i == nil {
		return false
	}
	if len(i.ProjectTypesApplicable) == 0 {
		return true
	}
	pt := strings.TrimSpace(projectType)
	for _, t := range i.ProjectTypesApplicable {
		if strings.TrimSpace(t) == pt {
			return true
		}
	}
	return false
}

// HasRules reports whether the item carries a non-empty rules document.
func (i *RequiredItem) HasRules() bool {
	if i == nil {
		return false
	}
	raw := strings.TrimSpace(string(i.ValidationRules))
	return raw != "" && raw != "null" && raw != "{}"
}

// TargetTable is the group table for repeatable_group items, "" otherwise.
func (i *RequiredItem) TargetTable() TargetTable {
	if i == nil || i.RepeatableGroupTargetTable == nil {
		return ""
	}
	return *i.RepeatableGroupTargetTable
}
