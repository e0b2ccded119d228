package checklist

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicantCount is the project-level answer to "how many borrowers".
type ApplicantCount string

const (
	OneApplicant          ApplicantCount = "one_applicant"
	TwoApplicants         ApplicantCount = "two_applicants"
	ThreeOrMoreApplicants ApplicantCount = "three_or_more_applicants"
)

func (c ApplicantCount) Valid() bool {
	switch c {
	case OneApplicant, TwoApplicants, ThreeOrMoreApplicants:
		return true
	default:
		return false
	}
}

type Brokerage struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Brokerage) TableName() string { return "brokerage" }

func (b *Brokerage) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

type Project struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BrokerageID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"brokerage_id"`
	Name           string         `gorm:"column:name;not null;default:''" json:"name"`
	ProjectType    string         `gorm:"column:project_type;not null;index" json:"project_type"`
	ApplicantCount ApplicantCount `gorm:"column:applicant_count;not null;default:'one_applicant'" json:"applicant_count"`

	// ChecklistGeneratedAt marks the checklist as materialized; the generator is a no-op while set.
	ChecklistGeneratedAt *time.Time `gorm:"column:checklist_generated_at" json:"checklist_generated_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Project) TableName() string { return "project" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
