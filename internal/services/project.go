package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/brokerdesk-backend/internal/data/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/data/repos"
	domainagg "github.com/yungbote/brokerdesk-backend/internal/domain/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

type CreateProjectInput struct {
	BrokerageID    uuid.UUID
	Name           string
	ProjectType    string
	ApplicantCount checklist.ApplicantCount
}

type RegisterDocumentInput struct {
	ProjectID        uuid.UUID
	ItemID           uuid.UUID
	Designation      checklist.Designation
	Status           checklist.ItemStatus
	StorageReference string
}

type ProjectService interface {
	CreateBrokerage(ctx context.Context, name string) (*checklist.Brokerage, error)
	CreateProject(ctx context.Context, in CreateProjectInput) (*checklist.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*checklist.Project, error)
	// RegisterDocument records an upload made elsewhere against a catalog item.
	RegisterDocument(ctx context.Context, in RegisterDocumentInput) (*checklist.ProjectDocument, error)
}

type projectService struct {
	db         *gorm.DB
	log        *logger.Logger
	brokerages repos.BrokerageRepo
	projects   repos.ProjectRepo
	items      repos.RequiredItemRepo
	docs       repos.ProjectDocumentRepo
	fanOut     checklist.FanOutPolicy
}

func NewProjectService(
	db *gorm.DB,
	baseLog *logger.Logger,
	brokerages repos.BrokerageRepo,
	projects repos.ProjectRepo,
	items repos.RequiredItemRepo,
	docs repos.ProjectDocumentRepo,
	fanOut checklist.FanOutPolicy,
) ProjectService {
	if fanOut == nil {
		fanOut = checklist.DefaultFanOutPolicy()
	}
	return &projectService{
		db:         db,
		log:        baseLog.With("service", "ProjectService"),
		brokerages: brokerages,
		projects:   projects,
		items:      items,
		docs:       docs,
		fanOut:     fanOut,
	}
}

func (s *projectService) CreateBrokerage(ctx context.Context, name string) (*checklist.Brokerage, error) {
	const op = "brokerage.create"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainagg.Validation(op, "name required")
	}
	b, err := s.brokerages.Create(dbctx.Of(ctx), &checklist.Brokerage{Name: name})
	if err != nil {
		s.log.Warn("CreateBrokerage: insert failed", "error", err)
		return nil, aggregates.MapError(op, err)
	}
	return b, nil
}

func (s *projectService) CreateProject(ctx context.Context, in CreateProjectInput) (*checklist.Project, error) {
	const op = "project.create"
	projectType := strings.TrimSpace(in.ProjectType)
	if projectType == "" {
		return nil, domainagg.Validation(op, "project_type required")
	}
	if in.ApplicantCount == "" {
		in.ApplicantCount = checklist.OneApplicant
	}
	if !in.ApplicantCount.Valid() {
		return nil, domainagg.Validation(op, "unknown applicant_count %q", in.ApplicantCount)
	}
	b, err := s.brokerages.GetByID(dbctx.Of(ctx), in.BrokerageID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if b == nil {
		return nil, domainagg.NotFound(op, "brokerage %s not found", in.BrokerageID)
	}
	p, err := s.projects.Create(dbctx.Of(ctx), &checklist.Project{
		BrokerageID:    b.ID,
		Name:           strings.TrimSpace(in.Name),
		ProjectType:    projectType,
		ApplicantCount: in.ApplicantCount,
	})
	if err != nil {
		s.log.Warn("CreateProject: insert failed", "error", err, "brokerage_id", b.ID)
		return nil, aggregates.MapError(op, err)
	}
	return p, nil
}

func (s *projectService) GetProject(ctx context.Context, id uuid.UUID) (*checklist.Project, error) {
	const op = "project.get"
	p, err := s.projects.GetByID(dbctx.Of(ctx), id)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if p == nil {
		return nil, domainagg.NotFound(op, "project %s not found", id)
	}
	return p, nil
}

func (s *projectService) RegisterDocument(ctx context.Context, in RegisterDocumentInput) (*checklist.ProjectDocument, error) {
	const op = "document.register"
	project, err := s.GetProject(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := checkDesignation(op, s.fanOut, project, in.Designation); err != nil {
		return nil, err
	}
	item, err := s.items.GetByID(dbctx.Of(ctx), in.ItemID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if item == nil {
		return nil, domainagg.NotFound(op, "item %s not found", in.ItemID)
	}
	designation, err := rowDesignation(item, in.Designation)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	status := in.Status
	switch status {
	case "":
		status = checklist.StatusSubmitted
	case checklist.StatusPending, checklist.StatusSubmitted, checklist.StatusApproved:
	default:
		return nil, domainagg.Validation(op, "unknown status %q", status)
	}
	doc, err := s.docs.Create(dbctx.Of(ctx), &checklist.ProjectDocument{
		ProjectID:              in.ProjectID,
		ItemID:                 item.ID,
		ParticipantDesignation: designation,
		Status:                 status,
		StorageReference:       strings.TrimSpace(in.StorageReference),
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return doc, nil
}
