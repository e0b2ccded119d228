package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/brokerdesk-backend/internal/data/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/data/repos"
	domainagg "github.com/yungbote/brokerdesk-backend/internal/domain/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/observability"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

type SubmitCategoryInput struct {
	ProjectID   uuid.UUID
	CategoryID  uuid.UUID
	Designation checklist.Designation
	Answers     FormAnswers
	FieldMap    FieldMap
}

type SubmitCategoryResult struct {
	AnswersSaved          int            `json:"answers_saved"`
	UnlockedSubcategories []string       `json:"unlocked_subcategories"`
	PreservedAnswers      map[string]any `json:"preserved_answers"`
	ItemsCreated          int            `json:"items_created"`
	ItemsSkipped          int            `json:"items_skipped"`
	Errors                []string       `json:"errors"`
}

type ChecklistAnswerService interface {
	// SubmitCategory saves a category batch, evaluates its rules, and materializes rows for
	// newly unlocked subcategories. Rows of subcategories that lock again are kept.
	SubmitCategory(ctx context.Context, in SubmitCategoryInput) (*SubmitCategoryResult, error)
	List(ctx context.Context, projectID uuid.UUID, who checklist.Designation) ([]*checklist.ChecklistItem, error)
	SaveAnswer(ctx context.Context, projectID, itemID uuid.UUID, who checklist.Designation, value any) (*checklist.ChecklistItem, error)
	// RemoveParticipant drops a participant's rows when they leave the project. who is not
	// checked against the current applicant count, which may already have shrunk.
	RemoveParticipant(ctx context.Context, projectID uuid.UUID, who checklist.Designation) (int64, error)
}

type checklistAnswerService struct {
	db        *gorm.DB
	log       *logger.Logger
	projects  repos.ProjectRepo
	items     repos.RequiredItemRepo
	rows      repos.ChecklistItemRepo
	catalog   CatalogService
	evaluator ConditionalLogicEvaluator
	generator ChecklistGenerator
	fanOut    checklist.FanOutPolicy
}

func NewChecklistAnswerService(
	db *gorm.DB,
	baseLog *logger.Logger,
	projects repos.ProjectRepo,
	items repos.RequiredItemRepo,
	rows repos.ChecklistItemRepo,
	catalog CatalogService,
	evaluator ConditionalLogicEvaluator,
	generator ChecklistGenerator,
	fanOut checklist.FanOutPolicy,
) ChecklistAnswerService {
	if fanOut == nil {
		fanOut = checklist.DefaultFanOutPolicy()
	}
	return &checklistAnswerService{
		db:        db,
		log:       baseLog.With("service", "ChecklistAnswerService"),
		projects:  projects,
		items:     items,
		rows:      rows,
		catalog:   catalog,
		evaluator: evaluator,
		generator: generator,
		fanOut:    fanOut,
	}
}

func (s *checklistAnswerService) project(ctx context.Context, op string, id uuid.UUID) (*checklist.Project, error) {
	p, err := s.projects.GetByID(dbctx.Of(ctx), id)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if p == nil {
		return nil, domainagg.NotFound(op, "project %s not found", id)
	}
	return p, nil
}

// checkDesignation rejects a designation that is not one of the project's participant roles.
func checkDesignation(op string, fanOut checklist.FanOutPolicy, project *checklist.Project, who checklist.Designation) error {
	if err := fanOut.AllowsDesignation(project.ApplicantCount, who); err != nil {
		return domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	return nil
}

// rowDesignation resolves the storage designation an answer is written under.
func rowDesignation(item *checklist.RequiredItem, who checklist.Designation) (checklist.Designation, error) {
	if item.Scope == checklist.ScopeProject {
		return checklist.DesignationNone, nil
	}
	if who == checklist.DesignationNone {
		return "", fmt.Errorf("item %s is answered per participant; designation required", item.ID)
	}
	return who, nil
}

func (s *checklistAnswerService) SubmitCategory(ctx context.Context, in SubmitCategoryInput) (*SubmitCategoryResult, error) {
	const op = "checklist.submit_category"
	ctx, span := observability.Tracer().Start(ctx, op)
	defer span.End()
	span.SetAttributes(
		attribute.String("project.id", in.ProjectID.String()),
		attribute.String("category.id", in.CategoryID.String()),
	)

	project, err := s.project(ctx, op, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := checkDesignation(op, s.fanOut, project, in.Designation); err != nil {
		return nil, err
	}
	if err := s.catalog.RequireCategories(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	items, err := s.catalog.ByCategory(ctx, in.CategoryID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}

	out := &SubmitCategoryResult{Errors: []string{}}
	for _, item := range items {
		if item.ItemType == checklist.ItemTypeRepeatableGroup {
			continue
		}
		raw, ok := in.Answers[in.FieldMap.FieldFor(item.ID)]
		if !ok {
			continue
		}
		if err := s.upsert(ctx, op, item, in.ProjectID, in.Designation, raw); err != nil {
			s.log.Warn("SubmitCategory: saving answer failed", "error", err, "item_id", item.ID)
			out.Errors = append(out.Errors, fmt.Sprintf("item %s: %v", item.ID, err))
			continue
		}
		out.AnswersSaved++
	}

	eval, err := s.evaluator.Evaluate(ctx, in.CategoryID, in.Answers, in.FieldMap)
	if err != nil {
		return nil, err
	}
	out.UnlockedSubcategories = eval.UnlockedSubcategories
	out.PreservedAnswers = eval.PreservedAnswers

	gen := &GenerateResult{}
	for _, name := range eval.UnlockedSubcategories {
		members, err := s.catalog.BySubcategory(ctx, name)
		if err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("subcategory %q: %v", name, err))
			continue
		}
		applicable := make([]*checklist.RequiredItem, 0, len(members))
		for _, m := range members {
			if m.AppliesToProjectType(project.ProjectType) {
				applicable = append(applicable, m)
			}
		}
		gen.merge(s.generator.Materialize(ctx, project, applicable, in.Designation))
	}
	out.ItemsCreated = gen.ItemsCreated
	out.ItemsSkipped = gen.ItemsSkipped
	out.Errors = append(out.Errors, gen.Errors...)
	return out, nil
}

func (s *checklistAnswerService) upsert(ctx context.Context, op string, item *checklist.RequiredItem, projectID uuid.UUID, who checklist.Designation, raw any) error {
	designation, err := rowDesignation(item, who)
	if err != nil {
		return domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	value, err := EncodeAnswer(item.ItemType, raw)
	if err != nil {
		return domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	err = s.rows.UpsertAnswer(dbctx.Of(ctx), &checklist.ChecklistItem{
		ProjectID:              projectID,
		ItemID:                 item.ID,
		ParticipantDesignation: designation,
		Status:                 statusFor(value),
		TypedValue:             value,
	})
	return aggregates.MapError(op, err)
}

func (s *checklistAnswerService) List(ctx context.Context, projectID uuid.UUID, who checklist.Designation) ([]*checklist.ChecklistItem, error) {
	const op = "checklist.list"
	project, err := s.project(ctx, op, projectID)
	if err != nil {
		return nil, err
	}
	if err := checkDesignation(op, s.fanOut, project, who); err != nil {
		return nil, err
	}
	rows, err := s.rows.ListByProject(dbctx.Of(ctx), projectID, who)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return rows, nil
}

func (s *checklistAnswerService) SaveAnswer(ctx context.Context, projectID, itemID uuid.UUID, who checklist.Designation, value any) (*checklist.ChecklistItem, error) {
	const op = "checklist.save_answer"
	project, err := s.project(ctx, op, projectID)
	if err != nil {
		return nil, err
	}
	if err := checkDesignation(op, s.fanOut, project, who); err != nil {
		return nil, err
	}
	item, err := s.items.GetByID(dbctx.Of(ctx), itemID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if item == nil {
		return nil, domainagg.NotFound(op, "item %s not found", itemID)
	}
	if item.ItemType == checklist.ItemTypeRepeatableGroup {
		return nil, domainagg.Validation(op, "item %s is a repeatable group; answer it through its groups", itemID)
	}
	if err := s.upsert(ctx, op, item, projectID, who, value); err != nil {
		return nil, err
	}
	designation, _ := rowDesignation(item, who)
	row, err := s.rows.Get(dbctx.Of(ctx), projectID, itemID, designation)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return row, nil
}

func (s *checklistAnswerService) RemoveParticipant(ctx context.Context, projectID uuid.UUID, who checklist.Designation) (int64, error) {
	const op = "checklist.remove_participant"
	if who == checklist.DesignationNone {
		return 0, domainagg.Validation(op, "designation required")
	}
	if _, err := s.project(ctx, op, projectID); err != nil {
		return 0, err
	}
	n, err := s.rows.DeleteByParticipant(dbctx.Of(ctx), projectID, who)
	if err != nil {
		return 0, aggregates.MapError(op, err)
	}
	s.log.Info("RemoveParticipant: cleared participant rows", "project_id", projectID, "designation", who, "rows", n)
	return n, nil
}
