package services

import (
	"context"
	"fmt"
	"time"

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

// GenerateResult always comes back, even on partial failure. Errors holds per-row failures
// and the informational "already generated" note.
type GenerateResult struct {
	ItemsCreated     int      `json:"items_created"`
	ItemsSkipped     int      `json:"items_skipped"`
	Errors           []string `json:"errors"`
	AlreadyGenerated bool     `json:"already_generated"`
}

func (r *GenerateResult) merge(other *GenerateResult) {
	if r == nil || other == nil {
		return
	}
	r.ItemsCreated += other.ItemsCreated
	r.ItemsSkipped += other.ItemsSkipped
	r.Errors = append(r.Errors, other.Errors...)
}

type ChecklistGenerator interface {
	// Generate materializes main and initiator items for the project. The error is non-nil
	// only when the project does not exist or the catalog cannot be read.
	Generate(ctx context.Context, projectID uuid.UUID, forceRegenerate bool) (*GenerateResult, error)

	// Materialize inserts rows for the given items, narrowed to who for PARTICIPANT items
	// when who is set. Existing rows are counted as skipped.
	Materialize(ctx context.Context, project *checklist.Project, items []*checklist.RequiredItem, who checklist.Designation) *GenerateResult
}

type checklistGenerator struct {
	db       *gorm.DB
	log      *logger.Logger
	tx       aggregates.TxRunner
	projects repos.ProjectRepo
	rows     repos.ChecklistItemRepo
	catalog  CatalogService
	fanOut   checklist.FanOutPolicy
}

func NewChecklistGenerator(
	db *gorm.DB,
	baseLog *logger.Logger,
	tx aggregates.TxRunner,
	projects repos.ProjectRepo,
	rows repos.ChecklistItemRepo,
	catalog CatalogService,
	fanOut checklist.FanOutPolicy,
) ChecklistGenerator {
	if fanOut == nil {
		fanOut = checklist.DefaultFanOutPolicy()
	}
	return &checklistGenerator{
		db:       db,
		log:      baseLog.With("service", "ChecklistGenerator"),
		tx:       tx,
		projects: projects,
		rows:     rows,
		catalog:  catalog,
		fanOut:   fanOut,
	}
}

func (g *checklistGenerator) Generate(ctx context.Context, projectID uuid.UUID, forceRegenerate bool) (*GenerateResult, error) {
	const op = "checklist.generate"
	ctx, span := observability.Tracer().Start(ctx, op)
	defer span.End()
	span.SetAttributes(
		attribute.String("project.id", projectID.String()),
		attribute.Bool("checklist.force", forceRegenerate),
	)

	project, err := g.projects.GetByID(dbctx.Of(ctx), projectID)
	if err != nil {
		g.log.Warn("Generate: project lookup failed", "error", err, "project_id", projectID)
		return nil, aggregates.MapError(op, err)
	}
	if project == nil {
		return nil, domainagg.NotFound(op, "project %s not found", projectID)
	}

	if project.ChecklistGeneratedAt != nil && !forceRegenerate {
		return &GenerateResult{
			AlreadyGenerated: true,
			Errors: []string{fmt.Sprintf(
				"checklist already generated for project %s at %s",
				project.ID, project.ChecklistGeneratedAt.UTC().Format(time.RFC3339),
			)},
		}, nil
	}

	if forceRegenerate {
		err := g.tx.InTx(ctx, func(dbc dbctx.Context) error {
			n, err := g.rows.DeleteByProject(dbc, project.ID)
			if err != nil {
				return err
			}
			g.log.Info("Generate: cleared checklist for regeneration", "project_id", project.ID, "rows", n)
			return g.projects.SetChecklistGeneratedAt(dbc, project.ID, nil)
		})
		if err != nil {
			g.log.Warn("Generate: reset failed", "error", err, "project_id", project.ID)
			return nil, aggregates.MapError(op, err)
		}
		project.ChecklistGeneratedAt = nil
	}

	catalog, err := g.catalog.All(ctx)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}

	selected := make([]*checklist.RequiredItem, 0, len(catalog))
	for _, item := range catalog {
		if item.AppliesToProjectType(project.ProjectType) && item.GeneratedUpFront() {
			selected = append(selected, item)
		}
	}

	result := g.Materialize(ctx, project, selected, checklist.DesignationNone)

	if len(result.Errors) == 0 {
		now := time.Now().UTC()
		if err := g.projects.SetChecklistGeneratedAt(dbctx.Of(ctx), project.ID, &now); err != nil {
			g.log.Warn("Generate: stamping checklist_generated_at failed", "error", err, "project_id", project.ID)
			result.Errors = append(result.Errors, fmt.Sprintf("stamp checklist_generated_at: %v", err))
		}
	}

	span.SetAttributes(
		attribute.Int("checklist.created", result.ItemsCreated),
		attribute.Int("checklist.skipped", result.ItemsSkipped),
		attribute.Int("checklist.errors", len(result.Errors)),
	)
	g.log.Info("Generate: done",
		"project_id", project.ID,
		"created", result.ItemsCreated,
		"skipped", result.ItemsSkipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

func (g *checklistGenerator) Materialize(ctx context.Context, project *checklist.Project, items []*checklist.RequiredItem, who checklist.Designation) *GenerateResult {
	result := &GenerateResult{Errors: []string{}}
	for _, item := range items {
		if item == nil {
			continue
		}
		scopes, err := g.fanOut.ScopesForDesignation(item, project, who)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("item %s: %v", item.ID, err))
			continue
		}
		for _, scope := range scopes {
			_, err := g.rows.Create(dbctx.Of(ctx), &checklist.ChecklistItem{
				ProjectID:              project.ID,
				ItemID:                 item.ID,
				ParticipantDesignation: scope.Designation(),
				Status:                 checklist.StatusPending,
			})
			switch {
			case err == nil:
				result.ItemsCreated++
			case aggregates.IsUniqueViolation(err):
				result.ItemsSkipped++
			default:
				g.log.Warn("Materialize: insert failed",
					"error", err,
					"project_id", project.ID,
					"item_id", item.ID,
					"scope", scope.String(),
				)
				result.Errors = append(result.Errors, fmt.Sprintf("item %s (%s): %v", item.ID, scope, err))
			}
		}
	}
	observability.Current().AddChecklistRows(result.ItemsCreated, result.ItemsSkipped, len(result.Errors))
	return result
}
