package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/brokerdesk-backend/internal/data/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/data/repos"
	domainagg "github.com/yungbote/brokerdesk-backend/internal/domain/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/observability"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

type CategoryCompletionInfo struct {
	CategoryID           uuid.UUID `json:"category_id"`
	CompletedItems       int       `json:"completed_items"`
	TotalItems           int       `json:"total_items"`
	CompletionPercentage int       `json:"completion_percentage"`
	IsComplete           bool      `json:"is_complete"`
	// Errors lists items whose check failed. They count toward TotalItems as unsatisfied.
	Errors []string `json:"errors,omitempty"`
}

type CompletionAggregator interface {
	// Completion reports per-category progress in the order the categories were given. An
	// empty designation counts PARTICIPANT items answered by any participant.
	Completion(ctx context.Context, projectID uuid.UUID, categoryIDs []uuid.UUID, who checklist.Designation) ([]CategoryCompletionInfo, error)
}

type completionAggregator struct {
	db          *gorm.DB
	log         *logger.Logger
	projects    repos.ProjectRepo
	rows        repos.ChecklistItemRepo
	docs        repos.ProjectDocumentRepo
	batch       repos.CompletionRepo
	catalog     CatalogService
	fanOut      checklist.FanOutPolicy
	concurrency int
}

func NewCompletionAggregator(
	db *gorm.DB,
	baseLog *logger.Logger,
	projects repos.ProjectRepo,
	rows repos.ChecklistItemRepo,
	docs repos.ProjectDocumentRepo,
	batch repos.CompletionRepo,
	catalog CatalogService,
	fanOut checklist.FanOutPolicy,
	fallbackConcurrency int,
) CompletionAggregator {
	if fallbackConcurrency <= 0 {
		fallbackConcurrency = 4
	}
	if fanOut == nil {
		fanOut = checklist.DefaultFanOutPolicy()
	}
	return &completionAggregator{
		db:          db,
		log:         baseLog.With("service", "CompletionAggregator"),
		projects:    projects,
		rows:        rows,
		docs:        docs,
		batch:       batch,
		catalog:     catalog,
		fanOut:      fanOut,
		concurrency: fallbackConcurrency,
	}
}

// itemCounts decides whether an item is counted and whether it is satisfied. Both the batch
// and the per-item paths fold through it.
func itemCounts(item *checklist.RequiredItem, projectType string, f repos.ItemFlags) (applicable, satisfied bool) {
	if item == nil || item.ItemType == checklist.ItemTypeRepeatableGroup {
		return false, false
	}
	if !item.AppliesToProjectType(projectType) {
		return false, false
	}
	applicable = item.GeneratedUpFront() || f.Materialized
	return applicable, applicable && f.Satisfied()
}

func newCompletionInfo(categoryID uuid.UUID, completed, total int) CategoryCompletionInfo {
	pct := 100
	if total > 0 {
		pct = int(math.Round(100 * float64(completed) / float64(total)))
	}
	return CategoryCompletionInfo{
		CategoryID:           categoryID,
		CompletedItems:       completed,
		TotalItems:           total,
		CompletionPercentage: pct,
		IsComplete:           pct == 100,
	}
}

func (a *completionAggregator) Completion(ctx context.Context, projectID uuid.UUID, categoryIDs []uuid.UUID, who checklist.Designation) ([]CategoryCompletionInfo, error) {
	const op = "checklist.completion"
	ctx, span := observability.Tracer().Start(ctx, op)
	defer span.End()
	span.SetAttributes(
		attribute.String("project.id", projectID.String()),
		attribute.Int("completion.categories", len(categoryIDs)),
	)

	project, err := a.projects.GetByID(dbctx.Of(ctx), projectID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if project == nil {
		return nil, domainagg.NotFound(op, "project %s not found", projectID)
	}

	if err := checkDesignation(op, a.fanOut, project, who); err != nil {
		return nil, err
	}

	ids := dedupeIDs(categoryIDs)
	if len(ids) == 0 {
		return []CategoryCompletionInfo{}, nil
	}
	if err := a.catalog.RequireCategories(ctx, ids...); err != nil {
		return nil, err
	}

	out, err := a.fastPath(ctx, project, ids, who)
	if err == nil {
		span.SetAttributes(attribute.String("completion.path", "batch"))
		observability.Current().IncCompletionPath("batch")
		return out, nil
	}
	a.log.Warn("Completion: batch query failed; using per-item fallback", "error", err, "project_id", project.ID)
	span.SetAttributes(attribute.String("completion.path", "fallback"))
	observability.Current().IncCompletionPath("fallback")
	return a.fallback(ctx, project, ids, who)
}

func (a *completionAggregator) fastPath(ctx context.Context, project *checklist.Project, categoryIDs []uuid.UUID, who checklist.Designation) ([]CategoryCompletionInfo, error) {
	flags, err := a.batch.BatchItemFlags(dbctx.Of(ctx), project.ID, categoryIDs, who)
	if err != nil {
		return nil, err
	}
	byItem := make(map[uuid.UUID]repos.ItemFlags, len(flags))
	for _, f := range flags {
		byItem[f.ItemID] = f
	}

	out := make([]CategoryCompletionInfo, 0, len(categoryIDs))
	for _, categoryID := range categoryIDs {
		items, err := a.catalog.ByCategory(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		completed, total := 0, 0
		for _, item := range items {
			applicable, satisfied := itemCounts(item, project.ProjectType, byItem[item.ID])
			if applicable {
				total++
			}
			if satisfied {
				completed++
			}
		}
		out = append(out, newCompletionInfo(categoryID, completed, total))
	}
	return out, nil
}

func (a *completionAggregator) fallback(ctx context.Context, project *checklist.Project, categoryIDs []uuid.UUID, who checklist.Designation) ([]CategoryCompletionInfo, error) {
	out := make([]CategoryCompletionInfo, 0, len(categoryIDs))
	for _, categoryID := range categoryIDs {
		items, err := a.catalog.ByCategory(ctx, categoryID)
		if err != nil {
			a.log.Warn("Completion: loading category items failed", "error", err, "category_id", categoryID)
			return nil, domainagg.Wrap(domainagg.CodeInternal, "checklist.completion", err)
		}

		var (
			mu        sync.Mutex
			completed int
			total     int
			failures  []string
		)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.concurrency)
		for _, item := range items {
			if applicable, _ := itemCounts(item, project.ProjectType, repos.ItemFlags{Materialized: true}); !applicable {
				continue
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				f, err := a.itemFlags(gctx, project.ID, item, who)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					a.log.Warn("Completion: item check failed", "error", err, "item_id", item.ID)
					total++
					failures = append(failures, fmt.Sprintf("item %s: %v", item.ID, err))
					return nil
				}
				applicable, satisfied := itemCounts(item, project.ProjectType, f)
				if applicable {
					total++
				}
				if satisfied {
					completed++
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, aggregates.MapError("checklist.completion", err)
		}
		info := newCompletionInfo(categoryID, completed, total)
		if len(failures) > 0 {
			sort.Strings(failures)
			info.Errors = failures
			info.IsComplete = false
		}
		out = append(out, info)
	}
	return out, nil
}

func (a *completionAggregator) itemFlags(ctx context.Context, projectID uuid.UUID, item *checklist.RequiredItem, who checklist.Designation) (repos.ItemFlags, error) {
	dbc := dbctx.Of(ctx)
	f := repos.ItemFlags{ItemID: item.ID, CategoryID: item.CategoryID}
	if item.GeneratedUpFront() {
		f.Materialized = true
	} else {
		ok, err := a.rows.ExistsForScope(dbc, projectID, item.ID, item.Scope, who, nil)
		if err != nil {
			return f, err
		}
		f.Materialized = ok
	}
	if !f.Materialized {
		return f, nil
	}
	answered, err := a.rows.ExistsForScope(dbc, projectID, item.ID, item.Scope, who, checklist.SatisfiedStatuses)
	if err != nil {
		return f, err
	}
	f.Answered = answered
	if answered {
		return f, nil
	}
	documented, err := a.docs.ExistsForScope(dbc, projectID, item.ID, item.Scope, who, checklist.SatisfiedStatuses)
	if err != nil {
		return f, err
	}
	f.Documented = documented
	return f, nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
