package services

import (
	"context"
	"strings"

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

const defaultGroupCreateAttempts = 3

type RepeatableGroupManager interface {
	NextGroupIndex(ctx context.Context, scope checklist.GroupScope) (int, error)
	CreateGroup(ctx context.Context, scope checklist.GroupScope, subcategory string) (int, error)
	LoadAllGroups(ctx context.Context, scope checklist.GroupScope) ([]checklist.GroupSummary, error)
	// SaveAnswer writes value into the slot chosen by itemType. An empty itemType is looked
	// up from the catalog.
	SaveAnswer(ctx context.Context, scope checklist.GroupScope, itemID uuid.UUID, groupIndex int, value any, itemType checklist.ItemType) error
	DeleteGroup(ctx context.Context, scope checklist.GroupScope, groupIndex int) error
	GroupHasAnswers(ctx context.Context, scope checklist.GroupScope, groupIndex int) (bool, error)
	// CleanupEmptyGroups deletes every group without a typed value and returns their indices.
	CleanupEmptyGroups(ctx context.Context, scope checklist.GroupScope) ([]int, error)
}

type repeatableGroupManager struct {
	db          *gorm.DB
	log         *logger.Logger
	tx          aggregates.TxRunner
	projects    repos.ProjectRepo
	items       repos.RequiredItemRepo
	groups      repos.GroupItemRepo
	catalog     CatalogService
	fanOut      checklist.FanOutPolicy
	maxAttempts int
}

func NewRepeatableGroupManager(
	db *gorm.DB,
	baseLog *logger.Logger,
	tx aggregates.TxRunner,
	projects repos.ProjectRepo,
	items repos.RequiredItemRepo,
	groups repos.GroupItemRepo,
	catalog CatalogService,
	fanOut checklist.FanOutPolicy,
	maxAttempts int,
) RepeatableGroupManager {
	if maxAttempts <= 0 {
		maxAttempts = defaultGroupCreateAttempts
	}
	if fanOut == nil {
		fanOut = checklist.DefaultFanOutPolicy()
	}
	return &repeatableGroupManager{
		db:          db,
		log:         baseLog.With("service", "RepeatableGroupManager"),
		tx:          tx,
		projects:    projects,
		items:       items,
		groups:      groups,
		catalog:     catalog,
		fanOut:      fanOut,
		maxAttempts: maxAttempts,
	}
}

func (m *repeatableGroupManager) checkScope(ctx context.Context, op string, scope checklist.GroupScope) error {
	if !scope.Table.Valid() {
		return domainagg.Validation(op, "unknown repeatable group table %q", scope.Table)
	}
	p, err := m.projects.GetByID(dbctx.Of(ctx), scope.ProjectID)
	if err != nil {
		return aggregates.MapError(op, err)
	}
	if p == nil {
		return domainagg.NotFound(op, "project %s not found", scope.ProjectID)
	}
	return checkDesignation(op, m.fanOut, p, scope.Designation)
}

func (m *repeatableGroupManager) NextGroupIndex(ctx context.Context, scope checklist.GroupScope) (int, error) {
	const op = "groups.next_index"
	if err := m.checkScope(ctx, op, scope); err != nil {
		return 0, err
	}
	indices, err := m.groups.ListIndices(dbctx.Of(ctx), scope)
	if err != nil {
		return 0, aggregates.MapError(op, err)
	}
	return checklist.NextGroupIndex(indices), nil
}

func (m *repeatableGroupManager) CreateGroup(ctx context.Context, scope checklist.GroupScope, subcategory string) (int, error) {
	const op = "groups.create"
	ctx, span := observability.Tracer().Start(ctx, op)
	defer span.End()
	span.SetAttributes(
		attribute.String("project.id", scope.ProjectID.String()),
		attribute.String("group.table", string(scope.Table)),
	)

	if err := m.checkScope(ctx, op, scope); err != nil {
		return 0, err
	}
	name := strings.TrimSpace(subcategory)
	if name == "" {
		return 0, domainagg.Validation(op, "subcategory required")
	}

	// Catalog reads happen before the transaction opens.
	members, err := m.catalog.BySubcategory(ctx, name)
	if err != nil {
		return 0, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	questions := make([]*checklist.RequiredItem, 0, len(members))
	for _, it := range members {
		if it.ItemType != checklist.ItemTypeRepeatableGroup {
			questions = append(questions, it)
		}
	}
	if len(questions) == 0 {
		return 0, domainagg.Validation(op, "subcategory %q has no group questions", name)
	}

	var lastErr error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		var created int
		err := m.tx.InTx(ctx, func(dbc dbctx.Context) error {
			indices, err := m.groups.ListIndices(dbc, scope)
			if err != nil {
				return err
			}
			idx := checklist.NextGroupIndex(indices)
			rows := make([]*checklist.RepeatableGroupItem, 0, len(questions))
			for _, q := range questions {
				rows = append(rows, &checklist.RepeatableGroupItem{
					ItemID:     q.ID,
					GroupIndex: idx,
					Status:     checklist.StatusPending,
				})
			}
			if err := m.groups.CreateBatch(dbc, scope, rows); err != nil {
				return err
			}
			created = idx
			return nil
		})
		if err == nil {
			span.SetAttributes(attribute.Int("group.index", created), attribute.Int("group.attempts", attempt))
			observability.Current().IncGroupCreate(string(scope.Table), "created")
			return created, nil
		}
		if !aggregates.IsUniqueViolation(err) {
			observability.Current().IncGroupCreate(string(scope.Table), "error")
			m.log.Warn("CreateGroup: insert failed", "error", err, "project_id", scope.ProjectID, "table", scope.Table)
			return 0, aggregates.MapError(op, err)
		}
		lastErr = err
		observability.Current().IncGroupCreate(string(scope.Table), "collision")
		m.log.Info("CreateGroup: index collision; retrying", "attempt", attempt, "project_id", scope.ProjectID, "table", scope.Table)
	}
	return 0, domainagg.Conflict(op, lastErr, "group index kept colliding after %d attempts", m.maxAttempts)
}

func (m *repeatableGroupManager) LoadAllGroups(ctx context.Context, scope checklist.GroupScope) ([]checklist.GroupSummary, error) {
	const op = "groups.load"
	if err := m.checkScope(ctx, op, scope); err != nil {
		return nil, err
	}
	rows, err := m.groups.ListByScope(dbctx.Of(ctx), scope)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return checklist.SummarizeGroups(rows), nil
}

func (m *repeatableGroupManager) SaveAnswer(ctx context.Context, scope checklist.GroupScope, itemID uuid.UUID, groupIndex int, value any, itemType checklist.ItemType) error {
	const op = "groups.save_answer"
	if err := m.checkScope(ctx, op, scope); err != nil {
		return err
	}
	if itemType == "" {
		item, err := m.items.GetByID(dbctx.Of(ctx), itemID)
		if err != nil {
			return aggregates.MapError(op, err)
		}
		if item == nil {
			return domainagg.NotFound(op, "item %s not found", itemID)
		}
		itemType = item.ItemType
	}
	typed, err := EncodeAnswer(itemType, value)
	if err != nil {
		return domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	// A blank value clears the slots; the group summary still treats the row as unanswered.
	n, err := m.groups.UpdateAnswer(dbctx.Of(ctx), scope, itemID, groupIndex, typed, checklist.StatusSubmitted)
	if err != nil {
		return aggregates.MapError(op, err)
	}
	if n == 0 {
		return domainagg.NotFound(op, "no group row for item %s at index %d", itemID, groupIndex)
	}
	return nil
}

func (m *repeatableGroupManager) DeleteGroup(ctx context.Context, scope checklist.GroupScope, groupIndex int) error {
	const op = "groups.delete"
	if err := m.checkScope(ctx, op, scope); err != nil {
		return err
	}
	n, err := m.groups.DeleteGroup(dbctx.Of(ctx), scope, groupIndex)
	if err != nil {
		return aggregates.MapError(op, err)
	}
	if n == 0 {
		return domainagg.NotFound(op, "group %d not found", groupIndex)
	}
	return nil
}

func (m *repeatableGroupManager) GroupHasAnswers(ctx context.Context, scope checklist.GroupScope, groupIndex int) (bool, error) {
	const op = "groups.has_answers"
	if err := m.checkScope(ctx, op, scope); err != nil {
		return false, err
	}
	ok, err := m.groups.HasValue(dbctx.Of(ctx), scope, groupIndex)
	if err != nil {
		return false, aggregates.MapError(op, err)
	}
	return ok, nil
}

func (m *repeatableGroupManager) CleanupEmptyGroups(ctx context.Context, scope checklist.GroupScope) ([]int, error) {
	const op = "groups.cleanup"
	if err := m.checkScope(ctx, op, scope); err != nil {
		return nil, err
	}
	deleted := []int{}
	err := m.tx.InTx(ctx, func(dbc dbctx.Context) error {
		deleted = deleted[:0]
		rows, err := m.groups.ListByScope(dbc, scope)
		if err != nil {
			return err
		}
		for _, g := range checklist.SummarizeGroups(rows) {
			if g.HasAnswers() {
				continue
			}
			if _, err := m.groups.DeleteGroup(dbc, scope, g.GroupIndex); err != nil {
				return err
			}
			deleted = append(deleted, g.GroupIndex)
		}
		return nil
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if len(deleted) > 0 {
		m.log.Debug("CleanupEmptyGroups: removed abandoned groups", "project_id", scope.ProjectID, "table", scope.Table, "indices", deleted)
	}
	return deleted, nil
}
