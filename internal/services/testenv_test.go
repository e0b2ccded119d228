package services

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/brokerdesk-backend/internal/data/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/data/repos"
	"github.com/yungbote/brokerdesk-backend/internal/data/repos/testutil"
	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

type testEnv struct {
	db  *gorm.DB
	log *logger.Logger
	tx  aggregates.TxRunner

	brokerages repos.BrokerageRepo
	projects   repos.ProjectRepo
	categories repos.CategoryRepo
	items      repos.RequiredItemRepo
	rows       repos.ChecklistItemRepo
	docs       repos.ProjectDocumentRepo
	groups     repos.GroupItemRepo
	batch      repos.CompletionRepo

	catalog   CatalogService
	generator ChecklistGenerator
	evaluator ConditionalLogicEvaluator
	answers   ChecklistAnswerService
	manager   RepeatableGroupManager
	progress  *completionAggregator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	e := &testEnv{
		db:         db,
		log:        log,
		tx:         aggregates.NewGormTxRunner(db),
		brokerages: repos.NewBrokerageRepo(db, log),
		projects:   repos.NewProjectRepo(db, log),
		categories: repos.NewCategoryRepo(db, log),
		items:      repos.NewRequiredItemRepo(db, log),
		rows:       repos.NewChecklistItemRepo(db, log),
		docs:       repos.NewProjectDocumentRepo(db, log),
		groups:     repos.NewGroupItemRepo(db, log),
		batch:      repos.NewCompletionRepo(db, log),
	}
	e.catalog = NewCatalogService(db, log, e.categories, e.items, nil)
	e.generator = NewChecklistGenerator(db, log, e.tx, e.projects, e.rows, e.catalog, checklist.DefaultFanOutPolicy())
	e.evaluator = NewConditionalLogicEvaluator(log, e.catalog)
	e.answers = NewChecklistAnswerService(db, log, e.projects, e.items, e.rows, e.catalog, e.evaluator, e.generator, nil)
	e.manager = NewRepeatableGroupManager(db, log, e.tx, e.projects, e.items, e.groups, e.catalog, nil, 3)
	e.progress = NewCompletionAggregator(db, log, e.projects, e.rows, e.docs, e.batch, e.catalog, nil, 2).(*completionAggregator)
	return e
}

func (e *testEnv) project(t *testing.T, projectType string, count checklist.ApplicantCount) *checklist.Project {
	t.Helper()
	return testutil.SeedProject(t, e.db, projectType, count)
}

func (e *testEnv) category(t *testing.T, name string) *checklist.Category {
	t.Helper()
	return testutil.SeedCategory(t, e.db, name)
}

func (e *testEnv) item(t *testing.T, item *checklist.RequiredItem) *checklist.RequiredItem {
	t.Helper()
	return testutil.SeedItem(t, e.db, item)
}

func (e *testEnv) listRows(t *testing.T, projectID any) []*checklist.ChecklistItem {
	t.Helper()
	var out []*checklist.ChecklistItem
	if err := e.db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&out).Error; err != nil {
		t.Fatalf("list rows: %v", err)
	}
	return out
}

// memCache is an in-process CatalogCache.
type memCache struct {
	mu          sync.Mutex
	items       []*checklist.RequiredItem
	ok          bool
	gets        int
	sets        int
	invalidates int
}

func (c *memCache) Get(ctx context.Context) ([]*checklist.RequiredItem, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	return c.items, c.ok, nil
}

func (c *memCache) Set(ctx context.Context, items []*checklist.RequiredItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.items, c.ok = items, true
	return nil
}

func (c *memCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidates++
	c.items, c.ok = nil, false
	return nil
}

func (c *memCache) Close() error { return nil }

func dbcOf(ctx context.Context) dbctx.Context { return dbctx.Of(ctx) }

func ptr[T any](v T) *T { return &v }
