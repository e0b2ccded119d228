package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yungbote/brokerdesk-backend/internal/clients/redis"
	"github.com/yungbote/brokerdesk-backend/internal/data/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/data/repos"
	domainagg "github.com/yungbote/brokerdesk-backend/internal/domain/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/observability"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

// CatalogService is the read side of the item catalog. Results are ordered by priority
// then creation time and must not be mutated by callers.
type CatalogService interface {
	All(ctx context.Context) ([]*checklist.RequiredItem, error)
	ByCategory(ctx context.Context, categoryID uuid.UUID) ([]*checklist.RequiredItem, error)
	WithRules(ctx context.Context, categoryID uuid.UUID) ([]*checklist.RequiredItem, error)
	BySubcategory(ctx context.Context, subcategory string) ([]*checklist.RequiredItem, error)
	Invalidate(ctx context.Context) error
	// RequireCategories fails with not_found naming the first id that has no category.
	RequireCategories(ctx context.Context, ids ...uuid.UUID) error
}

type catalogService struct {
	db         *gorm.DB
	log        *logger.Logger
	categories repos.CategoryRepo
	items      repos.RequiredItemRepo
	cache      redis.CatalogCache
	group      singleflight.Group
}

// NewCatalogService builds the catalog reader. cache may be nil, in which case every read
// goes to the database.
func NewCatalogService(
	db *gorm.DB,
	baseLog *logger.Logger,
	categories repos.CategoryRepo,
	items repos.RequiredItemRepo,
	cache redis.CatalogCache,
) CatalogService {
	return &catalogService{
		db:         db,
		log:        baseLog.With("service", "CatalogService"),
		categories: categories,
		items:      items,
		cache:      cache,
	}
}

func (s *catalogService) All(ctx context.Context) ([]*checklist.RequiredItem, error) {
	ctx, span := observability.Tracer().Start(ctx, "catalog.all")
	defer span.End()

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn("All: catalog cache read failed", "error", err)
		} else if ok {
			span.SetAttributes(attribute.Bool("catalog.cache_hit", true))
			observability.Current().IncCatalogLookup(true)
			return cached, nil
		}
		observability.Current().IncCatalogLookup(false)
	}

	v, err, _ := s.group.Do("catalog:all", func() (interface{}, error) {
		items, err := s.items.ListAll(dbctx.Of(ctx))
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, items); err != nil {
				s.log.Warn("All: catalog cache write failed", "error", err)
			}
		}
		return items, nil
	})
	if err != nil {
		s.log.Warn("All: catalog load failed", "error", err)
		span.RecordError(err)
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	items := v.([]*checklist.RequiredItem)
	span.SetAttributes(attribute.Int("catalog.items", len(items)))
	return items, nil
}

func (s *catalogService) ByCategory(ctx context.Context, categoryID uuid.UUID) ([]*checklist.RequiredItem, error) {
	if s.cache == nil {
		return s.items.GetByCategoryIDs(dbctx.Of(ctx), []uuid.UUID{categoryID})
	}
	return s.filter(ctx, func(it *checklist.RequiredItem) bool { return it.CategoryID == categoryID })
}

func (s *catalogService) WithRules(ctx context.Context, categoryID uuid.UUID) ([]*checklist.RequiredItem, error) {
	if s.cache == nil {
		return s.items.GetWithRulesByCategory(dbctx.Of(ctx), categoryID)
	}
	return s.filter(ctx, func(it *checklist.RequiredItem) bool {
		return it.CategoryID == categoryID && it.HasRules()
	})
}

func (s *catalogService) BySubcategory(ctx context.Context, subcategory string) ([]*checklist.RequiredItem, error) {
	name := strings.TrimSpace(subcategory)
	if s.cache == nil {
		return s.items.GetBySubcategory(dbctx.Of(ctx), name)
	}
	return s.filter(ctx, func(it *checklist.RequiredItem) bool { return it.BelongsTo(name) })
}

func (s *catalogService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("Invalidate: catalog cache delete failed", "error", err)
		return err
	}
	return nil
}

func (s *catalogService) RequireCategories(ctx context.Context, ids ...uuid.UUID) error {
	const op = "catalog.categories"
	if len(ids) == 0 {
		return nil
	}
	rows, err := s.categories.GetByIDs(dbctx.Of(ctx), ids)
	if err != nil {
		return aggregates.MapError(op, err)
	}
	found := make(map[uuid.UUID]bool, len(rows))
	for _, c := range rows {
		found[c.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return domainagg.NotFound(op, "category %s not found", id)
		}
	}
	return nil
}

func (s *catalogService) filter(ctx context.Context, keep func(*checklist.RequiredItem) bool) ([]*checklist.RequiredItem, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*checklist.RequiredItem, 0, len(all))
	for _, it := range all {
		if it != nil && keep(it) {
			out = append(out, it)
		}
	}
	return out, nil
}
