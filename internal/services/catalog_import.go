package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/brokerdesk-backend/internal/data/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/data/repos"
	domainagg "github.com/yungbote/brokerdesk-backend/internal/domain/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

// CatalogDocument is the YAML seed format for the item catalog.
type CatalogDocument struct {
	Categories []CatalogCategoryDoc `yaml:"categories"`
}

type CatalogCategoryDoc struct {
	Name     string           `yaml:"name"`
	Priority int              `yaml:"priority"`
	Items    []CatalogItemDoc `yaml:"items"`
}

type CatalogItemDoc struct {
	Name         string   `yaml:"name"`
	Type         string   `yaml:"type"`
	Scope        string   `yaml:"scope"`
	Priority     int      `yaml:"priority"`
	ProjectTypes []string `yaml:"project_types"`
	// Slot order is significant: the first entry is the item's own subcategory.
	Subcategories   []CatalogSubcategoryDoc           `yaml:"subcategories"`
	ValidationRules map[string][]CatalogConditionDoc `yaml:"validation_rules"`
	TargetTable     string                           `yaml:"target_table"`
}

type CatalogSubcategoryDoc struct {
	Name      string `yaml:"name"`
	Initiator bool   `yaml:"initiator"`
}

// CatalogConditionDoc may point at another item of the same category by name.
type CatalogConditionDoc struct {
	Type  string `yaml:"type"`
	Value any    `yaml:"value"`
	Item  string `yaml:"item"`
}

type ImportResult struct {
	CategoriesCreated int `json:"categories_created"`
	ItemsCreated      int `json:"items_created"`
	ItemsUpdated      int `json:"items_updated"`
}

type CatalogImporter interface {
	Import(ctx context.Context, r io.Reader) (*ImportResult, error)
}

type catalogImporter struct {
	db         *gorm.DB
	log        *logger.Logger
	tx         aggregates.TxRunner
	categories repos.CategoryRepo
	items      repos.RequiredItemRepo
	catalog    CatalogService
}

func NewCatalogImporter(
	db *gorm.DB,
	baseLog *logger.Logger,
	tx aggregates.TxRunner,
	categories repos.CategoryRepo,
	items repos.RequiredItemRepo,
	catalog CatalogService,
) CatalogImporter {
	return &catalogImporter{
		db:         db,
		log:        baseLog.With("service", "CatalogImporter"),
		tx:         tx,
		categories: categories,
		items:      items,
		catalog:    catalog,
	}
}

// Import upserts categories and items by name in one transaction, then drops the catalog
// cache.
func (s *catalogImporter) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	const op = "catalog.import"
	var doc CatalogDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "decode catalog yaml: "+err.Error(), err)
	}
	if len(doc.Categories) == 0 {
		return nil, domainagg.Validation(op, "catalog has no categories")
	}

	res := &ImportResult{}
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		for _, cd := range doc.Categories {
			if err := s.importCategory(dbc, cd, res); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if domainagg.CodeOf(err) != "" {
			return nil, err
		}
		return nil, aggregates.MapError(op, err)
	}
	if err := s.catalog.Invalidate(ctx); err != nil {
		s.log.Warn("Import: cache invalidation failed", "error", err)
	}
	s.log.Info("Import: catalog loaded",
		"categories_created", res.CategoriesCreated,
		"items_created", res.ItemsCreated,
		"items_updated", res.ItemsUpdated,
	)
	return res, nil
}

func (s *catalogImporter) importCategory(dbc dbctx.Context, cd CatalogCategoryDoc, res *ImportResult) error {
	const op = "catalog.import"
	name := strings.TrimSpace(cd.Name)
	if name == "" {
		return domainagg.Validation(op, "category with blank name")
	}
	cat, err := s.categories.GetByName(dbc, name)
	if err != nil {
		return err
	}
	if cat == nil {
		created, err := s.categories.Create(dbc, []*checklist.Category{{Name: name, Priority: cd.Priority}})
		if err != nil {
			return err
		}
		cat = created[0]
		res.CategoriesCreated++
	} else if cat.Priority != cd.Priority {
		if err := s.categories.UpdateFields(dbc, cat.ID, map[string]interface{}{"priority": cd.Priority}); err != nil {
			return err
		}
	}

	// First pass creates or updates every item so rules can refer to siblings by name.
	byName := map[string]*checklist.RequiredItem{}
	for _, d := range cd.Items {
		item, err := buildItem(cat, d)
		if err != nil {
			return domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
		}
		existing, err := s.items.GetByCategoryAndName(dbc, cat.ID, item.ItemName)
		if err != nil {
			return err
		}
		if existing == nil {
			if _, err := s.items.Create(dbc, []*checklist.RequiredItem{item}); err != nil {
				return err
			}
			res.ItemsCreated++
		} else {
			item.ID = existing.ID
			item.CreatedAt = existing.CreatedAt
			if err := s.items.Update(dbc, item); err != nil {
				return err
			}
			res.ItemsUpdated++
		}
		byName[item.ItemName] = item
	}

	for _, d := range cd.Items {
		if len(d.ValidationRules) == 0 {
			continue
		}
		item := byName[strings.TrimSpace(d.Name)]
		raw, err := encodeRules(d.ValidationRules, byName)
		if err != nil {
			return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("item %q: %v", item.ItemName, err), err)
		}
		item.ValidationRules = raw
		if err := s.items.Update(dbc, item); err != nil {
			return err
		}
	}
	return nil
}

func buildItem(cat *checklist.Category, d CatalogItemDoc) (*checklist.RequiredItem, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, fmt.Errorf("category %q has an item with a blank name", cat.Name)
	}
	item := &checklist.RequiredItem{
		CategoryID: cat.ID,
		ItemName:   name,
		ItemType:   checklist.ItemType(strings.TrimSpace(d.Type)),
		Scope:      checklist.ItemScope(strings.ToUpper(strings.TrimSpace(d.Scope))),
		Priority:   d.Priority,
	}
	if item.ItemType == "" {
		item.ItemType = checklist.ItemTypeText
	}
	if !item.ItemType.Valid() {
		return nil, fmt.Errorf("item %q: unknown type %q", name, d.Type)
	}
	if item.Scope == "" {
		item.Scope = checklist.ScopeProject
	}
	if !item.Scope.Valid() {
		return nil, fmt.Errorf("item %q: unknown scope %q", name, d.Scope)
	}
	if len(d.ProjectTypes) > 0 {
		item.ProjectTypesApplicable = datatypes.JSONSlice[string](d.ProjectTypes)
	}

	if len(d.Subcategories) > 5 {
		return nil, fmt.Errorf("item %q: at most 5 subcategories", name)
	}
	slots := []**string{&item.Subcategory, &item.Subcategory2, &item.Subcategory3, &item.Subcategory4, &item.Subcategory5}
	flags := []*bool{&item.Subcategory1Initiator, &item.Subcategory2Initiator, &item.Subcategory3Initiator, &item.Subcategory4Initiator, &item.Subcategory5Initiator}
	for n, sc := range d.Subcategories {
		sub := strings.TrimSpace(sc.Name)
		if sub == "" {
			return nil, fmt.Errorf("item %q: subcategory %d has a blank name", name, n+1)
		}
		*slots[n] = &sub
		*flags[n] = sc.Initiator
	}

	if t := strings.TrimSpace(d.TargetTable); t != "" {
		table := checklist.TargetTable(t)
		if !table.Valid() {
			return nil, fmt.Errorf("item %q: unknown target table %q", name, t)
		}
		item.RepeatableGroupTargetTable = &table
	}
	if item.ItemType == checklist.ItemTypeRepeatableGroup && item.RepeatableGroupTargetTable == nil {
		return nil, fmt.Errorf("item %q: repeatable_group requires target_table", name)
	}
	return item, nil
}

func encodeRules(rules map[string][]CatalogConditionDoc, byName map[string]*checklist.RequiredItem) (datatypes.JSON, error) {
	type condition struct {
		Type   string `json:"type"`
		Value  any    `json:"value"`
		ItemID string `json:"item_id,omitempty"`
	}
	out := make(map[string][]condition, len(rules))
	for sub, conds := range rules {
		list := make([]condition, 0, len(conds))
		for _, c := range conds {
			cond := condition{Type: strings.TrimSpace(c.Type), Value: c.Value}
			if ref := strings.TrimSpace(c.Item); ref != "" {
				target, ok := byName[ref]
				if !ok {
					return nil, fmt.Errorf("rule for %q references unknown item %q", sub, ref)
				}
				cond.ItemID = target.ID.String()
			}
			list = append(list, cond)
		}
		out[sub] = list
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	if _, err := checklist.ParseValidationRules(raw); err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
