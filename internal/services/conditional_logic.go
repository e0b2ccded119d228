package services

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	domainagg "github.com/yungbote/brokerdesk-backend/internal/domain/aggregates"
	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/observability"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

// FormAnswers holds one submitted batch keyed by form field id. A key that is missing is
// unanswered; a key holding nil is answered with an empty value.
type FormAnswers map[string]any

// FieldMap maps a catalog item to its form field id.
type FieldMap map[uuid.UUID]string

// FieldFor falls back to the item id when the item has no mapped field.
func (m FieldMap) FieldFor(itemID uuid.UUID) string {
	if f, ok := m[itemID]; ok && f != "" {
		return f
	}
	return itemID.String()
}

type EvaluationResult struct {
	UnlockedSubcategories []string       `json:"unlocked_subcategories"`
	PreservedAnswers      map[string]any `json:"preserved_answers"`
}

type ConditionalLogicEvaluator interface {
	Evaluate(ctx context.Context, categoryID uuid.UUID, answers FormAnswers, fieldMap FieldMap) (*EvaluationResult, error)
}

type conditionalLogicEvaluator struct {
	log     *logger.Logger
	catalog CatalogService
}

func NewConditionalLogicEvaluator(baseLog *logger.Logger, catalog CatalogService) ConditionalLogicEvaluator {
	return &conditionalLogicEvaluator{
		log:     baseLog.With("service", "ConditionalLogicEvaluator"),
		catalog: catalog,
	}
}

func (e *conditionalLogicEvaluator) Evaluate(ctx context.Context, categoryID uuid.UUID, answers FormAnswers, fieldMap FieldMap) (*EvaluationResult, error) {
	const op = "checklist.evaluate"
	ctx, span := observability.Tracer().Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("category.id", categoryID.String()))

	if err := e.catalog.RequireCategories(ctx, categoryID); err != nil {
		return nil, err
	}
	items, err := e.catalog.WithRules(ctx, categoryID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}

	result := &EvaluationResult{
		UnlockedSubcategories: []string{},
		PreservedAnswers:      map[string]any{},
	}
	unlocked := map[string]bool{}

	for _, item := range items {
		rules, err := checklist.ParseValidationRules(item.ValidationRules)
		if err != nil {
			e.log.Warn("Evaluate: skipping item with malformed validation rules", "error", err, "item_id", item.ID)
			continue
		}
		governing, answered := answers[fieldMap.FieldFor(item.ID)]
		if !answered {
			continue
		}
		for _, rule := range rules {
			if unlocked[rule.Subcategory] {
				continue
			}
			if ruleHolds(rule, governing, answers, fieldMap) {
				unlocked[rule.Subcategory] = true
				result.UnlockedSubcategories = append(result.UnlockedSubcategories, rule.Subcategory)
			}
		}
	}

	for _, name := range result.UnlockedSubcategories {
		members, err := e.catalog.BySubcategory(ctx, name)
		if err != nil {
			e.log.Warn("Evaluate: loading unlocked subcategory failed", "error", err, "subcategory", name)
			continue
		}
		for _, member := range members {
			field := fieldMap.FieldFor(member.ID)
			if v, ok := answers[field]; ok {
				result.PreservedAnswers[field] = v
			}
		}
	}

	span.SetAttributes(attribute.Int("checklist.unlocked", len(result.UnlockedSubcategories)))
	return result, nil
}

// ruleHolds ANDs the rule's conditions. Conditions on another item fail when that item is
// unanswered in the batch.
func ruleHolds(rule checklist.SubcategoryRule, governing any, answers FormAnswers, fieldMap FieldMap) bool {
	for _, cond := range rule.Conditions {
		value := governing
		if subject := cond.Subject(); subject != uuid.Nil {
			v, ok := answers[fieldMap.FieldFor(subject)]
			if !ok {
				return false
			}
			value = v
		}
		if !cond.Holds(value) {
			return false
		}
	}
	return true
}
