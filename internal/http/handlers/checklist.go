package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/http/response"
	"github.com/yungbote/brokerdesk-backend/internal/services"
)

type ChecklistHandler struct {
	generator services.ChecklistGenerator
	answers   services.ChecklistAnswerService
	evaluator services.ConditionalLogicEvaluator
	catalog   services.CatalogService
}

func NewChecklistHandler(
	generator services.ChecklistGenerator,
	answers services.ChecklistAnswerService,
	evaluator services.ConditionalLogicEvaluator,
	catalog services.CatalogService,
) *ChecklistHandler {
	return &ChecklistHandler{generator: generator, answers: answers, evaluator: evaluator, catalog: catalog}
}

type generateRequest struct {
	ForceRegenerate bool `json:"force_regenerate"`
}

// POST /api/projects/:id/checklist/generate
func (h *ChecklistHandler) Generate(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	var req generateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	res, err := h.generator.Generate(c.Request.Context(), id, req.ForceRegenerate)
	if err != nil {
		response.RespondFailure(c, err, "generate_checklist_failed")
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}

type checklistRow struct {
	*checklist.ChecklistItem
	Value any `json:"value"`
}

// GET /api/projects/:id/checklist?designation=
func (h *ChecklistHandler) List(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	rows, err := h.answers.List(c.Request.Context(), id, designationQuery(c))
	if err != nil {
		response.RespondFailure(c, err, "list_checklist_failed")
		return
	}
	out := make([]checklistRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, checklistRow{ChecklistItem: r, Value: services.DecodeAnswer(r.TypedValue)})
	}
	response.RespondOK(c, gin.H{"items": out})
}

type saveAnswerRequest struct {
	Designation checklist.Designation `json:"designation"`
	Value       any                   `json:"value"`
}

// PUT /api/projects/:id/checklist/items/:itemId
func (h *ChecklistHandler) SaveAnswer(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "itemId", "invalid_item_id")
	if !ok {
		return
	}
	var req saveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	row, err := h.answers.SaveAnswer(c.Request.Context(), id, itemID, req.Designation, req.Value)
	if err != nil {
		response.RespondFailure(c, err, "save_answer_failed")
		return
	}
	response.RespondOK(c, gin.H{"item": checklistRow{ChecklistItem: row, Value: services.DecodeAnswer(row.TypedValue)}})
}

type submitCategoryRequest struct {
	Designation checklist.Designation `json:"designation"`
	Answers     services.FormAnswers  `json:"answers"`
	FieldMap    services.FieldMap     `json:"field_map"`
}

// POST /api/projects/:id/categories/:categoryId/answers
func (h *ChecklistHandler) SubmitCategory(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	categoryID, ok := uuidParam(c, "categoryId", "invalid_category_id")
	if !ok {
		return
	}
	var req submitCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.answers.SubmitCategory(c.Request.Context(), services.SubmitCategoryInput{
		ProjectID:   id,
		CategoryID:  categoryID,
		Designation: req.Designation,
		Answers:     req.Answers,
		FieldMap:    req.FieldMap,
	})
	if err != nil {
		response.RespondFailure(c, err, "submit_category_failed")
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}

type evaluateRequest struct {
	Answers  services.FormAnswers `json:"answers"`
	FieldMap services.FieldMap    `json:"field_map"`
}

// POST /api/categories/:id/evaluate
func (h *ChecklistHandler) Evaluate(c *gin.Context) {
	categoryID, ok := uuidParam(c, "id", "invalid_category_id")
	if !ok {
		return
	}
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.evaluator.Evaluate(c.Request.Context(), categoryID, req.Answers, req.FieldMap)
	if err != nil {
		response.RespondFailure(c, err, "evaluate_failed")
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}

// GET /api/categories/:id/items
func (h *ChecklistHandler) CategoryItems(c *gin.Context) {
	categoryID, ok := uuidParam(c, "id", "invalid_category_id")
	if !ok {
		return
	}
	if err := h.catalog.RequireCategories(c.Request.Context(), categoryID); err != nil {
		response.RespondFailure(c, err, "load_catalog_failed")
		return
	}
	items, err := h.catalog.ByCategory(c.Request.Context(), categoryID)
	if err != nil {
		response.RespondFailure(c, err, "load_catalog_failed")
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}
