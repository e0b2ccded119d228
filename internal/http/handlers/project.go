package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/http/response"
	"github.com/yungbote/brokerdesk-backend/internal/services"
)

type ProjectHandler struct {
	projects services.ProjectService
	answers  services.ChecklistAnswerService
}

func NewProjectHandler(projects services.ProjectService, answers services.ChecklistAnswerService) *ProjectHandler {
	return &ProjectHandler{projects: projects, answers: answers}
}

type createBrokerageRequest struct {
	Name string `json:"name"`
}

// POST /api/brokerages
func (h *ProjectHandler) CreateBrokerage(c *gin.Context) {
	var req createBrokerageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	b, err := h.projects.CreateBrokerage(c.Request.Context(), req.Name)
	if err != nil {
		response.RespondFailure(c, err, "create_brokerage_failed")
		return
	}
	response.RespondCreated(c, gin.H{"brokerage": b})
}

type createProjectRequest struct {
	BrokerageID    uuid.UUID                `json:"brokerage_id"`
	Name           string                   `json:"name"`
	ProjectType    string                   `json:"project_type"`
	ApplicantCount checklist.ApplicantCount `json:"applicant_count"`
}

// POST /api/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.projects.CreateProject(c.Request.Context(), services.CreateProjectInput{
		BrokerageID:    req.BrokerageID,
		Name:           req.Name,
		ProjectType:    req.ProjectType,
		ApplicantCount: req.ApplicantCount,
	})
	if err != nil {
		response.RespondFailure(c, err, "create_project_failed")
		return
	}
	response.RespondCreated(c, gin.H{"project": p})
}

// GET /api/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	p, err := h.projects.GetProject(c.Request.Context(), id)
	if err != nil {
		response.RespondFailure(c, err, "load_project_failed")
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

type registerDocumentRequest struct {
	ItemID           uuid.UUID             `json:"item_id"`
	Designation      checklist.Designation `json:"designation"`
	Status           checklist.ItemStatus  `json:"status"`
	StorageReference string                `json:"storage_reference"`
}

// POST /api/projects/:id/documents
func (h *ProjectHandler) RegisterDocument(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	var req registerDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	doc, err := h.projects.RegisterDocument(c.Request.Context(), services.RegisterDocumentInput{
		ProjectID:        id,
		ItemID:           req.ItemID,
		Designation:      req.Designation,
		Status:           checklist.ItemStatus(strings.TrimSpace(string(req.Status))),
		StorageReference: req.StorageReference,
	})
	if err != nil {
		response.RespondFailure(c, err, "register_document_failed")
		return
	}
	response.RespondCreated(c, gin.H{"document": doc})
}

// DELETE /api/projects/:id/participants/:designation
func (h *ProjectHandler) RemoveParticipant(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	n, err := h.answers.RemoveParticipant(c.Request.Context(), id, checklist.ParseDesignation(c.Param("designation")))
	if err != nil {
		response.RespondFailure(c, err, "remove_participant_failed")
		return
	}
	response.RespondOK(c, gin.H{"rows_removed": n})
}
