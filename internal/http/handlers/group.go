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

type GroupHandler struct {
	groups services.RepeatableGroupManager
}

func NewGroupHandler(groups services.RepeatableGroupManager) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// groupScope reads :id, :table and ?designation=.
func groupScope(c *gin.Context) (checklist.GroupScope, bool) {
	id, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return checklist.GroupScope{}, false
	}
	return checklist.GroupScope{
		ProjectID:   id,
		Table:       checklist.TargetTable(strings.TrimSpace(c.Param("table"))),
		Designation: designationQuery(c),
	}, true
}

// GET /api/projects/:id/groups/:table
func (h *GroupHandler) List(c *gin.Context) {
	scope, ok := groupScope(c)
	if !ok {
		return
	}
	groups, err := h.groups.LoadAllGroups(c.Request.Context(), scope)
	if err != nil {
		response.RespondFailure(c, err, "load_groups_failed")
		return
	}
	response.RespondOK(c, gin.H{"groups": groups})
}

// GET /api/projects/:id/groups/:table/next-index
func (h *GroupHandler) NextIndex(c *gin.Context) {
	scope, ok := groupScope(c)
	if !ok {
		return
	}
	idx, err := h.groups.NextGroupIndex(c.Request.Context(), scope)
	if err != nil {
		response.RespondFailure(c, err, "next_group_index_failed")
		return
	}
	response.RespondOK(c, gin.H{"group_index": idx})
}

type createGroupRequest struct {
	Subcategory string `json:"subcategory"`
}

// POST /api/projects/:id/groups/:table
func (h *GroupHandler) Create(c *gin.Context) {
	scope, ok := groupScope(c)
	if !ok {
		return
	}
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	idx, err := h.groups.CreateGroup(c.Request.Context(), scope, req.Subcategory)
	if err != nil {
		response.RespondFailure(c, err, "create_group_failed")
		return
	}
	response.RespondCreated(c, gin.H{"group_index": idx})
}

type saveGroupAnswerRequest struct {
	ItemID   uuid.UUID          `json:"item_id"`
	ItemType checklist.ItemType `json:"item_type"`
	Value    any                `json:"value"`
}

// PUT /api/projects/:id/groups/:table/:index/answers
func (h *GroupHandler) SaveAnswer(c *gin.Context) {
	scope, ok := groupScope(c)
	if !ok {
		return
	}
	idx, ok := intParam(c, "index", "invalid_group_index")
	if !ok {
		return
	}
	var req saveGroupAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.groups.SaveAnswer(c.Request.Context(), scope, req.ItemID, idx, req.Value, req.ItemType); err != nil {
		response.RespondFailure(c, err, "save_group_answer_failed")
		return
	}
	response.RespondOK(c, gin.H{"saved": true})
}

// DELETE /api/projects/:id/groups/:table/:index?only_if_empty=true
func (h *GroupHandler) Delete(c *gin.Context) {
	scope, ok := groupScope(c)
	if !ok {
		return
	}
	idx, ok := intParam(c, "index", "invalid_group_index")
	if !ok {
		return
	}
	if strings.EqualFold(strings.TrimSpace(c.Query("only_if_empty")), "true") {
		has, err := h.groups.GroupHasAnswers(c.Request.Context(), scope, idx)
		if err != nil {
			response.RespondFailure(c, err, "delete_group_failed")
			return
		}
		if has {
			response.RespondError(c, http.StatusConflict, "group_has_answers", nil)
			return
		}
	}
	if err := h.groups.DeleteGroup(c.Request.Context(), scope, idx); err != nil {
		response.RespondFailure(c, err, "delete_group_failed")
		return
	}
	response.RespondOK(c, gin.H{"deleted": idx})
}

// POST /api/projects/:id/groups/:table/cleanup
func (h *GroupHandler) Cleanup(c *gin.Context) {
	scope, ok := groupScope(c)
	if !ok {
		return
	}
	deleted, err := h.groups.CleanupEmptyGroups(c.Request.Context(), scope)
	if err != nil {
		response.RespondFailure(c, err, "cleanup_groups_failed")
		return
	}
	response.RespondOK(c, gin.H{"deleted": deleted})
}
