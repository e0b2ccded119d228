package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/brokerdesk-backend/internal/http/response"
	"github.com/yungbote/brokerdesk-backend/internal/services"
)

type CompletionHandler struct {
	completion services.CompletionAggregator
}

func NewCompletionHandler(completion services.CompletionAggregator) *CompletionHandler {
	return &CompletionHandler{completion: completion}
}

// GET /api/projects/:id/completion?category_ids=&designation=
func (h *CompletionHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_project_id")
	if !ok {
		return
	}
	categoryIDs, err := uuidListQuery(c, "category_ids")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_category_ids", err)
		return
	}
	out, err := h.completion.Completion(c.Request.Context(), id, categoryIDs, designationQuery(c))
	if err != nil {
		response.RespondFailure(c, err, "completion_failed")
		return
	}
	response.RespondOK(c, gin.H{"categories": out})
}
