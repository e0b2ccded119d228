package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/http/response"
)

// uuidParam parses a path parameter, writing a 400 on failure.
func uuidParam(c *gin.Context, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		if err == nil {
			err = fmt.Errorf("%s must not be the nil uuid", name)
		}
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}

func intParam(c *gin.Context, name, code string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(c.Param(name)))
	if err != nil || n < 1 {
		if err == nil {
			err = fmt.Errorf("%s must be a positive integer", name)
		}
		response.RespondError(c, http.StatusBadRequest, code, err)
		return 0, false
	}
	return n, true
}

func designationQuery(c *gin.Context) checklist.Designation {
	return checklist.ParseDesignation(c.Query("designation"))
}

// uuidListQuery reads a comma separated or repeated query parameter.
func uuidListQuery(c *gin.Context, name string) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, raw := range c.QueryArray(name) {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			out = append(out, id)
		}
	}
	return out, nil
}
