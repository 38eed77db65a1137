package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/liliane-giguere/north-pole-match/internal/services"
	appErrors "github.com/liliane-giguere/north-pole-match/pkg/errors"
	"github.com/liliane-giguere/north-pole-match/pkg/response"
)

// AuditHandler lets profiles inspect their own audit trail.
type AuditHandler struct {
	audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// GET /api/audit
func (h *AuditHandler) List(c *gin.Context) {
	profileID, ok := currentProfileID(c)
	if !ok {
		return
	}

	opts := services.AuditListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 50),
		Filters: services.AuditFilters{
			ProfileID: profileID,
			Action:    strings.TrimSpace(c.Query("action")),
			Result:    strings.TrimSpace(c.Query("result")),
		},
	}

	logs, total, err := h.audit.List(requestContext(c), opts)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"entries": logs,
		"total":   total,
	})
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
