package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liliane-giguere/north-pole-match/internal/services"
	"github.com/liliane-giguere/north-pole-match/pkg/metrics"
	"github.com/liliane-giguere/north-pole-match/pkg/response"
)

// InviteHandler resolves invite codes and joins profiles into games.
type InviteHandler struct {
	games *services.GameService
	audit *services.AuditService
}

func NewInviteHandler(games *services.GameService, audit *services.AuditService) *InviteHandler {
	return &InviteHandler{games: games, audit: audit}
}

// GET /api/invites/:code
//
// Public preview of the game behind an invite code, shown before login.
func (h *InviteHandler) Preview(c *gin.Context) {
	preview, err := h.games.PreviewByInviteCode(requestContext(c), c.Param("code"))
	if err != nil {
		respondGameError(c, err)
		return
	}

	response.Success(c, http.StatusOK, preview)
}

// POST /api/invites/:code/join
func (h *InviteHandler) Join(c *gin.Context) {
	profileID, ok := currentProfileID(c)
	if !ok {
		return
	}

	code := c.Param("code")
	game, err := h.games.JoinByInvite(requestContext(c), code, profileID)
	if err != nil {
		metrics.GameJoins.WithLabelValues(joinResult(err)).Inc()
		respondGameError(c, err)
		return
	}

	metrics.GameJoins.WithLabelValues("success").Inc()
	if h.audit != nil {
		_ = h.audit.Log(requestContext(c), services.AuditEntry{
			ProfileID: &profileID,
			Action:    "game.join",
			Resource:  "game:" + game.ID,
			Result:    "success",
			IPAddress: c.ClientIP(),
		})
	}

	response.Success(c, http.StatusOK, toGameDTO(game))
}

func joinResult(err error) string {
	switch {
	case errors.Is(err, services.ErrInviteNotFound):
		return "not_found"
	case errors.Is(err, services.ErrGameAlreadyMatched):
		return "already_matched"
	default:
		return "error"
	}
}
