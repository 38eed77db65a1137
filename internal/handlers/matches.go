package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/liliane-giguere/north-pole-match/internal/matching"
	"github.com/liliane-giguere/north-pole-match/internal/models"
	"github.com/liliane-giguere/north-pole-match/internal/services"
	appErrors "github.com/liliane-giguere/north-pole-match/pkg/errors"
	"github.com/liliane-giguere/north-pole-match/pkg/metrics"
	"github.com/liliane-giguere/north-pole-match/pkg/response"
)

// MatchHandler draws and exposes gift assignments.
type MatchHandler struct {
	matches *services.MatchService
	audit   *services.AuditService
}

func NewMatchHandler(matches *services.MatchService, audit *services.AuditService) *MatchHandler {
	return &MatchHandler{matches: matches, audit: audit}
}

// commitPair carries a proposed assignment. Field values are deliberately not
// validated here: authorization runs first, then the service checks every pair
// against the roster, so a non-host never learns whether their payload parses.
type commitPair struct {
	GiverID    string `json:"giver_id"`
	ReceiverID string `json:"receiver_id"`
}

type commitMatchesRequest struct {
	// Matches is optional. When omitted the server draws the assignment.
	Matches []commitPair `json:"matches"`
}

type matchDTO struct {
	ID           string    `json:"id"`
	GameID       string    `json:"game_id"`
	GiverID      string    `json:"giver_id"`
	GiverName    string    `json:"giver_name,omitempty"`
	ReceiverID   string    `json:"receiver_id"`
	ReceiverName string    `json:"receiver_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// POST /api/games/:id/match
func (h *MatchHandler) Commit(c *gin.Context) {
	profileID, ok := currentProfileID(c)
	if !ok {
		return
	}

	var req commitMatchesRequest
	if c.Request.ContentLength > 0 {
		if !bindAndValidate(c, &req) {
			return
		}
	}

	pairs := make([]matching.Pair, 0, len(req.Matches))
	for _, p := range req.Matches {
		pairs = append(pairs, matching.Pair{GiverID: p.GiverID, ReceiverID: p.ReceiverID})
	}

	gameID := c.Param("id")
	committed, err := h.matches.Commit(requestContext(c), services.CommitInput{
		GameID: gameID,
		HostID: profileID,
		Pairs:  pairs,
	})
	if err != nil {
		h.recordCommit(c, profileID, gameID, err)
		respondMatchError(c, err)
		return
	}

	metrics.MatchCommits.WithLabelValues("success").Inc()
	h.logAudit(c, profileID, "match.commit", "game:"+gameID, "success")

	response.Success(c, http.StatusOK, gin.H{"matches": toMatchDTOs(committed)})
}

// GET /api/games/:id/matches
func (h *MatchHandler) List(c *gin.Context) {
	profileID, ok := currentProfileID(c)
	if !ok {
		return
	}

	matches, err := h.matches.List(requestContext(c), c.Param("id"), profileID)
	if err != nil {
		respondMatchError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"matches": toMatchDTOs(matches)})
}

// GET /api/games/:id/matches/me
func (h *MatchHandler) Mine(c *gin.Context) {
	profileID, ok := currentProfileID(c)
	if !ok {
		return
	}

	match, err := h.matches.MyMatch(requestContext(c), c.Param("id"), profileID)
	if err != nil {
		respondMatchError(c, err)
		return
	}

	dto := toMatchDTOs([]models.Match{*match})
	response.Success(c, http.StatusOK, dto[0])
}

func (h *MatchHandler) recordCommit(c *gin.Context, profileID, gameID string, err error) {
	result := "error"
	switch {
	case errors.Is(err, services.ErrGameAlreadyMatched):
		result = "already_matched"
	case errors.Is(err, services.ErrGameAccessDenied):
		result = "forbidden"
	case errors.Is(err, services.ErrInvalidAssignment), errors.Is(err, matching.ErrInsufficientParticipants):
		result = "invalid"
	}
	metrics.MatchCommits.WithLabelValues(result).Inc()
	h.logAudit(c, profileID, "match.commit", "game:"+gameID, result)
}

func (h *MatchHandler) logAudit(c *gin.Context, profileID, action, resource, result string) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(requestContext(c), services.AuditEntry{
		ProfileID: &profileID,
		Action:    action,
		Resource:  resource,
		Result:    result,
		IPAddress: c.ClientIP(),
	})
}

func respondMatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrGameNotFound), errors.Is(err, services.ErrMatchNotFound):
		response.Error(c, appErrors.ErrNotFound)
	case errors.Is(err, services.ErrGameAccessDenied):
		response.Error(c, appErrors.ErrForbidden)
	case errors.Is(err, services.ErrGameAlreadyMatched):
		response.Error(c, appErrors.ErrAlreadyMatched)
	case errors.Is(err, matching.ErrInsufficientParticipants):
		response.Error(c, appErrors.ErrInsufficientParticipants)
	case errors.Is(err, services.ErrInvalidAssignment):
		response.Error(c, appErrors.NewBadRequest(err.Error()))
	case errors.Is(err, services.ErrMatchesNotCommitted):
		response.Error(c, appErrors.New("MATCHES_NOT_COMMITTED", "Matches have not been drawn for this game yet", http.StatusNotFound))
	default:
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
	}
}

func toMatchDTOs(matches []models.Match) []matchDTO {
	out := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		out = append(out, matchDTO{
			ID:           m.ID,
			GameID:       m.GameID,
			GiverID:      m.GiverID,
			GiverName:    m.GiverName,
			ReceiverID:   m.ReceiverID,
			ReceiverName: m.ReceiverName,
			CreatedAt:    m.CreatedAt,
		})
	}
	return out
}
