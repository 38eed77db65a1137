package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/liliane-giguere/north-pole-match/internal/models"
	"github.com/liliane-giguere/north-pole-match/internal/services"
	appErrors "github.com/liliane-giguere/north-pole-match/pkg/errors"
	"github.com/liliane-giguere/north-pole-match/pkg/response"
)

// GameHandler manages gift-exchange game CRUD.
type GameHandler struct {
	games *services.GameService
	audit *services.AuditService
}

func NewGameHandler(games *services.GameService, audit *services.AuditService) *GameHandler {
	return &GameHandler{games: games, audit: audit}
}

type createGameRequest struct {
	Name      string    `json:"name" validate:"required,min=1,max=200"`
	EventDate time.Time `json:"event_date" validate:"required"`
}

type participantDTO struct {
	ProfileID string    `json:"profile_id"`
	Name      string    `json:"name"`
	JoinedAt  time.Time `json:"joined_at"`
}

type gameDTO struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	EventDate    time.Time        `json:"event_date"`
	HostID       string           `json:"host_id"`
	HostName     string           `json:"host_name,omitempty"`
	InviteCode   string           `json:"invite_code"`
	IsMatched    bool             `json:"is_matched"`
	MatchDate    *time.Time       `json:"match_date,omitempty"`
	Participants []participantDTO `json:"participants"`
	CreatedAt    time.Time        `json:"created_at"`
}

// POST /api/games
func (h *GameHandler) Create(c *gin.Context) {
	profileID, ok := currentProfileID(c)
	if !ok {
		return
	}

	var req createGameRequest
	if !bindAndValidate(c, &req) {
		return
	}

	game, err := h.games.Create(requestContext(c), profileID, services.CreateGameInput{
		Name:      req.Name,
		EventDate: req.EventDate,
	})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	h.logAudit(c, profileID, "game.create", "game:"+game.ID, "success")

	response.Success(c, http.StatusCreated, toGameDTO(game))
}

// GET /api/games
func (h *GameHandler) List(c *gin.Context) {
	profileID, ok := currentProfileID(c)
	if !ok {
		return
	}

	games, err := h.games.ListForProfile(requestContext(c), profileID)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	payload := make([]gameDTO, 0, len(games))
	for i := range games {
		payload = append(payload, toGameDTO(&games[i]))
	}

	response.Success(c, http.StatusOK, gin.H{"games": payload})
}

// GET /api/games/:id
func (h *GameHandler) Get(c *gin.Context) {
	profileID, ok := currentProfileID(c)
	if !ok {
		return
	}

	game, err := h.games.Get(requestContext(c), c.Param("id"), profileID)
	if err != nil {
		respondGameError(c, err)
		return
	}

	response.Success(c, http.StatusOK, toGameDTO(game))
}

// DELETE /api/games/:id
func (h *GameHandler) Delete(c *gin.Context) {
	profileID, ok := currentProfileID(c)
	if !ok {
		return
	}

	gameID := c.Param("id")
	if err := h.games.Delete(requestContext(c), gameID, profileID); err != nil {
		respondGameError(c, err)
		return
	}

	h.logAudit(c, profileID, "game.delete", "game:"+gameID, "success")

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *GameHandler) logAudit(c *gin.Context, profileID, action, resource, result string) {
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

func respondGameError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrGameNotFound), errors.Is(err, services.ErrInviteNotFound):
		response.Error(c, appErrors.ErrNotFound)
	case errors.Is(err, services.ErrGameAccessDenied):
		response.Error(c, appErrors.ErrForbidden)
	case errors.Is(err, services.ErrGameAlreadyMatched):
		response.Error(c, appErrors.ErrAlreadyMatched)
	default:
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
	}
}

func toGameDTO(game *models.Game) gameDTO {
	dto := gameDTO{
		ID:           game.ID,
		Name:         game.Name,
		EventDate:    game.EventDate,
		HostID:       game.HostID,
		InviteCode:   game.InviteCode,
		IsMatched:    game.IsMatched,
		MatchDate:    game.MatchDate,
		Participants: make([]participantDTO, 0, len(game.Participants)),
		CreatedAt:    game.CreatedAt,
	}
	if game.Host != nil {
		dto.HostName = game.Host.Name
	}
	for _, p := range game.Participants {
		entry := participantDTO{ProfileID: p.ProfileID, JoinedAt: p.JoinedAt}
		if p.Profile != nil {
			entry.Name = p.Profile.Name
		}
		dto.Participants = append(dto.Participants, entry)
	}
	return dto
}
