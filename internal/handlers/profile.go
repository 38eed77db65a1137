package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liliane-giguere/north-pole-match/internal/services"
	appErrors "github.com/liliane-giguere/north-pole-match/pkg/errors"
	"github.com/liliane-giguere/north-pole-match/pkg/response"
)

// ProfileHandler exposes the caller's own profile.
type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type updateProfileRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	profileID, ok := currentProfileID(c)
	if !ok {
		return
	}

	profile, err := h.profiles.Get(requestContext(c), profileID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, profilePayload(profile))
}

// PATCH /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	profileID, ok := currentProfileID(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	profile, err := h.profiles.Update(requestContext(c), profileID, services.UpdateProfileInput{
		Name: req.Name,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProfileNotFound):
			response.Error(c, appErrors.ErrNotFound)
		default:
			response.Error(c, appErrors.NewBadRequest(err.Error()))
		}
		return
	}

	response.Success(c, http.StatusOK, profilePayload(profile))
}
