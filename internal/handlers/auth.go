package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/liliane-giguere/north-pole-match/internal/auth"
	"github.com/liliane-giguere/north-pole-match/internal/middleware"
	"github.com/liliane-giguere/north-pole-match/internal/models"
	"github.com/liliane-giguere/north-pole-match/internal/services"
	appErrors "github.com/liliane-giguere/north-pole-match/pkg/errors"
	"github.com/liliane-giguere/north-pole-match/pkg/metrics"
	"github.com/liliane-giguere/north-pole-match/pkg/response"
)

// AuthHandler manages authentication flows (register/login/refresh/logout/me).
type AuthHandler struct {
	profiles *services.ProfileService
	sessions *iauth.SessionService
	audit    *services.AuditService
}

func NewAuthHandler(profiles *services.ProfileService, sessions *iauth.SessionService, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{profiles: profiles, sessions: sessions, audit: audit}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"omitempty,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	profile, err := h.profiles.Register(requestContext(c), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			response.Error(c, appErrors.New("EMAIL_TAKEN", "Email address is already registered", http.StatusConflict))
			return
		}
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	pair, _, err := h.sessions.CreateSession(profile.ID, iauth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	h.logAudit(c, profile.ID, "auth.register", "profile:"+profile.ID, "success")

	response.Success(c, http.StatusCreated, gin.H{
		"tokens":  tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
		"profile": profilePayload(profile),
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	profile, err := h.profiles.Authenticate(requestContext(c), services.AuthenticateInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		// Normalise auth errors to 401
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		h.logAudit(c, "", "auth.login", "", "failure")
		response.Error(c, appErrors.ErrInvalidCredentials)
		return
	}

	pair, _, err := h.sessions.CreateSession(profile.ID, iauth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	h.logAudit(c, profile.ID, "auth.login", "profile:"+profile.ID, "success")

	response.Success(c, http.StatusOK, gin.H{
		"tokens":  tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
		"profile": profilePayload(profile),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		response.Error(c, appErrors.NewBadRequest("refresh token is required"))
		return
	}

	pair, _, err := h.sessions.RefreshSession(req.RefreshToken)
	if err != nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	v, ok := c.Get(middleware.CtxSessionIDKey)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	sid, _ := v.(string)
	if sid == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.sessions.RevokeSession(sid); err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	profileID, ok := currentProfileID(c)
	if !ok {
		return
	}

	profile, err := h.profiles.Get(requestContext(c), profileID)
	if err != nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, profilePayload(profile))
}

func (h *AuthHandler) logAudit(c *gin.Context, profileID, action, resource, result string) {
	if h.audit == nil {
		return
	}

	entry := services.AuditEntry{
		Action:    action,
		Resource:  resource,
		Result:    result,
		IPAddress: c.ClientIP(),
	}
	if profileID != "" {
		entry.ProfileID = &profileID
	}
	_ = h.audit.Log(requestContext(c), entry)
}

func profilePayload(profile *models.Profile) gin.H {
	return gin.H{
		"id":            profile.ID,
		"email":         profile.Email,
		"name":          profile.Name,
		"is_active":     profile.IsActive,
		"last_login_at": profile.LastLoginAt,
		"created_at":    profile.CreatedAt,
	}
}
