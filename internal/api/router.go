package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/liliane-giguere/north-pole-match/internal/app"
	iauth "github.com/liliane-giguere/north-pole-match/internal/auth"
	"github.com/liliane-giguere/north-pole-match/internal/handlers"
	"github.com/liliane-giguere/north-pole-match/internal/middleware"
	"github.com/liliane-giguere/north-pole-match/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, sessions *iauth.SessionService, rateStore middleware.RateStore) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	profiles, err := services.NewProfileService(db)
	if err != nil {
		return nil, err
	}
	games, err := services.NewGameServiceWithOptions(db, services.GameServiceOptions{
		InviteCodeLength: cfg.Invite.CodeLength,
	})
	if err != nil {
		return nil, err
	}
	matches, err := services.NewMatchService(db)
	if err != nil {
		return nil, err
	}
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.RateLimit(rateStore, cfg.RateLimit.Requests, cfg.RateLimit.Window))

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))

	authHandler := handlers.NewAuthHandler(profiles, sessions, audit)
	profileHandler := handlers.NewProfileHandler(profiles)
	gameHandler := handlers.NewGameHandler(games, audit)
	matchHandler := handlers.NewMatchHandler(matches, audit)
	inviteHandler := handlers.NewInviteHandler(games, audit)
	auditHandler := handlers.NewAuditHandler(audit)

	// Public routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}
	r.GET("/api/invites/:code", inviteHandler.Preview)

	// Protected routes
	requireAuth := middleware.Auth(jwt)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)
	api.POST("/auth/logout", authHandler.Logout)

	api.GET("/profile", profileHandler.Get)
	api.PATCH("/profile", profileHandler.Update)

	gamesGroup := api.Group("/games")
	{
		gamesGroup.POST("", gameHandler.Create)
		gamesGroup.GET("", gameHandler.List)
		gamesGroup.GET("/:id", gameHandler.Get)
		gamesGroup.DELETE("/:id", gameHandler.Delete)
		gamesGroup.POST("/:id/match", matchHandler.Commit)
		gamesGroup.GET("/:id/matches", matchHandler.List)
		gamesGroup.GET("/:id/matches/me", matchHandler.Mine)
	}

	api.POST("/invites/:code/join", inviteHandler.Join)
	api.GET("/audit", auditHandler.List)

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
