package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/liliane-giguere/north-pole-match/pkg/errors"
	"github.com/liliane-giguere/north-pole-match/pkg/response"
)

// Health returns a status payload useful for readiness checks. The database
// is pinged so a broken connection flips the endpoint to 503.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(requestContext(c)) != nil {
				response.Error(c, errors.New("SERVICE_UNAVAILABLE", "database unreachable", http.StatusServiceUnavailable))
				return
			}
		}

		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
