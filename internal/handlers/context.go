package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/liliane-giguere/north-pole-match/internal/middleware"
	"github.com/liliane-giguere/north-pole-match/pkg/errors"
	"github.com/liliane-giguere/north-pole-match/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentProfileID extracts the authenticated profile id set by the auth
// middleware. It writes a 401 response and returns false when absent.
func currentProfileID(c *gin.Context) (string, bool) {
	v, ok := c.Get(middleware.CtxProfileIDKey)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return "", false
	}
	profileID, _ := v.(string)
	if profileID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return "", false
	}
	return profileID, true
}
