package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appErrors "github.com/liliane-giguere/north-pole-match/pkg/errors"
)

func performJSON(t *testing.T, write func(c *gin.Context)) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	write(c)

	var payload Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec, payload
}

func TestSuccess(t *testing.T) {
	rec, payload := performJSON(t, func(c *gin.Context) {
		Success(c, http.StatusCreated, gin.H{"id": "game-1"})
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, payload.Success)
	require.Nil(t, payload.Error)
}

func TestErrorFromAppError(t *testing.T) {
	rec, payload := performJSON(t, func(c *gin.Context) {
		Error(c, appErrors.ErrAlreadyMatched)
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	require.False(t, payload.Success)
	require.Equal(t, "GAME_ALREADY_MATCHED", payload.Error.Code)
}

func TestErrorFromGenericError(t *testing.T) {
	rec, payload := performJSON(t, func(c *gin.Context) {
		Error(c, errors.New("sql: connection reset"))
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, appErrors.ErrInternalServer.Code, payload.Error.Code)
	// Internals must never leak to clients.
	require.NotContains(t, payload.Error.Message, "sql")
}

func TestErrorNil(t *testing.T) {
	rec, _ := performJSON(t, func(c *gin.Context) {
		Error(c, nil)
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
