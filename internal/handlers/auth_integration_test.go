package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/liliane-giguere/north-pole-match/internal/handlers/testutil"
)

func TestAuthFlow(t *testing.T) {
	env := testutil.NewEnv(t)

	registered := env.Register("Holly@Example.com", "winter-wonder-1", "Holly")
	require.Equal(t, "holly@example.com", registered.Profile.Email)
	require.Equal(t, "Holly", registered.Profile.Name)
	require.True(t, registered.Profile.IsActive)

	// Access token from registration works immediately.
	w := env.Request(http.MethodGet, "/api/auth/me", nil, registered.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	var me testutil.ProfilePayload
	testutil.DecodeInto(t, resp.Data, &me)
	require.Equal(t, registered.Profile.ID, me.ID)

	// Fresh login issues a new session.
	login := env.Login("holly@example.com", "winter-wonder-1")
	require.Equal(t, registered.Profile.ID, login.Profile.ID)
	require.NotEmpty(t, login.Tokens.RefreshToken)

	// Refresh rotates the token pair.
	w = env.Request(http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": login.Tokens.RefreshToken,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp = testutil.DecodeResponse(t, w)
	var refreshed testutil.TokenPair
	testutil.DecodeInto(t, resp.Data, &refreshed)
	require.NotEmpty(t, refreshed.AccessToken)
	require.NotEqual(t, login.Tokens.RefreshToken, refreshed.RefreshToken)

	// The rotated-out refresh token is no longer valid.
	w = env.Request(http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": login.Tokens.RefreshToken,
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())

	// Logout revokes the current session.
	w = env.Request(http.MethodPost, "/api/auth/logout", nil, refreshed.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": refreshed.RefreshToken,
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := testutil.NewEnv(t)

	env.Register("noel@example.com", "winter-wonder-1", "Noel")

	w := env.Request(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "NOEL@example.com",
		"password": "winter-wonder-2",
		"name":     "Imposter",
	}, "")
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	require.Equal(t, "EMAIL_TAKEN", resp.Error.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := testutil.NewEnv(t)

	env.Register("eve@example.com", "winter-wonder-1", "Eve")

	w := env.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "eve@example.com",
		"password": "wrong-password-99",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	require.False(t, resp.Success)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/auth/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, "/api/auth/me", nil, "not-a-token")
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
}

func TestUnknownRouteEnvelope(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/nope", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)

	resp := testutil.DecodeResponse(t, w)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	require.Equal(t, "NOT_FOUND", resp.Error.Code)
}
