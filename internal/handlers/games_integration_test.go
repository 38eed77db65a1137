package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/liliane-giguere/north-pole-match/internal/handlers/testutil"
)

type gameDTO struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	EventDate    time.Time  `json:"event_date"`
	HostID       string     `json:"host_id"`
	HostName     string     `json:"host_name"`
	InviteCode   string     `json:"invite_code"`
	IsMatched    bool       `json:"is_matched"`
	MatchDate    *time.Time `json:"match_date"`
	Participants []struct {
		ProfileID string `json:"profile_id"`
		Name      string `json:"name"`
	} `json:"participants"`
}

type matchDTO struct {
	ID           string `json:"id"`
	GameID       string `json:"game_id"`
	GiverID      string `json:"giver_id"`
	GiverName    string `json:"giver_name"`
	ReceiverID   string `json:"receiver_id"`
	ReceiverName string `json:"receiver_name"`
}

func createGame(t *testing.T, env *testutil.Env, token, name string) gameDTO {
	t.Helper()

	w := env.Request(http.MethodPost, "/api/games", map[string]any{
		"name":       name,
		"event_date": time.Now().AddDate(0, 1, 0).Format(time.RFC3339),
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	var game gameDTO
	testutil.DecodeInto(t, resp.Data, &game)
	require.NotEmpty(t, game.ID)
	require.NotEmpty(t, game.InviteCode)
	return game
}

func joinGame(t *testing.T, env *testutil.Env, token, code string) gameDTO {
	t.Helper()

	w := env.Request(http.MethodPost, "/api/invites/"+code+"/join", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	var game gameDTO
	testutil.DecodeInto(t, resp.Data, &game)
	return game
}

func TestGameLifecycle(t *testing.T) {
	env := testutil.NewEnv(t)

	host := env.Register("host@example.com", "winter-wonder-1", "Hostess")
	game := createGame(t, env, host.Tokens.AccessToken, "Office Exchange 2026")

	// The host is part of the roster without a participant entry.
	require.Equal(t, host.Profile.ID, game.HostID)
	require.Empty(t, game.Participants)

	guests := make([]testutil.AuthResult, 0, 3)
	for i := 0; i < 3; i++ {
		guest := env.Register(fmt.Sprintf("guest%d@example.com", i), "winter-wonder-1", fmt.Sprintf("Guest %d", i))
		guests = append(guests, guest)
		joined := joinGame(t, env, guest.Tokens.AccessToken, game.InviteCode)
		require.Len(t, joined.Participants, i+1)
	}

	// Invite preview is public and reflects the roster size.
	w := env.Request(http.MethodGet, "/api/invites/"+game.InviteCode, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := testutil.DecodeResponse(t, w)
	var preview struct {
		GameID           string `json:"game_id"`
		ParticipantCount int    `json:"participant_count"`
		IsMatched        bool   `json:"is_matched"`
	}
	testutil.DecodeInto(t, resp.Data, &preview)
	require.Equal(t, game.ID, preview.GameID)
	require.Equal(t, 4, preview.ParticipantCount)
	require.False(t, preview.IsMatched)

	// Listing shows the game for host and guests alike.
	for _, account := range append([]testutil.AuthResult{host}, guests...) {
		w = env.Request(http.MethodGet, "/api/games", nil, account.Tokens.AccessToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp = testutil.DecodeResponse(t, w)
		var listing struct {
			Games []gameDTO `json:"games"`
		}
		testutil.DecodeInto(t, resp.Data, &listing)
		require.Len(t, listing.Games, 1)
		require.Equal(t, game.ID, listing.Games[0].ID)
	}

	// A stranger cannot read the game detail.
	stranger := env.Register("stranger@example.com", "winter-wonder-1", "Stranger")
	w = env.Request(http.MethodGet, "/api/games/"+game.ID, nil, stranger.Tokens.AccessToken)
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	// Only the host may delete.
	w = env.Request(http.MethodDelete, "/api/games/"+game.ID, nil, guests[0].Tokens.AccessToken)
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = env.Request(http.MethodDelete, "/api/games/"+game.ID, nil, host.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, "/api/games/"+game.ID, nil, host.Tokens.AccessToken)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestMatchCommitFlow(t *testing.T) {
	env := testutil.NewEnv(t)

	host := env.Register("santa@example.com", "winter-wonder-1", "Santa")
	game := createGame(t, env, host.Tokens.AccessToken, "North Pole Draw")

	members := []testutil.AuthResult{host}
	for i := 0; i < 3; i++ {
		guest := env.Register(fmt.Sprintf("elf%d@example.com", i), "winter-wonder-1", fmt.Sprintf("Elf %d", i))
		joinGame(t, env, guest.Tokens.AccessToken, game.InviteCode)
		members = append(members, guest)
	}

	// Non-host cannot trigger the draw.
	w := env.Request(http.MethodPost, "/api/games/"+game.ID+"/match", nil, members[1].Tokens.AccessToken)
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	// Results are unavailable before the draw.
	w = env.Request(http.MethodGet, "/api/games/"+game.ID+"/matches", nil, host.Tokens.AccessToken)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	// Host commits the draw.
	w = env.Request(http.MethodPost, "/api/games/"+game.ID+"/match", nil, host.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	var committed struct {
		Matches []matchDTO `json:"matches"`
	}
	testutil.DecodeInto(t, resp.Data, &committed)
	require.Len(t, committed.Matches, 4)

	givers := make(map[string]string, 4)
	for _, m := range committed.Matches {
		require.NotEqual(t, m.GiverID, m.ReceiverID)
		givers[m.GiverID] = m.ReceiverID
	}
	require.Len(t, givers, 4)

	// A second draw is rejected and the assignments stay put.
	w = env.Request(http.MethodPost, "/api/games/"+game.ID+"/match", nil, host.Tokens.AccessToken)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	resp = testutil.DecodeResponse(t, w)
	require.Equal(t, "GAME_ALREADY_MATCHED", resp.Error.Code)

	// Joining after the draw is closed off.
	late := env.Register("late@example.com", "winter-wonder-1", "Latecomer")
	w = env.Request(http.MethodPost, "/api/invites/"+game.InviteCode+"/join", nil, late.Tokens.AccessToken)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// Each member sees exactly their own assignment.
	for _, member := range members {
		w = env.Request(http.MethodGet, "/api/games/"+game.ID+"/matches/me", nil, member.Tokens.AccessToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp = testutil.DecodeResponse(t, w)
		var mine matchDTO
		testutil.DecodeInto(t, resp.Data, &mine)
		require.Equal(t, member.Profile.ID, mine.GiverID)
		require.Equal(t, givers[member.Profile.ID], mine.ReceiverID)
		require.NotEmpty(t, mine.ReceiverName)
	}

	// Only the host may list the full assignment table.
	w = env.Request(http.MethodGet, "/api/games/"+game.ID+"/matches", nil, members[1].Tokens.AccessToken)
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, "/api/games/"+game.ID+"/matches", nil, host.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = testutil.DecodeResponse(t, w)
	var listed struct {
		Matches []matchDTO `json:"matches"`
	}
	testutil.DecodeInto(t, resp.Data, &listed)
	require.Len(t, listed.Matches, 4)
}

func TestMatchCommitWithProvidedPairs(t *testing.T) {
	env := testutil.NewEnv(t)

	host := env.Register("planner@example.com", "winter-wonder-1", "Planner")
	game := createGame(t, env, host.Tokens.AccessToken, "Curated Draw")

	guest := env.Register("partner@example.com", "winter-wonder-1", "Partner")
	joinGame(t, env, guest.Tokens.AccessToken, game.InviteCode)

	// Authorization is decided before the payload is looked at: a non-host
	// sending garbage pairs gets the forbidden answer, not a validation one.
	outsider := env.Register("outsider@example.com", "winter-wonder-1", "Outsider")
	w := env.Request(http.MethodPost, "/api/games/"+game.ID+"/match", map[string]any{
		"matches": []map[string]string{
			{"giver_id": "not-a-uuid", "receiver_id": "also-not-a-uuid"},
		},
	}, outsider.Tokens.AccessToken)
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	// A self-match is rejected without freezing the game.
	w = env.Request(http.MethodPost, "/api/games/"+game.ID+"/match", map[string]any{
		"matches": []map[string]string{
			{"giver_id": host.Profile.ID, "receiver_id": host.Profile.ID},
			{"giver_id": guest.Profile.ID, "receiver_id": guest.Profile.ID},
		},
	}, host.Tokens.AccessToken)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	// A valid curated assignment is accepted as-is.
	w = env.Request(http.MethodPost, "/api/games/"+game.ID+"/match", map[string]any{
		"matches": []map[string]string{
			{"giver_id": host.Profile.ID, "receiver_id": guest.Profile.ID},
			{"giver_id": guest.Profile.ID, "receiver_id": host.Profile.ID},
		},
	}, host.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	var committed struct {
		Matches []matchDTO `json:"matches"`
	}
	testutil.DecodeInto(t, resp.Data, &committed)
	require.Len(t, committed.Matches, 2)
	for _, m := range committed.Matches {
		require.NotEqual(t, m.GiverID, m.ReceiverID)
	}
}

func TestMatchCommitRequiresEnoughParticipants(t *testing.T) {
	env := testutil.NewEnv(t)

	host := env.Register("lonely@example.com", "winter-wonder-1", "Lonely Host")
	game := createGame(t, env, host.Tokens.AccessToken, "Tiny Draw")

	w := env.Request(http.MethodPost, "/api/games/"+game.ID+"/match", nil, host.Tokens.AccessToken)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	// The failed attempt must not freeze the roster.
	guest := env.Register("rescue@example.com", "winter-wonder-1", "Rescue")
	joinGame(t, env, guest.Tokens.AccessToken, game.InviteCode)
}

func TestInvitePreviewUnknownCode(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/invites/zzzzzzzz", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}
