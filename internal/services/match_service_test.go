package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/liliane-giguere/north-pole-match/internal/matching"
	"github.com/liliane-giguere/north-pole-match/internal/models"
)

func TestMatchServiceCommit(t *testing.T) {
	db := newTestDB(t)
	games, err := NewGameService(db)
	require.NoError(t, err)

	current := time.Date(2026, 12, 10, 20, 0, 0, 0, time.UTC)
	svc, err := NewMatchServiceWithOptions(db, MatchServiceOptions{
		Clock: func() time.Time { return current },
	})
	require.NoError(t, err)

	host := seedProfile(t, db, "host@example.com", "Holly")
	alice := seedProfile(t, db, "alice@example.com", "Alice")
	bob := seedProfile(t, db, "bob@example.com", "Bob")

	game := seedGame(t, db, games, host.ID, alice.ID, bob.ID)

	matches, err := svc.Commit(context.Background(), CommitInput{
		GameID: game.ID,
		HostID: host.ID,
	})
	require.NoError(t, err)
	require.Len(t, matches, 3)

	roster := []string{host.ID, alice.ID, bob.ID}
	pairs := make([]matching.Pair, 0, len(matches))
	for _, m := range matches {
		require.NotEmpty(t, m.GiverName)
		require.NotEmpty(t, m.ReceiverName)
		pairs = append(pairs, matching.Pair{GiverID: m.GiverID, ReceiverID: m.ReceiverID})
	}
	require.NoError(t, matching.Validate(roster, pairs))

	reloaded, err := games.Get(context.Background(), game.ID, host.ID)
	require.NoError(t, err)
	require.True(t, reloaded.IsMatched)
	require.NotNil(t, reloaded.MatchDate)
	require.True(t, reloaded.MatchDate.Equal(current))
}

func TestMatchServiceCommitExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	games, err := NewGameService(db)
	require.NoError(t, err)
	svc, err := NewMatchService(db)
	require.NoError(t, err)

	host := seedProfile(t, db, "host@example.com", "Holly")
	alice := seedProfile(t, db, "alice@example.com", "Alice")

	game := seedGame(t, db, games, host.ID, alice.ID)

	_, err = svc.Commit(context.Background(), CommitInput{GameID: game.ID, HostID: host.ID})
	require.NoError(t, err)

	_, err = svc.Commit(context.Background(), CommitInput{GameID: game.ID, HostID: host.ID})
	require.ErrorIs(t, err, ErrGameAlreadyMatched)

	// The losing commit wrote nothing.
	var count int64
	require.NoError(t, db.Model(&models.Match{}).Where("game_id = ?", game.ID).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestMatchServiceCommitConcurrent(t *testing.T) {
	db := newTestDB(t)

	// Funnel both transactions through a single connection so the race
	// resolves by queueing instead of sqlite write-lock errors; the loser
	// then observes the winner's is_matched flip.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	games, err := NewGameService(db)
	require.NoError(t, err)
	svc, err := NewMatchService(db)
	require.NoError(t, err)

	host := seedProfile(t, db, "host@example.com", "Holly")
	alice := seedProfile(t, db, "alice@example.com", "Alice")
	bob := seedProfile(t, db, "bob@example.com", "Bob")

	game := seedGame(t, db, games, host.ID, alice.ID, bob.ID)

	start := make(chan struct{})
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Commit(context.Background(), CommitInput{GameID: game.ID, HostID: host.ID})
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrGameAlreadyMatched):
			losses++
		default:
			t.Fatalf("unexpected commit error: %v", err)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, losses)

	// Exactly one roster-sized assignment exists.
	var count int64
	require.NoError(t, db.Model(&models.Match{}).Where("game_id = ?", game.ID).Count(&count).Error)
	require.EqualValues(t, 3, count)
}

func TestMatchServiceCommitAuthorization(t *testing.T) {
	db := newTestDB(t)
	games, err := NewGameService(db)
	require.NoError(t, err)
	svc, err := NewMatchService(db)
	require.NoError(t, err)

	host := seedProfile(t, db, "host@example.com", "Holly")
	alice := seedProfile(t, db, "alice@example.com", "Alice")

	game := seedGame(t, db, games, host.ID, alice.ID)

	_, err = svc.Commit(context.Background(), CommitInput{GameID: game.ID, HostID: alice.ID})
	require.ErrorIs(t, err, ErrGameAccessDenied)

	// The host check wins over payload validation for a non-host caller.
	_, err = svc.Commit(context.Background(), CommitInput{
		GameID: game.ID,
		HostID: alice.ID,
		Pairs:  []matching.Pair{{GiverID: "not-a-uuid", ReceiverID: "not-a-uuid"}},
	})
	require.ErrorIs(t, err, ErrGameAccessDenied)

	_, err = svc.Commit(context.Background(), CommitInput{GameID: "00000000-0000-0000-0000-000000000000", HostID: host.ID})
	require.ErrorIs(t, err, ErrGameNotFound)
}

func TestMatchServiceCommitInsufficientRoster(t *testing.T) {
	db := newTestDB(t)
	games, err := NewGameService(db)
	require.NoError(t, err)
	svc, err := NewMatchService(db)
	require.NoError(t, err)

	host := seedProfile(t, db, "host@example.com", "Holly")
	game := seedGame(t, db, games, host.ID)

	_, err = svc.Commit(context.Background(), CommitInput{GameID: game.ID, HostID: host.ID})
	require.ErrorIs(t, err, matching.ErrInsufficientParticipants)

	// The failed commit must not freeze the roster.
	reloaded, err := games.Get(context.Background(), game.ID, host.ID)
	require.NoError(t, err)
	require.False(t, reloaded.IsMatched)
}

func TestMatchServiceCommitClientPairs(t *testing.T) {
	db := newTestDB(t)
	games, err := NewGameService(db)
	require.NoError(t, err)
	svc, err := NewMatchService(db)
	require.NoError(t, err)

	host := seedProfile(t, db, "host@example.com", "Holly")
	alice := seedProfile(t, db, "alice@example.com", "Alice")

	game := seedGame(t, db, games, host.ID, alice.ID)

	// A self-match is rejected before anything is written.
	_, err = svc.Commit(context.Background(), CommitInput{
		GameID: game.ID,
		HostID: host.ID,
		Pairs: []matching.Pair{
			{GiverID: host.ID, ReceiverID: host.ID},
			{GiverID: alice.ID, ReceiverID: alice.ID},
		},
	})
	require.ErrorIs(t, err, ErrInvalidAssignment)

	matches, err := svc.Commit(context.Background(), CommitInput{
		GameID: game.ID,
		HostID: host.ID,
		Pairs: []matching.Pair{
			{GiverID: host.ID, ReceiverID: alice.ID},
			{GiverID: alice.ID, ReceiverID: host.ID},
		},
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

func TestMatchServiceListAndMyMatch(t *testing.T) {
	db := newTestDB(t)
	games, err := NewGameService(db)
	require.NoError(t, err)
	svc, err := NewMatchService(db)
	require.NoError(t, err)

	host := seedProfile(t, db, "host@example.com", "Holly")
	alice := seedProfile(t, db, "alice@example.com", "Alice")
	stranger := seedProfile(t, db, "stranger@example.com", "Sam")

	game := seedGame(t, db, games, host.ID, alice.ID)

	_, err = svc.List(context.Background(), game.ID, host.ID)
	require.ErrorIs(t, err, ErrMatchesNotCommitted)
	_, err = svc.MyMatch(context.Background(), game.ID, alice.ID)
	require.ErrorIs(t, err, ErrMatchesNotCommitted)

	_, err = svc.Commit(context.Background(), CommitInput{GameID: game.ID, HostID: host.ID})
	require.NoError(t, err)

	matches, err := svc.List(context.Background(), game.ID, host.ID)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	_, err = svc.List(context.Background(), game.ID, alice.ID)
	require.ErrorIs(t, err, ErrGameAccessDenied)

	mine, err := svc.MyMatch(context.Background(), game.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, alice.ID, mine.GiverID)
	require.Equal(t, host.ID, mine.ReceiverID)
	require.Equal(t, "Holly", mine.ReceiverName)

	_, err = svc.MyMatch(context.Background(), game.ID, stranger.ID)
	require.ErrorIs(t, err, ErrGameAccessDenied)
}
