package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/liliane-giguere/north-pole-match/internal/database/testutil"
	"github.com/liliane-giguere/north-pole-match/internal/models"
	"github.com/liliane-giguere/north-pole-match/pkg/crypto"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t)
}

func seedProfile(t *testing.T, db *gorm.DB, email, name string) *models.Profile {
	t.Helper()

	hashed, err := crypto.HashPassword("open-sesame")
	require.NoError(t, err)

	profile := &models.Profile{
		Email:    email,
		Password: hashed,
		Name:     name,
		IsActive: true,
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func seedGame(t *testing.T, db *gorm.DB, svc *GameService, hostID string, participants ...string) *models.Game {
	t.Helper()

	game, err := svc.Create(context.Background(), hostID, CreateGameInput{
		Name:      "Office Exchange",
		EventDate: time.Date(2026, 12, 24, 18, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	for _, profileID := range participants {
		_, err := svc.JoinByInvite(context.Background(), game.InviteCode, profileID)
		require.NoError(t, err)
	}

	loaded, err := svc.Get(context.Background(), game.ID, hostID)
	require.NoError(t, err)
	return loaded
}
