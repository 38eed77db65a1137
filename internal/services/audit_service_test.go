package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/liliane-giguere/north-pole-match/internal/models"
)

func TestAuditServiceLogAndList(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	profile := seedProfile(t, db, "elf@example.com", "Elf")
	profileID := profile.ID

	require.NoError(t, svc.Log(context.Background(), AuditEntry{
		ProfileID: &profileID,
		Action:    "game.create",
		Resource:  "game:abc",
		Result:    "success",
		IPAddress: "10.0.0.9",
		Metadata:  map[string]any{"name": "Office Exchange"},
	}))
	require.NoError(t, svc.Log(context.Background(), AuditEntry{
		Action: "auth.login",
		Result: "failure",
	}))

	require.Error(t, svc.Log(context.Background(), AuditEntry{Result: "success"}))
	require.Error(t, svc.Log(context.Background(), AuditEntry{Action: "auth.login"}))

	logs, total, err := svc.List(context.Background(), AuditListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, logs, 2)

	logs, total, err = svc.List(context.Background(), AuditListOptions{
		Filters: AuditFilters{Action: "game.create"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "game.create", logs[0].Action)
	require.NotNil(t, logs[0].ProfileID)
	require.Equal(t, profileID, *logs[0].ProfileID)
	require.JSONEq(t, `{"name":"Office Exchange"}`, logs[0].Metadata)
}

func TestAuditServiceCleanupOlderThan(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	old := models.AuditLog{
		Action:    "auth.login",
		Result:    "success",
		CreatedAt: time.Now().Add(-90 * 24 * time.Hour),
	}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, svc.Log(context.Background(), AuditEntry{Action: "auth.login", Result: "success"}))

	removed, err := svc.CleanupOlderThan(context.Background(), time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, total, err := svc.List(context.Background(), AuditListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}
