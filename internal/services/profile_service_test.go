package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProfileServiceRegister(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewProfileService(db)
	require.NoError(t, err)

	profile, err := svc.Register(context.Background(), RegisterInput{
		Email:    "  Rudolph@Example.com ",
		Password: "carrots",
		Name:     "  Rudolph  ",
	})
	require.NoError(t, err)
	require.Equal(t, "rudolph@example.com", profile.Email)
	require.Equal(t, "Rudolph", profile.Name)
	require.True(t, profile.IsActive)
	require.NotEqual(t, "carrots", profile.Password)

	_, err = svc.Register(context.Background(), RegisterInput{
		Email:    "rudolph@example.com",
		Password: "other",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestProfileServiceRegisterDefaultsName(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewProfileService(db)
	require.NoError(t, err)

	profile, err := svc.Register(context.Background(), RegisterInput{
		Email:    "blitzen@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	require.Equal(t, "blitzen", profile.Name)
}

func TestProfileServiceAuthenticate(t *testing.T) {
	db := newTestDB(t)

	current := time.Date(2026, 12, 1, 9, 0, 0, 0, time.UTC)
	svc, err := NewProfileServiceWithOptions(db, ProfileServiceOptions{
		Clock: func() time.Time { return current },
	})
	require.NoError(t, err)

	registered, err := svc.Register(context.Background(), RegisterInput{
		Email:    "dasher@example.com",
		Password: "sleigh-bells",
		Name:     "Dasher",
	})
	require.NoError(t, err)

	profile, err := svc.Authenticate(context.Background(), AuthenticateInput{
		Email:     "DASHER@example.com",
		Password:  "sleigh-bells",
		IPAddress: "10.1.2.3",
	})
	require.NoError(t, err)
	require.Equal(t, registered.ID, profile.ID)
	require.NotNil(t, profile.LastLoginAt)
	require.True(t, profile.LastLoginAt.Equal(current))
	require.Equal(t, "10.1.2.3", profile.LastLoginIP)

	_, err = svc.Authenticate(context.Background(), AuthenticateInput{
		Email:    "dasher@example.com",
		Password: "wrong",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), AuthenticateInput{
		Email:    "nobody@example.com",
		Password: "sleigh-bells",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestProfileServiceAuthenticateInactive(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewProfileService(db)
	require.NoError(t, err)

	profile, err := svc.Register(context.Background(), RegisterInput{
		Email:    "vixen@example.com",
		Password: "tinsel",
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(profile).Update("is_active", false).Error)

	_, err = svc.Authenticate(context.Background(), AuthenticateInput{
		Email:    "vixen@example.com",
		Password: "tinsel",
	})
	require.ErrorIs(t, err, ErrProfileInactive)
}

func TestProfileServiceUpdate(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewProfileService(db)
	require.NoError(t, err)

	profile, err := svc.Register(context.Background(), RegisterInput{
		Email:    "comet@example.com",
		Password: "stardust",
		Name:     "Comet",
	})
	require.NoError(t, err)

	name := "Comet the Swift"
	updated, err := svc.Update(context.Background(), profile.ID, UpdateProfileInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Comet the Swift", updated.Name)

	// No changes requested is a no-op.
	same, err := svc.Update(context.Background(), profile.ID, UpdateProfileInput{})
	require.NoError(t, err)
	require.Equal(t, "Comet the Swift", same.Name)

	blank := "   "
	_, err = svc.Update(context.Background(), profile.ID, UpdateProfileInput{Name: &blank})
	require.Error(t, err)

	_, err = svc.Update(context.Background(), "00000000-0000-0000-0000-000000000000", UpdateProfileInput{Name: &name})
	require.ErrorIs(t, err, ErrProfileNotFound)
}
