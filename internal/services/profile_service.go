package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/liliane-giguere/north-pole-match/internal/models"
	"github.com/liliane-giguere/north-pole-match/pkg/crypto"
)

var (
	// ErrProfileNotFound indicates the requested profile does not exist.
	ErrProfileNotFound = errors.New("profile service: not found")
	// ErrEmailTaken signals that another profile already uses the email address.
	ErrEmailTaken = errors.New("profile service: email already registered")
	// ErrInvalidCredentials is returned when authentication fails. It is
	// deliberately the same for unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("profile service: invalid credentials")
	// ErrProfileInactive marks a profile that has been deactivated.
	ErrProfileInactive = errors.New("profile service: inactive")
)

// RegisterInput describes a new account registration.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// AuthenticateInput carries login credentials plus client context.
type AuthenticateInput struct {
	Email     string
	Password  string
	IPAddress string
}

// UpdateProfileInput lists the mutable profile fields. Nil pointers leave the
// current value untouched.
type UpdateProfileInput struct {
	Name *string
}

// ProfileServiceOptions tunes service behaviour, primarily for tests.
type ProfileServiceOptions struct {
	Clock func() time.Time
}

// ProfileService manages account registration, authentication, and profile data.
type ProfileService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewProfileService constructs a ProfileService with default options.
func NewProfileService(db *gorm.DB) (*ProfileService, error) {
	return NewProfileServiceWithOptions(db, ProfileServiceOptions{})
}

// NewProfileServiceWithOptions constructs a ProfileService with explicit options.
func NewProfileServiceWithOptions(db *gorm.DB, opts ProfileServiceOptions) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &ProfileService{db: db, now: clock}, nil
}

// Register creates a new profile with a hashed password.
func (s *ProfileService) Register(ctx context.Context, input RegisterInput) (*models.Profile, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, errors.New("profile service: email is required")
	}
	if input.Password == "" {
		return nil, errors.New("profile service: password is required")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		// Fall back to the mailbox part so matches always have a display name.
		name = strings.SplitN(email, "@", 2)[0]
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("profile service: hash password: %w", err)
	}

	profile := &models.Profile{
		Email:    email,
		Password: hashed,
		Name:     name,
		IsActive: true,
	}

	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("profile service: create profile: %w", err)
	}

	return profile, nil
}

// Authenticate verifies credentials and records the login time and address.
func (s *ProfileService) Authenticate(ctx context.Context, input AuthenticateInput) (*models.Profile, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	var profile models.Profile
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("profile service: find profile: %w", err)
	}

	if !crypto.VerifyPassword(profile.Password, input.Password) {
		return nil, ErrInvalidCredentials
	}

	if !profile.IsActive {
		return nil, ErrProfileInactive
	}

	now := s.now()
	updates := map[string]any{
		"last_login_at": now,
		"last_login_ip": strings.TrimSpace(input.IPAddress),
	}
	if err := s.db.WithContext(ctx).Model(&profile).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("profile service: record login: %w", err)
	}

	profile.LastLoginAt = &now
	profile.LastLoginIP = strings.TrimSpace(input.IPAddress)

	return &profile, nil
}

// Get fetches a profile by id.
func (s *ProfileService) Get(ctx context.Context, profileID string) (*models.Profile, error) {
	ctx = ensureContext(ctx)

	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, ErrProfileNotFound
	}

	var profile models.Profile
	err := s.db.WithContext(ctx).Take(&profile, "id = ?", profileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile service: find profile: %w", err)
	}

	return &profile, nil
}

// Update applies the provided changes to a profile and returns the result.
func (s *ProfileService) Update(ctx context.Context, profileID string, input UpdateProfileInput) (*models.Profile, error) {
	ctx = ensureContext(ctx)

	profile, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.New("profile service: name cannot be empty")
		}
		updates["name"] = name
	}

	if len(updates) == 0 {
		return profile, nil
	}

	if err := s.db.WithContext(ctx).Model(profile).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("profile service: update profile: %w", err)
	}

	return s.Get(ctx, profileID)
}
