package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/liliane-giguere/north-pole-match/internal/models"
	"github.com/liliane-giguere/north-pole-match/pkg/crypto"
)

// DefaultInviteCodeLength is the invite code length used when none is configured.
const DefaultInviteCodeLength = 8

// inviteCodeAttempts bounds the retries on invite code collisions.
const inviteCodeAttempts = 5

var (
	// ErrGameNotFound indicates the requested game does not exist.
	ErrGameNotFound = errors.New("game service: not found")
	// ErrGameAccessDenied is returned when the caller is neither host nor participant.
	ErrGameAccessDenied = errors.New("game service: access denied")
	// ErrGameAlreadyMatched signals that the game's matches have been committed
	// and its roster is frozen.
	ErrGameAlreadyMatched = errors.New("game service: already matched")
	// ErrInviteNotFound indicates that no game carries the supplied invite code.
	ErrInviteNotFound = errors.New("game service: invite not found")
)

// CreateGameInput describes a new gift exchange.
type CreateGameInput struct {
	Name      string
	EventDate time.Time
}

// GameServiceOptions tunes service behaviour, primarily for tests.
type GameServiceOptions struct {
	InviteCodeLength int
	Clock            func() time.Time
}

// GameService manages gift-exchange games and their rosters.
type GameService struct {
	db         *gorm.DB
	codeLength int
	now        func() time.Time
}

// NewGameService constructs a GameService with default options.
func NewGameService(db *gorm.DB) (*GameService, error) {
	return NewGameServiceWithOptions(db, GameServiceOptions{})
}

// NewGameServiceWithOptions constructs a GameService with explicit options.
func NewGameServiceWithOptions(db *gorm.DB, opts GameServiceOptions) (*GameService, error) {
	if db == nil {
		return nil, errors.New("game service: db is required")
	}

	length := opts.InviteCodeLength
	if length <= 0 {
		length = DefaultInviteCodeLength
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &GameService{db: db, codeLength: length, now: clock}, nil
}

// Create registers a new game hosted by the given profile. The host is part
// of the roster implicitly and does not get a Participant row.
func (s *GameService) Create(ctx context.Context, hostID string, input CreateGameInput) (*models.Game, error) {
	ctx = ensureContext(ctx)

	hostID = strings.TrimSpace(hostID)
	if hostID == "" {
		return nil, errors.New("game service: host id is required")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("game service: name is required")
	}

	var lastErr error
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := crypto.GenerateInviteCode(s.codeLength)
		if err != nil {
			return nil, fmt.Errorf("game service: generate invite code: %w", err)
		}

		game := &models.Game{
			Name:       name,
			EventDate:  input.EventDate,
			HostID:     hostID,
			InviteCode: code,
		}

		err = s.db.WithContext(ctx).Create(game).Error
		if err == nil {
			return game, nil
		}
		if !isUniqueConstraintError(err) {
			return nil, fmt.Errorf("game service: create game: %w", err)
		}
		lastErr = err
	}

	return nil, fmt.Errorf("game service: invite code space exhausted: %w", lastErr)
}

// ListForProfile returns every game the profile hosts or participates in,
// newest first.
func (s *GameService) ListForProfile(ctx context.Context, profileID string) ([]models.Game, error) {
	ctx = ensureContext(ctx)

	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, errors.New("game service: profile id is required")
	}

	var games []models.Game
	err := s.db.WithContext(ctx).
		Preload("Host").
		Preload("Participants").
		Preload("Participants.Profile").
		Where("host_id = ?", profileID).
		Or("id IN (?)", s.db.Model(&models.Participant{}).Select("game_id").Where("profile_id = ?", profileID)).
		Order("created_at DESC").
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("game service: list games: %w", err)
	}

	return games, nil
}

// Get loads a game with its roster. Only the host and participants may see it.
func (s *GameService) Get(ctx context.Context, gameID, profileID string) (*models.Game, error) {
	ctx = ensureContext(ctx)

	game, err := s.load(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if !game.HasPlayer(strings.TrimSpace(profileID)) {
		return nil, ErrGameAccessDenied
	}

	return game, nil
}

// Delete removes a game with its participants and matches. Host only.
func (s *GameService) Delete(ctx context.Context, gameID, profileID string) error {
	ctx = ensureContext(ctx)

	gameID = strings.TrimSpace(gameID)
	profileID = strings.TrimSpace(profileID)
	if gameID == "" {
		return ErrGameNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var game models.Game
		err := tx.Take(&game, "id = ?", gameID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGameNotFound
		}
		if err != nil {
			return fmt.Errorf("game service: find game: %w", err)
		}

		if game.HostID != profileID {
			return ErrGameAccessDenied
		}

		if err := tx.Where("game_id = ?", gameID).Delete(&models.Match{}).Error; err != nil {
			return fmt.Errorf("game service: delete matches: %w", err)
		}
		if err := tx.Where("game_id = ?", gameID).Delete(&models.Participant{}).Error; err != nil {
			return fmt.Errorf("game service: delete participants: %w", err)
		}
		if err := tx.Delete(&models.Game{}, "id = ?", gameID).Error; err != nil {
			return fmt.Errorf("game service: delete game: %w", err)
		}
		return nil
	})
}

// InvitePreview is the public view of a game shown on the invite page before
// the visitor has joined.
type InvitePreview struct {
	GameID           string    `json:"game_id"`
	Name             string    `json:"name"`
	HostName         string    `json:"host_name"`
	EventDate        time.Time `json:"event_date"`
	ParticipantCount int       `json:"participant_count"`
	IsMatched        bool      `json:"is_matched"`
}

// PreviewByInviteCode resolves an invite code into the public game preview.
func (s *GameService) PreviewByInviteCode(ctx context.Context, code string) (*InvitePreview, error) {
	ctx = ensureContext(ctx)

	game, err := s.findByInviteCode(s.db.WithContext(ctx), code)
	if err != nil {
		return nil, err
	}

	hostName := ""
	if game.Host != nil {
		hostName = game.Host.Name
	}

	return &InvitePreview{
		GameID:           game.ID,
		Name:             game.Name,
		HostName:         hostName,
		EventDate:        game.EventDate,
		ParticipantCount: len(game.Roster()),
		IsMatched:        game.IsMatched,
	}, nil
}

// JoinByInvite adds the profile to the game behind the invite code. Joining a
// game the profile is already part of succeeds without side effects; joining
// a matched game is rejected because the roster froze when matches were drawn.
func (s *GameService) JoinByInvite(ctx context.Context, code, profileID string) (*models.Game, error) {
	ctx = ensureContext(ctx)

	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, errors.New("game service: profile id is required")
	}

	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInviteNotFound
	}

	var gameID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The row lock serialises joins against a concurrent match commit, so
		// nobody slips onto the roster while the assignment is being drawn.
		var game models.Game
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("invite_code = ?", code).
			Take(&game).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInviteNotFound
		}
		if err != nil {
			return fmt.Errorf("game service: find invite: %w", err)
		}
		gameID = game.ID

		if game.HostID == profileID {
			return nil
		}
		var enrolled int64
		err = tx.Model(&models.Participant{}).
			Where("game_id = ? AND profile_id = ?", gameID, profileID).
			Count(&enrolled).Error
		if err != nil {
			return fmt.Errorf("game service: check roster: %w", err)
		}
		if enrolled > 0 {
			return nil
		}
		if game.IsMatched {
			return ErrGameAlreadyMatched
		}

		participant := models.Participant{
			GameID:    gameID,
			ProfileID: profileID,
		}
		// The composite unique index absorbs concurrent duplicate joins.
		err = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&participant).Error
		if err != nil && !isUniqueConstraintError(err) {
			return fmt.Errorf("game service: join game: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.load(ctx, gameID)
}

func (s *GameService) load(ctx context.Context, gameID string) (*models.Game, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, ErrGameNotFound
	}

	var game models.Game
	err := s.db.WithContext(ctx).
		Preload("Host").
		Preload("Participants").
		Preload("Participants.Profile").
		Take(&game, "id = ?", gameID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("game service: find game: %w", err)
	}

	return &game, nil
}

func (s *GameService) findByInviteCode(tx *gorm.DB, code string) (*models.Game, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInviteNotFound
	}

	var game models.Game
	err := tx.
		Preload("Host").
		Preload("Participants").
		Where("invite_code = ?", code).
		Take(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("game service: find invite: %w", err)
	}

	return &game, nil
}
