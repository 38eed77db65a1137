package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/liliane-giguere/north-pole-match/internal/matching"
	"github.com/liliane-giguere/north-pole-match/internal/models"
)

var (
	// ErrMatchNotFound indicates that the profile has no assignment in the game.
	ErrMatchNotFound = errors.New("match service: not found")
	// ErrMatchesNotCommitted is returned when matches are requested before the draw.
	ErrMatchesNotCommitted = errors.New("match service: not committed")
	// ErrInvalidAssignment marks a client-supplied assignment that fails validation.
	ErrInvalidAssignment = errors.New("match service: invalid assignment")
)

// CommitInput describes a match commit request. Pairs is optional: when empty
// the service draws the assignment itself from the frozen roster.
type CommitInput struct {
	GameID string
	HostID string
	Pairs  []matching.Pair
}

// MatchServiceOptions tunes service behaviour, primarily for tests.
type MatchServiceOptions struct {
	Clock func() time.Time
}

// MatchService draws and stores gift assignments.
type MatchService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMatchService constructs a MatchService with default options.
func NewMatchService(db *gorm.DB) (*MatchService, error) {
	return NewMatchServiceWithOptions(db, MatchServiceOptions{})
}

// NewMatchServiceWithOptions constructs a MatchService with explicit options.
func NewMatchServiceWithOptions(db *gorm.DB, opts MatchServiceOptions) (*MatchService, error) {
	if db == nil {
		return nil, errors.New("match service: db is required")
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &MatchService{db: db, now: clock}, nil
}

// Commit draws the assignment for a game and stores it atomically. The game
// flips to matched exactly once; a concurrent second commit loses the
// conditional update and receives ErrGameAlreadyMatched.
func (s *MatchService) Commit(ctx context.Context, input CommitInput) ([]models.Match, error) {
	ctx = ensureContext(ctx)

	gameID := strings.TrimSpace(input.GameID)
	hostID := strings.TrimSpace(input.HostID)
	if gameID == "" {
		return nil, ErrGameNotFound
	}

	var committed []models.Match
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the game row before reading the roster so concurrent joins wait
		// behind the commit instead of slipping in unassigned players.
		var game models.Game
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Take(&game, "id = ?", gameID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGameNotFound
		}
		if err != nil {
			return fmt.Errorf("match service: find game: %w", err)
		}

		if game.HostID != hostID {
			return ErrGameAccessDenied
		}
		if game.IsMatched {
			return ErrGameAlreadyMatched
		}

		if err := tx.Where("game_id = ?", gameID).Find(&game.Participants).Error; err != nil {
			return fmt.Errorf("match service: load roster: %w", err)
		}
		roster := game.Roster()

		pairs := input.Pairs
		if len(pairs) == 0 {
			pairs, err = matching.Generate(roster)
			if err != nil {
				return err
			}
		} else if err := matching.Validate(roster, pairs); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAssignment, err)
		}

		now := s.now()

		// Conditional update is the commit point. RowsAffected zero means a
		// concurrent commit won and this one must observe AlreadyMatched.
		result := tx.Model(&models.Game{}).
			Where("id = ? AND is_matched = ?", gameID, false).
			Updates(map[string]any{
				"is_matched": true,
				"match_date": now,
			})
		if result.Error != nil {
			return fmt.Errorf("match service: mark matched: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrGameAlreadyMatched
		}

		matches := make([]models.Match, 0, len(pairs))
		for _, pair := range pairs {
			matches = append(matches, models.Match{
				GameID:     gameID,
				GiverID:    pair.GiverID,
				ReceiverID: pair.ReceiverID,
			})
		}

		if err := tx.Create(&matches).Error; err != nil {
			return fmt.Errorf("match service: store matches: %w", err)
		}

		committed = matches
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.attachNames(ctx, committed)
	return committed, nil
}

// List returns every assignment of a game. Only the host may see the full
// list; participants learn their own assignment through MyMatch.
func (s *MatchService) List(ctx context.Context, gameID, profileID string) ([]models.Match, error) {
	ctx = ensureContext(ctx)

	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.HostID != strings.TrimSpace(profileID) {
		return nil, ErrGameAccessDenied
	}
	if !game.IsMatched {
		return nil, ErrMatchesNotCommitted
	}

	var matches []models.Match
	err = s.db.WithContext(ctx).
		Where("game_id = ?", game.ID).
		Order("created_at ASC").
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("match service: list matches: %w", err)
	}

	s.attachNames(ctx, matches)
	return matches, nil
}

// MyMatch returns the caller's own assignment in a game.
func (s *MatchService) MyMatch(ctx context.Context, gameID, profileID string) (*models.Match, error) {
	ctx = ensureContext(ctx)

	profileID = strings.TrimSpace(profileID)

	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !game.HasPlayer(profileID) {
		return nil, ErrGameAccessDenied
	}
	if !game.IsMatched {
		return nil, ErrMatchesNotCommitted
	}

	var match models.Match
	err = s.db.WithContext(ctx).
		Where("game_id = ? AND giver_id = ?", game.ID, profileID).
		Take(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("match service: find match: %w", err)
	}

	matches := []models.Match{match}
	s.attachNames(ctx, matches)
	return &matches[0], nil
}

func (s *MatchService) loadGame(ctx context.Context, gameID string) (*models.Game, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, ErrGameNotFound
	}

	var game models.Game
	err := s.db.WithContext(ctx).Preload("Participants").Take(&game, "id = ?", gameID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("match service: find game: %w", err)
	}

	return &game, nil
}

// attachNames fills in display names for the giver and receiver columns. A
// lookup failure leaves the names blank rather than failing the read.
func (s *MatchService) attachNames(ctx context.Context, matches []models.Match) {
	if len(matches) == 0 {
		return
	}

	ids := make([]string, 0, len(matches)*2)
	seen := make(map[string]struct{}, len(matches)*2)
	for _, m := range matches {
		for _, id := range []string{m.GiverID, m.ReceiverID} {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	var profiles []models.Profile
	if err := s.db.WithContext(ctx).Select("id", "name").Find(&profiles, "id IN ?", ids).Error; err != nil {
		return
	}

	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.Name
	}

	for i := range matches {
		matches[i].GiverName = names[matches[i].GiverID]
		matches[i].ReceiverName = names[matches[i].ReceiverID]
	}
}
