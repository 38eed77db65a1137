package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Participant records membership of a profile in a game. The composite unique
// index is what makes join-by-invite idempotent: a second insert for the same
// (game, profile) pair conflicts instead of duplicating.
type Participant struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	GameID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_game_profile" json:"game_id"`
	ProfileID string    `gorm:"type:uuid;not null;uniqueIndex:idx_game_profile" json:"profile_id"`
	JoinedAt  time.Time `json:"joined_at"`

	Profile *Profile `gorm:"foreignKey:ProfileID" json:"profile,omitempty"`
}

func (p *Participant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now()
	}
	return nil
}
