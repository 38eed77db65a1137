package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Match is one directed giver -> receiver gift assignment. Rows are written in
// a single batch by the match commit transaction and never updated afterwards;
// they disappear only when their game is deleted.
type Match struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	GameID     string    `gorm:"type:uuid;not null;index;uniqueIndex:idx_game_giver;uniqueIndex:idx_game_receiver" json:"game_id"`
	GiverID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_game_giver" json:"giver_id"`
	ReceiverID string    `gorm:"type:uuid;not null;uniqueIndex:idx_game_receiver" json:"receiver_id"`
	CreatedAt  time.Time `json:"created_at"`

	// GiverName / ReceiverName are joined in from profiles at read time.
	GiverName    string `gorm:"-" json:"giver_name,omitempty"`
	ReceiverName string `gorm:"-" json:"receiver_name,omitempty"`
}

func (m *Match) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
