package models

import "time"

// Game is one gift-exchange event owned by a host. The participant set is
// stored as Participant child rows so joins can be appended atomically, and
// is_matched flips true exactly once when matches are committed.
type Game struct {
	BaseModel

	Name       string    `gorm:"not null" json:"name"`
	EventDate  time.Time `json:"event_date"`
	HostID     string    `gorm:"type:uuid;not null;index" json:"host_id"`
	InviteCode string    `gorm:"uniqueIndex;not null" json:"invite_code"`

	IsMatched bool       `gorm:"not null;default:false" json:"is_matched"`
	MatchDate *time.Time `json:"match_date,omitempty"`

	Host         *Profile      `gorm:"foreignKey:HostID" json:"host,omitempty"`
	Participants []Participant `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	Matches      []Match       `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"-"`
}

// Roster returns the full set of player ids eligible for matching: every
// participant plus the host, without duplicates.
func (g *Game) Roster() []string {
	roster := make([]string, 0, len(g.Participants)+1)
	seen := map[string]struct{}{g.HostID: {}}
	roster = append(roster, g.HostID)

	for _, p := range g.Participants {
		if _, ok := seen[p.ProfileID]; ok {
			continue
		}
		seen[p.ProfileID] = struct{}{}
		roster = append(roster, p.ProfileID)
	}
	return roster
}

// HasPlayer reports whether the given profile is in the roster (participants or host).
func (g *Game) HasPlayer(profileID string) bool {
	if profileID == g.HostID {
		return true
	}
	for _, p := range g.Participants {
		if p.ProfileID == profileID {
			return true
		}
	}
	return false
}
