package models

import "time"

// Profile is the authenticated principal: login credentials plus the display
// name shown to other players when matches are revealed.
type Profile struct {
	BaseModel

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Name     string `json:"name"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	LastLoginAt *time.Time `json:"last_login_at"`
	LastLoginIP string     `json:"-"`

	Sessions []Session `gorm:"foreignKey:ProfileID" json:"-"`
}
