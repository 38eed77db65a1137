package models

import "time"

// CacheEntry backs the database cache store used when Redis is not configured.
// A nil ExpiresAt means the entry never expires.
type CacheEntry struct {
	Key       string     `gorm:"primaryKey" json:"key"`
	Value     []byte     `json:"value"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
