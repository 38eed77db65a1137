package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/liliane-giguere/north-pole-match/internal/models"
)

// DatabaseStore implements Store on the primary database. It exists so a
// single-node deployment works without Redis; entries live in the
// cache_entries table and expired rows are swept by the maintenance job.
type DatabaseStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDatabaseStore returns a database-backed cache store.
func NewDatabaseStore(db *gorm.DB) (*DatabaseStore, error) {
	if db == nil {
		return nil, errors.New("database cache: db handle is required")
	}
	return &DatabaseStore{db: db, now: time.Now}, nil
}

func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry models.CacheEntry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database cache: get: %w", err)
	}

	if entry.ExpiresAt != nil && !entry.ExpiresAt.After(s.now()) {
		return nil, ErrNotFound
	}

	return entry.Value, nil
}

func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := models.CacheEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: s.expiry(ttl),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("database cache: set: %w", err)
	}
	return nil
}

func (s *DatabaseStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Delete(&models.CacheEntry{}, "key = ?", key).Error
	if err != nil {
		return fmt.Errorf("database cache: delete: %w", err)
	}
	return nil
}

func (s *DatabaseStore) IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var count int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.CacheEntry
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&entry, "key = ?", key).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			count = 1
			fresh := models.CacheEntry{
				Key:       key,
				Value:     encodeCounter(count),
				ExpiresAt: s.expiry(ttl),
			}
			return tx.Create(&fresh).Error
		case err != nil:
			return err
		}

		if entry.ExpiresAt != nil && !entry.ExpiresAt.After(s.now()) {
			// Expired counter: restart the window.
			count = 1
			return tx.Model(&models.CacheEntry{}).Where("key = ?", key).Updates(map[string]any{
				"value":      encodeCounter(count),
				"expires_at": s.expiry(ttl),
			}).Error
		}

		count = decodeCounter(entry.Value) + 1
		return tx.Model(&models.CacheEntry{}).Where("key = ?", key).
			Update("value", encodeCounter(count)).Error
	})
	if err != nil {
		return 0, fmt.Errorf("database cache: increment: %w", err)
	}

	return count, nil
}

func (s *DatabaseStore) Close() error { return nil }

// PurgeExpired removes entries whose expiry has passed and returns the number
// of rows deleted. Called from the maintenance job.
func (s *DatabaseStore) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now()).
		Delete(&models.CacheEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("database cache: purge expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *DatabaseStore) expiry(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	at := s.now().Add(ttl)
	return &at
}

func encodeCounter(n int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf
}

func decodeCounter(value []byte) int64 {
	if len(value) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(value))
}
