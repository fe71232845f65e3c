// Package domain defines the persistence model for URL mappings. The Mapping
// type is mapped with GORM for the SQL backend and serialized field by field
// by the Redis backend; it forms the core data layer of the service.
package domain

import "time"

// MappingTTL is the fixed validity window of every mapping. It is not
// configurable per record.
const MappingTTL = 7 * 24 * time.Hour

// Mapping binds an original URL to its generated long surrogate.
//
// Fields:
//   - ID: stable UUID primary key (char(36)); used for counter updates.
//   - Original: the caller-supplied URL; not unique across all time.
//   - Surrogate: the generated long string used as the lookup key.
//   - CreatedAt: set once at creation (UTC).
//   - ExpiresAt: CreatedAt + MappingTTL, set once at creation.
//   - AccessCount: incremented by successful resolves, never decremented.
//
// Both lookups filter on expires_at, so each composite index leads with the
// equality column and ends with the expiry column.
type Mapping struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	Original    string    `json:"original_url" gorm:"type:text;not null;index:idx_mappings_original_expiry,priority:1"`
	Surrogate   string    `json:"long_url"     gorm:"type:text;not null;index:idx_mappings_surrogate_expiry,priority:1"`
	CreatedAt   time.Time `json:"created_at"   gorm:"not null"`
	ExpiresAt   time.Time `json:"expires_at"   gorm:"not null;index:idx_mappings_original_expiry,priority:2;index:idx_mappings_surrogate_expiry,priority:2"`
	AccessCount int64     `json:"access_count" gorm:"not null;default:0"`
}

// TableName returns the database table name for Mapping.
func (Mapping) TableName() string { return "mappings" }

// NewMapping builds a fresh mapping created at now. The timestamp is
// normalized to UTC and the expiry is derived from MappingTTL.
func NewMapping(id, original, surrogate string, now time.Time) *Mapping {
	now = now.UTC()
	return &Mapping{
		ID:          id,
		Original:    original,
		Surrogate:   surrogate,
		CreatedAt:   now,
		ExpiresAt:   now.Add(MappingTTL),
		AccessCount: 0,
	}
}

// ValidAt reports whether the mapping is still valid at now (now < ExpiresAt).
func (m Mapping) ValidAt(now time.Time) bool {
	return now.Before(m.ExpiresAt)
}
