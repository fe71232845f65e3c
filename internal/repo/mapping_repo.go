// Package repo implements the persistence backends for URL mappings. This
// file provides the GORM-backed repository functions for the Mapping model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only
// persistence and query composition.
//
// Error semantics:
//   - When no valid mapping matches, functions return ErrNotFound.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Validity is always evaluated against the caller-supplied now; expired rows
// stay in the table until PurgeExpiredMappings removes them.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-ridiculink/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound so GORM lookups need no translation; the
// Redis backend returns the same value.
var ErrNotFound = gorm.ErrRecordNotFound

// FindValidMappingByOriginal returns the newest mapping for original whose
// expires_at is after now, or ErrNotFound.
func FindValidMappingByOriginal(ctx context.Context, db *gorm.DB, original string, now time.Time) (*domain.Mapping, error) {
	var m domain.Mapping
	err := db.WithContext(ctx).
		Where("original = ? AND expires_at > ?", original, now.UTC()).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindValidMappingBySurrogate returns the mapping keyed by surrogate whose
// expires_at is after now, or ErrNotFound.
func FindValidMappingBySurrogate(ctx context.Context, db *gorm.DB, surrogate string, now time.Time) (*domain.Mapping, error) {
	var m domain.Mapping
	err := db.WithContext(ctx).
		Where("surrogate = ? AND expires_at > ?", surrogate, now.UTC()).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMapping inserts m as-is. The caller owns ID and timestamps.
func CreateMapping(ctx context.Context, db *gorm.DB, m *domain.Mapping) error {
	return db.WithContext(ctx).Create(m).Error
}

// IncrementAccessCount adds one to access_count of the row identified by id.
// The increment is evaluated by the database, so concurrent callers never
// lose updates. It returns ErrNotFound when no row has that id.
func IncrementAccessCount(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Mapping{}).
		Where("id = ?", id).
		UpdateColumn("access_count", gorm.Expr("access_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpiredMappings physically deletes rows whose expires_at is at or
// before now and returns the number of rows removed.
func PurgeExpiredMappings(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC()).
		Delete(&domain.Mapping{})
	return res.RowsAffected, res.Error
}

// GormMappings adapts the repository functions to the backend contract used
// by the mapping service. The handle is shared by all calls.
type GormMappings struct {
	DB *gorm.DB
}

// NewGormMappings returns a backend bound to db.
func NewGormMappings(db *gorm.DB) *GormMappings {
	return &GormMappings{DB: db}
}

// FindValidByOriginal proxies FindValidMappingByOriginal.
func (g *GormMappings) FindValidByOriginal(ctx context.Context, original string, now time.Time) (*domain.Mapping, error) {
	return FindValidMappingByOriginal(ctx, g.DB, original, now)
}

// FindValidBySurrogate proxies FindValidMappingBySurrogate.
func (g *GormMappings) FindValidBySurrogate(ctx context.Context, surrogate string, now time.Time) (*domain.Mapping, error) {
	return FindValidMappingBySurrogate(ctx, g.DB, surrogate, now)
}

// Insert proxies CreateMapping.
func (g *GormMappings) Insert(ctx context.Context, m *domain.Mapping) error {
	return CreateMapping(ctx, g.DB, m)
}

// IncrementAccessCount proxies the package-level IncrementAccessCount.
func (g *GormMappings) IncrementAccessCount(ctx context.Context, id string) error {
	return IncrementAccessCount(ctx, g.DB, id)
}

// PurgeExpired proxies PurgeExpiredMappings.
func (g *GormMappings) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return PurgeExpiredMappings(ctx, g.DB, now)
}

// IsNotFound reports whether err is a repository not-found condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
