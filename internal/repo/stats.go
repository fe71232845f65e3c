// Package repo implements the persistence backends for URL mappings. This
// file provides small aggregate queries used by housekeeping (the purge
// command logs them before and after deleting expired rows).
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-ridiculink/internal/domain"
)

// MappingsStats returns the total number of stored rows and how many of them
// are still valid at now. Expired rows count toward total until purged.
//
// Return values:
//   - total: all rows in the mappings table
//   - valid: rows with expires_at > now
//   - err:   database error, if any
func MappingsStats(ctx context.Context, db *gorm.DB, now time.Time) (total, valid int64, err error) {
	if err = db.WithContext(ctx).Model(&domain.Mapping{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if total == 0 {
		return 0, 0, nil
	}
	if err = db.WithContext(ctx).
		Model(&domain.Mapping{}).
		Where("expires_at > ?", now.UTC()).
		Count(&valid).Error; err != nil {
		return 0, 0, err
	}
	return total, valid, nil
}
