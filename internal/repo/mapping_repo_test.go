package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-ridiculink/internal/domain"
)

func newMappingRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("mapping_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(withPragmas(dsn)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

var t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func seedMapping(t *testing.T, db *gorm.DB, id, original, surrogate string, createdAt time.Time) *domain.Mapping {
	t.Helper()
	m := domain.NewMapping(id, original, surrogate, createdAt)
	if err := CreateMapping(context.Background(), db, m); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	return m
}

func TestCreateMapping_Error_NoTable(t *testing.T) {
	db := newMappingRepoDB(t /* no migrations */)
	err := CreateMapping(context.Background(), db, domain.NewMapping("x", "o", "s", t0))
	if err == nil {
		t.Fatalf("expected error creating without table")
	}
}

func TestFindValidMappingByOriginal_ValidExpiredMissing(t *testing.T) {
	db := newMappingRepoDB(t, &domain.Mapping{})
	ctx := context.Background()

	seedMapping(t, db, "m1", "https://a.example", "s1", t0)

	got, err := FindValidMappingByOriginal(ctx, db, "https://a.example", t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("FindValidMappingByOriginal: %v", err)
	}
	if got.ID != "m1" || got.Surrogate != "s1" {
		t.Fatalf("unexpected mapping: %+v", got)
	}

	// Exactly at expiry the row is no longer valid.
	if _, err := FindValidMappingByOriginal(ctx, db, "https://a.example", t0.Add(domain.MappingTTL)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound at expiry, got %v", err)
	}

	if _, err := FindValidMappingByOriginal(ctx, db, "https://missing.example", t0); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound for missing original, got %v", err)
	}
}

func TestFindValidMappingByOriginal_PrefersNewest(t *testing.T) {
	db := newMappingRepoDB(t, &domain.Mapping{})

	seedMapping(t, db, "old", "https://dup.example", "s-old", t0)
	seedMapping(t, db, "new", "https://dup.example", "s-new", t0.Add(time.Minute))

	got, err := FindValidMappingByOriginal(context.Background(), db, "https://dup.example", t0.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("FindValidMappingByOriginal: %v", err)
	}
	if got.ID != "new" {
		t.Fatalf("expected newest mapping, got %+v", got)
	}
}

func TestFindValidMappingBySurrogate_Boundary(t *testing.T) {
	db := newMappingRepoDB(t, &domain.Mapping{})
	ctx := context.Background()

	seedMapping(t, db, "m1", "https://a.example", "surrogate-1", t0)

	if _, err := FindValidMappingBySurrogate(ctx, db, "surrogate-1", t0.Add(domain.MappingTTL-time.Second)); err != nil {
		t.Fatalf("expected hit just before expiry: %v", err)
	}
	if _, err := FindValidMappingBySurrogate(ctx, db, "surrogate-1", t0.Add(domain.MappingTTL)); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound at expiry, got %v", err)
	}
	if _, err := FindValidMappingBySurrogate(ctx, db, "nope", t0); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound for unknown surrogate, got %v", err)
	}
}

func TestIncrementAccessCount_SuccessAndMissing(t *testing.T) {
	db := newMappingRepoDB(t, &domain.Mapping{})
	ctx := context.Background()

	seedMapping(t, db, "m1", "https://a.example", "s1", t0)

	for i := 0; i < 3; i++ {
		if err := IncrementAccessCount(ctx, db, "m1"); err != nil {
			t.Fatalf("IncrementAccessCount: %v", err)
		}
	}
	var got domain.Mapping
	if err := db.First(&got, "id = ?", "m1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AccessCount != 3 {
		t.Fatalf("AccessCount = %d; want 3", got.AccessCount)
	}

	if err := IncrementAccessCount(ctx, db, "missing"); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestIncrementAccessCount_Concurrent_NoLostUpdates(t *testing.T) {
	db := newMappingRepoDB(t, &domain.Mapping{})
	seedMapping(t, db, "hot", "https://hot.example", "s-hot", t0)

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- IncrementAccessCount(context.Background(), db, "hot")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent increment: %v", err)
		}
	}

	var got domain.Mapping
	if err := db.First(&got, "id = ?", "hot").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AccessCount != n {
		t.Fatalf("AccessCount = %d; want %d", got.AccessCount, n)
	}
}

func TestPurgeExpiredMappings(t *testing.T) {
	db := newMappingRepoDB(t, &domain.Mapping{})
	ctx := context.Background()

	seedMapping(t, db, "expired", "https://a.example", "s1", t0.Add(-8*24*time.Hour))
	seedMapping(t, db, "valid", "https://b.example", "s2", t0)

	n, err := PurgeExpiredMappings(ctx, db, t0)
	if err != nil {
		t.Fatalf("PurgeExpiredMappings: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d rows; want 1", n)
	}
	var left int64
	db.Model(&domain.Mapping{}).Count(&left)
	if left != 1 {
		t.Fatalf("rows left = %d; want 1", left)
	}
}

func TestGormMappings_ProxiesRepoFunctions(t *testing.T) {
	db := newMappingRepoDB(t, &domain.Mapping{})
	ctx := context.Background()
	g := NewGormMappings(db)

	m := domain.NewMapping("g1", "https://g.example", "s-g", t0)
	if err := g.Insert(ctx, m); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got, err := g.FindValidByOriginal(ctx, "https://g.example", t0); err != nil || got.ID != "g1" {
		t.Fatalf("FindValidByOriginal: got=%v err=%v", got, err)
	}
	if got, err := g.FindValidBySurrogate(ctx, "s-g", t0); err != nil || got.ID != "g1" {
		t.Fatalf("FindValidBySurrogate: got=%v err=%v", got, err)
	}
	if err := g.IncrementAccessCount(ctx, "g1"); err != nil {
		t.Fatalf("IncrementAccessCount: %v", err)
	}
	if n, err := g.PurgeExpired(ctx, t0.Add(domain.MappingTTL)); err != nil || n != 1 {
		t.Fatalf("PurgeExpired: n=%d err=%v", n, err)
	}
}
