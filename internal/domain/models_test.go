package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableName(t *testing.T) {
	if (Mapping{}).TableName() != "mappings" {
		t.Fatalf("Mapping.TableName() = %q; want %q", (Mapping{}).TableName(), "mappings")
	}
}

func TestNewMapping_TTLAndDefaults(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2026, 3, 1, 12, 30, 0, 500, loc)

	m := NewMapping("id-1", "https://example.com", "some-long-surrogate", now)

	if m.ID != "id-1" || m.Original != "https://example.com" || m.Surrogate != "some-long-surrogate" {
		t.Fatalf("unexpected identity fields: %+v", m)
	}
	if m.AccessCount != 0 {
		t.Fatalf("AccessCount = %d; want 0", m.AccessCount)
	}
	if m.CreatedAt.Location() != time.UTC {
		t.Fatalf("CreatedAt not normalized to UTC: %v", m.CreatedAt.Location())
	}
	if !m.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt = %v; want %v", m.CreatedAt, now)
	}
	if got := m.ExpiresAt.Sub(m.CreatedAt); got != 7*24*time.Hour {
		t.Fatalf("ExpiresAt - CreatedAt = %v; want 168h", got)
	}
}

func TestValidAt_Boundary(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMapping("id", "o", "s", now)

	if !m.ValidAt(now) {
		t.Fatalf("mapping must be valid at creation time")
	}
	if !m.ValidAt(now.Add(MappingTTL - time.Nanosecond)) {
		t.Fatalf("mapping must be valid just before expiry")
	}
	if m.ValidAt(now.Add(MappingTTL)) {
		t.Fatalf("mapping must be invalid exactly at expiry")
	}
	if m.ValidAt(now.Add(MappingTTL + time.Hour)) {
		t.Fatalf("mapping must be invalid after expiry")
	}
}

func TestMigrations_Indexes(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&Mapping{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	if !m.HasTable(&Mapping{}) {
		t.Fatalf("expected table for Mapping to exist")
	}
	for _, idx := range []string{"idx_mappings_original_expiry", "idx_mappings_surrogate_expiry"} {
		if !m.HasIndex(&Mapping{}, idx) {
			t.Fatalf("expected index %s on mappings", idx)
		}
	}

	// Duplicate originals are allowed; the store only reuses the newest valid row.
	now := time.Now().UTC()
	a := NewMapping("a", "https://dup.example", "s-a", now)
	b := NewMapping("b", "https://dup.example", "s-b", now.Add(time.Second))
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("insert b: %v", err)
	}

	var got Mapping
	if err := db.First(&got, "id = ?", "b").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Surrogate != "s-b" || got.AccessCount != 0 || !got.ExpiresAt.Equal(b.ExpiresAt) {
		t.Fatalf("unexpected row: %+v", got)
	}
}
