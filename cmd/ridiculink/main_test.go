package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-ridiculink/internal/config"
	"github.com/tbourn/go-ridiculink/internal/domain"
	"github.com/tbourn/go-ridiculink/internal/repo"
)

func sqliteConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		StorageBackend: config.BackendSQLite,
		DBPath:         filepath.Join(t.TempDir(), "ridiculink.db"),
	}
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"version"}, config.Config{}, &out); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "ridiculink dev") {
		t.Fatalf("unexpected version output %q", out.String())
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"frobnicate"}, config.Config{}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "frobnicate") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestRun_PurgeDeletesExpiredRows(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)

	b, err := openBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("openBackend: %v", err)
	}
	now := time.Now().UTC()
	seed := []*domain.Mapping{
		domain.NewMapping("old", "https://example.com/old", "s-old", now.Add(-8*24*time.Hour)),
		domain.NewMapping("new", "https://example.com/new", "s-new", now),
	}
	for _, m := range seed {
		if err := b.store.Insert(ctx, m); err != nil {
			t.Fatalf("insert %s: %v", m.ID, err)
		}
	}
	b.Close()

	if err := run(ctx, []string{"purge"}, cfg, &bytes.Buffer{}); err != nil {
		t.Fatalf("purge: %v", err)
	}

	b, err = openBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()
	total, valid, err := repo.MappingsStats(ctx, b.db, now)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if total != 1 || valid != 1 {
		t.Fatalf("after purge total=%d valid=%d; want 1/1", total, valid)
	}
}

func TestOpenBackend_Errors(t *testing.T) {
	ctx := context.Background()

	if _, err := openBackend(ctx, config.Config{StorageBackend: "mongo"}); err == nil {
		t.Fatalf("expected unsupported backend error")
	}

	cfg := config.Config{
		StorageBackend: config.BackendSQLite,
		DBPath:         filepath.Join(t.TempDir(), "missing", "dir", "x.db"),
	}
	if _, err := openBackend(ctx, cfg); err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}

func TestBackendClose_NilSafe(t *testing.T) {
	(&backend{}).Close()
}
