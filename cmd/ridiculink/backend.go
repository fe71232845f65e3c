package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-ridiculink/internal/config"
	"github.com/tbourn/go-ridiculink/internal/repo"
	"github.com/tbourn/go-ridiculink/internal/services"
)

// backend is the opened storage handle shared by the subcommands.
type backend struct {
	store services.MappingBackend
	// db is set for the SQL backend only.
	db    *gorm.DB
	close func() error
}

// Close releases the underlying connection pool.
func (b *backend) Close() {
	if b.close == nil {
		return
	}
	if err := b.close(); err != nil {
		log.Warn().Err(err).Msg("close storage")
	}
}

// openBackend connects to the configured store and verifies it is reachable.
func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		dctx, cancel := context.WithTimeout(ctx, cfg.Redis.DialTimeout)
		defer cancel()
		client, err := repo.OpenRedis(dctx, repo.RedisOptions{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
			OpTimeout:   cfg.Redis.OpTimeout,
		})
		if err != nil {
			return nil, err
		}
		return &backend{
			store: repo.NewRedisMappings(client, cfg.Redis.Prefix),
			close: client.Close,
		}, nil

	case config.BackendSQLite, "":
		db, err := repo.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.DBPath, err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if err := repo.EnableTracing(db); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("gorm tracing: %w", err)
		}
		if err := repo.AutoMigrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		if err := repo.Ping(ctx, db); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("ping sqlite: %w", err)
		}
		return &backend{
			store: repo.NewGormMappings(db),
			db:    db,
			close: sqlDB.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}
