// Package repo implements the persistence backends for URL mappings. This
// file provides a Redis-backed implementation of the mapping backend.
//
// Layout (all keys share a configurable prefix, default "ridiculink:"):
//
//	<prefix>m:<id>          hash   id, original, surrogate, created_at, expires_at, access_count
//	<prefix>s:<surrogate>   string id of the mapping
//	<prefix>o:<original>    string id of the newest mapping for original
//
// Every key expires at the mapping's ExpiresAt, so Redis purges records on
// its own. Lookups still compare expires_at against the caller's now.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tbourn/go-ridiculink/internal/domain"
)

// DefaultRedisPrefix namespaces all keys written by RedisMappings.
const DefaultRedisPrefix = "ridiculink:"

// RedisOptions configures the shared Redis connection.
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	OpTimeout   time.Duration // read and write timeout per command
}

// OpenRedis creates a pooled client and verifies the connection with PING.
func OpenRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.OpTimeout,
		WriteTimeout: opts.OpTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// incrScript bumps access_count only while the hash still exists, so a
// mapping that expired between lookup and increment is not resurrected
// without a TTL.
var incrScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return redis.call('HINCRBY', KEYS[1], 'access_count', 1)
end
return -1
`)

// RedisMappings is a Redis-based mapping backend.
type RedisMappings struct {
	client *redis.Client
	prefix string
}

// NewRedisMappings returns a backend using client. An empty prefix falls back
// to DefaultRedisPrefix.
func NewRedisMappings(client *redis.Client, prefix string) *RedisMappings {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisMappings{client: client, prefix: prefix}
}

func (r *RedisMappings) mappingKey(id string) string        { return r.prefix + "m:" + id }
func (r *RedisMappings) surrogateKey(s string) string       { return r.prefix + "s:" + s }
func (r *RedisMappings) originalKey(original string) string { return r.prefix + "o:" + original }

// Insert writes the hash and both lookup keys in one MULTI/EXEC block.
func (r *RedisMappings) Insert(ctx context.Context, m *domain.Mapping) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		mk := r.mappingKey(m.ID)
		pipe.HSet(ctx, mk, encodeMapping(m))
		pipe.PExpireAt(ctx, mk, m.ExpiresAt)
		pipe.SetArgs(ctx, r.surrogateKey(m.Surrogate), m.ID, redis.SetArgs{ExpireAt: m.ExpiresAt})
		pipe.SetArgs(ctx, r.originalKey(m.Original), m.ID, redis.SetArgs{ExpireAt: m.ExpiresAt})
		return nil
	})
	return err
}

// FindValidByOriginal resolves the original index and loads the mapping.
func (r *RedisMappings) FindValidByOriginal(ctx context.Context, original string, now time.Time) (*domain.Mapping, error) {
	m, err := r.findVia(ctx, r.originalKey(original), now)
	if err != nil {
		return nil, err
	}
	if m.Original != original {
		return nil, ErrNotFound
	}
	return m, nil
}

// FindValidBySurrogate resolves the surrogate index and loads the mapping.
func (r *RedisMappings) FindValidBySurrogate(ctx context.Context, surrogate string, now time.Time) (*domain.Mapping, error) {
	m, err := r.findVia(ctx, r.surrogateKey(surrogate), now)
	if err != nil {
		return nil, err
	}
	if m.Surrogate != surrogate {
		return nil, ErrNotFound
	}
	return m, nil
}

// IncrementAccessCount atomically bumps access_count with HINCRBY.
func (r *RedisMappings) IncrementAccessCount(ctx context.Context, id string) error {
	n, err := incrScript.Run(ctx, r.client, []string{r.mappingKey(id)}).Int64()
	if err != nil {
		return err
	}
	if n < 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpired is a no-op for Redis as key expiry handles deletion.
func (r *RedisMappings) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *RedisMappings) findVia(ctx context.Context, indexKey string, now time.Time) (*domain.Mapping, error) {
	id, err := r.client.Get(ctx, indexKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	fields, err := r.client.HGetAll(ctx, r.mappingKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	m, err := decodeMapping(fields)
	if err != nil {
		return nil, err
	}
	if !m.ValidAt(now) {
		return nil, ErrNotFound
	}
	return m, nil
}

func encodeMapping(m *domain.Mapping) map[string]any {
	return map[string]any{
		"id":           m.ID,
		"original":     m.Original,
		"surrogate":    m.Surrogate,
		"created_at":   m.CreatedAt.UTC().Format(time.RFC3339Nano),
		"expires_at":   m.ExpiresAt.UTC().Format(time.RFC3339Nano),
		"access_count": m.AccessCount,
	}
}

func decodeMapping(fields map[string]string) (*domain.Mapping, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, fields["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("decode expires_at: %w", err)
	}
	var count int64
	if v := fields["access_count"]; v != "" {
		if count, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("decode access_count: %w", err)
		}
	}
	return &domain.Mapping{
		ID:          fields["id"],
		Original:    fields["original"],
		Surrogate:   fields["surrogate"],
		CreatedAt:   createdAt,
		ExpiresAt:   expiresAt,
		AccessCount: count,
	}, nil
}
