package auth

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Revoker remembers logged-out session ids until their tokens would have expired.
type Revoker interface {
	Revoke(ctx context.Context, id string, until time.Time) error
	Revoked(ctx context.Context, id string) (bool, error)
}

// MemoryRevoker keeps revoked ids in a process-local expiring cache.
type MemoryRevoker struct {
	cache *gocache.Cache
}

// NewMemoryRevoker creates a revoker that sweeps expired ids every cleanup interval.
func NewMemoryRevoker(cleanup time.Duration) *MemoryRevoker {
	return &MemoryRevoker{cache: gocache.New(gocache.NoExpiration, cleanup)}
}

func (m *MemoryRevoker) Revoke(_ context.Context, id string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	m.cache.Set(id, struct{}{}, ttl)
	return nil
}

func (m *MemoryRevoker) Revoked(_ context.Context, id string) (bool, error) {
	_, found := m.cache.Get(id)
	return found, nil
}

// RedisRevoker shares the revocation list between API replicas.
type RedisRevoker struct {
	client *redis.Client
	prefix string
}

// NewRedisRevoker stores revoked ids under prefix+id with a TTL.
func NewRedisRevoker(client *redis.Client, prefix string) *RedisRevoker {
	if prefix == "" {
		prefix = "regportal:revoked:"
	}
	return &RedisRevoker{client: client, prefix: prefix}
}

func (r *RedisRevoker) Revoke(ctx context.Context, id string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.prefix+id, 1, ttl).Err()
}

func (r *RedisRevoker) Revoked(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
