package testutil

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	redisTC "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/zhejian/shortcodes/internal/infra"
)

// linkKeyPrefix mirrors the key layout of the short link cache.
const linkKeyPrefix = "link:"

// TestCache holds test cache resources
type TestCache struct {
	Client    *redis.Client
	container *redisTC.RedisContainer
}

// SetupTestCache creates a new test Redis container
func SetupTestCache(ctx context.Context) (*TestCache, error) {
	container, err := redisTC.Run(ctx,
		"redis:8-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}

	connString, err := container.ConnectionString(ctx)
	if err != nil {
		return nil, abandon(ctx, container, err)
	}

	client, err := infra.NewCacheClient(ctx, connString)
	if err != nil {
		return nil, abandon(ctx, container, err)
	}

	return &TestCache{Client: client, container: container}, nil
}

// ConnectionString returns a redis:// URL for opening extra clients.
func (t *TestCache) ConnectionString(ctx context.Context) (string, error) {
	return t.container.ConnectionString(ctx)
}

// Entry returns the raw cached value for a short code and its remaining TTL.
// redis.Nil is returned when nothing is cached.
func (t *TestCache) Entry(ctx context.Context, code string) (string, time.Duration, error) {
	key := linkKeyPrefix + code
	val, err := t.Client.Get(ctx, key).Result()
	if err != nil {
		return "", 0, err
	}
	ttl, err := t.Client.TTL(ctx, key).Result()
	if err != nil {
		return "", 0, err
	}
	return val, ttl, nil
}

// Seed stores a raw value for a short code, bypassing the repository.
func (t *TestCache) Seed(ctx context.Context, code, value string, ttl time.Duration) error {
	return t.Client.Set(ctx, linkKeyPrefix+code, value, ttl).Err()
}

// Cleanup flushes all keys from the database
func (t *TestCache) Cleanup(ctx context.Context) {
	if t == nil || t.Client == nil {
		return
	}
	t.Client.FlushDB(ctx)
}

// Teardown closes connections and terminates container
func (t *TestCache) Teardown(ctx context.Context) {
	if t.Client != nil {
		t.Client.Close()
	}
	if t.container != nil {
		terminate(ctx, t.container)
	}
}
