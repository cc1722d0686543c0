package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/learningcenter/marketing-site/internal/config"
	"github.com/learningcenter/marketing-site/internal/models"
)

// redisClient is the subset of go-redis used by RedisRepository
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// NewRedisClient creates a go-redis client from the configuration and checks it with a ping
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// RedisRepository stores snapshots under "cookie-consent-storage:<visitor>"
type RedisRepository struct {
	client redisClient
	ttl    time.Duration
}

// NewRedisRepository creates a repository on top of a go-redis client. A zero
// ttl keeps keys until they are deleted.
func NewRedisRepository(client redisClient, ttl time.Duration) *RedisRepository {
	return &RedisRepository{client: client, ttl: ttl}
}

// RedisKey returns the key holding a visitor's snapshot
func RedisKey(visitorID string) string {
	return models.ConsentStorageKey + ":" + visitorID
}

// Load reads the snapshot of a visitor
func (r *RedisRepository) Load(ctx context.Context, visitorID string) (models.ConsentSnapshot, error) {
	data, err := r.client.Get(ctx, RedisKey(visitorID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.ConsentSnapshot{}, ErrNotFound
		}
		return models.ConsentSnapshot{}, fmt.Errorf("failed to read consent from redis: %w", err)
	}
	return models.UnmarshalSnapshot(data)
}

// Save writes the snapshot of a visitor
func (r *RedisRepository) Save(ctx context.Context, visitorID string, snapshot models.ConsentSnapshot, _ models.ConsentAction) error {
	data, err := models.MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, RedisKey(visitorID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write consent to redis: %w", err)
	}
	return nil
}

// Delete removes the snapshot of a visitor
func (r *RedisRepository) Delete(ctx context.Context, visitorID string) error {
	if err := r.client.Del(ctx, RedisKey(visitorID)).Err(); err != nil {
		return fmt.Errorf("failed to delete consent from redis: %w", err)
	}
	return nil
}

// HealthCheck pings the redis server
func (r *RedisRepository) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
