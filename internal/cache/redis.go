package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/helpdesk-io/helpdesk-ce/internal/config"
)

// RedisStore keeps cache entries in Redis as JSON values.
type RedisStore struct {
	client     *redis.Client
	keyPrefix  string
	defaultTTL time.Duration
}

// NewRedisStore connects to Redis and verifies the connection before
// returning.
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	store := &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		keyPrefix:  cfg.Cache.Prefix,
		defaultTTL: cfg.Cache.TTL,
	}
	if store.defaultTTL <= 0 {
		store.defaultTTL = defaultTTL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return store, nil
}

func (rs *RedisStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := rs.client.Get(ctx, rs.keyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			missCounter.WithLabelValues("redis").Inc()
			return false, nil
		}
		errorCounter.WithLabelValues("redis").Inc()
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		errorCounter.WithLabelValues("redis").Inc()
		return false, err
	}
	hitCounter.WithLabelValues("redis").Inc()
	return true, nil
}

func (rs *RedisStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		errorCounter.WithLabelValues("redis").Inc()
		return err
	}
	if ttl <= 0 {
		ttl = rs.defaultTTL
	}
	if err := rs.client.Set(ctx, rs.keyPrefix+key, data, ttl).Err(); err != nil {
		errorCounter.WithLabelValues("redis").Inc()
		return err
	}
	return nil
}

func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.keyPrefix+key).Err(); err != nil {
		errorCounter.WithLabelValues("redis").Inc()
		return err
	}
	return nil
}

// DeletePrefix removes every key under the logical prefix. SCAN keeps the
// sweep incremental instead of blocking the server the way KEYS would.
func (rs *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	pattern := rs.keyPrefix + prefix + "*"

	var keys []string
	iter := rs.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		errorCounter.WithLabelValues("redis").Inc()
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	pipe := rs.client.Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		errorCounter.WithLabelValues("redis").Inc()
		return err
	}
	return nil
}

func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
