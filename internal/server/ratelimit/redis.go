package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses url and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// RedisLimiter shares counters between instances through Redis. Each key is
// an INCR counter that expires with its window.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

// redisKey namespaces key under the prefix with exactly one separator.
func (l *RedisLimiter) redisKey(key string) string {
	return strings.TrimSuffix(l.prefix, ":") + ":" + key
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	key = l.redisKey(key)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("redis incr: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("redis expire: %w", err)
		}
		return decide(l.limit, count, l.window), nil
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("redis ttl: %w", err)
	}
	if ttl < 0 {
		// lost its expiry, e.g. the first caller died between INCR and EXPIRE
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("redis expire: %w", err)
		}
		ttl = l.window
	}

	return decide(l.limit, count, ttl), nil
}
