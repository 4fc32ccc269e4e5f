package throttle

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "throttle:"

// RedisGate answers ShouldSend from Redis and still writes every dispatch to the
// database log.
type RedisGate struct {
	rdb       *redis.Client
	log       *StoreGate
	retention time.Duration
}

// NewRedisGate creates a Redis-backed gate. Keys expire after retention, which
// must be at least the longest interval any caller asks about.
func NewRedisGate(rdb *redis.Client, log *StoreGate, retention time.Duration) *RedisGate {
	return &RedisGate{rdb: rdb, log: log, retention: retention}
}

func (g *RedisGate) ShouldSend(ctx context.Context, userID, category string, now time.Time, interval time.Duration) (bool, error) {
	v, err := g.rdb.Get(ctx, key(userID, category)).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get: %w", err)
	}
	nanos, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// unreadable value: treat as never sent
		return true, nil
	}
	return now.Sub(time.Unix(0, nanos)) >= interval, nil
}

func (g *RedisGate) RecordSent(ctx context.Context, userID, category string, now time.Time) error {
	if err := g.rdb.Set(ctx, key(userID, category), strconv.FormatInt(now.UnixNano(), 10), g.retention).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return g.log.RecordSent(ctx, userID, category, now)
}

func key(userID, category string) string {
	return keyPrefix + userID + ":" + category
}

// NewRedisClient parses a redis:// or rediss:// URL and pings the server
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
