package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/s0up4200/cinesearch/tmdb"
)

const redisKeyPrefix = "cinesearch:"

// Backend is a shared cache tier that outlives the process, e.g. Redis
type Backend interface {
	Get(ctx context.Context, key Key) (*tmdb.ResultPage, bool, error)
	Set(ctx context.Context, key Key, page *tmdb.ResultPage, ttl time.Duration) error
}

// RedisBackend stores result pages in Redis as JSON
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend wraps an existing Redis client
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// DialRedis parses url, connects and pings the server
func DialRedis(ctx context.Context, url string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis not reachable at %s: %w", opts.Addr, err)
	}

	return NewRedisBackend(client), nil
}

// Get returns the cached page for key, if any
func (r *RedisBackend) Get(ctx context.Context, key Key) (*tmdb.ResultPage, bool, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var page tmdb.ResultPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false, err
	}
	return &page, true, nil
}

// Set stores page under key for ttl
func (r *RedisBackend) Set(ctx context.Context, key Key, page *tmdb.ResultPage, ttl time.Duration) error {
	data, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+key.String(), data, ttl).Err()
}

// Close releases the Redis connection pool
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
