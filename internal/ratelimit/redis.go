package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore backs the sliding window with a Redis sorted set per key, so
// quota state survives restarts and is shared across gateway instances. The
// prune/check/append sequence runs in a single Lua script, which gives the
// same per-key atomicity the in-memory store gets from its lock.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

var reserveScript = redis.NewScript(`
local key = KEYS[1]
local seq_key = KEYS[2]
local limit = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])
local cost = tonumber(ARGV[3])
local now_ms = tonumber(ARGV[4])

local cutoff = now_ms - window_ms
redis.call("ZREMRANGEBYSCORE", key, 0, cutoff)
local used = redis.call("ZCARD", key)

local allowed = 0
if limit > 0 and used + cost <= limit then
	allowed = 1
	for i = 1, cost do
		local seq = redis.call("INCR", seq_key)
		redis.call("ZADD", key, now_ms, now_ms .. ":" .. seq)
	end
	used = used + cost
end

redis.call("PEXPIRE", key, window_ms + 1000)
redis.call("PEXPIRE", seq_key, window_ms + 1000)

return {allowed, used}
`)

func (r *RedisStore) CheckAndReserve(ctx context.Context, key string, limit, cost int, now time.Time) (Decision, error) {
	res, err := reserveScript.Run(ctx, r.client,
		[]string{"usage:" + key, "usage:" + key + ":seq"},
		limit, Window.Milliseconds(), cost, now.UnixMilli()).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("reserve script: %w", err)
	}

	items, ok := res.([]interface{})
	if !ok || len(items) < 2 {
		return Decision{}, fmt.Errorf("reserve script: unexpected reply %v", res)
	}
	return Decision{
		Allowed: toInt(items[0]) == 1,
		Used:    int(toInt(items[1])),
		Limit:   limit,
	}, nil
}

func (r *RedisStore) Usage(ctx context.Context, key string, now time.Time) (int, error) {
	cutoff := now.UnixMilli() - Window.Milliseconds()
	count, err := r.client.ZCount(ctx, "usage:"+key, fmt.Sprintf("(%d", cutoff), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("count usage: %w", err)
	}
	return int(count), nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func toInt(value interface{}) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
