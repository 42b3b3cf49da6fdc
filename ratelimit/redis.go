/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindow trims the window, counts the requests left in it and records the current one when
// the limit permits. It returns {allowed, count, oldest score}.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, 0, window_start)

	local current = redis.call('ZCARD', key)
	if current < limit then
		redis.call('ZADD', key, now, member)
		redis.call('EXPIRE', key, ttl)
		return {1, current + 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	return {0, current, oldest[2]}
`)

// RedisLimiterConfig holds configuration for the redis rate limiter.
type RedisLimiterConfig struct {
	Client redis.UniversalClient

	// Limit is the maximum number of requests allowed in Window.
	Limit  int
	Window time.Duration

	// Prefix is prepended to keys.
	Prefix string
}

// RedisLimiter is a sliding window limiter backed by redis sorted sets. Limits are shared by every
// process using the same redis and prefix.
type RedisLimiter struct {
	config RedisLimiterConfig

	// seq disambiguates requests recorded in the same nanosecond.
	seq uint64
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a RedisLimiter.
func NewRedisLimiter(config RedisLimiterConfig) (*RedisLimiter, error) {
	if config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.Limit <= 0 {
		return nil, errors.New("limit must be greater than 0")
	}
	if config.Window <= 0 {
		return nil, errors.New("window must be greater than 0")
	}
	return &RedisLimiter{
		config: config,
	}, nil
}

// Allow implements Limiter.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (*Info, error) {
	var (
		now         = time.Now()
		windowStart = now.Add(-r.config.Window)
		ttl         = int(r.config.Window / time.Second)
		member      = strconv.FormatInt(now.UnixNano(), 10) + "-" +
			strconv.FormatUint(atomic.AddUint64(&r.seq, 1), 10)
	)
	if ttl < 1 {
		ttl = 1
	}

	result, err := slidingWindow.Run(ctx, r.config.Client, []string{r.config.Prefix + key},
		now.UnixNano(),
		windowStart.UnixNano(),
		r.config.Limit,
		ttl,
		member,
	).Result()
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		return nil, errors.New("unexpected redis script result")
	}
	allowed, ok := values[0].(int64)
	if !ok {
		return nil, errors.New("invalid allowed value from redis")
	}
	count, ok := values[1].(int64)
	if !ok {
		return nil, errors.New("invalid count value from redis")
	}

	info := &Info{
		Limit:     r.config.Limit,
		Remaining: r.config.Limit - int(count),
		Allowed:   allowed == 1,
		ResetAt:   now,
	}
	if info.Remaining < 0 {
		info.Remaining = 0
	}
	if !info.Allowed {
		// The window frees a slot when its oldest request expires.
		if oldest, err := strconv.ParseFloat(fmt.Sprint(values[2]), 64); err == nil {
			info.ResetAt = time.Unix(0, int64(oldest)).Add(r.config.Window)
		}
	}
	return info, nil
}

// Reset removes all rate limit data for the given key.
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.config.Client.Del(ctx, r.config.Prefix+key).Err()
}
