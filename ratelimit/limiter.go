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

// Package ratelimit throttles requests per operation. Limiters are consulted by the executor before
// a request leaves the received state.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	// Allow consumes one unit for key and reports the state of the limit.
	Allow(ctx context.Context, key string) (*Info, error)
}

// Waiter is implemented by limiters that can delay a request until it is allowed.
type Waiter interface {
	// Wait blocks until a request for key is allowed or ctx is done.
	Wait(ctx context.Context, key string) error
}

// Info contains information about the current rate limit state.
type Info struct {
	// Limit is the maximum number of requests allowed in the window or the bucket size.
	Limit int

	// Remaining is the number of requests remaining in the current window. It is -1 when the limiter
	// cannot tell.
	Remaining int

	// ResetAt is the earliest time a denied request may be retried.
	ResetAt time.Time

	// Allowed indicates whether the request should be allowed.
	Allowed bool
}

// Driver names a Limiter implementation.
type Driver string

// Enumeration of Driver
const (
	DriverNone   Driver = ""
	DriverMemory Driver = "memory"
	DriverRedis  Driver = "redis"
)

// Config selects and configures a Limiter.
type Config struct {
	Driver Driver `mapstructure:"driver"`

	// Rate and Burst configure the memory driver: Rate requests per second with bursts of up to
	// Burst requests.
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`

	// Limit, Window, RedisAddr and Prefix configure the redis driver.
	Limit     int           `mapstructure:"limit"`
	Window    time.Duration `mapstructure:"window"`
	RedisAddr string        `mapstructure:"redis_addr"`
	Prefix    string        `mapstructure:"prefix"`
}

// New creates the Limiter selected by config. It returns nil for DriverNone.
func New(config Config) (Limiter, error) {
	switch config.Driver {
	case DriverNone:
		return nil, nil

	case DriverMemory:
		limiter, err := NewTokenBucket(TokenBucketConfig{
			Rate:  config.Rate,
			Burst: config.Burst,
		})
		if err != nil {
			return nil, err
		}
		return limiter, nil

	case DriverRedis:
		if config.RedisAddr == "" {
			return nil, fmt.Errorf("redis rate limiter requires an address")
		}
		limiter, err := NewRedisLimiter(RedisLimiterConfig{
			Client: redis.NewClient(&redis.Options{Addr: config.RedisAddr}),
			Limit:  config.Limit,
			Window: config.Window,
			Prefix: config.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return limiter, nil
	}
	return nil, fmt.Errorf(`unknown rate limiter driver "%s"`, config.Driver)
}
