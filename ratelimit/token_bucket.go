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
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucketConfig holds configuration for the token bucket rate limiter.
type TokenBucketConfig struct {
	// Rate is the number of requests per second refilled into a bucket.
	Rate float64

	// Burst is the size of a bucket.
	Burst int
}

// TokenBucket is an in-memory limiter with one token bucket per key.
type TokenBucket struct {
	config TokenBucketConfig

	mutex   sync.Mutex
	buckets map[string]*rate.Limiter
}

var (
	_ Limiter = (*TokenBucket)(nil)
	_ Waiter  = (*TokenBucket)(nil)
)

// NewTokenBucket creates a TokenBucket.
func NewTokenBucket(config TokenBucketConfig) (*TokenBucket, error) {
	if config.Rate <= 0 {
		return nil, errors.New("rate must be greater than 0")
	}
	if config.Burst <= 0 {
		return nil, errors.New("burst must be greater than 0")
	}
	return &TokenBucket{
		config:  config,
		buckets: map[string]*rate.Limiter{},
	}, nil
}

func (tb *TokenBucket) bucket(key string) *rate.Limiter {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	b, exists := tb.buckets[key]
	if !exists {
		b = rate.NewLimiter(rate.Limit(tb.config.Rate), tb.config.Burst)
		tb.buckets[key] = b
	}
	return b
}

// Allow implements Limiter.
func (tb *TokenBucket) Allow(ctx context.Context, key string) (*Info, error) {
	var (
		now         = time.Now()
		reservation = tb.bucket(key).ReserveN(now, 1)
	)

	info := &Info{
		Limit:     tb.config.Burst,
		Remaining: -1,
	}
	if !reservation.OK() {
		return info, nil
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		// Give the token back; the request is rejected instead of delayed.
		reservation.CancelAt(now)
		info.Remaining = 0
		info.ResetAt = now.Add(delay)
		return info, nil
	}

	info.Allowed = true
	info.ResetAt = now
	return info, nil
}

// Wait implements Waiter.
func (tb *TokenBucket) Wait(ctx context.Context, key string) error {
	return tb.bucket(key).Wait(ctx)
}

// Reset forgets the bucket of key.
func (tb *TokenBucket) Reset(key string) {
	tb.mutex.Lock()
	delete(tb.buckets, key)
	tb.mutex.Unlock()
}
