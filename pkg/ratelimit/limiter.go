// Package ratelimit controls the pace of outbound API requests.
//
// Both venue APIs used by this module throttle aggressive callers: Kalshi
// returns 429s under load and Polymarket's Gamma API expects a polite
// request cadence. Rather than letting every call site invent its own
// sleep logic, the HTTP client in pkg/common takes a RateLimiter and waits
// for a token before each request.
//
// The implementation wraps Uber's token-bucket limiter. A Rate pairs an
// operation count with an interval, so "10 requests per second" and
// "120 requests per minute" are both expressible directly.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/ratelimit"
)

// Rate represents a rate limit configuration: Limit operations
// allowed per Interval.
type Rate struct {
	// Limit is the maximum number of operations allowed within the interval.
	Limit int

	// Interval is the time window over which the limit applies.
	Interval time.Duration
}

// RateLimiter paces operations to comply with a configured rate.
type RateLimiter interface {
	// Wait blocks until an operation is permitted or the context is
	// cancelled. It should be called before each rate-limited operation.
	Wait(ctx context.Context) error

	// SetLimit replaces the rate configuration. Returns an error for
	// non-positive limits or intervals.
	SetLimit(limit Rate) error
}

// uberLimiter implements RateLimiter using Uber's token bucket.
type uberLimiter struct {
	limiter ratelimit.Limiter
	rate    Rate
}

// NewTokenBucketLimiter creates a rate limiter from the given rate. The
// rate is converted to operations per second for the underlying limiter,
// with a floor of one operation per second.
func NewTokenBucketLimiter(rate Rate) RateLimiter {
	return &uberLimiter{
		limiter: ratelimit.New(perSecond(rate)),
		rate:    rate,
	}
}

func perSecond(rate Rate) int {
	rps := int(float64(rate.Limit) / rate.Interval.Seconds())
	if rps < 1 {
		rps = 1
	}
	return rps
}

// Wait implements the RateLimiter interface.
func (l *uberLimiter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limit wait cancelled: %w", ctx.Err())
	default:
		l.limiter.Take()
		return nil
	}
}

// SetLimit implements the RateLimiter interface.
func (l *uberLimiter) SetLimit(rate Rate) error {
	if rate.Limit <= 0 || rate.Interval <= 0 {
		return fmt.Errorf("invalid rate limit: %+v", rate)
	}
	l.limiter = ratelimit.New(perSecond(rate))
	l.rate = rate
	return nil
}
