// Package ratelimit implements fixed window rate limiting on top of an
// external atomic counter store. Counters live in the store keyed by client
// identity and expire on their own, so limiter instances hold no state and
// multiple application instances share the same quotas.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// CounterStore defines the atomic counter primitives the limiter needs.
type CounterStore interface {
	// Incr atomically increments the counter for key and returns the new value.
	// A missing counter counts up from zero.
	Incr(ctx context.Context, key string) (int64, error)

	// ExpireNX sets the expiry of key to ttl only if no expiry is set yet.
	// It reports whether the expiry was applied.
	ExpireNX(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// TTL returns the remaining time-to-live of key. A non-positive duration
	// means the store reports no expiry for the key.
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Result describes the outcome of a single quota check.
type Result struct {
	// Allowed reports whether the request is within quota.
	Allowed bool
	// Limit is the quota applied to the request.
	Limit int64
	// Remaining is the number of requests left in the current window, floored at 0.
	Remaining int64
	// Reset is the epoch time in seconds when the current window expires.
	Reset int64
}

// FixedWindowLimiter counts requests per key within fixed windows. The first
// increment of a window arms the counter's expiry, so the count resets
// entirely at window boundaries rather than sliding.
type FixedWindowLimiter struct {
	store  CounterStore
	window time.Duration
}

func NewFixedWindowLimiter(store CounterStore, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		store:  store,
		window: window,
	}
}

// Allow registers one request for key and reports whether it is within limit.
// Every call consumes a unit of quota, including calls over the limit.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string, limit int64) (*Result, error) {
	const op = "ratelimit.FixedWindowLimiter.Allow"

	count, err := l.store.Incr(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to increment counter: %w", op, err)
	}

	if count == 1 {
		if _, err := l.store.ExpireNX(ctx, key, l.window); err != nil {
			return nil, fmt.Errorf("%s: failed to set counter expiry: %w", op, err)
		}
	}

	ttl, err := l.store.TTL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get counter ttl: %w", op, err)
	}
	if ttl <= 0 {
		// The expiry may not be visible yet right after the first increment.
		ttl = l.window
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		Reset:     time.Now().Add(ttl).Unix(),
	}, nil
}

// Key composes the counter key from the client network address and, when the
// caller is authenticated, the user identity. Authenticated callers get a
// separate counter so they are not throttled by anonymous traffic from the
// same address.
func Key(clientIP, userID string) string {
	if userID != "" {
		return fmt.Sprintf("ratelimit:%s:%s", clientIP, userID)
	}
	return fmt.Sprintf("ratelimit:%s", clientIP)
}
