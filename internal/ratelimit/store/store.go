package store

import (
	"context"
	"time"
)

// CounterStore is a fixed-window counter shared across worker instances.
// Incr must be atomic (increment-and-read in one round trip) so concurrent
// bursts never undercount.
type CounterStore interface {
	// Incr bumps the counter, creating it with the window's TTL on first
	// touch, and returns the post-increment count and the window reset time.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)

	// Decr undoes one increment; used to keep rejected requests from counting
	// against the window.
	Decr(ctx context.Context, key string) error

	// Reset drops the counter (skip-on-success auth policy).
	Reset(ctx context.Context, key string) error
}
