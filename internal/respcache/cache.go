// Package respcache memoizes idempotent read results and automated-reasoning
// outputs keyed by request fingerprint. Keys include the caller's identity
// scope when the response is caller-specific, preventing cross-tenant leakage.
package respcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store is the TTL'd byte cache behind the service. Implementations return
// ok=false for missing or expired entries.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePattern removes all keys matching a glob-style pattern; used for
	// proactive invalidation on claim mutations.
	DeletePattern(ctx context.Context, pattern string) error
}

// Key builds a cache key from the route, the caller's identity scope, and the
// request body fingerprint. Public (identity-independent) responses pass an
// empty scope.
func Key(route, identityScope string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(route))
	h.Write([]byte{0})
	h.Write([]byte(identityScope))
	h.Write([]byte{0})
	h.Write(body)
	return "rc:" + route + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}

var (
	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factgate_cache_requests_total",
		Help: "Response cache lookups by outcome.",
	}, []string{"outcome"})
)

// Result carries the cached or computed payload plus the hit marker exposed
// to observability without altering the payload shape.
type Result struct {
	Value []byte
	Hit   bool
}

// Service wraps a Store with the get-or-compute contract.
type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// GetOrCompute returns the cached value within TTL, or runs compute and
// caches its result. The cache write happens only after compute fully
// succeeds, so an aborted request leaves no partial entry.
func (s *Service) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) (*Result, error) {
	if cached, ok, err := s.store.Get(ctx, key); err == nil && ok {
		hitsTotal.WithLabelValues("hit").Inc()
		return &Result{Value: cached, Hit: true}, nil
	}
	// Store errors degrade to a miss; caching is an optimization, not a
	// dependency.

	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	hitsTotal.WithLabelValues("miss").Inc()

	// A failed cache write is not a request failure; the next identical
	// request simply recomputes.
	_ = s.store.Set(ctx, key, value, ttl)
	return &Result{Value: value, Hit: false}, nil
}

// Invalidate removes all cached responses matching the pattern.
func (s *Service) Invalidate(ctx context.Context, pattern string) error {
	return s.store.DeletePattern(ctx, pattern)
}
