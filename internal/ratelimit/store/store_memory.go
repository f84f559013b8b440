package store

import (
	"context"
	"sync"
	"time"
)

// InMemoryCounterStore is a single-process fixed-window counter for tests and
// single-node deployments. Windows reset lazily on next access; Sweep may
// reclaim expired counters.
type InMemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*window
	now      func() time.Time
}

type window struct {
	count   int64
	resetAt time.Time
}

type MemoryOption func(*InMemoryCounterStore)

// WithClock injects a clock for window-expiry tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *InMemoryCounterStore) {
		s.now = now
	}
}

func NewInMemoryCounterStore(opts ...MemoryOption) *InMemoryCounterStore {
	s := &InMemoryCounterStore{
		counters: make(map[string]*window),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryCounterStore) Incr(_ context.Context, key string, windowLen time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.counters[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(windowLen)}
		s.counters[key] = w
	}
	w.count++
	return w.count, w.resetAt, nil
}

func (s *InMemoryCounterStore) Decr(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.counters[key]; ok && w.count > 0 {
		w.count--
	}
	return nil
}

func (s *InMemoryCounterStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
	return nil
}

// Sweep reclaims expired counters and returns how many were removed. Safe to
// run concurrently with live traffic since it only touches expired windows.
func (s *InMemoryCounterStore) Sweep(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for key, w := range s.counters {
		if !now.Before(w.resetAt) {
			delete(s.counters, key)
			removed++
		}
	}
	return removed
}
