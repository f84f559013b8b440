package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"factgate/internal/ratelimit/config"
	"factgate/internal/ratelimit/models"
	"factgate/internal/ratelimit/store"
)

// =============================================================================
// Rate Limit Service Test Suite
// =============================================================================
// Window arithmetic, rollback-on-rejection, and trusted bypass are precise
// behaviors that are awkward to pin down through E2E tests; the in-memory
// store's injectable clock makes them deterministic here.

type RateLimitServiceSuite struct {
	suite.Suite
	clock   *fakeClock
	store   *store.InMemoryCounterStore
	service *Service
}

func TestRateLimitServiceSuite(t *testing.T) {
	suite.Run(t, new(RateLimitServiceSuite))
}

func (s *RateLimitServiceSuite) SetupTest() {
	s.clock = &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s.store = store.NewInMemoryCounterStore(store.WithClock(s.clock.Now))

	var err error
	s.service, err = New(s.store)
	s.Require().NoError(err)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *RateLimitServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil)
		s.Error(err)
		s.Contains(err.Error(), "counter store is required")
	})

	s.Run("invalid trusted CIDR returns error", func() {
		cfg := config.DefaultConfig()
		cfg.TrustedCIDRs = []string{"not-a-cidr"}
		_, err := New(s.store, WithConfig(cfg))
		s.Error(err)
	})
}

// =============================================================================
// Window Tests
// =============================================================================

func (s *RateLimitServiceSuite) TestAllow() {
	ctx := context.Background()

	s.Run("requests under the limit are allowed with decreasing remaining", func() {
		for i := 0; i < 5; i++ {
			result, err := s.service.Allow(ctx, "user-a", models.ClassAuth)
			s.Require().NoError(err)
			s.True(result.Allowed)
			s.Equal(5, result.Limit)
			s.Equal(4-i, result.Remaining)
		}
	})

	s.Run("request over the limit is rejected with retry hint inside the window", func() {
		for i := 0; i < 10; i++ {
			result, err := s.service.Allow(ctx, "submitter-b", models.ClassSubmit)
			s.Require().NoError(err)
			s.Require().True(result.Allowed)
		}

		result, err := s.service.Allow(ctx, "submitter-b", models.ClassSubmit)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.GreaterOrEqual(result.RetryAfter, 1)
		s.LessOrEqual(result.RetryAfter, int(time.Hour.Seconds()))
	})

	s.Run("window expiry admits the caller again", func() {
		for i := 0; i < 30; i++ {
			result, err := s.service.Allow(ctx, "searcher-c", models.ClassSearch)
			s.Require().NoError(err)
			s.Require().True(result.Allowed)
		}
		rejected, err := s.service.Allow(ctx, "searcher-c", models.ClassSearch)
		s.Require().NoError(err)
		s.False(rejected.Allowed)

		s.clock.Advance(time.Minute + time.Second)

		result, err := s.service.Allow(ctx, "searcher-c", models.ClassSearch)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(29, result.Remaining)
	})

	s.Run("rejections do not extend the window", func() {
		for i := 0; i < 30; i++ {
			_, err := s.service.Allow(ctx, "hammer-d", models.ClassSearch)
			s.Require().NoError(err)
		}
		// Hammer the closed limit; each rejection must roll its increment back.
		for i := 0; i < 50; i++ {
			result, err := s.service.Allow(ctx, "hammer-d", models.ClassSearch)
			s.Require().NoError(err)
			s.Require().False(result.Allowed)
		}

		s.clock.Advance(time.Minute + time.Second)

		result, err := s.service.Allow(ctx, "hammer-d", models.ClassSearch)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})

	s.Run("identities and route classes are isolated", func() {
		for i := 0; i < 5; i++ {
			result, err := s.service.Allow(ctx, "user-e", models.ClassAuth)
			s.Require().NoError(err)
			s.Require().True(result.Allowed)
		}
		exhausted, err := s.service.Allow(ctx, "user-e", models.ClassAuth)
		s.Require().NoError(err)
		s.False(exhausted.Allowed)

		other, err := s.service.Allow(ctx, "user-f", models.ClassAuth)
		s.Require().NoError(err)
		s.True(other.Allowed)

		sameUserOtherClass, err := s.service.Allow(ctx, "user-e", models.ClassGeneral)
		s.Require().NoError(err)
		s.True(sameUserOtherClass.Allowed)
	})
}

// =============================================================================
// Trusted Bypass Tests
// =============================================================================

func (s *RateLimitServiceSuite) TestTrustedBypass() {
	ctx := context.Background()

	s.Run("loopback callers are never limited", func() {
		for i := 0; i < 20; i++ {
			result, err := s.service.Allow(ctx, "127.0.0.1", models.ClassAuth)
			s.Require().NoError(err)
			s.True(result.Allowed)
			s.Equal(result.Limit, result.Remaining)
		}
	})

	s.Run("configured CIDR callers bypass limiting", func() {
		cfg := config.DefaultConfig()
		cfg.TrustedCIDRs = []string{"10.1.0.0/16"}
		svc, err := New(s.store, WithConfig(cfg))
		s.Require().NoError(err)

		for i := 0; i < 20; i++ {
			result, err := svc.Allow(ctx, "10.1.4.7", models.ClassAuth)
			s.Require().NoError(err)
			s.True(result.Allowed)
		}
	})

	s.Run("addresses outside trusted networks are limited", func() {
		cfg := config.DefaultConfig()
		cfg.TrustedCIDRs = []string{"10.1.0.0/16"}
		svc, err := New(s.store, WithConfig(cfg))
		s.Require().NoError(err)

		for i := 0; i < 5; i++ {
			_, err := svc.Allow(ctx, "203.0.113.9", models.ClassAuth)
			s.Require().NoError(err)
		}
		result, err := svc.Allow(ctx, "203.0.113.9", models.ClassAuth)
		s.Require().NoError(err)
		s.False(result.Allowed)
	})
}

// =============================================================================
// Refund Tests
// =============================================================================

func (s *RateLimitServiceSuite) TestRefund() {
	ctx := context.Background()

	s.Run("refunded slots do not count against the window", func() {
		// A caller whose every request bounces off payload validation keeps
		// its full quota.
		for i := 0; i < 10; i++ {
			result, err := s.service.Allow(ctx, "submitter-r", models.ClassSubmit)
			s.Require().NoError(err)
			s.Require().True(result.Allowed)
			s.Equal(9, result.Remaining)
			s.Require().NoError(s.service.Refund(ctx, "submitter-r", models.ClassSubmit))
		}

		result, err := s.service.Allow(ctx, "submitter-r", models.ClassSubmit)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(9, result.Remaining)
	})

	s.Run("refund for a trusted caller is a no-op", func() {
		s.Require().NoError(s.service.Refund(ctx, "127.0.0.1", models.ClassSubmit))
	})
}

// =============================================================================
// Auth Skip-On-Success Tests
// =============================================================================

func (s *RateLimitServiceSuite) TestRecordAuthSuccess() {
	ctx := context.Background()

	s.Run("successful auth clears the counter", func() {
		for i := 0; i < 4; i++ {
			_, err := s.service.Allow(ctx, "user-g", models.ClassAuth)
			s.Require().NoError(err)
		}
		s.Require().NoError(s.service.RecordAuthSuccess(ctx, "user-g"))

		for i := 0; i < 5; i++ {
			result, err := s.service.Allow(ctx, "user-g", models.ClassAuth)
			s.Require().NoError(err)
			s.True(result.Allowed)
		}
	})

	s.Run("disabled policy leaves the counter intact", func() {
		cfg := config.DefaultConfig()
		cfg.SkipAuthOnSuccess = false
		svc, err := New(s.store, WithConfig(cfg))
		s.Require().NoError(err)

		for i := 0; i < 5; i++ {
			_, err := svc.Allow(ctx, "user-h", models.ClassAuth)
			s.Require().NoError(err)
		}
		s.Require().NoError(svc.RecordAuthSuccess(ctx, "user-h"))

		result, err := svc.Allow(ctx, "user-h", models.ClassAuth)
		s.Require().NoError(err)
		s.False(result.Allowed)
	})
}

// =============================================================================
// Violation Audit Tests
// =============================================================================

type capturingAuditor struct {
	mu         sync.Mutex
	violations []models.Violation
}

func (a *capturingAuditor) RecordViolation(_ context.Context, v models.Violation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.violations = append(a.violations, v)
}

func (s *RateLimitServiceSuite) TestViolationAudit() {
	ctx := context.Background()
	auditor := &capturingAuditor{}
	svc, err := New(s.store, WithAuditor(auditor))
	s.Require().NoError(err)

	s.Run("rejection emits one anonymized violation", func() {
		for i := 0; i < 5; i++ {
			_, err := svc.Allow(ctx, "198.51.100.23", models.ClassAuth)
			s.Require().NoError(err)
		}
		result, err := svc.Allow(ctx, "198.51.100.23", models.ClassAuth)
		s.Require().NoError(err)
		s.Require().False(result.Allowed)

		s.Require().Len(auditor.violations, 1)
		v := auditor.violations[0]
		s.Equal("198.51.100.0/24", v.Identifier)
		s.Equal(models.ClassAuth, v.RouteClass)
		s.Equal(5, v.Limit)
	})
}
