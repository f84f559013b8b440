package respcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// =============================================================================
// Response Cache Test Suite
// =============================================================================

type CacheSuite struct {
	suite.Suite
	store   *MemoryStore
	service *Service
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.service = New(s.store)
}

// =============================================================================
// Key Construction Tests
// =============================================================================

func (s *CacheSuite) TestKey() {
	s.Run("same inputs always produce the same key", func() {
		a := Key("claims/abc", "user-1", []byte(`{"q":1}`))
		b := Key("claims/abc", "user-1", []byte(`{"q":1}`))
		s.Equal(a, b)
	})

	s.Run("different identity scopes produce different keys", func() {
		a := Key("claims/abc", "user-1", nil)
		b := Key("claims/abc", "user-2", nil)
		s.NotEqual(a, b)
	})

	s.Run("different bodies produce different keys", func() {
		a := Key("trending", "", []byte("10"))
		b := Key("trending", "", []byte("20"))
		s.NotEqual(a, b)
	})

	s.Run("keys carry the route for pattern invalidation", func() {
		s.Contains(Key("claims/abc", "", nil), "rc:claims/abc:")
	})
}

// =============================================================================
// Get-Or-Compute Tests
// =============================================================================

func (s *CacheSuite) TestGetOrCompute() {
	ctx := context.Background()

	s.Run("first call computes, second call hits", func() {
		calls := 0
		compute := func(context.Context) ([]byte, error) {
			calls++
			return []byte(`{"ok":true}`), nil
		}

		first, err := s.service.GetOrCompute(ctx, "rc:test:1", time.Minute, compute)
		s.Require().NoError(err)
		s.False(first.Hit)
		s.Equal(1, calls)

		second, err := s.service.GetOrCompute(ctx, "rc:test:1", time.Minute, compute)
		s.Require().NoError(err)
		s.True(second.Hit)
		s.Equal([]byte(`{"ok":true}`), second.Value)
		s.Equal(1, calls)
	})

	s.Run("compute failure caches nothing", func() {
		boom := errors.New("downstream failed")
		_, err := s.service.GetOrCompute(ctx, "rc:test:2", time.Minute, func(context.Context) ([]byte, error) {
			return nil, boom
		})
		s.ErrorIs(err, boom)

		result, err := s.service.GetOrCompute(ctx, "rc:test:2", time.Minute, func(context.Context) ([]byte, error) {
			return []byte("recovered"), nil
		})
		s.Require().NoError(err)
		s.False(result.Hit)
		s.Equal([]byte("recovered"), result.Value)
	})
}

// =============================================================================
// Invalidation Tests
// =============================================================================

func (s *CacheSuite) TestInvalidate() {
	ctx := context.Background()
	compute := func(v string) func(context.Context) ([]byte, error) {
		return func(context.Context) ([]byte, error) { return []byte(v), nil }
	}

	claimKey := Key("claims/abc", "", nil)
	verdictKey := Key("claims/abc/verdict", "", nil)
	otherKey := Key("claims/def", "", nil)

	for key, v := range map[string]string{claimKey: "claim", verdictKey: "verdict", otherKey: "other"} {
		_, err := s.service.GetOrCompute(ctx, key, time.Minute, compute(v))
		s.Require().NoError(err)
	}

	s.Require().NoError(s.service.Invalidate(ctx, "rc:claims/abc*"))

	stale, err := s.service.GetOrCompute(ctx, claimKey, time.Minute, compute("fresh"))
	s.Require().NoError(err)
	s.False(stale.Hit)

	staleVerdict, err := s.service.GetOrCompute(ctx, verdictKey, time.Minute, compute("fresh"))
	s.Require().NoError(err)
	s.False(staleVerdict.Hit)

	untouched, err := s.service.GetOrCompute(ctx, otherKey, time.Minute, compute("fresh"))
	s.Require().NoError(err)
	s.True(untouched.Hit)
	s.Equal([]byte("other"), untouched.Value)
}
