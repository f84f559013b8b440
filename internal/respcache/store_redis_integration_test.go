//go:build integration

package respcache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"factgate/internal/respcache"
	"factgate/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *respcache.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = respcache.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestSetGetRoundTrip() {
	ctx := context.Background()

	value, ok, err := s.store.Get(ctx, "rc:missing")
	s.Require().NoError(err)
	s.False(ok)
	s.Nil(value)

	s.Require().NoError(s.store.Set(ctx, "rc:claims/abc:k", []byte(`{"v":1}`), time.Minute))

	value, ok, err = s.store.Get(ctx, "rc:claims/abc:k")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal([]byte(`{"v":1}`), value)
}

func (s *RedisStoreSuite) TestTTLExpiry() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "rc:short", []byte("v"), time.Second))
	time.Sleep(1100 * time.Millisecond)

	_, ok, err := s.store.Get(ctx, "rc:short")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisStoreSuite) TestDeletePattern() {
	ctx := context.Background()

	keys := []string{"rc:claims/abc:1", "rc:claims/abc:2", "rc:claims/def:1"}
	for _, key := range keys {
		s.Require().NoError(s.store.Set(ctx, key, []byte("v"), time.Minute))
	}

	s.Require().NoError(s.store.DeletePattern(ctx, "rc:claims/abc*"))

	for _, key := range keys[:2] {
		_, ok, err := s.store.Get(ctx, key)
		s.Require().NoError(err)
		s.False(ok)
	}
	_, ok, err := s.store.Get(ctx, "rc:claims/def:1")
	s.Require().NoError(err)
	s.True(ok)
}
