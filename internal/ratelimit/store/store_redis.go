package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore is the production counter store: counts are shared across
// horizontally scaled instances and increments are atomic server-side.
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

// Incr performs INCR + EXPIRE NX + PTTL in one pipelined round trip. The NX
// expiry pins the window to the first request; later increments never extend
// it, which is what makes the window fixed rather than sliding.
func (s *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("increment counter: %w", err)
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}
	return incr.Val(), time.Now().Add(remaining), nil
}

// decrIfExists guards the rollback: a plain DECR racing the key's TTL would
// recreate the counter as -1 with no expiry, granting a free slot next window.
var decrIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return redis.call("DECR", KEYS[1])
end
return 0`)

func (s *RedisCounterStore) Decr(ctx context.Context, key string) error {
	if err := decrIfExists.Run(ctx, s.client, []string{key}).Err(); err != nil {
		return fmt.Errorf("decrement counter: %w", err)
	}
	return nil
}

func (s *RedisCounterStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("reset counter: %w", err)
	}
	return nil
}
