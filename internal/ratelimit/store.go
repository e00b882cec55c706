package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// storeTimeout bounds every durable-log round trip so a slow Redis cannot
// stall a write request; callers apply the fail-open policy on error.
const storeTimeout = 500 * time.Millisecond

// RedisStore keeps the durable rate-limit log in Redis sorted sets, one per
// (action, subject) key. Members are unique event IDs scored by the event's
// unix-nano timestamp, which makes the windowed count a trim plus a
// cardinality read.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	window time.Duration
}

// NewRedisStore returns a RedisStore. window is used to expire idle keys.
func NewRedisStore(rdb *redis.Client, window time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "rl:", window: window}
}

// CountSince trims events older than from and returns how many remain.
func (s *RedisStore) CountSince(ctx context.Context, key string, from time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	rkey := s.prefix + key
	pipe := s.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, rkey, "-inf", "("+strconv.FormatInt(from.UnixNano(), 10))
	card := pipe.ZCard(ctx, rkey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(card.Val()), nil
}

// Append records one admitted event and refreshes the key's expiry.
func (s *RedisStore) Append(ctx context.Context, key string, ts time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	rkey := s.prefix + key
	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, rkey, redis.Z{
		Score:  float64(ts.UnixNano()),
		Member: uuid.NewString(),
	})
	// Idle keys disappear after two windows; active keys keep refreshing.
	pipe.Expire(ctx, rkey, 2*s.window)
	_, err := pipe.Exec(ctx)
	return err
}
