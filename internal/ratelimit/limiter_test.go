package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"colloquy/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limiterConfig() *config.Config {
	return &config.Config{
		RateWindowSeconds:        60,
		TierCacheTTLSeconds:      300,
		BlockedRetryAfterSeconds: 3600,
	}
}

func freeResolver(_ context.Context, _ string) (Standing, error) {
	return Standing{Tier: "free"}, nil
}

func newTestLimiter(resolve Resolver, store Store, opts ...LimiterOption) *Limiter {
	return NewLimiter(limiterConfig(), resolve, store, slog.Default(), opts...)
}

func TestAdmit_FastWindowEnforcesQuota(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	l := newTestLimiter(freeResolver, nil, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	// Free tier allows 5 comments per window.
	for i := 0; i < 5; i++ {
		d := l.Admit(ctx, "user:1", ActionComment)
		require.True(t, d.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 4-i, d.Remaining)
	}

	d := l.Admit(ctx, "user:1", ActionComment)
	assert.False(t, d.Allowed)
	assert.False(t, d.Blocked)
	assert.Greater(t, d.RetryAfter, 0)
	assert.LessOrEqual(t, d.RetryAfter, 60)
}

func TestAdmit_WindowSlides(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	l := newTestLimiter(freeResolver, nil, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.True(t, l.Admit(ctx, "user:1", ActionComment).Allowed)
	}
	require.False(t, l.Admit(ctx, "user:1", ActionComment).Allowed)

	// Once the oldest event leaves the window, capacity returns.
	now = now.Add(61 * time.Second)
	assert.True(t, l.Admit(ctx, "user:1", ActionComment).Allowed)
}

func TestAdmit_SubjectsAndActionsIsolated(t *testing.T) {
	t.Parallel()

	l := newTestLimiter(freeResolver, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.True(t, l.Admit(ctx, "user:1", ActionComment).Allowed)
	}
	require.False(t, l.Admit(ctx, "user:1", ActionComment).Allowed)

	assert.True(t, l.Admit(ctx, "user:2", ActionComment).Allowed, "other subjects keep their own quota")
	assert.True(t, l.Admit(ctx, "user:1", ActionLike).Allowed, "other actions keep their own quota")
}

func TestAdmit_TierQuotasDiffer(t *testing.T) {
	t.Parallel()

	resolve := func(_ context.Context, subject string) (Standing, error) {
		if subject == "user:premium" {
			return Standing{Tier: "premium"}, nil
		}
		return Standing{Tier: "free"}, nil
	}
	l := newTestLimiter(resolve, nil)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		require.True(t, l.Admit(ctx, "user:premium", ActionComment).Allowed, "premium request %d", i+1)
	}
	assert.False(t, l.Admit(ctx, "user:premium", ActionComment).Allowed)
}

func TestAdmit_BlockedShortCircuit(t *testing.T) {
	t.Parallel()

	resolve := func(_ context.Context, _ string) (Standing, error) {
		return Standing{Tier: "free", Blocked: true}, nil
	}
	l := newTestLimiter(resolve, nil)

	d := l.Admit(context.Background(), "user:9", ActionComment)
	assert.False(t, d.Allowed)
	assert.True(t, d.Blocked)
	assert.Equal(t, 3600, d.RetryAfter)
}

func TestAdmit_ResolverErrorDefaultsToFreeTier(t *testing.T) {
	t.Parallel()

	resolve := func(_ context.Context, _ string) (Standing, error) {
		return Standing{}, errors.New("db down")
	}
	l := newTestLimiter(resolve, nil)
	ctx := context.Background()

	// Still admitted, but only at the free-tier quota.
	for i := 0; i < 5; i++ {
		require.True(t, l.Admit(ctx, "user:1", ActionComment).Allowed)
	}
	assert.False(t, l.Admit(ctx, "user:1", ActionComment).Allowed)
}

func TestAdmit_StandingCachedAndInvalidated(t *testing.T) {
	t.Parallel()

	calls := 0
	resolve := func(_ context.Context, _ string) (Standing, error) {
		calls++
		return Standing{Tier: "free"}, nil
	}
	l := newTestLimiter(resolve, nil)
	ctx := context.Background()

	l.Admit(ctx, "user:1", ActionComment)
	l.Admit(ctx, "user:1", ActionComment)
	assert.Equal(t, 1, calls, "second admit should hit the tier cache")

	l.Invalidate("user:1")
	l.Admit(ctx, "user:1", ActionComment)
	assert.Equal(t, 2, calls)
}

// laggyStore is a correct durable log with artificial round-trip latency, so
// many goroutines sit inside the durable verification at once.
type laggyStore struct {
	delay time.Duration

	mu     sync.Mutex
	events map[string][]time.Time
}

func (s *laggyStore) CountSince(_ context.Context, key string, from time.Time) (int, error) {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, ts := range s.events[key] {
		if !ts.Before(from) {
			count++
		}
	}
	return count, nil
}

func (s *laggyStore) Append(_ context.Context, key string, ts time.Time) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.events == nil {
		s.events = make(map[string][]time.Time)
	}
	s.events[key] = append(s.events[key], ts)
	return nil
}

func TestAdmit_ConcurrentCallsCannotExceedQuota(t *testing.T) {
	t.Parallel()

	l := newTestLimiter(freeResolver, &laggyStore{delay: 2 * time.Millisecond})
	ctx := context.Background()

	var wg sync.WaitGroup
	var allowed atomic.Int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Admit(ctx, "user:1", ActionComment).Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	// Free tier allows 5 comments per window, no matter how many requests
	// arrive simultaneously.
	assert.EqualValues(t, 5, allowed.Load())
}

func TestAdmit_DurableRejectionReturnsReservedSlot(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, time.Minute)
	ctx := context.Background()

	// Another process burned the quota; every local attempt is overruled by
	// the durable log.
	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, ActionComment+":user:1", now))
	}

	l := newTestLimiter(freeResolver, store)
	for i := 0; i < 5; i++ {
		require.False(t, l.Admit(ctx, "user:1", ActionComment).Allowed)
	}

	// Once the durable log clears, the local window must have capacity again:
	// overruled attempts may not leave reservations behind.
	mr.FlushAll()
	assert.True(t, l.Admit(ctx, "user:1", ActionComment).Allowed)
}

func TestAdmit_DurableLayerCatchesOtherProcesses(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, time.Minute)
	ctx := context.Background()

	// Another process already burned the whole quota.
	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, ActionComment+":user:1", now))
	}

	l := newTestLimiter(freeResolver, store)
	d := l.Admit(ctx, "user:1", ActionComment)
	assert.False(t, d.Allowed, "durable log must reject even though the local window is empty")
	assert.Greater(t, d.RetryAfter, 0)
}

func TestAdmit_DurableStoreFailureFailsOpen(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, time.Minute)
	mr.Close()

	l := newTestLimiter(freeResolver, store)
	d := l.Admit(context.Background(), "user:1", ActionComment)
	assert.True(t, d.Allowed, "a broken durable store must not take writes down")
}

func TestRedisStore_CountSinceTrimsOldEvents(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, time.Minute)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.Append(ctx, "comment:user:1", now.Add(-2*time.Minute)))
	require.NoError(t, store.Append(ctx, "comment:user:1", now.Add(-30*time.Second)))
	require.NoError(t, store.Append(ctx, "comment:user:1", now))

	count, err := store.CountSince(ctx, "comment:user:1", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestQuota_UnknownTierFallsBack(t *testing.T) {
	t.Parallel()

	l := newTestLimiter(freeResolver, nil)
	assert.Equal(t, 5, l.quota("mystery", ActionComment))
	assert.Equal(t, 5, l.quota("free", "unknown-action"))
}
