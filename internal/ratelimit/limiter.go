// Package ratelimit implements the tiered sliding-window rate limiter for
// write actions. A fast in-process window bounds abuse immediately; a durable
// Redis-backed log guards against multi-process bypass.
package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"colloquy/internal/cache"
	"colloquy/internal/config"
	"colloquy/internal/middleware"
)

// Action types subject to rate limiting.
const (
	ActionComment  = "comment"
	ActionReaction = "reaction"
	ActionLike     = "like"
	ActionReport   = "report"
	ActionBookmark = "bookmark"
)

// Decision is the outcome of an Admit call.
type Decision struct {
	Allowed    bool
	Blocked    bool // rejection came from the blocked-user short circuit, not a quota
	RetryAfter int  // seconds until a retry may succeed, 0 when allowed
	Remaining  int  // quota remaining in the current window
}

// Quotas maps tier -> action -> admitted events per window.
type Quotas map[string]map[string]int

// DefaultQuotas returns the per-minute quota table. These are illustrative
// defaults; override with WithQuotas when operating at different scale.
func DefaultQuotas() Quotas {
	return Quotas{
		"free": {
			ActionComment:  5,
			ActionReaction: 30,
			ActionLike:     30,
			ActionReport:   3,
			ActionBookmark: 20,
		},
		"premium": {
			ActionComment:  15,
			ActionReaction: 60,
			ActionLike:     60,
			ActionReport:   10,
			ActionBookmark: 40,
		},
		"admin": {
			ActionComment:  100,
			ActionReaction: 300,
			ActionLike:     300,
			ActionReport:   100,
			ActionBookmark: 200,
		},
	}
}

// Standing is the resolver's view of a subject: its quota tier and whether it
// is blocked outright.
type Standing struct {
	Tier    string
	Blocked bool
}

// Resolver resolves a subject key ("user:42", "guest:1.2.3.4") to its
// standing. Resolution results are cached for a bounded TTL.
type Resolver func(ctx context.Context, subject string) (Standing, error)

// Store is the durable append-only rate-limit log.
type Store interface {
	// CountSince returns the number of events recorded for key at or after from.
	CountSince(ctx context.Context, key string, from time.Time) (int, error)
	// Append records an admitted event for key at ts.
	Append(ctx context.Context, key string, ts time.Time) error
}

// Limiter admits or rejects actions per (subject, action) against tier quotas.
// Safe for concurrent use. Construct with NewLimiter; there is no package
// level instance.
type Limiter struct {
	cfg     *config.Config
	quotas  Quotas
	resolve Resolver
	store   Store
	logger  *slog.Logger

	tiers *cache.TTL[string, Standing]

	mu      sync.Mutex
	windows map[string][]time.Time // key: action + ":" + subject

	now func() time.Time
}

// LimiterOption customizes a Limiter.
type LimiterOption func(*Limiter)

// WithQuotas replaces the default quota table.
func WithQuotas(q Quotas) LimiterOption {
	return func(l *Limiter) { l.quotas = q }
}

// WithClock overrides the limiter's clock, for tests.
func WithClock(now func() time.Time) LimiterOption {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter builds a Limiter. store may be nil, in which case only the
// in-process window is enforced (single-process deployments, tests).
func NewLimiter(cfg *config.Config, resolve Resolver, store Store, logger *slog.Logger, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		cfg:     cfg,
		quotas:  DefaultQuotas(),
		resolve: resolve,
		store:   store,
		logger:  logger,
		tiers:   cache.NewTTL[string, Standing](cfg.TierCacheTTL()),
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit decides whether subject may perform action now.
//
// Order: blocked-user short circuit, fast in-process window (which reserves
// the slot atomically), durable verification, then the admitted event is
// appended to the durable log. Tier resolution failure degrades to the most
// restrictive tier (free) rather than failing open; durable store failure
// fails open since the fast window already bounds abuse.
func (l *Limiter) Admit(ctx context.Context, subject, action string) Decision {
	standing := l.standing(ctx, subject)
	if standing.Blocked {
		middleware.RateLimitRejections.WithLabelValues(action, "blocked").Inc()
		return Decision{Allowed: false, Blocked: true, RetryAfter: l.cfg.BlockedRetryAfterSeconds}
	}

	quota := l.quota(standing.Tier, action)
	window := l.cfg.RateWindow()
	now := l.now()
	key := action + ":" + subject

	// Layer 1: fast in-process window. The slot is reserved before the mutex
	// is released; concurrent callers past the quota see the reservations and
	// reject instead of all passing the check while none has recorded yet.
	l.mu.Lock()
	recent := pruneWindow(l.windows[key], now.Add(-window))
	if len(recent) >= quota {
		retry := retryAfter(recent[0], window, now)
		l.windows[key] = recent
		l.mu.Unlock()
		middleware.RateLimitRejections.WithLabelValues(action, "fast").Inc()
		return Decision{Allowed: false, RetryAfter: retry}
	}
	recent = append(recent, now)
	l.windows[key] = recent
	used := len(recent)
	l.mu.Unlock()

	// Layer 2: durable verification across processes. Disagreement rejects
	// and returns the reserved slot; store failure admits (fail open) because
	// layer 1 already bounds abuse.
	if l.store != nil {
		count, err := l.store.CountSince(ctx, key, now.Add(-window))
		if err != nil {
			l.logger.Warn("rate limit durable check failed, admitting",
				"subject", subject, "action", action, "error", err)
		} else if count >= quota {
			l.release(key, now)
			middleware.RateLimitRejections.WithLabelValues(action, "durable").Inc()
			return Decision{Allowed: false, RetryAfter: int(window.Seconds())}
		}

		if err := l.store.Append(ctx, key, now); err != nil {
			l.logger.Warn("rate limit durable append failed",
				"subject", subject, "action", action, "error", err)
		}
	}

	remaining := quota - used
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Remaining: remaining}
}

// standing returns the cached standing for subject, resolving and caching on
// miss. Resolution failure maps to the free tier, unblocked.
func (l *Limiter) standing(ctx context.Context, subject string) Standing {
	if s, ok := l.tiers.Get(subject); ok {
		return s
	}

	s, err := l.resolve(ctx, subject)
	if err != nil {
		l.logger.Warn("tier resolution failed, defaulting to free tier",
			"subject", subject, "error", err)
		return Standing{Tier: "free"}
	}

	l.tiers.Set(subject, s)
	return s
}

func (l *Limiter) quota(tier, action string) int {
	if byAction, ok := l.quotas[tier]; ok {
		if q, ok := byAction[action]; ok && q > 0 {
			return q
		}
	}
	// Unknown tier or action falls back to the free-tier comment quota.
	if q, ok := l.quotas["free"][action]; ok && q > 0 {
		return q
	}
	return 5
}

// release removes one reserved timestamp for key, newest first. Called when
// the durable layer overrules an in-process reservation.
func (l *Limiter) release(key string, ts time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.windows[key]
	for i := len(w) - 1; i >= 0; i-- {
		if w[i].Equal(ts) {
			l.windows[key] = append(w[:i], w[i+1:]...)
			return
		}
	}
}

// Invalidate drops the cached standing for subject, e.g. after an admin
// changes a user's tier or block state.
func (l *Limiter) Invalidate(subject string) {
	l.tiers.Delete(subject)
}

// pruneWindow drops timestamps before cutoff, keeping order.
func pruneWindow(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && ts[i].Before(cutoff) {
		i++
	}
	return ts[i:]
}

// retryAfter is the whole number of seconds until the oldest event in the
// window exits it, at least 1.
func retryAfter(oldest time.Time, window time.Duration, now time.Time) int {
	secs := int(math.Ceil(oldest.Add(window).Sub(now).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
