// Package moderation classifies incoming comment content for the lifecycle
// engine. Classification is pure: it returns a status, reason, and confidence
// and leaves persistence to the coordinator.
package moderation

import (
	"log/slog"
	"strings"
	"time"

	"colloquy/internal/config"
	"colloquy/internal/models"
)

// Result is the outcome of classifying one submission.
type Result struct {
	Status     string  `json:"status"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// Engine applies the moderation decision ladder. Construct one per process
// with NewEngine; it is safe for concurrent use (all state is read-only after
// construction).
type Engine struct {
	cfg       *config.Config
	keywords  []string
	profanity []string
	now       func() time.Time
	logger    *slog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithSpamKeywords replaces the built-in spam keyword table.
func WithSpamKeywords(words []string) Option {
	return func(e *Engine) { e.keywords = words }
}

// WithProfanityList replaces the built-in profanity table.
func WithProfanityList(words []string) Option {
	return func(e *Engine) { e.profanity = words }
}

// WithClock overrides the engine's clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns a moderation engine using thresholds from cfg.
func NewEngine(cfg *config.Config, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		keywords:  defaultSpamKeywords,
		profanity: defaultProfanity,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Classify runs the decision ladder, first match wins:
//
//  1. blocked submitter            -> rejected
//  2. trusted submitter            -> auto_approved
//  3. spam score over threshold    -> flagged
//  4. profanity over threshold     -> pending
//  5. link from low-trust source   -> pending
//  6. guest or new user            -> pending
//  7. verified, reputable user     -> auto_approved
//  8. default                      -> pending
//
// Classify never panics past this boundary: any internal failure degrades to
// pending (errors must never auto-approve).
func (e *Engine) Classify(content string, profile *models.TrustProfile, isGuest bool) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("moderation analysis panicked, failing closed", "panic", r)
			result = Result{
				Status:     models.StatusPending,
				Reason:     "analysis error, held for review",
				Confidence: 0.5,
			}
		}
	}()

	now := e.now()

	// 1. Blocked submitters are rejected outright.
	if profile.Blocked(now) {
		return Result{Status: models.StatusRejected, Reason: "submitter is blocked", Confidence: 1.0}
	}

	// 2. Trusted users skip content analysis.
	if !isGuest && e.trusted(profile, now) {
		return Result{Status: models.StatusAutoApproved, Reason: "trusted user", Confidence: 0.95}
	}

	reputation := 0
	if profile != nil {
		reputation = profile.Reputation
	}

	// 3. Spam analysis.
	if score := e.spamScore(content, reputation); score > e.cfg.SpamFlagThreshold {
		return Result{Status: models.StatusFlagged, Reason: "content matched spam signals", Confidence: score}
	}

	// 4. Profanity.
	if score := e.profanityScore(content); score > e.cfg.ProfanityThreshold {
		return Result{Status: models.StatusPending, Reason: "content matched profanity filter", Confidence: score}
	}

	// 5. Links from guests or low-reputation users require review.
	if containsLink(content) && (isGuest || reputation < e.cfg.LinkReviewReputation) {
		return Result{Status: models.StatusPending, Reason: "links require review", Confidence: 0.7}
	}

	// 6. Guests and new users always land in the review queue.
	if isGuest || e.newUser(profile, now) {
		return Result{Status: models.StatusPending, Reason: "new or guest submitter", Confidence: 0.7}
	}

	// 7. Established, verified users are approved automatically.
	if profile != nil && profile.EmailVerified && reputation >= e.cfg.VerifiedReputation {
		return Result{Status: models.StatusAutoApproved, Reason: "verified user in good standing", Confidence: 0.9}
	}

	// 8. Fail safe: unmatched content is never auto-approved.
	return Result{Status: models.StatusPending, Reason: "default review", Confidence: 0.6}
}

// trusted implements the trusted-user gate: reputation, approval history,
// volume, and no recent flags.
func (e *Engine) trusted(p *models.TrustProfile, now time.Time) bool {
	if p == nil {
		return false
	}
	return p.Reputation >= e.cfg.TrustedReputation &&
		p.ApprovalRate() >= 0.9 &&
		p.CommentCount >= e.cfg.TrustedCommentVolume &&
		!p.FlaggedWithin(30*24*time.Hour, now)
}

func (e *Engine) newUser(p *models.TrustProfile, now time.Time) bool {
	if p == nil {
		return true
	}
	maxAge := time.Duration(e.cfg.NewUserAgeDays) * 24 * time.Hour
	return p.AccountAge < maxAge || p.CommentCount < e.cfg.NewUserCommentFloor
}

// spamScore combines weighted spam signals into a 0..1 confidence.
// Keyword hits weigh 0.3 each, pattern hits (repeated runs, caps, digit
// blocks) 0.4 each, plus length penalties and a bare-link penalty for
// low-reputation submitters.
func (e *Engine) spamScore(content string, reputation int) float64 {
	lowered := strings.ToLower(content)
	var score float64

	for _, kw := range e.keywords {
		if strings.Contains(lowered, kw) {
			score += 0.3
		}
	}

	if repeatedRunRe.MatchString(content) {
		score += 0.4
	}
	if excessiveCaps(content) {
		score += 0.4
	}
	if digitHeavyRe.MatchString(content) {
		score += 0.4
	}

	switch n := len(strings.TrimSpace(content)); {
	case n < 10:
		score += 0.2
	case n > 2000:
		score += 0.2
	}

	if containsLink(content) && reputation < e.cfg.LinkReviewReputation {
		score += 0.4
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// profanityScore is the share of words matching the profanity table,
// normalized to 0..1 with a boost so that even a single hit in a short
// comment crosses typical thresholds.
func (e *Engine) profanityScore(content string) float64 {
	words := wordRe.FindAllString(strings.ToLower(content), -1)
	if len(words) == 0 {
		return 0
	}

	hits := 0
	for _, w := range words {
		for _, p := range e.profanity {
			if w == p {
				hits++
				break
			}
		}
	}
	if hits == 0 {
		return 0
	}

	score := float64(hits) * 4.0 / float64(len(words))
	if score > 1.0 {
		score = 1.0
	}
	return score
}
