package moderation

import (
	"log/slog"
	"testing"
	"time"

	"colloquy/internal/config"
	"colloquy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		TrustedReputation:    100,
		TrustedCommentVolume: 20,
		VerifiedReputation:   25,
		LinkReviewReputation: 50,
		SpamFlagThreshold:    0.6,
		ProfanityThreshold:   0.3,
		NewUserAgeDays:       7,
		NewUserCommentFloor:  5,
	}
}

func testEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append(opts, WithClock(func() time.Time { return fixedNow }))
	return NewEngine(testConfig(), slog.Default(), opts...)
}

// establishedProfile is old enough and active enough to clear the new-user
// gate but not the trusted gate.
func establishedProfile() *models.TrustProfile {
	return &models.TrustProfile{
		UserID:        7,
		Reputation:    30,
		EmailVerified: true,
		AccountAge:    90 * 24 * time.Hour,
		CommentCount:  12,
		ApprovedCount: 10,
	}
}

func TestClassify_BlockedSubmitterRejected(t *testing.T) {
	t.Parallel()
	e := testEngine(t)

	until := fixedNow.Add(time.Hour)
	p := establishedProfile()
	p.BlockedUntil = &until

	res := e.Classify("perfectly fine content", p, false)
	assert.Equal(t, models.StatusRejected, res.Status)
	assert.Equal(t, 1.0, res.Confidence)
}

func TestClassify_ExpiredBlockIsIgnored(t *testing.T) {
	t.Parallel()
	e := testEngine(t)

	until := fixedNow.Add(-time.Hour)
	p := establishedProfile()
	p.BlockedUntil = &until

	res := e.Classify("perfectly fine content", p, false)
	assert.NotEqual(t, models.StatusRejected, res.Status)
}

func TestClassify_TrustedUserSkipsContentAnalysis(t *testing.T) {
	t.Parallel()
	e := testEngine(t)

	p := &models.TrustProfile{
		Reputation:    150,
		CommentCount:  50,
		ApprovedCount: 48,
		AccountAge:    365 * 24 * time.Hour,
		EmailVerified: true,
	}

	// Content that would otherwise be flagged as spam.
	res := e.Classify("buy now at http://spam.example", p, false)
	assert.Equal(t, models.StatusAutoApproved, res.Status)
	assert.Equal(t, 0.95, res.Confidence)
}

func TestClassify_RecentFlagBreaksTrust(t *testing.T) {
	t.Parallel()
	e := testEngine(t)

	flagged := fixedNow.Add(-48 * time.Hour)
	p := &models.TrustProfile{
		Reputation:    150,
		CommentCount:  50,
		ApprovedCount: 48,
		AccountAge:    365 * 24 * time.Hour,
		EmailVerified: true,
		LastFlaggedAt: &flagged,
	}

	// The trusted shortcut no longer applies; approval comes from the later
	// verified-user rule with its lower confidence.
	res := e.Classify("hello there, nice article", p, false)
	assert.Equal(t, models.StatusAutoApproved, res.Status)
	assert.Equal(t, "verified user in good standing", res.Reason)
	assert.Equal(t, 0.9, res.Confidence)
}

func TestClassify_SpamContentFlagged(t *testing.T) {
	t.Parallel()
	e := testEngine(t)

	// Keyword (0.3) plus low-reputation link (0.4) crosses the 0.6 threshold.
	res := e.Classify("buy now at http://deals.example/cheap", establishedProfile(), false)
	assert.Equal(t, models.StatusFlagged, res.Status)
	assert.Greater(t, res.Confidence, 0.6)
}

func TestClassify_ProfanityHeldForReview(t *testing.T) {
	t.Parallel()
	e := testEngine(t)

	res := e.Classify("this damn thing is a crap article honestly", establishedProfile(), false)
	assert.Equal(t, models.StatusPending, res.Status)
	assert.Equal(t, "content matched profanity filter", res.Reason)
}

func TestClassify_LinkFromLowReputationHeld(t *testing.T) {
	t.Parallel()
	e := testEngine(t)

	p := establishedProfile()
	p.Reputation = 40 // below the 50 link-review bar, above verified bar

	res := e.Classify("relevant reading: https://example.org/post", p, false)
	assert.Equal(t, models.StatusPending, res.Status)
	assert.Equal(t, "links require review", res.Reason)
}

func TestClassify_GuestAlwaysHeld(t *testing.T) {
	t.Parallel()
	e := testEngine(t)

	res := e.Classify("nice", nil, true)
	assert.Equal(t, models.StatusPending, res.Status)
}

func TestClassify_NewUserHeld(t *testing.T) {
	t.Parallel()
	e := testEngine(t)

	p := establishedProfile()
	p.AccountAge = 2 * 24 * time.Hour

	res := e.Classify("great write-up, learned a lot", p, false)
	assert.Equal(t, models.StatusPending, res.Status)
	assert.Equal(t, "new or guest submitter", res.Reason)
}

func TestClassify_VerifiedEstablishedUserAutoApproved(t *testing.T) {
	t.Parallel()
	e := testEngine(t)

	res := e.Classify("great write-up, learned a lot from the second section", establishedProfile(), false)
	assert.Equal(t, models.StatusAutoApproved, res.Status)
	assert.Equal(t, 0.9, res.Confidence)
}

func TestClassify_UnverifiedDefaultsToPending(t *testing.T) {
	t.Parallel()
	e := testEngine(t)

	p := establishedProfile()
	p.EmailVerified = false

	res := e.Classify("great write-up, learned a lot from the second section", p, false)
	assert.Equal(t, models.StatusPending, res.Status)
	assert.Equal(t, "default review", res.Reason)
}

func TestClassify_Deterministic(t *testing.T) {
	t.Parallel()
	e := testEngine(t)

	p := establishedProfile()
	first := e.Classify("some borderline content with WWW.EXAMPLE.COM link", p, false)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Classify("some borderline content with WWW.EXAMPLE.COM link", p, false))
	}
}

func TestClassify_PanicFailsClosed(t *testing.T) {
	t.Parallel()

	// A nil clock makes the ladder panic before any rule can match.
	e := NewEngine(testConfig(), slog.Default(), WithClock(nil))

	res := e.Classify("anything", establishedProfile(), false)
	assert.Equal(t, models.StatusPending, res.Status)
	assert.Equal(t, 0.5, res.Confidence)
}

func TestSpamScore_Signals(t *testing.T) {
	t.Parallel()
	e := testEngine(t)

	t.Run("repeated characters", func(t *testing.T) {
		t.Parallel()
		assert.GreaterOrEqual(t, e.spamScore("looooooool what is this", 100), 0.4)
	})

	t.Run("excessive caps", func(t *testing.T) {
		t.Parallel()
		assert.GreaterOrEqual(t, e.spamScore("THIS IS ABSOLUTELY INCREDIBLE NEWS", 100), 0.4)
	})

	t.Run("digit heavy", func(t *testing.T) {
		t.Parallel()
		assert.GreaterOrEqual(t, e.spamScore("call 1800-555-0100 today", 100), 0.4)
	})

	t.Run("clean content scores low", func(t *testing.T) {
		t.Parallel()
		assert.Less(t, e.spamScore("I found the threading section genuinely helpful.", 100), 0.3)
	})

	t.Run("score capped at one", func(t *testing.T) {
		t.Parallel()
		score := e.spamScore("BUY NOW!!!! click here free money http://x.example 1800-555-0100", 0)
		assert.Equal(t, 1.0, score)
	})
}

func TestCustomRuleTables(t *testing.T) {
	t.Parallel()

	e := NewEngine(testConfig(), slog.Default(),
		WithClock(func() time.Time { return fixedNow }),
		WithSpamKeywords([]string{"artisanal nonsense"}),
		WithProfanityList([]string{"frak"}),
	)

	p := establishedProfile()

	res := e.Classify("this frak frak thing", p, false)
	require.Equal(t, models.StatusPending, res.Status)
	assert.Equal(t, "content matched profanity filter", res.Reason)

	// The stock keyword list no longer applies.
	res = e.Classify("buy now buy now buy now", p, false)
	assert.NotEqual(t, models.StatusFlagged, res.Status)
}
