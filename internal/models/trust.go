package models

import "time"

// TrustProfile is the derived, read-only view of a user's standing that
// drives moderation classification and rate-limit tier resolution. It is
// assembled once at the repository boundary; a nil *TrustProfile means the
// submitter is a guest.
type TrustProfile struct {
	UserID         uint
	Reputation     int
	MembershipTier string
	EmailVerified  bool
	AccountAge     time.Duration
	CommentCount   int
	ApprovedCount  int
	LastFlaggedAt  *time.Time
	BlockedUntil   *time.Time
	BlockedForever bool
}

// Blocked reports whether the profile is under a permanent or unexpired
// temporary block at the given instant.
func (p *TrustProfile) Blocked(now time.Time) bool {
	if p == nil {
		return false
	}
	if p.BlockedForever {
		return true
	}
	return p.BlockedUntil != nil && p.BlockedUntil.After(now)
}

// ApprovalRate returns the historical share of this user's comments that were
// approved. A user with no history has a rate of 0.
func (p *TrustProfile) ApprovalRate() float64 {
	if p == nil || p.CommentCount == 0 {
		return 0
	}
	return float64(p.ApprovedCount) / float64(p.CommentCount)
}

// FlaggedWithin reports whether the user had content flagged inside the
// trailing window ending at now.
func (p *TrustProfile) FlaggedWithin(window time.Duration, now time.Time) bool {
	if p == nil || p.LastFlaggedAt == nil {
		return false
	}
	return now.Sub(*p.LastFlaggedAt) < window
}

// Tier returns the membership tier, defaulting to free for guests and for
// profiles with an unknown tier. Rate limiting must never resolve to a more
// permissive tier than the profile supports.
func (p *TrustProfile) Tier() string {
	if p == nil {
		return TierFree
	}
	switch p.MembershipTier {
	case TierPremium, TierAdmin:
		return p.MembershipTier
	}
	return TierFree
}
