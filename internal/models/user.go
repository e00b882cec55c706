// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Membership tiers drive per-action rate-limit quotas.
const (
	TierFree    = "free"
	TierPremium = "premium"
	TierAdmin   = "admin"
)

// User represents a registered account. Aggregate counters (CommentCount,
// ApprovedCount) are denormalized so the trust profile can be assembled with
// a single row lookup.
type User struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	Username             string         `gorm:"unique;not null" json:"username"`
	DisplayName          string         `gorm:"not null" json:"display_name"`
	Email                string         `gorm:"unique;not null" json:"email"`
	Password             string         `gorm:"not null" json:"-"`
	Role                 string         `gorm:"not null;default:user" json:"role"` // user, moderator, admin
	MembershipTier       string         `gorm:"not null;default:free" json:"membership_tier"`
	EmailVerified        bool           `gorm:"not null;default:false" json:"email_verified"`
	Reputation           int            `gorm:"not null;default:0" json:"reputation"`
	CommentCount         int            `gorm:"not null;default:0" json:"comment_count"`
	ApprovedCount        int            `gorm:"not null;default:0" json:"approved_count"`
	LastFlaggedAt        *time.Time     `json:"last_flagged_at,omitempty"`
	BlockedUntil         *time.Time     `json:"blocked_until,omitempty"`
	BlockedForever       bool           `gorm:"not null;default:false" json:"-"`
	MentionNotifications bool           `gorm:"not null;default:true" json:"mention_notifications"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsModerator reports whether the user holds moderator or admin privileges.
func (u *User) IsModerator() bool {
	return u.Role == "moderator" || u.Role == "admin"
}
