package models

import (
	"time"
)

// Reaction types accepted by the toggle endpoint.
const (
	ReactionLike     = "like"
	ReactionLove     = "love"
	ReactionLaugh    = "laugh"
	ReactionInsight  = "insight"
	ReactionBookmark = "bookmark"
)

// ValidReactionType reports whether t is one of the accepted reaction types.
func ValidReactionType(t string) bool {
	switch t {
	case ReactionLike, ReactionLove, ReactionLaugh, ReactionInsight, ReactionBookmark:
		return true
	}
	return false
}

// Reaction is a (comment, user, type) tuple, unique per that triple.
// Created on toggle-on and physically removed on toggle-off; there is no
// soft-deleted reaction state.
type Reaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_user_type" json:"comment_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_user_type" json:"user_id"`
	Type      string    `gorm:"not null;uniqueIndex:idx_comment_user_type" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
