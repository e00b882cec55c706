package models

import (
	"time"

	"gorm.io/gorm"
)

// Moderation statuses. A comment is visible to non-owners only when approved
// or auto-approved.
const (
	StatusAutoApproved = "auto_approved"
	StatusApproved     = "approved"
	StatusPending      = "pending"
	StatusFlagged      = "flagged"
	StatusRejected     = "rejected"
)

// Comment represents a single post in an article's discussion thread.
// Guest comments carry GuestName/GuestEmail instead of an AuthorID.
type Comment struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ArticleID    uint       `gorm:"not null;index:idx_comment_article" json:"article_id"`
	AuthorID     *uint      `gorm:"index" json:"author_id,omitempty"`
	GuestName    string     `json:"guest_name,omitempty"`
	GuestEmail   string     `json:"-"`
	GuestToken   string     `gorm:"index" json:"-"` // uuid identifying a guest submission for edit/delete
	ParentID     *uint      `gorm:"index:idx_comment_parent" json:"parent_id,omitempty"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	Depth        int        `gorm:"not null;default:0" json:"depth"`
	Status       string     `gorm:"not null;default:pending;index" json:"status"`
	LikeCount    int        `gorm:"not null;default:0" json:"like_count"`
	ReplyCount   int        `gorm:"not null;default:0" json:"reply_count"`
	Edited       bool       `gorm:"not null;default:false" json:"edited"`
	Deleted      bool       `gorm:"not null;default:false" json:"deleted"`
	DeletedBy    *uint      `json:"deleted_by,omitempty"`
	DeletedOn    *time.Time `json:"deleted_on,omitempty"`
	Pinned       bool       `gorm:"not null;default:false" json:"pinned"`
	QualityScore int        `gorm:"not null;default:0" json:"quality_score"`
	MentionIDs   IDList     `gorm:"type:text" json:"mention_ids,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// Visible reports whether the comment should be shown to readers other than
// its owner. Soft-deleted comments stay in the thread as tombstones, so
// deletion does not affect visibility here.
func (c *Comment) Visible() bool {
	return c.Status == StatusApproved || c.Status == StatusAutoApproved
}

// Tombstone returns a copy with content and author identity stripped for
// display after a soft delete. Metadata (id, parent, timestamps) is retained
// so replies keep their anchor.
func (c *Comment) Tombstone() Comment {
	out := *c
	out.Content = "[deleted]"
	out.GuestName = ""
	out.GuestEmail = ""
	out.Author = nil
	out.MentionIDs = nil
	return out
}

// CommentNode wraps a comment with its ordered replies for threaded listing.
type CommentNode struct {
	Comment
	Replies []*CommentNode `json:"replies"`
}
