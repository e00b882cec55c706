package models

import "time"

// Notification kinds.
const (
	NotificationMention = "mention"
	NotificationReply   = "reply"
)

// Notification is a persisted notification record. Real-time delivery is a
// separate concern: the dispatcher additionally publishes the record to the
// recipient's Redis channel, and whatever consumes that channel is outside
// this service.
type Notification struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	RecipientID uint       `gorm:"not null;index" json:"recipient_id"`
	ActorID     *uint      `json:"actor_id,omitempty"`
	ActorName   string     `json:"actor_name"`
	Kind        string     `gorm:"not null" json:"kind"`
	CommentID   uint       `gorm:"not null" json:"comment_id"`
	ArticleID   uint       `gorm:"not null" json:"article_id"`
	Excerpt     string     `json:"excerpt"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
