package repository

import (
	"context"
	"errors"

	"colloquy/internal/models"

	"gorm.io/gorm"
)

// ReactionRepository defines interface for reaction toggle operations
type ReactionRepository interface {
	// Toggle flips the (comment, user, type) reaction: created when absent,
	// physically removed when present. Returns whether it is active afterwards.
	Toggle(ctx context.Context, commentID, userID uint, reactionType string) (bool, error)
	Count(ctx context.Context, commentID uint, reactionType string) (int, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new ReactionRepository
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Toggle(ctx context.Context, commentID, userID uint, reactionType string) (bool, error) {
	var active bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Reaction
		err := tx.Where("comment_id = ? AND user_id = ? AND type = ?", commentID, userID, reactionType).
			First(&existing).Error
		switch {
		case err == nil:
			active = false
			return tx.Unscoped().Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			active = true
			return tx.Create(&models.Reaction{
				CommentID: commentID,
				UserID:    userID,
				Type:      reactionType,
			}).Error
		default:
			return err
		}
	})
	return active, err
}

func (r *reactionRepository) Count(ctx context.Context, commentID uint, reactionType string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reaction{}).
		Where("comment_id = ? AND type = ?", commentID, reactionType).
		Count(&count).Error
	return int(count), err
}
