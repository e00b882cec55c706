package repository

import (
	"context"
	"errors"
	"time"

	"colloquy/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines interface for user and trust-profile operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	TrustProfile(ctx context.Context, id uint) (*models.TrustProfile, error)
	FindMentionCandidates(ctx context.Context, tokens []string) ([]models.User, error)
	BumpCommentCounters(ctx context.Context, id uint, approved bool) error
	MarkFlagged(ctx context.Context, id uint, at time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", username)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", email)
		}
		return nil, err
	}
	return &user, nil
}

// TrustProfile assembles the derived moderation/rate-limit view from a single
// user row. This is the only place the typed profile is constructed.
func (r *userRepository) TrustProfile(ctx context.Context, id uint) (*models.TrustProfile, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.TrustProfile{
		UserID:         user.ID,
		Reputation:     user.Reputation,
		MembershipTier: user.MembershipTier,
		EmailVerified:  user.EmailVerified,
		AccountAge:     time.Since(user.CreatedAt),
		CommentCount:   user.CommentCount,
		ApprovedCount:  user.ApprovedCount,
		LastFlaggedAt:  user.LastFlaggedAt,
		BlockedUntil:   user.BlockedUntil,
		BlockedForever: user.BlockedForever,
	}, nil
}

// FindMentionCandidates returns users whose normalized display name
// (lowercased, whitespace stripped) matches one of the tokens.
func (r *userRepository) FindMentionCandidates(ctx context.Context, tokens []string) ([]models.User, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(REPLACE(display_name, ' ', '')) IN ?", tokens).
		Find(&users).Error
	return users, err
}

// BumpCommentCounters increments the denormalized totals that feed the trust
// profile's approval rate.
func (r *userRepository) BumpCommentCounters(ctx context.Context, id uint, approved bool) error {
	updates := map[string]interface{}{
		"comment_count": gorm.Expr("comment_count + 1"),
	}
	if approved {
		updates["approved_count"] = gorm.Expr("approved_count + 1")
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(updates).Error
}

func (r *userRepository) MarkFlagged(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_flagged_at", at).Error
}
