package service

import (
	"context"

	"colloquy/internal/models"
	"colloquy/internal/repository"
)

// NotificationService exposes a user's persisted notification feed.
type NotificationService struct {
	notifications repository.NotificationRepository
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: repo}
}

// List returns the recipient's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, recipientID uint, limit, offset int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	out, err := s.notifications.ListByRecipient(ctx, recipientID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// MarkRead marks one of the recipient's notifications as read. Marking a
// notification that is not theirs is a silent no-op.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID uint) error {
	if err := s.notifications.MarkRead(ctx, id, recipientID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
