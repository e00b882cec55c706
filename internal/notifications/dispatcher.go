package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"unicode/utf8"

	"colloquy/internal/mentions"
	"colloquy/internal/middleware"
	"colloquy/internal/models"
	"colloquy/internal/repository"
)

const excerptLimit = 120

// Dispatcher persists notification records and fans them out to recipients'
// Redis channels. Persistence is the source of truth; a failed publish is
// logged and swallowed so a Redis outage never fails a comment submission.
type Dispatcher struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	notifier      *Notifier
	logger        *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	notifier *Notifier,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = middleware.Logger
	}
	return &Dispatcher{
		notifications: notificationRepo,
		users:         userRepo,
		notifier:      notifier,
		logger:        logger,
	}
}

// DispatchMentions creates one mention notification per resolved mention,
// honoring each recipient's mention-notification preference.
func (d *Dispatcher) DispatchMentions(
	ctx context.Context, comment *models.Comment, actorName string, resolved []mentions.Resolved,
) {
	for _, m := range resolved {
		recipient, err := d.users.GetByID(ctx, m.UserID)
		if err != nil {
			d.logger.WarnContext(ctx, "mention recipient lookup failed",
				slog.Uint64("user_id", uint64(m.UserID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !recipient.MentionNotifications {
			continue
		}
		d.dispatch(ctx, &models.Notification{
			RecipientID: m.UserID,
			ActorID:     comment.AuthorID,
			ActorName:   actorName,
			Kind:        models.NotificationMention,
			CommentID:   comment.ID,
			ArticleID:   comment.ArticleID,
			Excerpt:     excerpt(comment.Content),
		})
	}
}

// DispatchReply notifies the parent comment's author that someone replied.
// Guest parents and self-replies produce nothing.
func (d *Dispatcher) DispatchReply(
	ctx context.Context, comment *models.Comment, parent *models.Comment, actorName string,
) {
	if parent == nil || parent.AuthorID == nil {
		return
	}
	if comment.AuthorID != nil && *comment.AuthorID == *parent.AuthorID {
		return
	}
	d.dispatch(ctx, &models.Notification{
		RecipientID: *parent.AuthorID,
		ActorID:     comment.AuthorID,
		ActorName:   actorName,
		Kind:        models.NotificationReply,
		CommentID:   comment.ID,
		ArticleID:   comment.ArticleID,
		Excerpt:     excerpt(comment.Content),
	})
}

func (d *Dispatcher) dispatch(ctx context.Context, n *models.Notification) {
	if err := d.notifications.Create(ctx, n); err != nil {
		d.logger.ErrorContext(ctx, "failed to persist notification",
			slog.String("kind", n.Kind),
			slog.Uint64("recipient_id", uint64(n.RecipientID)),
			slog.String("error", err.Error()),
		)
		return
	}
	middleware.NotificationsDispatched.WithLabelValues(n.Kind).Inc()

	if d.notifier == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to marshal notification payload",
			slog.String("error", err.Error()))
		return
	}
	if err := d.notifier.PublishUser(ctx, n.RecipientID, string(payload)); err != nil {
		d.logger.WarnContext(ctx, "failed to publish notification",
			slog.Uint64("recipient_id", uint64(n.RecipientID)),
			slog.String("error", err.Error()),
		)
	}
}

func excerpt(content string) string {
	if utf8.RuneCountInString(content) <= excerptLimit {
		return content
	}
	runes := []rune(content)
	return string(runes[:excerptLimit-1]) + "…"
}
