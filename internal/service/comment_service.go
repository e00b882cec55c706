// Package service contains the business logic coordinating repositories,
// moderation, rate limiting, mentions, and notifications.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"colloquy/internal/config"
	"colloquy/internal/mentions"
	"colloquy/internal/middleware"
	"colloquy/internal/models"
	"colloquy/internal/moderation"
	"colloquy/internal/ratelimit"
	"colloquy/internal/repository"
	"colloquy/internal/thread"

	"github.com/google/uuid"
)

// Admitter decides whether a subject may perform an action right now.
type Admitter interface {
	Admit(ctx context.Context, subject, action string) ratelimit.Decision
}

// Classifier assigns a moderation status to submitted content.
type Classifier interface {
	Classify(content string, profile *models.TrustProfile, isGuest bool) moderation.Result
}

// Dispatcher fans out notifications for a persisted comment.
type Dispatcher interface {
	DispatchMentions(ctx context.Context, comment *models.Comment, actorName string, resolved []mentions.Resolved)
	DispatchReply(ctx context.Context, comment *models.Comment, parent *models.Comment, actorName string)
}

// CommentService coordinates the full comment lifecycle: admission, moderation,
// threading, persistence, and notification fan-out.
type CommentService struct {
	cfg        *config.Config
	comments   repository.CommentRepository
	users      repository.UserRepository
	reactions  repository.ReactionRepository
	limiter    Admitter
	engine     Classifier
	mentions   *mentions.Resolver
	dispatcher Dispatcher
	logger     *slog.Logger

	// isModerator is a function field so tests can stub privilege checks
	// without a user repository.
	isModerator func(ctx context.Context, userID uint) bool

	now func() time.Time
}

// NewCommentService creates a CommentService with all dependencies.
func NewCommentService(
	cfg *config.Config,
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	reactionRepo repository.ReactionRepository,
	limiter Admitter,
	engine Classifier,
	resolver *mentions.Resolver,
	dispatcher Dispatcher,
	logger *slog.Logger,
) *CommentService {
	if logger == nil {
		logger = middleware.Logger
	}
	s := &CommentService{
		cfg:        cfg,
		comments:   commentRepo,
		users:      userRepo,
		reactions:  reactionRepo,
		limiter:    limiter,
		engine:     engine,
		mentions:   resolver,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
	s.isModerator = func(ctx context.Context, userID uint) bool {
		user, err := userRepo.GetByID(ctx, userID)
		if err != nil {
			return false
		}
		return user.IsModerator()
	}
	return s
}

// SubmitCommentInput carries a new comment submission. AuthorID nil means a
// guest submission, which must carry GuestName and GuestEmail.
type SubmitCommentInput struct {
	ArticleID  uint
	ParentID   *uint
	Content    string
	AuthorID   *uint
	GuestName  string
	GuestEmail string
	ClientIP   string
}

// SubmitComment runs the full submission pipeline: validation, rate-limit
// admission, moderation classification, parent/depth resolution, persistence,
// and mention/reply notification dispatch.
func (s *CommentService) SubmitComment(ctx context.Context, input SubmitCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, models.NewValidationError("Comment content cannot be empty")
	}
	if len(content) > s.cfg.MaxCommentLen {
		return nil, models.NewValidationError(
			fmt.Sprintf("Comment exceeds maximum length of %d characters", s.cfg.MaxCommentLen))
	}

	isGuest := input.AuthorID == nil
	if isGuest {
		if strings.TrimSpace(input.GuestName) == "" {
			return nil, models.NewValidationError("Guest comments require a name")
		}
		if !strings.Contains(input.GuestEmail, "@") {
			return nil, models.NewValidationError("Guest comments require a valid email")
		}
	}

	subject := subjectKey(input.AuthorID, input.ClientIP)
	decision := s.limiter.Admit(ctx, subject, ratelimit.ActionComment)
	if !decision.Allowed {
		if decision.Blocked {
			return nil, models.NewBlockedError(decision.RetryAfter)
		}
		return nil, models.NewRateLimitedError(decision.RetryAfter)
	}

	var profile *models.TrustProfile
	var author *models.User
	if !isGuest {
		var err error
		author, err = s.users.GetByID(ctx, *input.AuthorID)
		if err != nil {
			return nil, err
		}
		profile, err = s.users.TrustProfile(ctx, *input.AuthorID)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
	}

	verdict := s.engine.Classify(content, profile, isGuest)
	middleware.ModerationOutcomes.WithLabelValues(verdict.Status).Inc()
	if verdict.Status == models.StatusRejected {
		// Rejected submissions are never persisted.
		return nil, models.NewBlockedError(s.cfg.BlockedRetryAfterSeconds)
	}

	comment := &models.Comment{
		ArticleID: input.ArticleID,
		AuthorID:  input.AuthorID,
		Content:   content,
		Status:    verdict.Status,
	}
	if isGuest {
		comment.GuestName = strings.TrimSpace(input.GuestName)
		comment.GuestEmail = strings.TrimSpace(input.GuestEmail)
		comment.GuestToken = uuid.NewString()
	}

	var parent *models.Comment
	if input.ParentID != nil {
		var err error
		parent, err = s.comments.GetByID(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.ArticleID != input.ArticleID {
			return nil, models.NewValidationError("Parent comment belongs to a different article")
		}
		if parent.Deleted || !parent.Visible() {
			return nil, models.NewValidationError("Cannot reply to this comment")
		}
		comment.ParentID = input.ParentID
		// Replies below the depth ceiling attach at the ceiling instead of
		// being rejected, flattening deep chains.
		comment.Depth = parent.Depth + 1
		if comment.Depth > s.cfg.MaxThreadDepth {
			comment.Depth = s.cfg.MaxThreadDepth
		}
	}

	if verdict.Status == models.StatusFlagged && !isGuest {
		if err := s.users.MarkFlagged(ctx, *input.AuthorID, s.now()); err != nil {
			s.logger.WarnContext(ctx, "failed to record flag timestamp",
				slog.Uint64("user_id", uint64(*input.AuthorID)),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}
	comment.Author = author

	kind := "root"
	if comment.ParentID != nil {
		kind = "reply"
	}
	middleware.CommentsSubmitted.WithLabelValues(kind).Inc()

	if !isGuest {
		if err := s.users.BumpCommentCounters(ctx, *input.AuthorID, comment.Status == models.StatusAutoApproved); err != nil {
			s.logger.WarnContext(ctx, "failed to bump comment counters",
				slog.Uint64("user_id", uint64(*input.AuthorID)),
				slog.String("error", err.Error()),
			)
		}
	}
	if parent != nil {
		if err := s.comments.IncrementReplyCount(ctx, parent.ID, 1); err != nil {
			s.logger.WarnContext(ctx, "failed to bump reply count",
				slog.Uint64("parent_id", uint64(parent.ID)),
				slog.String("error", err.Error()),
			)
		}
	}

	resolved := s.resolveMentions(ctx, comment)

	// Notifications only fire for comments readers can actually see; a held
	// comment dispatches nothing until a moderator approves it.
	if comment.Visible() && s.dispatcher != nil {
		actor := s.actorName(comment)
		s.dispatcher.DispatchMentions(ctx, comment, actor, resolved)
		s.dispatcher.DispatchReply(ctx, comment, parent, actor)
	}

	return comment, nil
}

// EditCommentInput identifies the comment, the actor, and the new content.
// Guests authenticate edits with the token returned at submission.
type EditCommentInput struct {
	CommentID  uint
	ActorID    *uint
	GuestToken string
	Content    string
}

// EditComment replaces a comment's content. Only the author may edit, and only
// inside the edit window; moderators are exempt from the window but still may
// not edit others' comments. Edits do not re-run moderation, but mentions are
// re-resolved when the content changed and users mentioned for the first time
// are notified.
func (s *CommentService) EditComment(ctx context.Context, input EditCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, models.NewValidationError("Comment content cannot be empty")
	}
	if len(content) > s.cfg.MaxCommentLen {
		return nil, models.NewValidationError(
			fmt.Sprintf("Comment exceeds maximum length of %d characters", s.cfg.MaxCommentLen))
	}

	comment, err := s.comments.GetByID(ctx, input.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.Deleted {
		return nil, models.NewNotFoundError("Comment", input.CommentID)
	}
	if !s.ownedBy(comment, input.ActorID, input.GuestToken) {
		return nil, models.NewUnauthorizedError("Only the author can edit this comment")
	}

	moderator := input.ActorID != nil && s.isModerator(ctx, *input.ActorID)
	if !moderator && s.now().Sub(comment.CreatedAt) > s.cfg.EditWindow() {
		return nil, models.NewWindowExpiredError(
			fmt.Sprintf("Comments can only be edited within %d minutes of posting", s.cfg.EditWindowMinutes))
	}

	changed := comment.Content != content
	comment.Content = content
	comment.Edited = true
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	if changed {
		prior := make(map[uint]bool, len(comment.MentionIDs))
		for _, id := range comment.MentionIDs {
			prior[id] = true
		}
		resolved := s.resolveMentions(ctx, comment)

		// Users mentioned for the first time by this edit are notified;
		// mentions that survived from the previous content are not re-sent.
		if comment.Visible() && s.dispatcher != nil {
			added := make([]mentions.Resolved, 0, len(resolved))
			for _, m := range resolved {
				if !prior[m.UserID] {
					added = append(added, m)
				}
			}
			if len(added) > 0 {
				s.dispatcher.DispatchMentions(ctx, comment, s.actorName(comment), added)
			}
		}
	}
	return comment, nil
}

// DeleteCommentInput identifies the comment and the actor requesting deletion.
type DeleteCommentInput struct {
	CommentID  uint
	ActorID    *uint
	GuestToken string
}

// DeleteComment soft-deletes a comment. The author may delete within the edit
// window; moderators may delete any comment at any time. The row is retained
// as a tombstone so descendant replies keep their anchor.
func (s *CommentService) DeleteComment(ctx context.Context, input DeleteCommentInput) error {
	comment, err := s.comments.GetByID(ctx, input.CommentID)
	if err != nil {
		return err
	}
	if comment.Deleted {
		return models.NewNotFoundError("Comment", input.CommentID)
	}

	moderator := input.ActorID != nil && s.isModerator(ctx, *input.ActorID)
	if !moderator {
		if !s.ownedBy(comment, input.ActorID, input.GuestToken) {
			return models.NewUnauthorizedError("Only the author can delete this comment")
		}
		if s.now().Sub(comment.CreatedAt) > s.cfg.EditWindow() {
			return models.NewWindowExpiredError(
				fmt.Sprintf("Comments can only be deleted within %d minutes of posting", s.cfg.EditWindowMinutes))
		}
	}

	now := s.now()
	comment.Deleted = true
	comment.DeletedBy = input.ActorID
	comment.DeletedOn = &now
	if err := s.comments.Update(ctx, comment); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListComments returns the article's comment forest in the requested sort
// mode. Readers see approved comments plus their own held ones; deleted
// comments appear as tombstones so reply chains stay intact.
func (s *CommentService) ListComments(
	ctx context.Context, articleID uint, sortMode string, viewerID *uint, guestToken string,
) ([]*models.CommentNode, error) {
	all, err := s.comments.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	visible := make([]*models.Comment, 0, len(all))
	for _, c := range all {
		switch {
		case c.Deleted:
			t := c.Tombstone()
			visible = append(visible, &t)
		case c.Visible() || s.ownedBy(c, viewerID, guestToken):
			visible = append(visible, c)
		}
	}

	return thread.Build(visible, sortMode), nil
}

// ReactionResult reports the state after a toggle.
type ReactionResult struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`
}

// ToggleReaction flips the caller's reaction of the given type on a comment.
// Reactions require an account; each reaction type is rate limited under its
// own action bucket.
func (s *CommentService) ToggleReaction(
	ctx context.Context, commentID, userID uint, reactionType, clientIP string,
) (*ReactionResult, error) {
	if !models.ValidReactionType(reactionType) {
		return nil, models.NewValidationError("Unknown reaction type: " + reactionType)
	}

	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.Deleted || !comment.Visible() {
		return nil, models.NewValidationError("Cannot react to this comment")
	}

	subject := subjectKey(&userID, clientIP)
	decision := s.limiter.Admit(ctx, subject, reactionAction(reactionType))
	if !decision.Allowed {
		if decision.Blocked {
			return nil, models.NewBlockedError(decision.RetryAfter)
		}
		return nil, models.NewRateLimitedError(decision.RetryAfter)
	}

	active, err := s.reactions.Toggle(ctx, commentID, userID, reactionType)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if reactionType == models.ReactionLike {
		delta := 1
		if !active {
			delta = -1
		}
		if err := s.comments.IncrementLikeCount(ctx, commentID, delta); err != nil {
			s.logger.WarnContext(ctx, "failed to adjust like count",
				slog.Uint64("comment_id", uint64(commentID)),
				slog.String("error", err.Error()),
			)
		}
	}

	count, err := s.reactions.Count(ctx, commentID, reactionType)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &ReactionResult{Active: active, Count: count}, nil
}

// resolveMentions extracts and resolves mentions in the comment, writes the
// resolved ids back onto the row, and returns the resolutions for dispatch.
// Lookup failures degrade to no mentions.
func (s *CommentService) resolveMentions(ctx context.Context, comment *models.Comment) []mentions.Resolved {
	resolved := s.resolved(ctx, comment)

	ids := make(models.IDList, 0, len(resolved))
	for _, m := range resolved {
		ids = append(ids, m.UserID)
	}
	if len(ids) == 0 && len(comment.MentionIDs) == 0 {
		return resolved
	}
	comment.MentionIDs = ids
	if err := s.comments.Update(ctx, comment); err != nil {
		s.logger.WarnContext(ctx, "failed to persist mention ids",
			slog.Uint64("comment_id", uint64(comment.ID)),
			slog.String("error", err.Error()),
		)
	}
	return resolved
}

func (s *CommentService) resolved(ctx context.Context, comment *models.Comment) []mentions.Resolved {
	tokens := s.mentions.Extract(comment.Content)
	if len(tokens) == 0 {
		return nil
	}
	candidates, err := s.users.FindMentionCandidates(ctx, tokens)
	if err != nil {
		s.logger.WarnContext(ctx, "mention candidate lookup failed",
			slog.String("error", err.Error()))
		return nil
	}
	return s.mentions.Resolve(comment.Content, candidates, comment.AuthorID)
}

func (s *CommentService) actorName(comment *models.Comment) string {
	if comment.Author != nil {
		return comment.Author.DisplayName
	}
	return comment.GuestName
}

// ownedBy reports whether the actor owns the comment: matching author id for
// registered authors, matching guest token for guest comments.
func (s *CommentService) ownedBy(comment *models.Comment, actorID *uint, guestToken string) bool {
	if comment.AuthorID != nil {
		return actorID != nil && *actorID == *comment.AuthorID
	}
	return guestToken != "" && comment.GuestToken == guestToken
}

// subjectKey derives the rate-limit subject: registered users by id, guests by
// client IP.
func subjectKey(userID *uint, clientIP string) string {
	if userID != nil {
		return fmt.Sprintf("user:%d", *userID)
	}
	return "guest:" + clientIP
}

func reactionAction(reactionType string) string {
	switch reactionType {
	case models.ReactionLike:
		return ratelimit.ActionLike
	case models.ReactionBookmark:
		return ratelimit.ActionBookmark
	}
	return ratelimit.ActionReaction
}
