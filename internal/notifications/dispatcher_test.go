package notifications

import (
	"context"
	"strings"
	"testing"
	"time"

	"colloquy/internal/mentions"
	"colloquy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notificationRepoStub struct {
	created []*models.Notification
	err     error
}

func (s *notificationRepoStub) Create(_ context.Context, n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, n)
	return nil
}
func (s *notificationRepoStub) ListByRecipient(_ context.Context, _ uint, _, _ int) ([]*models.Notification, error) {
	return s.created, nil
}
func (s *notificationRepoStub) MarkRead(_ context.Context, _, _ uint) error { return nil }

type userRepoStub struct {
	users map[uint]*models.User
}

func (s *userRepoStub) Create(_ context.Context, _ *models.User) error { return nil }
func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, models.NewNotFoundError("User", id)
}
func (s *userRepoStub) GetByUsername(_ context.Context, name string) (*models.User, error) {
	return nil, models.NewNotFoundError("User", name)
}
func (s *userRepoStub) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return nil, models.NewNotFoundError("User", email)
}
func (s *userRepoStub) TrustProfile(_ context.Context, id uint) (*models.TrustProfile, error) {
	return &models.TrustProfile{UserID: id}, nil
}
func (s *userRepoStub) FindMentionCandidates(_ context.Context, _ []string) ([]models.User, error) {
	return nil, nil
}
func (s *userRepoStub) BumpCommentCounters(_ context.Context, _ uint, _ bool) error { return nil }
func (s *userRepoStub) MarkFlagged(_ context.Context, _ uint, _ time.Time) error    { return nil }

func ptr(v uint) *uint { return &v }

func testComment() *models.Comment {
	return &models.Comment{
		ID: 11, ArticleID: 3, AuthorID: ptr(1),
		Content: "good catch @janedoe", Status: models.StatusAutoApproved,
	}
}

func TestDispatchMentions(t *testing.T) {
	t.Parallel()

	t.Run("persists one record per resolved mention", func(t *testing.T) {
		t.Parallel()
		repo := &notificationRepoStub{}
		users := &userRepoStub{users: map[uint]*models.User{
			5: {ID: 5, MentionNotifications: true},
			6: {ID: 6, MentionNotifications: true},
		}}
		d := NewDispatcher(repo, users, nil, nil)

		d.DispatchMentions(context.Background(), testComment(), "Author", []mentions.Resolved{
			{UserID: 5, DisplayName: "Jane Doe", Token: "janedoe"},
			{UserID: 6, DisplayName: "Bob", Token: "bob"},
		})

		require.Len(t, repo.created, 2)
		n := repo.created[0]
		assert.Equal(t, uint(5), n.RecipientID)
		assert.Equal(t, models.NotificationMention, n.Kind)
		assert.Equal(t, uint(11), n.CommentID)
		assert.Equal(t, uint(3), n.ArticleID)
		assert.Equal(t, "Author", n.ActorName)
	})

	t.Run("opted-out recipients skipped", func(t *testing.T) {
		t.Parallel()
		repo := &notificationRepoStub{}
		users := &userRepoStub{users: map[uint]*models.User{
			5: {ID: 5, MentionNotifications: false},
		}}
		d := NewDispatcher(repo, users, nil, nil)

		d.DispatchMentions(context.Background(), testComment(), "Author", []mentions.Resolved{
			{UserID: 5, Token: "janedoe"},
		})
		assert.Empty(t, repo.created)
	})

	t.Run("missing recipient does not abort the batch", func(t *testing.T) {
		t.Parallel()
		repo := &notificationRepoStub{}
		users := &userRepoStub{users: map[uint]*models.User{
			6: {ID: 6, MentionNotifications: true},
		}}
		d := NewDispatcher(repo, users, nil, nil)

		d.DispatchMentions(context.Background(), testComment(), "Author", []mentions.Resolved{
			{UserID: 404, Token: "ghost"},
			{UserID: 6, Token: "bob"},
		})
		require.Len(t, repo.created, 1)
		assert.Equal(t, uint(6), repo.created[0].RecipientID)
	})
}

func TestDispatchReply(t *testing.T) {
	t.Parallel()

	repoFor := func() (*Dispatcher, *notificationRepoStub) {
		repo := &notificationRepoStub{}
		users := &userRepoStub{users: map[uint]*models.User{}}
		return NewDispatcher(repo, users, nil, nil), repo
	}

	t.Run("notifies parent author", func(t *testing.T) {
		t.Parallel()
		d, repo := repoFor()
		parent := &models.Comment{ID: 9, ArticleID: 3, AuthorID: ptr(8)}

		d.DispatchReply(context.Background(), testComment(), parent, "Author")
		require.Len(t, repo.created, 1)
		assert.Equal(t, uint(8), repo.created[0].RecipientID)
		assert.Equal(t, models.NotificationReply, repo.created[0].Kind)
	})

	t.Run("root comment produces nothing", func(t *testing.T) {
		t.Parallel()
		d, repo := repoFor()
		d.DispatchReply(context.Background(), testComment(), nil, "Author")
		assert.Empty(t, repo.created)
	})

	t.Run("guest parent produces nothing", func(t *testing.T) {
		t.Parallel()
		d, repo := repoFor()
		parent := &models.Comment{ID: 9, GuestName: "Visitor"}
		d.DispatchReply(context.Background(), testComment(), parent, "Author")
		assert.Empty(t, repo.created)
	})

	t.Run("self reply produces nothing", func(t *testing.T) {
		t.Parallel()
		d, repo := repoFor()
		parent := &models.Comment{ID: 9, AuthorID: ptr(1)} // same author as testComment
		d.DispatchReply(context.Background(), testComment(), parent, "Author")
		assert.Empty(t, repo.created)
	})
}

func TestExcerpt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", excerpt("short"))

	long := strings.Repeat("a", 300)
	got := excerpt(long)
	assert.Equal(t, excerptLimit, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:42", UserChannel(42))
}
