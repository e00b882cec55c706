package repository

import (
	"context"
	"testing"
	"time"

	"colloquy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	recipient := createTestUser(t, db, "recipient", "Recipient")
	stranger := createTestUser(t, db, "stranger", "Stranger")

	seed := func(kind string, createdAt time.Time) *models.Notification {
		n := &models.Notification{
			RecipientID: recipient.ID,
			Kind:        kind,
			CommentID:   1,
			ArticleID:   1,
			Excerpt:     "hello",
			CreatedAt:   createdAt,
		}
		require.NoError(t, repo.Create(ctx, n))
		return n
	}

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	first := seed(models.NotificationMention, base)
	second := seed(models.NotificationReply, base.Add(time.Hour))

	t.Run("ListByRecipient newest first with paging", func(t *testing.T) {
		items, err := repo.ListByRecipient(ctx, recipient.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, second.ID, items[0].ID)
		assert.Equal(t, first.ID, items[1].ID)

		page, err := repo.ListByRecipient(ctx, recipient.ID, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, first.ID, page[0].ID)
	})

	t.Run("MarkRead only touches the recipient's own rows", func(t *testing.T) {
		require.NoError(t, repo.MarkRead(ctx, first.ID, stranger.ID))
		items, err := repo.ListByRecipient(ctx, recipient.ID, 10, 0)
		require.NoError(t, err)
		assert.Nil(t, items[1].ReadAt, "another user must not mark it read")

		require.NoError(t, repo.MarkRead(ctx, first.ID, recipient.ID))
		items, err = repo.ListByRecipient(ctx, recipient.ID, 10, 0)
		require.NoError(t, err)
		assert.NotNil(t, items[1].ReadAt)
	})
}
