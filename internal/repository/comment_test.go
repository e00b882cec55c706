package repository

import (
	"context"
	"testing"

	"colloquy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "writer", "The Writer")

	t.Run("Create and GetByID preloads author", func(t *testing.T) {
		comment := &models.Comment{
			ArticleID: 1,
			AuthorID:  &author.ID,
			Content:   "first",
			Status:    models.StatusApproved,
		}
		require.NoError(t, repo.Create(ctx, comment))
		require.NotZero(t, comment.ID)

		got, err := repo.GetByID(ctx, comment.ID)
		require.NoError(t, err)
		assert.Equal(t, "first", got.Content)
		require.NotNil(t, got.Author)
		assert.Equal(t, "The Writer", got.Author.DisplayName)
	})

	t.Run("GetByID missing returns typed not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 9999)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})

	t.Run("ListByArticle returns oldest first, scoped to article", func(t *testing.T) {
		for _, content := range []string{"a", "b", "c"} {
			require.NoError(t, repo.Create(ctx, &models.Comment{
				ArticleID: 42, Content: content, Status: models.StatusApproved, GuestName: "g", GuestEmail: "g@e.com",
			}))
		}
		require.NoError(t, repo.Create(ctx, &models.Comment{
			ArticleID: 43, Content: "other article", Status: models.StatusApproved, GuestName: "g", GuestEmail: "g@e.com",
		}))

		comments, err := repo.ListByArticle(ctx, 42)
		require.NoError(t, err)
		require.Len(t, comments, 3)
		assert.Equal(t, "a", comments[0].Content)
		assert.Equal(t, "c", comments[2].Content)
	})

	t.Run("counters increment atomically", func(t *testing.T) {
		comment := &models.Comment{ArticleID: 7, Content: "counted", Status: models.StatusApproved, GuestName: "g", GuestEmail: "g@e.com"}
		require.NoError(t, repo.Create(ctx, comment))

		require.NoError(t, repo.IncrementReplyCount(ctx, comment.ID, 1))
		require.NoError(t, repo.IncrementReplyCount(ctx, comment.ID, 1))
		require.NoError(t, repo.IncrementLikeCount(ctx, comment.ID, 1))
		require.NoError(t, repo.IncrementLikeCount(ctx, comment.ID, -1))

		got, err := repo.GetByID(ctx, comment.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.ReplyCount)
		assert.Equal(t, 0, got.LikeCount)
	})

	t.Run("Update persists mention ids as CSV round trip", func(t *testing.T) {
		comment := &models.Comment{ArticleID: 8, Content: "with mentions", Status: models.StatusApproved, GuestName: "g", GuestEmail: "g@e.com"}
		require.NoError(t, repo.Create(ctx, comment))

		comment.MentionIDs = models.IDList{3, 5, 8}
		require.NoError(t, repo.Update(ctx, comment))

		got, err := repo.GetByID(ctx, comment.ID)
		require.NoError(t, err)
		assert.Equal(t, models.IDList{3, 5, 8}, got.MentionIDs)
	})
}
